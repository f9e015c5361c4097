package gamehandlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ThreeDotsLabs/watermill/message"

	gameservice "github.com/EugeneDlg/wwwbot/app/modules/game/application"
	gamedomain "github.com/EugeneDlg/wwwbot/app/modules/game/domain"
	gamedto "github.com/EugeneDlg/wwwbot/app/modules/game/dto"
	gameevents "github.com/EugeneDlg/wwwbot/app/modules/game/events"
)

// GameHandlers consumes inbound updates and timer expiries and drives the
// game service. Rule violations become outbound messages; anything else is an
// infrastructure error and is returned for the router's retry middleware.
type GameHandlers struct {
	service gameservice.Service
	outbox  gameservice.Outbox
	logger  *slog.Logger
}

var _ Handlers = (*GameHandlers)(nil)

// NewGameHandlers creates a new GameHandlers.
func NewGameHandlers(service gameservice.Service, outbox gameservice.Outbox, logger *slog.Logger) *GameHandlers {
	return &GameHandlers{
		service: service,
		outbox:  outbox,
		logger:  logger,
	}
}

// HandleUpdate dispatches one raw inbound update.
func (h *GameHandlers) HandleUpdate(msg *message.Message) error {
	ctx := msg.Context()

	update, err := gamedto.ParseUpdate(msg.Payload)
	if err != nil {
		// Malformed or foreign updates are dropped, not retried.
		h.logger.Debug("dropping unparseable update",
			slog.String("message_id", msg.UUID),
			slog.Any("error", err),
		)
		return nil
	}

	switch update.Type {
	case gamedto.TypeMessageNew:
		err = h.handleMessage(ctx, *update.Message)
	case gamedto.TypeMessageEvent:
		err = h.handleButton(ctx, *update.Event)
	case gamedto.TypeProfileReply:
		err = h.service.CompleteRegistration(ctx, *update.ProfileReply)
	default:
		return nil
	}

	if ruleErr, ok := gamedomain.AsRuleError(err); ok {
		return h.replyRuleError(ctx, update, ruleErr)
	}
	if err != nil {
		h.logger.Error("failed to handle update",
			slog.String("message_id", msg.UUID),
			slog.String("type", string(update.Type)),
			slog.Any("error", err),
		)
		return err
	}
	return nil
}

func (h *GameHandlers) handleButton(ctx context.Context, ev gamedto.ButtonEvent) error {
	cmd := gamedomain.ParseCommand(ev.Command)
	switch cmd.Kind {
	case gamedomain.CommandRegister, gamedomain.CommandAgain:
		ok, err := h.service.EnsureQuestionsAvailable(ctx, ev.PeerID)
		if err != nil || !ok {
			return err
		}
	}

	switch cmd.Kind {
	case gamedomain.CommandRegister:
		return h.service.Register(ctx, ev)
	case gamedomain.CommandStart:
		return h.service.Start(ctx, ev)
	case gamedomain.CommandTop:
		return h.service.SpinTop(ctx, ev)
	case gamedomain.CommandSpeaker:
		return h.service.SelectSpeaker(ctx, ev, cmd.SpeakerVKID)
	case gamedomain.CommandAgain:
		return h.service.PlayAgain(ctx, ev)
	}
	h.logger.Debug("dropping unknown button command", slog.String("command", ev.Command))
	return nil
}

func (h *GameHandlers) handleMessage(ctx context.Context, msg gamedto.NewMessage) error {
	switch strings.ToLower(strings.TrimSpace(msg.Text)) {
	case gamedomain.TextHello:
		ok, err := h.service.EnsureQuestionsAvailable(ctx, msg.PeerID)
		if err != nil || !ok {
			return err
		}
		return h.service.Hello(ctx, msg)
	case gamedomain.TextHelp:
		return h.service.Help(ctx, msg)
	case gamedomain.TextScores:
		return h.service.Scores(ctx, msg)
	case gamedomain.TextFinish:
		return h.service.Finish(ctx, msg)
	}
	return h.service.SubmitAnswer(ctx, msg)
}

// HandleTimerExpired applies one fired game timer.
func (h *GameHandlers) HandleTimerExpired(msg *message.Message) error {
	var payload gameevents.TimerExpiredPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		h.logger.Error("dropping unparseable timer expiry",
			slog.String("message_id", msg.UUID),
			slog.Any("error", err),
		)
		return nil
	}
	if err := h.service.HandleTimerExpired(msg.Context(), payload); err != nil {
		h.logger.Error("failed to handle timer expiry",
			slog.Int64("game_id", payload.GameID),
			slog.String("kind", string(payload.Kind)),
			slog.Any("error", err),
		)
		return err
	}
	return nil
}

// replyRuleError turns a rule violation into a user-visible message: a
// transient snackbar for ephemeral errors on button presses, a chat message
// otherwise.
func (h *GameHandlers) replyRuleError(ctx context.Context, update gamedto.Update, ruleErr *gamedomain.RuleError) error {
	out := gamedto.Message{Text: ruleErr.Text}
	switch {
	case update.Event != nil && ruleErr.Ephemeral:
		out.PeerID = update.Event.PeerID
		out.UserID = update.Event.UserID
		out.EventID = update.Event.EventID
		out.EventData = &gamedto.EventData{Type: "show_snackbar"}
	case update.Event != nil:
		out.PeerID = update.Event.PeerID
	case update.Message != nil:
		out.PeerID = update.Message.PeerID
	case update.ProfileReply != nil:
		out.PeerID = update.ProfileReply.PeerID
	default:
		return errors.New("rule error without an addressable update")
	}
	if err := h.outbox.Send(ctx, out); err != nil {
		return fmt.Errorf("failed to send rule error reply: %w", err)
	}
	return nil
}
