package sender

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/EugeneDlg/wwwbot/app/eventbus"
	gamedto "github.com/EugeneDlg/wwwbot/app/modules/game/dto"
	"github.com/EugeneDlg/wwwbot/app/vk"
)

// API is the part of the VK client the sender consumes.
type API interface {
	GetUser(ctx context.Context, userID int64) (*vk.User, error)
	SendMessage(ctx context.Context, peerID int64, text, keyboard string) error
	SendEventAnswer(ctx context.Context, eventID string, userID, peerID int64, eventData string) error
}

// Module consumes outbound envelopes and performs the VK API calls. Profile
// lookup requests are answered by publishing the profile back onto the
// inbound queue for the engine.
type Module struct {
	api    API
	bus    eventbus.EventBus
	logger *slog.Logger
}

// NewModule creates a sender module and registers its handler on the router.
func NewModule(api API, bus eventbus.EventBus, router *message.Router, logger *slog.Logger) *Module {
	m := &Module{
		api:    api,
		bus:    bus,
		logger: logger,
	}
	router.AddNoPublisherHandler(
		"sender."+eventbus.TopicOutbound,
		eventbus.TopicOutbound,
		bus,
		m.HandleOutbound,
	)
	return m
}

// HandleOutbound delivers one outbound envelope.
func (m *Module) HandleOutbound(msg *message.Message) error {
	ctx := msg.Context()

	var out gamedto.Message
	if err := json.Unmarshal(msg.Payload, &out); err != nil {
		m.logger.Error("dropping unparseable outbound message",
			slog.String("message_id", msg.UUID),
			slog.Any("error", err),
		)
		return nil
	}

	switch {
	case out.VKUserRequest != 0:
		return m.answerProfileRequest(ctx, out)
	case out.EventData != nil:
		return m.answerEvent(ctx, out)
	default:
		if err := m.api.SendMessage(ctx, out.PeerID, out.Text, out.Keyboard); err != nil {
			return fmt.Errorf("failed to send message to peer %d: %w", out.PeerID, err)
		}
		return nil
	}
}

// answerEvent acknowledges a button press with a snackbar.
func (m *Module) answerEvent(ctx context.Context, out gamedto.Message) error {
	eventData, err := json.Marshal(struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}{Type: out.EventData.Type, Text: out.Text})
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}
	if err := m.api.SendEventAnswer(ctx, out.EventID, out.UserID, out.PeerID, string(eventData)); err != nil {
		return fmt.Errorf("failed to answer event %s: %w", out.EventID, err)
	}
	return nil
}

// answerProfileRequest fetches the user's profile and echoes it onto the
// inbound queue so the engine can complete the registration.
func (m *Module) answerProfileRequest(ctx context.Context, out gamedto.Message) error {
	user, err := m.api.GetUser(ctx, out.VKUserRequest)
	if err != nil {
		return fmt.Errorf("failed to fetch profile of user %d: %w", out.VKUserRequest, err)
	}

	echo, err := json.Marshal(struct {
		Type          string `json:"type"`
		VKUserRequest int64  `json:"vk_user_request"`
		FirstName     string `json:"first_name"`
		LastName      string `json:"last_name"`
		PeerID        int64  `json:"peer_id"`
		EventID       string `json:"event_id"`
	}{
		Type:          string(gamedto.TypeProfileReply),
		VKUserRequest: user.ID,
		FirstName:     user.FirstName,
		LastName:      user.LastName,
		PeerID:        out.PeerID,
		EventID:       out.EventID,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal profile echo: %w", err)
	}

	wmMsg := message.NewMessage(watermill.NewUUID(), echo)
	wmMsg.SetContext(ctx)
	if err := m.bus.Publish(eventbus.TopicUpdates, wmMsg); err != nil {
		return fmt.Errorf("failed to publish profile echo: %w", err)
	}
	return nil
}
