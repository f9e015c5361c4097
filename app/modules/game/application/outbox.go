package gameservice

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/EugeneDlg/wwwbot/app/eventbus"
	gamedto "github.com/EugeneDlg/wwwbot/app/modules/game/dto"
)

// Outbox publishes outbound envelopes for the sender process.
type Outbox interface {
	Send(ctx context.Context, msg gamedto.Message) error
}

type busOutbox struct {
	bus eventbus.EventBus
}

// NewBusOutbox returns an Outbox publishing onto the outbound queue topic.
func NewBusOutbox(bus eventbus.EventBus) Outbox {
	return &busOutbox{bus: bus}
}

func (o *busOutbox) Send(ctx context.Context, msg gamedto.Message) error {
	payload, err := msg.Marshal()
	if err != nil {
		return fmt.Errorf("failed to marshal outbound message: %w", err)
	}
	wmMsg := message.NewMessage(watermill.NewUUID(), payload)
	wmMsg.SetContext(ctx)
	if err := o.bus.Publish(eventbus.TopicOutbound, wmMsg); err != nil {
		return fmt.Errorf("failed to publish outbound message: %w", err)
	}
	return nil
}

// sendText publishes a plain chat message.
func (s *GameService) sendText(ctx context.Context, peerID int64, text string) error {
	return s.outbox.Send(ctx, gamedto.Message{Text: text, PeerID: peerID})
}

// sendKeyboard publishes a chat message with a callback keyboard. An empty
// button list clears the previous keyboard.
func (s *GameService) sendKeyboard(ctx context.Context, peerID int64, text string, buttons ...gamedto.Button) error {
	return s.outbox.Send(ctx, gamedto.Message{
		Text:     text,
		PeerID:   peerID,
		Keyboard: gamedto.BuildKeyboard(buttons...),
	})
}

// sendSnackbar acknowledges a button press with a transient popup.
func (s *GameService) sendSnackbar(ctx context.Context, ev gamedto.ButtonEvent, text string) error {
	return s.outbox.Send(ctx, gamedto.Message{
		Text:      text,
		PeerID:    ev.PeerID,
		UserID:    ev.UserID,
		EventID:   ev.EventID,
		EventData: &gamedto.EventData{Type: "show_snackbar"},
	})
}
