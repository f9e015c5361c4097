package gamehandlers

import (
	"github.com/ThreeDotsLabs/watermill/message"
)

// Handlers is the game module's message-handling surface, one method per
// consumed topic.
type Handlers interface {
	HandleUpdate(msg *message.Message) error
	HandleTimerExpired(msg *message.Message) error
}
