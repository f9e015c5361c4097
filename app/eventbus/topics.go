package eventbus

// Queue topics shared by every process. The poller publishes raw platform
// updates, the engine publishes outbound envelopes and consumes both updates
// and timer firings, the sender consumes outbound envelopes.
const (
	TopicUpdates      = "vk.updates"
	TopicOutbound     = "vk.outbound"
	TopicTimerExpired = "game.timer.expired"
)

// StreamName is the JetStream stream holding all game subjects.
const StreamName = "wwwgame"
