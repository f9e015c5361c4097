package gameservice

import "sync"

const lockStripes = 64

// chatLocks serializes work per chat id with a striped mutex set. Work for
// different chats proceeds in parallel; two updates for the same chat never
// race on game state within this process.
type chatLocks struct {
	stripes [lockStripes]sync.Mutex
}

func newChatLocks() *chatLocks {
	return &chatLocks{}
}

// lock acquires the stripe for the chat and returns the unlock function.
func (c *chatLocks) lock(chatID int64) func() {
	stripe := &c.stripes[uint64(chatID)%lockStripes]
	stripe.Lock()
	return stripe.Unlock
}
