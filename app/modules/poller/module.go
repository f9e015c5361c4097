package poller

import (
	"context"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/EugeneDlg/wwwbot/app/eventbus"
	"github.com/EugeneDlg/wwwbot/app/vk"
)

const (
	pollWaitSeconds = 25
	retryBackoff    = 3 * time.Second
)

// LongPoller is the part of the VK client the poller consumes.
type LongPoller interface {
	GetLongPollServer(ctx context.Context) (*vk.LongPollServer, error)
	Poll(ctx context.Context, server *vk.LongPollServer, wait int) (*vk.PollResult, error)
}

// Module reads updates from VK long polling and publishes each raw update
// onto the durable inbound queue. It holds no game logic; crashing and
// restarting loses at most the in-flight poll.
type Module struct {
	client LongPoller
	bus    eventbus.EventBus
	logger *slog.Logger
}

// NewModule creates a poller module.
func NewModule(client LongPoller, bus eventbus.EventBus, logger *slog.Logger) *Module {
	return &Module{
		client: client,
		bus:    bus,
		logger: logger,
	}
}

// Run polls until the context is cancelled. Long poll session failures
// refresh the server credentials per the VK protocol.
func (m *Module) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		server, err := m.client.GetLongPollServer(ctx)
		if err != nil {
			m.logger.Error("failed to get long poll server", slog.Any("error", err))
			if !sleep(ctx, retryBackoff) {
				return ctx.Err()
			}
			continue
		}
		m.logger.Info("long poll session started", slog.String("ts", server.TS))

		if err := m.pollSession(ctx, server); err != nil {
			return err
		}
	}
}

// pollSession loops on one long poll session until it needs to be refreshed.
func (m *Module) pollSession(ctx context.Context, server *vk.LongPollServer) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		result, err := m.client.Poll(ctx, server, pollWaitSeconds)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			m.logger.Error("poll failed", slog.Any("error", err))
			if !sleep(ctx, retryBackoff) {
				return ctx.Err()
			}
			continue
		}

		switch result.Failed {
		case 0:
			server.TS = result.TS
		case 1:
			// History is partially outdated; advance the cursor and go on.
			server.TS = result.TS
			continue
		default:
			// Key expired or information lost; start a new session.
			m.logger.Warn("long poll session invalidated", slog.Int("failed", result.Failed))
			return nil
		}

		for _, update := range result.Updates {
			msg := message.NewMessage(watermill.NewUUID(), []byte(update))
			msg.SetContext(ctx)
			if err := m.bus.Publish(eventbus.TopicUpdates, msg); err != nil {
				m.logger.Error("failed to publish update", slog.Any("error", err))
				return err
			}
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
