package game

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/uptrace/bun"

	"github.com/EugeneDlg/wwwbot/app/eventbus"
	gameservice "github.com/EugeneDlg/wwwbot/app/modules/game/application"
	gamequeue "github.com/EugeneDlg/wwwbot/app/modules/game/infrastructure/queue"
	gamedb "github.com/EugeneDlg/wwwbot/app/modules/game/infrastructure/repositories"
	gamerouter "github.com/EugeneDlg/wwwbot/app/modules/game/infrastructure/router"
	"github.com/EugeneDlg/wwwbot/config"
)

// Module bundles the game engine: service, timer queue and message routing.
type Module struct {
	Service gameservice.Service
	Timers  gamequeue.TimerScheduler
	Router  *gamerouter.GameRouter
	logger  *slog.Logger
}

// NewGameModule wires the game module onto the shared router and event bus.
func NewGameModule(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	bus eventbus.EventBus,
	router *message.Router,
	db *bun.DB,
	prometheusRegistry *prometheus.Registry,
) (*Module, error) {
	repo := gamedb.NewGameDB(db)
	outbox := gameservice.NewBusOutbox(bus)

	timers, err := gamequeue.NewService(ctx, db, bus, logger, cfg.Postgres.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to create timer queue: %w", err)
	}

	service := gameservice.NewGameService(repo, outbox, timers, cfg.Game, logger)

	gameRouter := gamerouter.NewGameRouter(logger, router, bus, prometheusRegistry)
	if err := gameRouter.Configure(ctx, service, outbox); err != nil {
		return nil, fmt.Errorf("failed to configure game router: %w", err)
	}

	return &Module{
		Service: service,
		Timers:  timers,
		Router:  gameRouter,
		logger:  logger,
	}, nil
}

// Run starts the timer queue workers and blocks until the context is done.
func (m *Module) Run(ctx context.Context) error {
	if err := m.Timers.Start(ctx); err != nil {
		return fmt.Errorf("failed to start timer queue: %w", err)
	}
	m.logger.Info("game module started")
	<-ctx.Done()
	return nil
}

// Close stops the timer queue.
func (m *Module) Close(ctx context.Context) error {
	return m.Timers.Stop(ctx)
}
