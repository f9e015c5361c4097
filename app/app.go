package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/EugeneDlg/wwwbot/app/eventbus"
	"github.com/EugeneDlg/wwwbot/app/modules/game"
	"github.com/EugeneDlg/wwwbot/config"
)

// App is the game engine process: the Watermill router consuming the inbound
// and timer queues, the game module and the metrics endpoint.
type App struct {
	Config     *config.Config
	Logger     *slog.Logger
	DB         *bun.DB
	EventBus   eventbus.EventBus
	Router     *message.Router
	GameModule *game.Module

	registry      *prometheus.Registry
	metricsServer *http.Server
}

// Initialize sets up all engine dependencies.
func (app *App) Initialize(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	app.Config = cfg
	app.Logger = logger

	pgdb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Postgres.DSN)))
	app.DB = bun.NewDB(pgdb, pgdialect.New())
	if err := app.DB.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	bus, err := eventbus.NewEventBus(ctx, cfg.NATS.URL, logger)
	if err != nil {
		return fmt.Errorf("failed to create event bus: %w", err)
	}
	app.EventBus = bus

	watermillLogger := watermill.NewSlogLogger(logger)
	router, err := message.NewRouter(message.RouterConfig{}, watermillLogger)
	if err != nil {
		return fmt.Errorf("failed to create router: %w", err)
	}
	router.AddMiddleware(
		middleware.CorrelationID,
		middleware.Retry{
			MaxRetries:      3,
			InitialInterval: 100 * time.Millisecond,
			Logger:          watermillLogger,
		}.Middleware,
		middleware.Recoverer,
	)
	app.Router = router

	app.registry = prometheus.NewRegistry()

	gameModule, err := game.NewGameModule(ctx, cfg, logger, bus, router, app.DB, app.registry)
	if err != nil {
		return fmt.Errorf("failed to create game module: %w", err)
	}
	app.GameModule = gameModule

	if cfg.Metrics.Address != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(app.registry, promhttp.HandlerOpts{}))
		app.metricsServer = &http.Server{
			Addr:              cfg.Metrics.Address,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		}
	}
	return nil
}

// Run starts the timer workers, the metrics endpoint and the router, and
// blocks until the context is cancelled or a component fails.
func (app *App) Run(ctx context.Context) error {
	if err := app.GameModule.Timers.Start(ctx); err != nil {
		return fmt.Errorf("failed to start timer queue: %w", err)
	}

	if app.metricsServer != nil {
		go func() {
			app.Logger.Info("metrics endpoint listening", slog.String("addr", app.metricsServer.Addr))
			if err := app.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				app.Logger.Error("metrics server failed", slog.Any("error", err))
			}
		}()
	}

	app.Logger.Info("engine started")
	return app.Router.Run(ctx)
}

// Close shuts everything down in reverse dependency order.
func (app *App) Close(ctx context.Context) {
	if err := app.Router.Close(); err != nil {
		app.Logger.Error("failed to close router", slog.Any("error", err))
	}
	if err := app.GameModule.Close(ctx); err != nil {
		app.Logger.Error("failed to close game module", slog.Any("error", err))
	}
	if app.metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := app.metricsServer.Shutdown(shutdownCtx); err != nil {
			app.Logger.Error("failed to shut down metrics server", slog.Any("error", err))
		}
		cancel()
	}
	if err := app.EventBus.Close(); err != nil {
		app.Logger.Error("failed to close event bus", slog.Any("error", err))
	}
	if err := app.DB.Close(); err != nil {
		app.Logger.Error("failed to close database", slog.Any("error", err))
	}
}
