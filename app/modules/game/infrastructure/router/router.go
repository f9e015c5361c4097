package gamerouter

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/ThreeDotsLabs/watermill/components/metrics"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/EugeneDlg/wwwbot/app/eventbus"
	gameservice "github.com/EugeneDlg/wwwbot/app/modules/game/application"
	gamehandlers "github.com/EugeneDlg/wwwbot/app/modules/game/infrastructure/handlers"
)

const (
	// TestEnvironmentFlag is the flag to check if we're in a test environment
	TestEnvironmentFlag  = "APP_ENV"
	TestEnvironmentValue = "test"
)

// GameRouter wires the game module's handlers onto the shared Watermill
// router.
type GameRouter struct {
	logger         *slog.Logger
	Router         *message.Router
	subscriber     eventbus.EventBus
	metricsBuilder *metrics.PrometheusMetricsBuilder
	metricsEnabled bool
}

// NewGameRouter creates a new GameRouter. Router metrics are enabled only
// when a Prometheus registry is provided and we are not in a test
// environment.
func NewGameRouter(
	logger *slog.Logger,
	router *message.Router,
	subscriber eventbus.EventBus,
	prometheusRegistry *prometheus.Registry,
) *GameRouter {
	inTestEnv := os.Getenv(TestEnvironmentFlag) == TestEnvironmentValue

	var metricsBuilder *metrics.PrometheusMetricsBuilder
	if prometheusRegistry != nil && !inTestEnv {
		builder := metrics.NewPrometheusMetricsBuilder(prometheusRegistry, "", "")
		metricsBuilder = &builder
	}

	return &GameRouter{
		logger:         logger,
		Router:         router,
		subscriber:     subscriber,
		metricsBuilder: metricsBuilder,
		metricsEnabled: prometheusRegistry != nil && !inTestEnv,
	}
}

// Configure registers the game module's handlers.
func (r *GameRouter) Configure(ctx context.Context, service gameservice.Service, outbox gameservice.Outbox) error {
	if r.metricsEnabled && r.metricsBuilder != nil {
		r.logger.Info("adding Prometheus router metrics middleware")
		r.metricsBuilder.AddPrometheusRouterMetrics(r.Router)
	}

	handlers := gamehandlers.NewGameHandlers(service, outbox, r.logger)
	if err := r.registerHandlers(handlers); err != nil {
		return fmt.Errorf("failed to register handlers: %w", err)
	}
	return nil
}

func (r *GameRouter) registerHandlers(handlers gamehandlers.Handlers) error {
	r.Router.AddNoPublisherHandler(
		"game."+eventbus.TopicUpdates,
		eventbus.TopicUpdates,
		r.subscriber,
		handlers.HandleUpdate,
	)
	r.Router.AddNoPublisherHandler(
		"game."+eventbus.TopicTimerExpired,
		eventbus.TopicTimerExpired,
		r.subscriber,
		handlers.HandleTimerExpired,
	)
	return nil
}

// Close stops the router.
func (r *GameRouter) Close() error {
	return r.Router.Close()
}
