package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"

	"github.com/EugeneDlg/wwwbot/app/eventbus"
	"github.com/EugeneDlg/wwwbot/app/modules/sender"
	"github.com/EugeneDlg/wwwbot/app/vk"
	"github.com/EugeneDlg/wwwbot/config"
)

func main() {
	configFile := flag.String("config", "config.yaml", "Path to the configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if cfg.VK.Token == "" || cfg.VK.GroupID == 0 {
		log.Fatal("VK token and group id must be configured")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bus, err := eventbus.NewEventBus(ctx, cfg.NATS.URL, logger)
	if err != nil {
		log.Fatalf("failed to create event bus: %v", err)
	}
	defer bus.Close()

	watermillLogger := watermill.NewSlogLogger(logger)
	router, err := message.NewRouter(message.RouterConfig{}, watermillLogger)
	if err != nil {
		log.Fatalf("failed to create router: %v", err)
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

	client := vk.NewClient(cfg.VK.Token, cfg.VK.GroupID, logger)
	sender.NewModule(client, bus, router, logger)

	logger.Info("sender started")
	if err := router.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("sender stopped with error", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("sender shut down")
}
