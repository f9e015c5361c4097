package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/EugeneDlg/wwwbot/app/eventbus"
	"github.com/EugeneDlg/wwwbot/app/modules/poller"
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

	client := vk.NewClient(cfg.VK.Token, cfg.VK.GroupID, logger)
	module := poller.NewModule(client, bus, logger)

	if err := module.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("poller stopped with error", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("poller shut down")
}
