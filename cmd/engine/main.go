package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/EugeneDlg/wwwbot/app"
	"github.com/EugeneDlg/wwwbot/config"
)

func main() {
	configFile := flag.String("config", "config.yaml", "Path to the configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application := &app.App{}
	if err := application.Initialize(ctx, cfg, logger); err != nil {
		log.Fatalf("failed to initialize engine: %v", err)
	}

	if err := application.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("engine stopped with error", slog.Any("error", err))
	}

	shutdownCtx := context.Background()
	application.Close(shutdownCtx)
	logger.Info("engine shut down")
}
