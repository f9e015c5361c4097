package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/EugeneDlg/wwwbot/app/modules/adminapi"
	gamedb "github.com/EugeneDlg/wwwbot/app/modules/game/infrastructure/repositories"
	"github.com/EugeneDlg/wwwbot/config"
)

func main() {
	configFile := flag.String("config", "config.yaml", "Path to the configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if cfg.Admin.Email == "" || cfg.Admin.PasswordHash == "" || cfg.Admin.JWTSecret == "" {
		log.Fatal("admin email, password hash and JWT secret must be configured")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pgdb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Postgres.DSN)))
	db := bun.NewDB(pgdb, pgdialect.New())
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("failed to ping database: %v", err)
	}

	module := adminapi.NewModule(cfg.Admin, gamedb.NewGameDB(db), logger)
	if err := module.Run(ctx); err != nil {
		logger.Error("admin API stopped with error", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("admin API shut down")
}
