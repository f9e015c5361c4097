package adminapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	gamedb "github.com/EugeneDlg/wwwbot/app/modules/game/infrastructure/repositories"
	"github.com/EugeneDlg/wwwbot/config"
)

// Module is the admin HTTP API: authentication plus CRUD over questions,
// players and games. It talks to the same store as the engine and never
// touches the queues.
type Module struct {
	server *http.Server
	logger *slog.Logger
}

// NewModule builds the admin API server.
func NewModule(cfg config.AdminConfig, repo gamedb.Repository, logger *slog.Logger) *Module {
	auth := newAuthenticator(cfg)
	handlers := &apiHandlers{repo: repo, auth: auth, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Post("/admin/login", handlers.login)

	r.Group(func(r chi.Router) {
		r.Use(auth.middleware)

		r.Get("/admin/current", handlers.currentAdmin)

		r.Route("/questions", func(r chi.Router) {
			r.Post("/", handlers.createQuestion)
			r.Get("/", handlers.listQuestions)
			r.Get("/{id}", handlers.getQuestion)
			r.Delete("/{id}", handlers.deleteQuestion)
		})
		r.Route("/players", func(r chi.Router) {
			r.Post("/", handlers.createPlayer)
			r.Get("/", handlers.listPlayers)
			r.Get("/{vkID}", handlers.getPlayer)
			r.Delete("/{vkID}", handlers.deletePlayer)
		})
		r.Route("/games", func(r chi.Router) {
			r.Get("/", handlers.listGames)
			r.Get("/latest", handlers.latestGame)
			r.Delete("/{id}", handlers.deleteGame)
		})
	})

	return &Module{
		server: &http.Server{
			Addr:              cfg.ListenAddr,
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// Run serves until the context is cancelled.
func (m *Module) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		m.logger.Info("admin API listening", slog.String("addr", m.server.Addr))
		errCh <- m.server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return m.server.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
