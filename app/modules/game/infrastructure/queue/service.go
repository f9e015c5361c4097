package gamequeue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/uptrace/bun"

	"github.com/EugeneDlg/wwwbot/app/eventbus"
	gameevents "github.com/EugeneDlg/wwwbot/app/modules/game/events"
)

// TimerScheduler is the contract for durable per-game timers. Starting a new
// timer for a game presumes the caller has bumped the game's timer generation
// so that any previously scheduled firing becomes a no-op.
type TimerScheduler interface {
	ScheduleTimer(ctx context.Context, kind gameevents.TimerKind, gameID, chatID, generation int64, delay time.Duration) error
	// CancelGameTimers cancels all still-scheduled timer jobs for a game.
	CancelGameTimers(ctx context.Context, gameID int64) error
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// Service schedules timer jobs through River backed by Postgres.
type Service struct {
	client *river.Client[pgx.Tx]
	pool   *pgxpool.Pool
	db     *bun.DB
	logger *slog.Logger
}

var _ TimerScheduler = (*Service)(nil)

// timerWorker publishes the expiry event when a scheduled timer job runs.
type timerWorker struct {
	river.WorkerDefaults[TimerExpiryJob]
	bus    eventbus.EventBus
	logger *slog.Logger
}

func (w *timerWorker) Work(ctx context.Context, job *river.Job[TimerExpiryJob]) error {
	payload := gameevents.TimerExpiredPayload{
		GameID:     job.Args.GameID,
		ChatID:     job.Args.ChatID,
		Kind:       job.Args.TimerKind,
		Generation: job.Args.Generation,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal timer payload: %w", err)
	}
	msg := message.NewMessage(watermill.NewUUID(), data)
	if err := w.bus.Publish(eventbus.TopicTimerExpired, msg); err != nil {
		return fmt.Errorf("failed to publish timer expiry: %w", err)
	}
	w.logger.Info("timer fired",
		slog.Int64("game_id", job.Args.GameID),
		slog.String("kind", string(job.Args.TimerKind)),
		slog.Int64("generation", job.Args.Generation),
	)
	return nil
}

// NewService creates the River-backed timer scheduler. River requires pgx,
// not database/sql, so it opens its own pool from the DSN.
func NewService(ctx context.Context, bunDB *bun.DB, bus eventbus.EventBus, logger *slog.Logger, dsn string) (*Service, error) {
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN for River: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	workers := river.NewWorkers()
	river.AddWorker(workers, &timerWorker{bus: bus, logger: logger})

	client, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: 25},
		},
		Workers: workers,
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create River client: %w", err)
	}

	return &Service{
		client: client,
		pool:   pool,
		db:     bunDB,
		logger: logger,
	}, nil
}

func (s *Service) Start(ctx context.Context) error {
	if err := s.client.Start(ctx); err != nil {
		return fmt.Errorf("failed to start River client: %w", err)
	}
	s.logger.Info("timer queue started")
	return nil
}

func (s *Service) Stop(ctx context.Context) error {
	if err := s.client.Stop(ctx); err != nil {
		return fmt.Errorf("failed to stop River client: %w", err)
	}
	s.pool.Close()
	s.logger.Info("timer queue stopped")
	return nil
}

// ScheduleTimer inserts a delayed timer job. Job args are unique per
// (game, kind, generation), so duplicate scheduling of the same timer is
// collapsed by River.
func (s *Service) ScheduleTimer(ctx context.Context, kind gameevents.TimerKind, gameID, chatID, generation int64, delay time.Duration) error {
	job := TimerExpiryJob{
		GameID:     gameID,
		ChatID:     chatID,
		TimerKind:  kind,
		Generation: generation,
	}
	_, err := s.client.Insert(ctx, job, &river.InsertOpts{
		ScheduledAt: time.Now().Add(delay),
		UniqueOpts: river.UniqueOpts{
			ByArgs: true,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to schedule %s timer for game %d: %w", kind, gameID, err)
	}
	s.logger.Info("timer scheduled",
		slog.Int64("game_id", gameID),
		slog.String("kind", string(kind)),
		slog.Int64("generation", generation),
		slog.Duration("delay", delay),
	)
	return nil
}

// CancelGameTimers cancels scheduled timer jobs for the game. The generation
// check on firing already makes stale jobs harmless; cancelling keeps the job
// table clean.
func (s *Service) CancelGameTimers(ctx context.Context, gameID int64) error {
	var jobIDs []int64
	err := s.db.NewSelect().
		Table("river_job").
		Column("id").
		Where("kind = ?", TimerExpiryJob{}.Kind()).
		Where("state IN ('available', 'scheduled', 'retryable')").
		Where("args->>'game_id' = ?", fmt.Sprintf("%d", gameID)).
		Scan(ctx, &jobIDs)
	if err != nil {
		return fmt.Errorf("failed to find timer jobs for game %d: %w", gameID, err)
	}
	for _, id := range jobIDs {
		if _, err := s.client.JobCancel(ctx, id); err != nil {
			s.logger.Warn("failed to cancel timer job",
				slog.Int64("job_id", id),
				slog.Any("error", err),
			)
		}
	}
	return nil
}
