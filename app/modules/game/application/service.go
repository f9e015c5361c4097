package gameservice

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/EugeneDlg/wwwbot/config"

	gamedomain "github.com/EugeneDlg/wwwbot/app/modules/game/domain"
	gameevents "github.com/EugeneDlg/wwwbot/app/modules/game/events"
	gamequeue "github.com/EugeneDlg/wwwbot/app/modules/game/infrastructure/queue"
	gamedb "github.com/EugeneDlg/wwwbot/app/modules/game/infrastructure/repositories"
)

// GameService implements Service. The store is the single source of truth;
// the service keeps no game state in memory besides the per-chat locks that
// serialize concurrent deliveries for the same chat.
type GameService struct {
	repo   gamedb.Repository
	outbox Outbox
	timers gamequeue.TimerScheduler
	cfg    config.GameConfig
	logger *slog.Logger
	locks  *chatLocks

	// Overridable in tests.
	randIntN    func(n int) int
	randFloat64 func() float64
	now         func() time.Time
}

var _ Service = (*GameService)(nil)

// NewGameService creates a new GameService.
func NewGameService(
	repo gamedb.Repository,
	outbox Outbox,
	timers gamequeue.TimerScheduler,
	cfg config.GameConfig,
	logger *slog.Logger,
) *GameService {
	return &GameService{
		repo:        repo,
		outbox:      outbox,
		timers:      timers,
		cfg:         cfg,
		logger:      logger,
		locks:       newChatLocks(),
		randIntN:    rand.Intn,
		randFloat64: rand.Float64,
		now:         time.Now,
	}
}

// mustPlayer loads the player or fails with a user-visible rule error.
func (s *GameService) mustPlayer(ctx context.Context, vkID int64) (*gamedomain.Player, error) {
	player, err := s.repo.GetPlayerByVKID(ctx, vkID)
	if err != nil {
		return nil, err
	}
	if player == nil {
		return nil, gamedomain.NewRuleError(textBadCommand)
	}
	return player, nil
}

// activeGame loads the chat's active game, or nil.
func (s *GameService) activeGame(ctx context.Context, chatID int64) (*gamedomain.Game, error) {
	return s.repo.GetGame(ctx, chatID, gamedomain.StatusActive)
}

// registeredGame loads the chat's game in registration, or nil.
func (s *GameService) registeredGame(ctx context.Context, chatID int64) (*gamedomain.Game, error) {
	return s.repo.GetGame(ctx, chatID, gamedomain.StatusRegistered)
}

// startTimer invalidates every outstanding timer for the game and schedules a
// single new one of the given kind. The bumped generation is what makes a
// stale firing detectable.
func (s *GameService) startTimer(ctx context.Context, game *gamedomain.Game, kind gameevents.TimerKind, seconds int) error {
	generation, err := s.repo.BumpTimerGeneration(ctx, game.ID)
	if err != nil {
		return err
	}
	delay := time.Duration(seconds) * time.Second
	if err := s.timers.ScheduleTimer(ctx, kind, game.ID, game.ChatID, generation, delay); err != nil {
		return fmt.Errorf("failed to start %s timer: %w", kind, err)
	}
	return nil
}

// invalidateTimers makes every outstanding timer for the game a no-op and
// cancels its scheduled jobs.
func (s *GameService) invalidateTimers(ctx context.Context, gameID int64) error {
	if _, err := s.repo.BumpTimerGeneration(ctx, gameID); err != nil {
		return err
	}
	if err := s.timers.CancelGameTimers(ctx, gameID); err != nil {
		// The generation bump already neutralized the jobs.
		s.logger.Warn("failed to cancel timer jobs", slog.Int64("game_id", gameID), slog.Any("error", err))
	}
	return nil
}

// blitzFactor returns the timer divisor for the game's current mode.
func (s *GameService) blitzFactor(game *gamedomain.Game) int {
	if game.InBlitz() {
		return s.cfg.BlitzDivisor
	}
	return 1
}

// EnsureQuestionsAvailable warns the chat when the question pool cannot
// sustain a game.
func (s *GameService) EnsureQuestionsAvailable(ctx context.Context, peerID int64) (bool, error) {
	normal, err := s.repo.CountQuestions(ctx, false)
	if err != nil {
		return false, err
	}
	if normal == 0 {
		return false, s.sendText(ctx, peerID, textNoQuestions)
	}
	blitz, err := s.repo.CountQuestions(ctx, true)
	if err != nil {
		return false, err
	}
	if blitz == 0 {
		return false, s.sendText(ctx, peerID, textNoBlitzQuestions)
	}
	return true, nil
}
