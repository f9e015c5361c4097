package gameservice

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"

	gamedomain "github.com/EugeneDlg/wwwbot/app/modules/game/domain"
	gamedto "github.com/EugeneDlg/wwwbot/app/modules/game/dto"
	"github.com/EugeneDlg/wwwbot/config"
)

const testChatID int64 = 2000000001

type testEnv struct {
	svc    *GameService
	repo   *FakeRepository
	outbox *FakeOutbox
	timers *FakeTimers
}

func newTestEnv(t *testing.T, cfg config.GameConfig) *testEnv {
	t.Helper()
	repo := NewFakeRepository()
	outbox := NewFakeOutbox()
	timers := NewFakeTimers()

	svc := NewGameService(repo, outbox, timers, cfg, slog.Default())
	svc.randIntN = func(n int) int { return 0 }
	svc.randFloat64 = func() float64 { return 1 } // never land on the blitz sector
	svc.now = func() time.Time { return time.Unix(1700000000, 0) }

	return &testEnv{svc: svc, repo: repo, outbox: outbox, timers: timers}
}

func defaultGameConfig() config.GameConfig {
	return config.GameConfig{
		Players:          2,
		MaxPoints:        6,
		TopTimer:         5,
		ThinkingTimer:    60,
		CaptainTimer:     30,
		AnswerTimer:      30,
		BlitzDivisor:     2,
		BlitzProbability: 0.2,
	}
}

func buttonEvent(vkID int64, command string) gamedto.ButtonEvent {
	return gamedto.ButtonEvent{
		EventID: fmt.Sprintf("ev-%d-%s", vkID, command),
		UserID:  vkID,
		PeerID:  testChatID,
		Command: command,
	}
}

func chatMessage(vkID int64, text string) gamedto.NewMessage {
	return gamedto.NewMessage{ID: 1, UserID: vkID, PeerID: testChatID, Text: text}
}

// seedPlayers creates known players so registration skips the profile lookup.
func seedPlayers(t *testing.T, env *testEnv, vkIDs ...int64) {
	t.Helper()
	for _, vkID := range vkIDs {
		if _, err := env.repo.CreatePlayer(context.Background(), vkID, gofakeit.FirstName(), gofakeit.LastName()); err != nil {
			t.Fatalf("CreatePlayer() error = %v", err)
		}
	}
}

func seedQuestions(t *testing.T, env *testEnv, normal, blitz int) {
	t.Helper()
	for i := 0; i < normal; i++ {
		if _, err := env.repo.CreateQuestion(context.Background(), gofakeit.Question(), false, fmt.Sprintf("answer%d", i)); err != nil {
			t.Fatalf("CreateQuestion() error = %v", err)
		}
	}
	for i := 0; i < blitz; i++ {
		if _, err := env.repo.CreateQuestion(context.Background(), gofakeit.Question(), true, fmt.Sprintf("blitz%d", i)); err != nil {
			t.Fatalf("CreateQuestion() error = %v", err)
		}
	}
}

// registerQuorum registers the given players and returns the registered game
// and its captain.
func registerQuorum(t *testing.T, env *testEnv, vkIDs ...int64) (*gamedomain.Game, *gamedomain.Player) {
	t.Helper()
	ctx := context.Background()
	seedPlayers(t, env, vkIDs...)
	for _, vkID := range vkIDs {
		if err := env.svc.Register(ctx, buttonEvent(vkID, "register")); err != nil {
			t.Fatalf("Register(%d) error = %v", vkID, err)
		}
	}
	game, err := env.repo.GetGame(ctx, testChatID, gamedomain.StatusRegistered)
	if err != nil || game == nil {
		t.Fatalf("GetGame() = %v, %v, want registered game", game, err)
	}
	captain, err := env.repo.GetCaptain(ctx, game.ID)
	if err != nil || captain == nil {
		t.Fatalf("GetCaptain() = %v, %v, want captain", captain, err)
	}
	return game, captain
}

// startGame registers a quorum and presses start as the captain.
func startGame(t *testing.T, env *testEnv, vkIDs ...int64) (*gamedomain.Game, *gamedomain.Player) {
	t.Helper()
	ctx := context.Background()
	_, captain := registerQuorum(t, env, vkIDs...)
	if err := env.svc.Start(ctx, buttonEvent(captain.VKID, "start")); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	game, err := env.repo.GetGame(ctx, testChatID, gamedomain.StatusActive)
	if err != nil || game == nil {
		t.Fatalf("GetGame() = %v, %v, want active game", game, err)
	}
	return game, captain
}

func requireWaitStatus(t *testing.T, env *testEnv, gameID int64, want gamedomain.WaitStatus) *gamedomain.Game {
	t.Helper()
	game, err := env.repo.GetGameByID(context.Background(), gameID)
	if err != nil || game == nil {
		t.Fatalf("GetGameByID(%d) = %v, %v", gameID, game, err)
	}
	if game.WaitStatus != want {
		t.Fatalf("wait status = %q, want %q", game.WaitStatus, want)
	}
	return game
}

func requireRuleError(t *testing.T, err error, wantEphemeral bool) *gamedomain.RuleError {
	t.Helper()
	ruleErr, ok := gamedomain.AsRuleError(err)
	if !ok {
		t.Fatalf("error = %v, want rule error", err)
	}
	if ruleErr.Ephemeral != wantEphemeral {
		t.Fatalf("rule error ephemeral = %v, want %v", ruleErr.Ephemeral, wantEphemeral)
	}
	return ruleErr
}

func TestEnsureQuestionsAvailable(t *testing.T) {
	tests := []struct {
		name     string
		normal   int
		blitz    int
		want     bool
		warnText string
	}{
		{name: "pool ready", normal: 3, blitz: 3, want: true},
		{name: "no questions at all", normal: 0, blitz: 0, want: false, warnText: textNoQuestions},
		{name: "no blitz questions", normal: 3, blitz: 0, want: false, warnText: textNoBlitzQuestions},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, defaultGameConfig())
			seedQuestions(t, env, tt.normal, tt.blitz)

			got, err := env.svc.EnsureQuestionsAvailable(context.Background(), testChatID)
			if err != nil {
				t.Fatalf("EnsureQuestionsAvailable() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("EnsureQuestionsAvailable() = %v, want %v", got, tt.want)
			}
			if tt.warnText != "" && env.outbox.Last().Text != tt.warnText {
				t.Errorf("warning = %q, want %q", env.outbox.Last().Text, tt.warnText)
			}
		})
	}
}

func TestStartTimerBumpsGeneration(t *testing.T) {
	env := newTestEnv(t, defaultGameConfig())
	seedQuestions(t, env, 5, 3)
	game, captain := startGame(t, env, 101, 102)

	if err := env.svc.SpinTop(context.Background(), buttonEvent(captain.VKID, "top")); err != nil {
		t.Fatalf("SpinTop() error = %v", err)
	}
	first := env.timers.Last()
	if first.Generation != 1 {
		t.Errorf("first timer generation = %d, want 1", first.Generation)
	}

	// The firing advances the game to the next phase with a fresh generation.
	if err := env.svc.HandleTimerExpired(context.Background(), env.timers.Expire()); err != nil {
		t.Fatalf("HandleTimerExpired() error = %v", err)
	}
	second := env.timers.Last()
	if second.Generation != first.Generation+1 {
		t.Errorf("second timer generation = %d, want %d", second.Generation, first.Generation+1)
	}
	updated, _ := env.repo.GetGameByID(context.Background(), game.ID)
	if updated.TimerGeneration != second.Generation {
		t.Errorf("persisted generation = %d, want %d", updated.TimerGeneration, second.Generation)
	}
}

func TestScoresCommand(t *testing.T) {
	env := newTestEnv(t, defaultGameConfig())
	seedPlayers(t, env, 101, 102)

	if err := env.svc.Scores(context.Background(), chatMessage(101, "/scores")); err != nil {
		t.Fatalf("Scores() error = %v", err)
	}
	if !strings.Contains(env.outbox.Last().Text, "Очки за все игры") {
		t.Errorf("scores message = %q, want totals listing", env.outbox.Last().Text)
	}
}
