package gamedomain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle status of a game.
type Status string

const (
	StatusRegistered Status = "registered"
	StatusActive     Status = "active"
	StatusFinished   Status = "finished"
)

// WaitStatus is the sub-state of an active game describing which external
// event the engine is currently waiting for.
type WaitStatus string

const (
	WaitOK       WaitStatus = "ok"
	WaitTop      WaitStatus = "top"
	WaitThinking WaitStatus = "thinking"
	WaitCaptain  WaitStatus = "captain"
	WaitAnswer   WaitStatus = "answer"
	WaitExpired  WaitStatus = "expired"
)

// BlitzRounds is the fixed number of questions in a blitz episode.
const BlitzRounds = 3

// Player is a registered participant identified by their VK id.
type Player struct {
	ID       int64
	VKID     int64
	Name     string
	LastName string
	// Points is the player's score row for the game the player was loaded
	// with, when loaded through a game.
	Points int
}

// FullName returns the display name used in chat messages.
func (p Player) FullName() string {
	return p.Name + " " + p.LastName
}

// Game is one chat's current or historical game.
type Game struct {
	ID                int64
	ChatID            int64
	Status            Status
	WaitStatus        WaitStatus
	WaitTime          int64
	MyPoints          int
	PlayersPoints     int
	Round             int
	BlitzRound        int
	TimerGeneration   int64
	CurrentQuestionID uuid.UUID
	CreatedAt         time.Time
	Players           []Player
}

// HasPlayer reports whether the given VK id belongs to one of the game's players.
func (g *Game) HasPlayer(vkID int64) bool {
	for _, p := range g.Players {
		if p.VKID == vkID {
			return true
		}
	}
	return false
}

// InBlitz reports whether the game is inside a blitz episode.
func (g *Game) InBlitz() bool {
	return g.BlitzRound > 0
}

// Question is a quiz question with its canonical answer.
type Question struct {
	ID     uuid.UUID
	Text   string
	Blitz  bool
	Answer Answer
}

// Answer holds the canonical answer literals, pipe-delimited.
type Answer struct {
	ID         uuid.UUID
	QuestionID uuid.UUID
	Text       string
}

// Matches reports whether the submitted text counts as a correct answer.
// The text is trimmed and lower-cased and must contain one of the
// pipe-delimited alternatives of the canonical answer.
func (a Answer) Matches(submitted string) bool {
	text := strings.ToLower(strings.TrimSpace(submitted))
	if text == "" {
		return false
	}
	for _, alt := range strings.Split(strings.ToLower(a.Text), "|") {
		alt = strings.TrimSpace(alt)
		if alt != "" && strings.Contains(text, alt) {
			return true
		}
	}
	return false
}

// RegistrationLookup is a pending two-phase registration: the engine asked the
// platform for the user's profile and waits for the echo keyed by event id.
type RegistrationLookup struct {
	EventID     string
	ChatID      int64
	UserID      int64
	RequestedAt time.Time
}
