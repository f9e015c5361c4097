package gamedb

import (
	"context"

	"github.com/google/uuid"

	gamedomain "github.com/EugeneDlg/wwwbot/app/modules/game/domain"
)

// GameUpdate carries the mutable game fields; nil pointers leave the column
// untouched.
type GameUpdate struct {
	Status            *gamedomain.Status
	WaitStatus        *gamedomain.WaitStatus
	WaitTime          *int64
	MyPoints          *int
	PlayersPoints     *int
	Round             *int
	BlitzRound        *int
	CurrentQuestionID *uuid.UUID
}

// Repository is the persistence surface the game engine requires. All Get
// methods return (nil, nil) when no matching row exists.
type Repository interface {
	CreateGame(ctx context.Context, chatID int64, playerIDs []int64) (*gamedomain.Game, error)
	GetGame(ctx context.Context, chatID int64, status gamedomain.Status) (*gamedomain.Game, error)
	GetGameByID(ctx context.Context, id int64) (*gamedomain.Game, error)
	UpdateGame(ctx context.Context, id int64, upd GameUpdate) error
	DeleteGame(ctx context.Context, id int64) error
	ListGames(ctx context.Context, status gamedomain.Status) ([]*gamedomain.Game, error)
	LatestGame(ctx context.Context) (*gamedomain.Game, error)
	// BumpTimerGeneration invalidates every outstanding timer for the game
	// and returns the new generation.
	BumpTimerGeneration(ctx context.Context, id int64) (int64, error)

	CreatePlayer(ctx context.Context, vkID int64, name, lastName string) (*gamedomain.Player, error)
	GetPlayerByVKID(ctx context.Context, vkID int64) (*gamedomain.Player, error)
	DeletePlayer(ctx context.Context, vkID int64) error
	ListPlayers(ctx context.Context) ([]*gamedomain.Player, error)
	LinkPlayerToGame(ctx context.Context, playerID, gameID int64) error

	SetCaptain(ctx context.Context, gameID, playerID int64) error
	GetCaptain(ctx context.Context, gameID int64) (*gamedomain.Player, error)
	SetSpeaker(ctx context.Context, gameID, playerID int64) error
	GetSpeaker(ctx context.Context, gameID int64) (*gamedomain.Player, error)
	ClearSpeaker(ctx context.Context, gameID int64) error

	// AddRoundPoints adds one point to every player's score row for the game.
	AddRoundPoints(ctx context.Context, gameID int64) error
	TotalScore(ctx context.Context, playerID int64) (int, error)

	CreateQuestion(ctx context.Context, text string, blitz bool, answer string) (*gamedomain.Question, error)
	GetQuestion(ctx context.Context, id uuid.UUID) (*gamedomain.Question, error)
	ListQuestions(ctx context.Context) ([]*gamedomain.Question, error)
	DeleteQuestion(ctx context.Context, id uuid.UUID) error
	CountQuestions(ctx context.Context, blitz bool) (int, error)
	UnusedQuestionIDs(ctx context.Context, gameID int64, blitz bool) ([]uuid.UUID, error)
	MarkQuestionUsed(ctx context.Context, gameID int64, questionID uuid.UUID) error
	ClearUsedQuestions(ctx context.Context, gameID int64) error

	CreateRegistrationLookup(ctx context.Context, lookup gamedomain.RegistrationLookup) error
	// TakeRegistrationLookup returns and deletes the pending lookup for the
	// event id, or (nil, nil) if none exists.
	TakeRegistrationLookup(ctx context.Context, eventID string) (*gamedomain.RegistrationLookup, error)
}
