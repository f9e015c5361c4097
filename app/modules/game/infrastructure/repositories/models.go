package gamedb

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	gamedomain "github.com/EugeneDlg/wwwbot/app/modules/game/domain"
)

type gameModel struct {
	bun.BaseModel `bun:"table:games,alias:g"`

	ID                int64     `bun:"id,pk,autoincrement"`
	ChatID            int64     `bun:"chat_id,notnull"`
	Status            string    `bun:"status,notnull,default:'registered'"`
	WaitStatus        string    `bun:"wait_status,notnull,default:'ok'"`
	WaitTime          int64     `bun:"wait_time,notnull,default:0"`
	MyPoints          int       `bun:"my_points,notnull,default:0"`
	PlayersPoints     int       `bun:"players_points,notnull,default:0"`
	Round             int       `bun:"round,notnull,default:0"`
	BlitzRound        int       `bun:"blitz_round,notnull,default:0"`
	TimerGeneration   int64     `bun:"timer_generation,notnull,default:0"`
	CurrentQuestionID uuid.UUID `bun:"current_question_id,type:uuid,nullzero"`
	CreatedAt         time.Time `bun:"created_at,notnull,default:current_timestamp"`

	Scores []*gameScoreModel `bun:"rel:has-many,join:id=game_id"`
}

type playerModel struct {
	bun.BaseModel `bun:"table:players,alias:p"`

	ID       int64  `bun:"id,pk,autoincrement"`
	VKID     int64  `bun:"vk_id,notnull,unique"`
	Name     string `bun:"name,notnull"`
	LastName string `bun:"last_name,notnull"`
}

// gameScoreModel is the player<->game association row; Points accumulates the
// player's score within that game.
type gameScoreModel struct {
	bun.BaseModel `bun:"table:game_players,alias:gp"`

	GameID   int64 `bun:"game_id,pk"`
	PlayerID int64 `bun:"player_id,pk"`
	Points   int   `bun:"points,notnull,default:0"`

	Player *playerModel `bun:"rel:belongs-to,join:player_id=id"`
}

type gameCaptainModel struct {
	bun.BaseModel `bun:"table:game_captains,alias:gc"`

	GameID   int64 `bun:"game_id,pk"`
	PlayerID int64 `bun:"player_id,notnull"`
}

type gameSpeakerModel struct {
	bun.BaseModel `bun:"table:game_speakers,alias:gs"`

	GameID   int64 `bun:"game_id,pk"`
	PlayerID int64 `bun:"player_id,notnull"`
}

type questionModel struct {
	bun.BaseModel `bun:"table:questions,alias:q"`

	ID    uuid.UUID `bun:"id,pk,type:uuid"`
	Text  string    `bun:"text,notnull,unique"`
	Blitz bool      `bun:"blitz,notnull,default:false"`

	Answer *answerModel `bun:"rel:has-one,join:id=question_id"`
}

type answerModel struct {
	bun.BaseModel `bun:"table:answers,alias:a"`

	ID         uuid.UUID `bun:"id,pk,type:uuid"`
	QuestionID uuid.UUID `bun:"question_id,notnull,type:uuid"`
	Text       string    `bun:"text,notnull"`
}

type usedQuestionModel struct {
	bun.BaseModel `bun:"table:used_questions,alias:uq"`

	GameID     int64     `bun:"game_id,pk"`
	QuestionID uuid.UUID `bun:"question_id,pk,type:uuid"`
}

type registrationLookupModel struct {
	bun.BaseModel `bun:"table:registration_lookups,alias:rl"`

	EventID     string    `bun:"event_id,pk"`
	ChatID      int64     `bun:"chat_id,notnull"`
	UserID      int64     `bun:"user_id,notnull"`
	RequestedAt time.Time `bun:"requested_at,notnull,default:current_timestamp"`
}

// Explicit model-to-domain mapping; no reflection.

func (m *gameModel) toDomain() *gamedomain.Game {
	g := &gamedomain.Game{
		ID:                m.ID,
		ChatID:            m.ChatID,
		Status:            gamedomain.Status(m.Status),
		WaitStatus:        gamedomain.WaitStatus(m.WaitStatus),
		WaitTime:          m.WaitTime,
		MyPoints:          m.MyPoints,
		PlayersPoints:     m.PlayersPoints,
		Round:             m.Round,
		BlitzRound:        m.BlitzRound,
		TimerGeneration:   m.TimerGeneration,
		CurrentQuestionID: m.CurrentQuestionID,
		CreatedAt:         m.CreatedAt,
	}
	for _, score := range m.Scores {
		if score.Player == nil {
			continue
		}
		p := score.Player.toDomain()
		p.Points = score.Points
		g.Players = append(g.Players, *p)
	}
	return g
}

func (m *playerModel) toDomain() *gamedomain.Player {
	return &gamedomain.Player{
		ID:       m.ID,
		VKID:     m.VKID,
		Name:     m.Name,
		LastName: m.LastName,
	}
}

func (m *questionModel) toDomain() *gamedomain.Question {
	q := &gamedomain.Question{
		ID:    m.ID,
		Text:  m.Text,
		Blitz: m.Blitz,
	}
	if m.Answer != nil {
		q.Answer = gamedomain.Answer{
			ID:         m.Answer.ID,
			QuestionID: m.Answer.QuestionID,
			Text:       m.Answer.Text,
		}
	}
	return q
}
