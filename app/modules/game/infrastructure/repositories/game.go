package gamedb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	gamedomain "github.com/EugeneDlg/wwwbot/app/modules/game/domain"
)

// GameDBImpl implements Repository on top of bun/Postgres.
type GameDBImpl struct {
	DB *bun.DB
}

var _ Repository = (*GameDBImpl)(nil)

func NewGameDB(db *bun.DB) *GameDBImpl {
	return &GameDBImpl{DB: db}
}

func (db *GameDBImpl) CreateGame(ctx context.Context, chatID int64, playerIDs []int64) (*gamedomain.Game, error) {
	game := &gameModel{ChatID: chatID}
	err := db.DB.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(game).Exec(ctx); err != nil {
			return fmt.Errorf("failed to insert game: %w", err)
		}
		for _, playerID := range playerIDs {
			score := &gameScoreModel{GameID: game.ID, PlayerID: playerID}
			if _, err := tx.NewInsert().Model(score).Exec(ctx); err != nil {
				return fmt.Errorf("failed to link player %d: %w", playerID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return db.GetGameByID(ctx, game.ID)
}

func (db *GameDBImpl) GetGame(ctx context.Context, chatID int64, status gamedomain.Status) (*gamedomain.Game, error) {
	var game gameModel
	err := db.DB.NewSelect().
		Model(&game).
		Relation("Scores").
		Relation("Scores.Player").
		Where("g.chat_id = ?", chatID).
		Where("g.status = ?", string(status)).
		Order("g.id DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch game for chat %d: %w", chatID, err)
	}
	return game.toDomain(), nil
}

func (db *GameDBImpl) GetGameByID(ctx context.Context, id int64) (*gamedomain.Game, error) {
	var game gameModel
	err := db.DB.NewSelect().
		Model(&game).
		Relation("Scores").
		Relation("Scores.Player").
		Where("g.id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch game %d: %w", id, err)
	}
	return game.toDomain(), nil
}

func (db *GameDBImpl) UpdateGame(ctx context.Context, id int64, upd GameUpdate) error {
	q := db.DB.NewUpdate().Model((*gameModel)(nil)).Where("id = ?", id)
	touched := false
	if upd.Status != nil {
		q = q.Set("status = ?", string(*upd.Status))
		touched = true
	}
	if upd.WaitStatus != nil {
		q = q.Set("wait_status = ?", string(*upd.WaitStatus))
		touched = true
	}
	if upd.WaitTime != nil {
		q = q.Set("wait_time = ?", *upd.WaitTime)
		touched = true
	}
	if upd.MyPoints != nil {
		q = q.Set("my_points = ?", *upd.MyPoints)
		touched = true
	}
	if upd.PlayersPoints != nil {
		q = q.Set("players_points = ?", *upd.PlayersPoints)
		touched = true
	}
	if upd.Round != nil {
		q = q.Set("round = ?", *upd.Round)
		touched = true
	}
	if upd.BlitzRound != nil {
		q = q.Set("blitz_round = ?", *upd.BlitzRound)
		touched = true
	}
	if upd.CurrentQuestionID != nil {
		q = q.Set("current_question_id = ?", *upd.CurrentQuestionID)
		touched = true
	}
	if !touched {
		return nil
	}
	res, err := q.Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update game %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("game %d not found for update", id)
	}
	return nil
}

func (db *GameDBImpl) DeleteGame(ctx context.Context, id int64) error {
	_, err := db.DB.NewDelete().Model((*gameModel)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete game %d: %w", id, err)
	}
	return nil
}

func (db *GameDBImpl) ListGames(ctx context.Context, status gamedomain.Status) ([]*gamedomain.Game, error) {
	var models []gameModel
	q := db.DB.NewSelect().
		Model(&models).
		Relation("Scores").
		Relation("Scores.Player").
		Order("g.id ASC")
	if status != "" {
		q = q.Where("g.status = ?", string(status))
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}
	games := make([]*gamedomain.Game, 0, len(models))
	for i := range models {
		games = append(games, models[i].toDomain())
	}
	return games, nil
}

func (db *GameDBImpl) LatestGame(ctx context.Context) (*gamedomain.Game, error) {
	var game gameModel
	err := db.DB.NewSelect().
		Model(&game).
		Relation("Scores").
		Relation("Scores.Player").
		Order("g.created_at DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch latest game: %w", err)
	}
	return game.toDomain(), nil
}

func (db *GameDBImpl) BumpTimerGeneration(ctx context.Context, id int64) (int64, error) {
	var generation int64
	err := db.DB.NewUpdate().
		Model((*gameModel)(nil)).
		Set("timer_generation = timer_generation + 1").
		Where("id = ?", id).
		Returning("timer_generation").
		Scan(ctx, &generation)
	if err != nil {
		return 0, fmt.Errorf("failed to bump timer generation for game %d: %w", id, err)
	}
	return generation, nil
}

func (db *GameDBImpl) LinkPlayerToGame(ctx context.Context, playerID, gameID int64) error {
	score := &gameScoreModel{GameID: gameID, PlayerID: playerID}
	_, err := db.DB.NewInsert().
		Model(score).
		On("CONFLICT (game_id, player_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to link player %d to game %d: %w", playerID, gameID, err)
	}
	return nil
}

func (db *GameDBImpl) SetCaptain(ctx context.Context, gameID, playerID int64) error {
	captain := &gameCaptainModel{GameID: gameID, PlayerID: playerID}
	_, err := db.DB.NewInsert().
		Model(captain).
		On("CONFLICT (game_id) DO UPDATE").
		Set("player_id = EXCLUDED.player_id").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to set captain for game %d: %w", gameID, err)
	}
	return nil
}

func (db *GameDBImpl) GetCaptain(ctx context.Context, gameID int64) (*gamedomain.Player, error) {
	return db.rolePlayer(ctx, "game_captains", gameID)
}

func (db *GameDBImpl) SetSpeaker(ctx context.Context, gameID, playerID int64) error {
	speaker := &gameSpeakerModel{GameID: gameID, PlayerID: playerID}
	_, err := db.DB.NewInsert().
		Model(speaker).
		On("CONFLICT (game_id) DO UPDATE").
		Set("player_id = EXCLUDED.player_id").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to set speaker for game %d: %w", gameID, err)
	}
	return nil
}

func (db *GameDBImpl) GetSpeaker(ctx context.Context, gameID int64) (*gamedomain.Player, error) {
	return db.rolePlayer(ctx, "game_speakers", gameID)
}

func (db *GameDBImpl) ClearSpeaker(ctx context.Context, gameID int64) error {
	_, err := db.DB.NewDelete().
		Model((*gameSpeakerModel)(nil)).
		Where("game_id = ?", gameID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to clear speaker for game %d: %w", gameID, err)
	}
	return nil
}

func (db *GameDBImpl) rolePlayer(ctx context.Context, table string, gameID int64) (*gamedomain.Player, error) {
	var player playerModel
	err := db.DB.NewSelect().
		Model(&player).
		Join(fmt.Sprintf("JOIN %s AS r ON r.player_id = p.id", table)).
		Where("r.game_id = ?", gameID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch %s player for game %d: %w", table, gameID, err)
	}
	return player.toDomain(), nil
}

func (db *GameDBImpl) AddRoundPoints(ctx context.Context, gameID int64) error {
	_, err := db.DB.NewUpdate().
		Model((*gameScoreModel)(nil)).
		Set("points = points + 1").
		Where("game_id = ?", gameID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to add round points for game %d: %w", gameID, err)
	}
	return nil
}

func (db *GameDBImpl) TotalScore(ctx context.Context, playerID int64) (int, error) {
	var total sql.NullInt64
	err := db.DB.NewSelect().
		Model((*gameScoreModel)(nil)).
		ColumnExpr("SUM(points)").
		Where("player_id = ?", playerID).
		Scan(ctx, &total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum score for player %d: %w", playerID, err)
	}
	return int(total.Int64), nil
}
