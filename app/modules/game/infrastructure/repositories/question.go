package gamedb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	gamedomain "github.com/EugeneDlg/wwwbot/app/modules/game/domain"
)

func (db *GameDBImpl) CreateQuestion(ctx context.Context, text string, blitz bool, answer string) (*gamedomain.Question, error) {
	question := &questionModel{ID: uuid.New(), Text: text, Blitz: blitz}
	err := db.DB.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(question).Exec(ctx); err != nil {
			return fmt.Errorf("failed to insert question: %w", err)
		}
		answerRow := &answerModel{ID: uuid.New(), QuestionID: question.ID, Text: answer}
		if _, err := tx.NewInsert().Model(answerRow).Exec(ctx); err != nil {
			return fmt.Errorf("failed to insert answer: %w", err)
		}
		question.Answer = answerRow
		return nil
	})
	if err != nil {
		return nil, err
	}
	return question.toDomain(), nil
}

func (db *GameDBImpl) GetQuestion(ctx context.Context, id uuid.UUID) (*gamedomain.Question, error) {
	var question questionModel
	err := db.DB.NewSelect().
		Model(&question).
		Relation("Answer").
		Where("q.id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch question %s: %w", id, err)
	}
	return question.toDomain(), nil
}

func (db *GameDBImpl) ListQuestions(ctx context.Context) ([]*gamedomain.Question, error) {
	var models []questionModel
	err := db.DB.NewSelect().
		Model(&models).
		Relation("Answer").
		Order("q.text ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	questions := make([]*gamedomain.Question, 0, len(models))
	for i := range models {
		questions = append(questions, models[i].toDomain())
	}
	return questions, nil
}

func (db *GameDBImpl) DeleteQuestion(ctx context.Context, id uuid.UUID) error {
	_, err := db.DB.NewDelete().
		Model((*questionModel)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete question %s: %w", id, err)
	}
	return nil
}

func (db *GameDBImpl) CountQuestions(ctx context.Context, blitz bool) (int, error) {
	count, err := db.DB.NewSelect().
		Model((*questionModel)(nil)).
		Where("blitz = ?", blitz).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count questions: %w", err)
	}
	return count, nil
}

func (db *GameDBImpl) UnusedQuestionIDs(ctx context.Context, gameID int64, blitz bool) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := db.DB.NewSelect().
		Model((*questionModel)(nil)).
		Column("q.id").
		Where("q.blitz = ?", blitz).
		Where("q.id NOT IN (SELECT question_id FROM used_questions WHERE game_id = ?)", gameID).
		Scan(ctx, &ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list unused questions for game %d: %w", gameID, err)
	}
	return ids, nil
}

func (db *GameDBImpl) MarkQuestionUsed(ctx context.Context, gameID int64, questionID uuid.UUID) error {
	used := &usedQuestionModel{GameID: gameID, QuestionID: questionID}
	_, err := db.DB.NewInsert().
		Model(used).
		On("CONFLICT (game_id, question_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to mark question %s used for game %d: %w", questionID, gameID, err)
	}
	return nil
}

func (db *GameDBImpl) ClearUsedQuestions(ctx context.Context, gameID int64) error {
	_, err := db.DB.NewDelete().
		Model((*usedQuestionModel)(nil)).
		Where("game_id = ?", gameID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to clear used questions for game %d: %w", gameID, err)
	}
	return nil
}
