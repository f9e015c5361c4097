package gamedb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	gamedomain "github.com/EugeneDlg/wwwbot/app/modules/game/domain"
)

func (db *GameDBImpl) CreatePlayer(ctx context.Context, vkID int64, name, lastName string) (*gamedomain.Player, error) {
	player := &playerModel{VKID: vkID, Name: name, LastName: lastName}
	_, err := db.DB.NewInsert().
		Model(player).
		On("CONFLICT (vk_id) DO UPDATE").
		Set("name = EXCLUDED.name, last_name = EXCLUDED.last_name").
		Returning("id").
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create player vk_id=%d: %w", vkID, err)
	}
	return player.toDomain(), nil
}

func (db *GameDBImpl) GetPlayerByVKID(ctx context.Context, vkID int64) (*gamedomain.Player, error) {
	var player playerModel
	err := db.DB.NewSelect().
		Model(&player).
		Where("p.vk_id = ?", vkID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch player vk_id=%d: %w", vkID, err)
	}
	return player.toDomain(), nil
}

func (db *GameDBImpl) DeletePlayer(ctx context.Context, vkID int64) error {
	_, err := db.DB.NewDelete().
		Model((*playerModel)(nil)).
		Where("vk_id = ?", vkID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete player vk_id=%d: %w", vkID, err)
	}
	return nil
}

func (db *GameDBImpl) ListPlayers(ctx context.Context) ([]*gamedomain.Player, error) {
	var models []playerModel
	err := db.DB.NewSelect().
		Model(&models).
		Order("p.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	players := make([]*gamedomain.Player, 0, len(models))
	for i := range models {
		players = append(players, models[i].toDomain())
	}
	return players, nil
}

func (db *GameDBImpl) CreateRegistrationLookup(ctx context.Context, lookup gamedomain.RegistrationLookup) error {
	model := &registrationLookupModel{
		EventID:     lookup.EventID,
		ChatID:      lookup.ChatID,
		UserID:      lookup.UserID,
		RequestedAt: lookup.RequestedAt,
	}
	_, err := db.DB.NewInsert().
		Model(model).
		On("CONFLICT (event_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to record registration lookup %s: %w", lookup.EventID, err)
	}
	return nil
}

func (db *GameDBImpl) TakeRegistrationLookup(ctx context.Context, eventID string) (*gamedomain.RegistrationLookup, error) {
	var model registrationLookupModel
	err := db.DB.NewDelete().
		Model(&model).
		Where("event_id = ?", eventID).
		Returning("*").
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to take registration lookup %s: %w", eventID, err)
	}
	return &gamedomain.RegistrationLookup{
		EventID:     model.EventID,
		ChatID:      model.ChatID,
		UserID:      model.UserID,
		RequestedAt: model.RequestedAt,
	}, nil
}
