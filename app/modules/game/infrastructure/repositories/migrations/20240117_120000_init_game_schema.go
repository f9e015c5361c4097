package gamemigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		_, err := db.ExecContext(ctx, `
			CREATE TABLE IF NOT EXISTS players (
				id BIGSERIAL PRIMARY KEY,
				vk_id BIGINT NOT NULL UNIQUE,
				name TEXT NOT NULL,
				last_name TEXT NOT NULL
			);

			CREATE TABLE IF NOT EXISTS questions (
				id UUID PRIMARY KEY,
				text TEXT NOT NULL UNIQUE,
				blitz BOOLEAN NOT NULL DEFAULT FALSE
			);

			CREATE TABLE IF NOT EXISTS answers (
				id UUID PRIMARY KEY,
				question_id UUID NOT NULL REFERENCES questions (id) ON DELETE CASCADE,
				text TEXT NOT NULL
			);

			CREATE TABLE IF NOT EXISTS games (
				id BIGSERIAL PRIMARY KEY,
				chat_id BIGINT NOT NULL,
				status TEXT NOT NULL DEFAULT 'registered',
				wait_status TEXT NOT NULL DEFAULT 'ok',
				wait_time BIGINT NOT NULL DEFAULT 0,
				my_points INT NOT NULL DEFAULT 0,
				players_points INT NOT NULL DEFAULT 0,
				round INT NOT NULL DEFAULT 0,
				blitz_round INT NOT NULL DEFAULT 0,
				timer_generation BIGINT NOT NULL DEFAULT 0,
				current_question_id UUID REFERENCES questions (id),
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);
			CREATE INDEX IF NOT EXISTS games_chat_status_idx ON games (chat_id, status);

			CREATE TABLE IF NOT EXISTS game_players (
				game_id BIGINT NOT NULL REFERENCES games (id) ON DELETE CASCADE,
				player_id BIGINT NOT NULL REFERENCES players (id) ON DELETE CASCADE,
				points INT NOT NULL DEFAULT 0,
				PRIMARY KEY (game_id, player_id)
			);

			CREATE TABLE IF NOT EXISTS game_captains (
				game_id BIGINT PRIMARY KEY REFERENCES games (id) ON DELETE CASCADE,
				player_id BIGINT NOT NULL REFERENCES players (id) ON DELETE CASCADE
			);

			CREATE TABLE IF NOT EXISTS game_speakers (
				game_id BIGINT PRIMARY KEY REFERENCES games (id) ON DELETE CASCADE,
				player_id BIGINT NOT NULL REFERENCES players (id) ON DELETE CASCADE
			);

			CREATE TABLE IF NOT EXISTS used_questions (
				game_id BIGINT NOT NULL REFERENCES games (id) ON DELETE CASCADE,
				question_id UUID NOT NULL REFERENCES questions (id) ON DELETE CASCADE,
				PRIMARY KEY (game_id, question_id)
			);

			CREATE TABLE IF NOT EXISTS registration_lookups (
				event_id TEXT PRIMARY KEY,
				chat_id BIGINT NOT NULL,
				user_id BIGINT NOT NULL,
				requested_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);
		`)
		if err != nil {
			return fmt.Errorf("failed to create game schema: %w", err)
		}
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		_, err := db.ExecContext(ctx, `
			DROP TABLE IF EXISTS registration_lookups;
			DROP TABLE IF EXISTS used_questions;
			DROP TABLE IF EXISTS game_speakers;
			DROP TABLE IF EXISTS game_captains;
			DROP TABLE IF EXISTS game_players;
			DROP TABLE IF EXISTS games;
			DROP TABLE IF EXISTS answers;
			DROP TABLE IF EXISTS questions;
			DROP TABLE IF EXISTS players;
		`)
		if err != nil {
			return fmt.Errorf("failed to drop game schema: %w", err)
		}
		return nil
	})
}
