package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfigFile(t *testing.T, yaml string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestLoadConfigRejectsBadGameKnobs(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/www?sslmode=disable")
	t.Setenv("NATS_URL", "nats://localhost:4222")

	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "negative blitz divisor",
			yaml:    "game:\n  blitz_divisor: -2\n",
			wantErr: "game.blitz_divisor must be positive",
		},
		{
			name:    "negative thinking timer",
			yaml:    "game:\n  thinking_timer: -60\n",
			wantErr: "game.thinking_timer must be positive",
		},
		{
			name:    "blitz probability above one",
			yaml:    "game:\n  blitz_probability: 1.5\n",
			wantErr: "game.blitz_probability must be within [0, 1]",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfigFile(t, tt.yaml))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("LoadConfig() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadConfigAppliesGameDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/www?sslmode=disable")
	t.Setenv("NATS_URL", "nats://localhost:4222")

	cfg, err := LoadConfig(writeConfigFile(t, "game:\n  players: 4\n"))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Game.Players != 4 {
		t.Errorf("players = %d, want 4 from the file", cfg.Game.Players)
	}
	if cfg.Game.ThinkingTimer != 60 || cfg.Game.BlitzDivisor != 2 {
		t.Errorf("defaults = thinking %d, divisor %d, want 60 and 2",
			cfg.Game.ThinkingTimer, cfg.Game.BlitzDivisor)
	}
}
