package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the full configuration for every process in the system.
type Config struct {
	Postgres PostgresConfig `yaml:"postgres"`
	NATS     NATSConfig     `yaml:"nats"`
	VK       VKConfig       `yaml:"vk"`
	Admin    AdminConfig    `yaml:"admin"`
	Game     GameConfig     `yaml:"game"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// PostgresConfig holds Postgres configuration.
type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// NATSConfig holds NATS configuration.
type NATSConfig struct {
	URL string `yaml:"url"`
}

// VKConfig holds VK API credentials for the poller and sender.
type VKConfig struct {
	Token   string `yaml:"token"`
	GroupID int64  `yaml:"group_id"`
}

// AdminConfig holds admin API settings.
type AdminConfig struct {
	ListenAddr   string `yaml:"listen_addr"`
	Email        string `yaml:"email"`
	PasswordHash string `yaml:"password_hash"`
	JWTSecret    string `yaml:"jwt_secret"`
}

// MetricsConfig holds the Prometheus scrape endpoint address.
type MetricsConfig struct {
	Address string `yaml:"address"`
}

// GameConfig holds the gameplay knobs consumed by the engine.
// Timer values are in seconds.
type GameConfig struct {
	Players          int     `yaml:"players"`
	MaxPoints        int     `yaml:"max_points"`
	TopTimer         int     `yaml:"top_timer"`
	ThinkingTimer    int     `yaml:"thinking_timer"`
	CaptainTimer     int     `yaml:"captain_timer"`
	AnswerTimer      int     `yaml:"answer_timer"`
	BlitzDivisor     int     `yaml:"blitz_divisor"`
	BlitzProbability float64 `yaml:"blitz_probability"`
}

// LoadConfig reads the yaml config file and overlays environment variables
// (optionally loaded from a .env file) on top of it.
func LoadConfig(filename string) (*Config, error) {
	// A missing .env is fine; real deployments set env vars directly.
	_ = godotenv.Load()

	var cfg Config
	data, err := os.ReadFile(filename)
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	}

	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Postgres.DSN = v
	}
	if v := os.Getenv("NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
	if v := os.Getenv("VK_TOKEN"); v != "" {
		cfg.VK.Token = v
	}
	if v := os.Getenv("VK_GROUP_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid VK_GROUP_ID: %w", err)
		}
		cfg.VK.GroupID = id
	}
	if v := os.Getenv("ADMIN_EMAIL"); v != "" {
		cfg.Admin.Email = v
	}
	if v := os.Getenv("ADMIN_PASSWORD_HASH"); v != "" {
		cfg.Admin.PasswordHash = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.Admin.JWTSecret = v
	}
	if v := os.Getenv("METRICS_ADDRESS"); v != "" {
		cfg.Metrics.Address = v
	}

	cfg.applyDefaults()

	if cfg.Postgres.DSN == "" {
		return nil, fmt.Errorf("postgres DSN is not configured")
	}
	if cfg.NATS.URL == "" {
		return nil, fmt.Errorf("NATS URL is not configured")
	}
	if err := cfg.Game.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validate rejects non-positive gameplay knobs; the timers and the blitz
// divisor feed duration arithmetic and must never go negative.
func (g GameConfig) validate() error {
	knobs := []struct {
		name  string
		value int
	}{
		{"players", g.Players},
		{"max_points", g.MaxPoints},
		{"top_timer", g.TopTimer},
		{"thinking_timer", g.ThinkingTimer},
		{"captain_timer", g.CaptainTimer},
		{"answer_timer", g.AnswerTimer},
		{"blitz_divisor", g.BlitzDivisor},
	}
	for _, k := range knobs {
		if k.value <= 0 {
			return fmt.Errorf("game.%s must be positive, got %d", k.name, k.value)
		}
	}
	if g.BlitzProbability < 0 || g.BlitzProbability > 1 {
		return fmt.Errorf("game.blitz_probability must be within [0, 1], got %g", g.BlitzProbability)
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Game.Players == 0 {
		c.Game.Players = 2
	}
	if c.Game.MaxPoints == 0 {
		c.Game.MaxPoints = 6
	}
	if c.Game.TopTimer == 0 {
		c.Game.TopTimer = 5
	}
	if c.Game.ThinkingTimer == 0 {
		c.Game.ThinkingTimer = 60
	}
	if c.Game.CaptainTimer == 0 {
		c.Game.CaptainTimer = 30
	}
	if c.Game.AnswerTimer == 0 {
		c.Game.AnswerTimer = 30
	}
	if c.Game.BlitzDivisor == 0 {
		c.Game.BlitzDivisor = 2
	}
	if c.Game.BlitzProbability == 0 {
		c.Game.BlitzProbability = 0.2
	}
	if c.Admin.ListenAddr == "" {
		c.Admin.ListenAddr = ":8080"
	}
}
