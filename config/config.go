package config

import (
	"encoding/json"
	"log/slog"
	"os"

	"github.com/caarlos0/env/v11"
)

// LevelConfig holds the parameters for one difficulty level.
type LevelConfig struct {
	Rows       int     `json:"rows" env:"ROWS"`
	Cols       int     `json:"cols" env:"COLS"`
	MaxMoves   int     `json:"max_moves" env:"MAX_MOVES"`
	Hints      int     `json:"hints" env:"HINTS"`
	Multiplier float64 `json:"multiplier" env:"MULTIPLIER"`
}

// DifficultiesConfig holds the built-in difficulty levels.
type DifficultiesConfig struct {
	Easy   LevelConfig `json:"easy" envPrefix:"EASY_"`
	Medium LevelConfig `json:"medium" envPrefix:"MEDIUM_"`
	Hard   LevelConfig `json:"hard" envPrefix:"HARD_"`
}

// Config holds all configurable server and game parameters.
type Config struct {
	// MatchRevealMS is how long a matched pair stays flipped before it is marked matched.
	MatchRevealMS int `json:"match_reveal_ms" env:"MATCH_REVEAL_MS"`

	// MismatchRevealMS is how long a mismatched pair stays face up before hiding again.
	MismatchRevealMS int `json:"mismatch_reveal_ms" env:"MISMATCH_REVEAL_MS"`

	// TickIntervalMS is the elapsed-time counter period.
	TickIntervalMS int `json:"tick_interval_ms" env:"TICK_INTERVAL_MS"`

	DefaultDifficulty string `json:"default_difficulty" env:"DEFAULT_DIFFICULTY"`
	MaxNameLength     int    `json:"max_name_length" env:"MAX_NAME_LENGTH"`
	WSPort            int    `json:"ws_port" env:"WS_PORT"`
	LogLevel          string `json:"log_level" env:"LOG_LEVEL"`

	// NeonAuthBaseURL enables token authentication on the WebSocket when set.
	NeonAuthBaseURL string `json:"neon_auth_base_url" env:"NEON_AUTH_BASE_URL"`

	Difficulties DifficultiesConfig `json:"difficulties" envPrefix:"DIFFICULTY_"`
}

// Defaults returns a Config with all default values.
func Defaults() *Config {
	return &Config{
		MatchRevealMS:     500,
		MismatchRevealMS:  1000,
		TickIntervalMS:    1000,
		DefaultDifficulty: "easy",
		MaxNameLength:     24,
		WSPort:            8080,
		LogLevel:          "info",
		Difficulties: DifficultiesConfig{
			Easy:   LevelConfig{Rows: 4, Cols: 4, MaxMoves: 25, Hints: 2, Multiplier: 1},
			Medium: LevelConfig{Rows: 4, Cols: 5, MaxMoves: 30, Hints: 3, Multiplier: 1.5},
			Hard:   LevelConfig{Rows: 5, Cols: 6, MaxMoves: 45, Hints: 4, Multiplier: 2},
		},
	}
}

// Load reads configuration from an optional config.json file,
// then applies environment variable overrides. Fields not set
// in either source retain their default values.
func Load() *Config {
	cfg := Defaults()

	if f, err := os.Open("config.json"); err == nil {
		defer f.Close()
		if err := json.NewDecoder(f).Decode(cfg); err != nil {
			slog.Warn("failed to parse config.json", "tag", "config", "err", err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		slog.Warn("invalid environment override", "tag", "config", "err", err)
	}

	return cfg
}
