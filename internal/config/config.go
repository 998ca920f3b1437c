package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vancomm/minesweeper-engine/internal/mines"
)

type Duration struct{ time.Duration }

// [Duration] implements [json.Marshaler]
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case float64:
		d.Duration = time.Duration(value)
		return nil
	case string:
		var err error
		d.Duration, err = time.ParseDuration(value)
		if err != nil {
			return err
		}
		return nil

	default:
		return errors.New("invalid duration")
	}
}

// GameConfig holds the board a new game gets when the request doesn't say.
type GameConfig struct {
	Params string `json:"params"` // preset name or WxH:M
	Solver bool   `json:"solver"`
}

func (g GameConfig) GameParams() (mines.GameParams, error) {
	return mines.ParseParams(g.Params)
}

type SessionConfig struct {
	TickInterval Duration `json:"tick_interval"`
	IdleTimeout  Duration `json:"idle_timeout"`
	MaxSessions  int      `json:"max_sessions"`
}

type LogConfig struct {
	File       string `json:"file"`
	MaxSizeMB  int    `json:"max_size_mb"`
	MaxBackups int    `json:"max_backups"`
	MaxAgeDays int    `json:"max_age_days"`
}

type Config struct {
	Mode        string        `json:"mode"`
	Addr        string        `json:"addr"`
	CorsOrigins []string      `json:"cors_origins"`
	Game        GameConfig    `json:"game"`
	Session     SessionConfig `json:"session"`
	Log         LogConfig     `json:"log"`
	Postgres    *Database     `json:"postgres,omitempty"`
}

func Default() Config {
	return Config{
		Mode: "production",
		Addr: ":8080",
		Game: GameConfig{Params: "expert"},
		Session: SessionConfig{
			TickInterval: Duration{250 * time.Millisecond},
			IdleTimeout:  Duration{30 * time.Minute},
			MaxSessions:  1000,
		},
		Log: LogConfig{
			MaxSizeMB:  50,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

func (c Config) Fields() logrus.Fields {
	fields := logrus.Fields{
		"mode":                  c.Mode,
		"addr":                  c.Addr,
		"cors_origins":          c.CorsOrigins,
		"game_params":           c.Game.Params,
		"game_solver":           c.Game.Solver,
		"session_tick_interval": c.Session.TickInterval.String(),
		"session_idle_timeout":  c.Session.IdleTimeout.String(),
		"session_max":           c.Session.MaxSessions,
		"log_file":              c.Log.File,
	}
	if c.Postgres != nil {
		fields["pg_host"] = c.Postgres.Host
		fields["pg_port"] = c.Postgres.Port
		fields["pg_user"] = c.Postgres.Username
		fields["pg_db_name"] = c.Postgres.DBName
	}
	return fields
}

func (c Config) Production() bool {
	return c.Mode == "production"
}

func (c Config) Development() bool {
	return c.Mode != "production"
}

// Validate checks the values the server can't start without.
func (c Config) Validate() error {
	if c.Addr == "" {
		return errors.New("addr is empty")
	}
	if _, err := c.Game.GameParams(); err != nil {
		return fmt.Errorf("game.params: %w", err)
	}
	if c.Session.TickInterval.Duration <= 0 {
		return errors.New("session.tick_interval must be positive")
	}
	if c.Session.IdleTimeout.Duration <= 0 {
		return errors.New("session.idle_timeout must be positive")
	}
	return nil
}

// ReadConfig reads the JSON file at path over config, so fields missing
// from the file keep their current values.
func ReadConfig(path string, config *Config) error {
	if b, err := os.ReadFile(path); err != nil {
		return err
	} else {
		return json.Unmarshal(b, config)
	}
}

// ApplyEnv overrides config with APP_ADDR and APP_MODE when they are set.
func ApplyEnv(config *Config) {
	if addr, ok := os.LookupEnv("APP_ADDR"); ok {
		config.Addr = addr
	}
	if mode, ok := os.LookupEnv("APP_MODE"); ok {
		config.Mode = mode
	}
}

// Load builds the effective config: defaults, then the file at path (if
// any), then the environment.
func Load(path string) (Config, error) {
	config := Default()
	if path != "" {
		if err := ReadConfig(path, &config); err != nil {
			return config, fmt.Errorf("unable to read config %s: %w", path, err)
		}
	}
	ApplyEnv(&config)
	return config, config.Validate()
}
