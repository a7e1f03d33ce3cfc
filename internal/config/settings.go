package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Settings are the runtime knobs read from brawlsim.toml.
type Settings struct {
	Assets   string          `toml:"assets"`
	Battle   BattleSettings  `toml:"battle"`
	Rates    RatesSettings   `toml:"rates"`
	Narrator NarratorConfig  `toml:"narrator"`
	Batch    BatchSettings   `toml:"batch"`
	Logging  LoggingSettings `toml:"logging"`
}

type BattleSettings struct {
	TickInterval time.Duration `toml:"tick_interval"`
	MaxTurns     int           `toml:"max_turns"` // 0 disables the stalemate guard
	LogCap       int           `toml:"log_cap"`
	Seed         int64         `toml:"seed"` // 0 seeds from the clock
}

type RatesSettings struct {
	ExpRate   float64 `toml:"exp_rate"`
	TokenRate float64 `toml:"token_rate"`
}

type NarratorConfig struct {
	Enabled bool   `toml:"enabled"`
	Script  string `toml:"script"`
}

type BatchSettings struct {
	Workers int `toml:"workers"`
}

type LoggingSettings struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := Defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func Defaults() *Settings {
	return &Settings{
		Assets: "assets",
		Battle: BattleSettings{
			TickInterval: 1800 * time.Millisecond,
			MaxTurns:     200,
			LogCap:       100,
		},
		Rates: RatesSettings{
			ExpRate:   1.0,
			TokenRate: 1.0,
		},
		Narrator: NarratorConfig{
			Enabled: true,
			Script:  "assets/narrator/combat.lua",
		},
		Batch: BatchSettings{
			Workers: 8,
		},
		Logging: LoggingSettings{
			Level:  "info",
			Format: "console",
		},
	}
}

func (s *Settings) validate() error {
	if s.Battle.TickInterval < 0 {
		return fmt.Errorf("battle.tick_interval must not be negative")
	}
	if s.Battle.MaxTurns < 0 {
		return fmt.Errorf("battle.max_turns must not be negative")
	}
	if s.Battle.LogCap <= 0 {
		return fmt.Errorf("battle.log_cap must be positive")
	}
	if s.Rates.ExpRate < 0 || s.Rates.TokenRate < 0 {
		return fmt.Errorf("rates must not be negative")
	}
	if s.Batch.Workers <= 0 {
		return fmt.Errorf("batch.workers must be positive")
	}
	return nil
}
