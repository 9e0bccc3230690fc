package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// DefaultPath is used when neither -config nor CONFIG_PATH is given.
const DefaultPath = "configs/config.yaml"

// Config holds all application configuration.
type Config struct {
	Game struct {
		Symbol         string `yaml:"symbol"`
		Year           int    `yaml:"year"`
		LookbackDays   int    `yaml:"lookback_days"`
		InitialCapital int64  `yaml:"initial_capital"`
		WindowDays     int    `yaml:"window_days"`
		Currency       string `yaml:"currency"`
		Debug          bool   `yaml:"debug"`
	} `yaml:"game"`
	DataSource struct {
		Provider string `yaml:"provider"`
		CSVPath  string `yaml:"csv_path"`
	} `yaml:"data_source"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"` // empty keeps progress in memory
	} `yaml:"database"`
	Session struct {
		StateFile string `yaml:"state_file"`
	} `yaml:"session"`
	Schedule struct {
		AutoplayCron string `yaml:"autoplay_cron"`
		AutoplayDays int    `yaml:"autoplay_days"`
	} `yaml:"schedule"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Proxy string `yaml:"proxy"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	cfg := &Config{}
	cfg.Game.Symbol = "7203.T"
	cfg.Game.Year = 2024
	cfg.Game.LookbackDays = 220
	cfg.Game.InitialCapital = 1000000
	cfg.Game.WindowDays = 60
	cfg.Game.Currency = "JPY"
	cfg.DataSource.Provider = "yahoo"
	cfg.Database.SQLitePath = "data/chartquest.db"
	cfg.Session.StateFile = "data/session.json"
	cfg.Schedule.AutoplayDays = 1
	return cfg
}

// Load reads config from a YAML file over the defaults, then applies
// environment variable overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("CHARTQUEST_SYMBOL"); v != "" {
		cfg.Game.Symbol = v
	}
	if v := os.Getenv("CHARTQUEST_YEAR"); v != "" {
		year, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("CHARTQUEST_YEAR: %w", err)
		}
		cfg.Game.Year = year
	}
	if v := os.Getenv("CHARTQUEST_PROVIDER"); v != "" {
		cfg.DataSource.Provider = v
	}
	if v := os.Getenv("CHARTQUEST_CSV"); v != "" {
		cfg.DataSource.CSVPath = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("CRON_AUTOPLAY"); v != "" {
		cfg.Schedule.AutoplayCron = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}

	if cfg.Schedule.AutoplayDays <= 0 {
		cfg.Schedule.AutoplayDays = 1
	}
	return cfg, nil
}

// Validate checks that the configuration can start a game.
func (c *Config) Validate() error {
	if c.Game.Symbol == "" {
		return fmt.Errorf("game.symbol is required")
	}
	if c.Game.Year < 1970 || c.Game.Year > 9999 {
		return fmt.Errorf("game.year %d is out of range", c.Game.Year)
	}
	if c.Game.InitialCapital <= 0 {
		return fmt.Errorf("game.initial_capital must be positive")
	}
	if c.Game.LookbackDays < 0 {
		return fmt.Errorf("game.lookback_days must not be negative")
	}
	switch c.DataSource.Provider {
	case "yahoo", "mock":
	case "csv":
		if c.DataSource.CSVPath == "" {
			return fmt.Errorf("data_source.csv_path is required for the csv provider")
		}
	default:
		return fmt.Errorf("unknown data_source.provider %q", c.DataSource.Provider)
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	return nil
}

// TelegramEnabled reports whether announcements should also go to Telegram.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}
