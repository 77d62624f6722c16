package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap/zapcore"
)

// Duration is a time.Duration written as a string ("500ms", "30s") in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Config represents ~/.imsg/config.toml. Empty paths select the macOS defaults.
type Config struct {
	ChatDB            string   `toml:"chat_db"`
	AddressBookDir    string   `toml:"address_book_dir"`
	PollInterval      Duration `toml:"poll_interval"`
	WatchFS           bool     `toml:"watch_fs"`
	ConversationLimit int      `toml:"conversation_limit"`
	MessageLimit      int      `toml:"message_limit"`
	DispatchTimeout   Duration `toml:"dispatch_timeout"`
	HistoryLimit      int      `toml:"history_limit"`
	LogLevel          string   `toml:"log_level"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		PollInterval:      Duration{500 * time.Millisecond},
		WatchFS:           true,
		ConversationLimit: 50,
		MessageLimit:      100,
		DispatchTimeout:   Duration{30 * time.Second},
		HistoryLimit:      200,
		LogLevel:          "info",
	}
}

// Load reads config from path on top of the defaults. Returns an error if
// the file is missing or invalid.
func Load(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LoadOrDefault is Load, except that a missing file yields the defaults.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.PollInterval.Duration < 50*time.Millisecond {
		return fmt.Errorf("poll_interval %s is below 50ms", c.PollInterval)
	}
	if c.DispatchTimeout.Duration <= 0 {
		return fmt.Errorf("dispatch_timeout must be positive")
	}
	if c.ConversationLimit <= 0 || c.MessageLimit <= 0 {
		return fmt.Errorf("conversation_limit and message_limit must be positive")
	}
	if c.HistoryLimit < 0 {
		return fmt.Errorf("history_limit must not be negative")
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel.
func (c *Config) Level() (zapcore.Level, error) {
	if c.LogLevel == "" {
		return zapcore.InfoLevel, nil
	}
	lvl, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return lvl, fmt.Errorf("log_level: %w", err)
	}
	return lvl, nil
}

// Save writes config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}
