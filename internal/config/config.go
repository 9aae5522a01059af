// Package config loads binary settings from MYTHFORMS_* environment
// variables, with command-line flags taking precedence.
package config

import (
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the settings shared by the mythforms binaries.
type Config struct {
	StoreDir   string        `env:"MYTHFORMS_STORE_DIR" envDefault:"data/records"`
	StoreURL   string        `env:"MYTHFORMS_STORE_URL"`
	DraftsDB   string        `env:"MYTHFORMS_DRAFTS_DB" envDefault:"data/drafts.db"`
	Addr       string        `env:"MYTHFORMS_ADDR" envDefault:":8080"`
	DraftDelay time.Duration `env:"MYTHFORMS_DRAFT_DELAY" envDefault:"3s"`
	MaxUpload  int64         `env:"MYTHFORMS_MAX_UPLOAD" envDefault:"10485760"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Parse loads the environment, then applies flags from args on fs.
func Parse(fs *flag.FlagSet, args []string) (Config, error) {
	cfg, err := ParseEnv()
	if err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.StoreDir, "store-dir", cfg.StoreDir, "directory of the JSON record store")
	fs.StringVar(&cfg.StoreURL, "store-url", cfg.StoreURL, "base URL of a remote record store (overrides -store-dir)")
	fs.StringVar(&cfg.DraftsDB, "drafts", cfg.DraftsDB, "SQLite file for drafts (\":memory:\" keeps them in memory)")
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "listen address")
	fs.DurationVar(&cfg.DraftDelay, "draft-delay", cfg.DraftDelay, "quiet period before a draft is saved")
	fs.Int64Var(&cfg.MaxUpload, "max-upload", cfg.MaxUpload, "largest accepted upload in bytes")
	if err := fs.Parse(args); err != nil {
		return Config{}, fmt.Errorf("parse flags: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports settings no binary can run with.
func (c Config) Validate() error {
	if c.StoreDir == "" && c.StoreURL == "" {
		return errors.New("config: a store directory or store URL is required")
	}
	if c.DraftDelay <= 0 {
		return fmt.Errorf("config: draft delay must be positive, got %s", c.DraftDelay)
	}
	if c.MaxUpload <= 0 {
		return fmt.Errorf("config: max upload must be positive, got %d", c.MaxUpload)
	}
	return nil
}
