// Package config holds runtime settings for the subaru binary.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Backend names accepted by Config.Backend.
const (
	BackendSQLite = "sqlite"
	BackendBolt   = "bolt"
)

// Config is read from SUBARU_* environment variables; command line flags
// override it.
type Config struct {
	Backend  string `env:"SUBARU_BACKEND" envDefault:"sqlite"`
	DBPath   string `env:"SUBARU_DB"`
	Addr     string `env:"SUBARU_ADDR" envDefault:":8080"`
	ImageDir string `env:"SUBARU_IMAGE_DIR" envDefault:"images"`
	LogPath  string `env:"SUBARU_LOG"`
}

// Load parses the environment into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Validate checks the backend name and fills in the default database path
// for it.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendSQLite:
		if c.DBPath == "" {
			c.DBPath = "subaru.sqlite3"
		}
	case BackendBolt:
		if c.DBPath == "" {
			c.DBPath = "subaru.db"
		}
	default:
		return fmt.Errorf("unknown backend %q (want %s or %s)", c.Backend, BackendSQLite, BackendBolt)
	}
	if c.Addr == "" {
		return fmt.Errorf("listen address required")
	}
	return nil
}
