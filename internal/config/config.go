// Package config handles process settings and the feed configuration tree.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/cristalhq/aconfig"
)

// Storage backends for seen-sets.
const (
	StorageFile   = "file"
	StorageSQLite = "sqlite"
)

// Settings holds the process-level configuration.
// Values come from defaults, then environment variables, then flags.
type Settings struct {
	ConfigPath       string        `default:"config.yaml" env:"CONFIG_PATH" flag:"config" usage:"path to the feed configuration file"`
	DataPath         string        `default:"/data" env:"DATA_PATH" flag:"data" usage:"directory for seen-sets and the log file"`
	LogLevel         string        `default:"info" env:"LOG_LEVEL" flag:"log-level" usage:"debug, info, warn or error"`
	Tick             time.Duration `default:"10s" env:"TICK" flag:"tick" usage:"how often feeds are checked for being due"`
	FetchTimeout     time.Duration `default:"30s" env:"FETCH_TIMEOUT" flag:"fetch-timeout" usage:"timeout for one feed download"`
	SendTimeout      time.Duration `default:"30s" env:"SEND_TIMEOUT" flag:"send-timeout" usage:"timeout for one notification"`
	Workers          int           `default:"1" env:"WORKERS" flag:"workers" usage:"feeds processed in parallel"`
	Storage          string        `default:"file" env:"STORAGE" flag:"storage" usage:"seen-set backend: file or sqlite"`
	TelegramBotToken string        `env:"TELEGRAM_BOT_TOKEN" flag:"telegram-token" usage:"bot token for tg:// destinations"`
	MetricsAddr      string        `env:"METRICS_ADDR" flag:"metrics-addr" usage:"listen address for /metrics, empty disables"`
}

// LoadSettings reads settings from the environment and the given command-line arguments.
func LoadSettings(args []string) (*Settings, error) {
	var s Settings
	loader := aconfig.LoaderFor(&s, aconfig.Config{
		SkipFiles: true,
		Args:      args,
	})
	if err := loader.Load(); err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	s.LogLevel = strings.ToLower(s.LogLevel)
	s.Storage = strings.ToLower(s.Storage)

	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Settings) validate() error {
	if s.Tick <= 0 {
		return fmt.Errorf("tick must be positive, got %s", s.Tick)
	}
	if s.FetchTimeout <= 0 || s.SendTimeout <= 0 {
		return fmt.Errorf("timeouts must be positive")
	}
	if s.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", s.Workers)
	}
	switch s.Storage {
	case StorageFile, StorageSQLite:
	default:
		return fmt.Errorf("unknown storage %q, use %s or %s", s.Storage, StorageFile, StorageSQLite)
	}
	if s.DataPath == "" {
		return fmt.Errorf("data path is required")
	}
	return nil
}
