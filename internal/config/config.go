package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// FormatsPath is a YAML file or a directory of them. Empty means the
	// embedded configs/formats.yaml.
	FormatsPath string `envconfig:"FORMATS_PATH"`
	DBPath      string `envconfig:"DB_PATH" default:"data/ledger.db" validate:"required"`
	OutputDir   string `envconfig:"OUTPUT_DIR" default:"out" validate:"required"`

	InboxDir         string `envconfig:"INBOX_DIR" default:"inbox"`
	WatchIntervalSec int    `envconfig:"WATCH_INTERVAL_SEC" default:"30" validate:"min=1"`
	WatchWorkers     int    `envconfig:"WATCH_WORKERS" default:"4" validate:"min=1,max=64"`
	WatchAutoExport  bool   `envconfig:"WATCH_AUTO_EXPORT" default:"true"`

	LogLevel    string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn warning error"`
	LogFormat   string `envconfig:"LOG_FORMAT" default:"text" validate:"oneof=text json"`
	MetricsAddr string `envconfig:"METRICS_ADDR" default:":9108"`
}

var validate = validator.New()

// Load reads .env if present, then the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

func FromEnv() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("read environment: %w", err)
	}
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	cfg.LogFormat = strings.ToLower(strings.TrimSpace(cfg.LogFormat))
	if err := validate.Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c Config) WatchInterval() time.Duration {
	return time.Duration(c.WatchIntervalSec) * time.Second
}

func (c Config) Require(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("missing required env var: %s", name)
	}
	return nil
}
