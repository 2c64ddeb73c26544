package casepilot

import (
	"errors"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the environment-driven configuration of the core. Backend
// connection settings (Postgres, Redis, Mongo, S3, Paddle, Postmark) live in
// their packages' own Config structs and are parsed by whoever constructs
// those backends.
type Config struct {
	Environment string `env:"APP_ENV" envDefault:"development"`
	ServiceName string `env:"SERVICE_NAME" envDefault:"casepilot"`

	// PlanCatalogPath points at a YAML tier catalog. Empty means the
	// built-in catalog.
	PlanCatalogPath string `env:"PLAN_CATALOG_PATH"`

	TrialDays     int `env:"TRIAL_DAYS" envDefault:"14"`
	RetentionDays int `env:"RETENTION_DAYS" envDefault:"30"`

	// ProcessingDelay is how long an admitted case stays in analysis before
	// its draft is produced.
	ProcessingDelay time.Duration `env:"PROCESSING_DELAY" envDefault:"90s"`
}

var ErrFailedToParseConfig = errors.New("failed to parse configuration")

// LoadConfig reads .env (if present) and parses the environment into a
// Config.
func LoadConfig() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, errors.Join(ErrFailedToParseConfig, err)
	}
	return cfg, nil
}
