package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config is the full set of recognized options for the EOD job. It is built
// once in main and handed to each component at construction; nothing reads the
// process environment after Load returns.
type Config struct {
	// ORATS
	OratsToken   string `envconfig:"ORATS_TOKEN"`
	OratsBaseURL string `envconfig:"ORATS_BASE_URL" default:"https://api.orats.io/datav2"`

	// Universe
	Ticker      string `envconfig:"TICKER" default:"SPX"`
	ProxyTicker string `envconfig:"PROXY_TICKER" default:"SPY"`

	// Derivation
	DTEMax             int     `envconfig:"DTE_MAX" default:"400"`
	ContractMultiplier float64 `envconfig:"CONTRACT_MULTIPLIER" default:"100"`

	// Date resolution
	LookbackDays int `envconfig:"LOOKBACK_DAYS" default:"7"`

	// Database
	DatabaseURL string `envconfig:"DATABASE_URL"`

	// Logging
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	AppEnv   string `envconfig:"APP_ENV" default:"development"`
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}
	return &cfg, nil
}

// Validate checks everything except the ORATS token, which may still arrive
// via the -token flag after Load.
func (c *Config) Validate() error {
	var errs []string

	if c.Ticker == "" {
		errs = append(errs, "TICKER must not be empty")
	}
	if c.DatabaseURL == "" {
		errs = append(errs, "DATABASE_URL is required")
	}
	if c.LookbackDays <= 0 {
		errs = append(errs, "LOOKBACK_DAYS must be positive")
	}
	if c.ContractMultiplier <= 0 {
		errs = append(errs, "CONTRACT_MULTIPLIER must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}
