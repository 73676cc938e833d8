package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const envPrefix = "MONEYJAR_"

// Config holds the process configuration, read from MONEYJAR_* environment variables
type Config struct {
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`
	GRPCAddr string `env:"GRPC_ADDR" envDefault:":9090"`
	GinMode  string `env:"GIN_MODE" envDefault:"release"`

	DBDriver string `env:"DB_DRIVER" envDefault:"sqlite"`
	DBDSN    string `env:"DB_DSN" envDefault:"moneyjar.db"`

	JWTSecret string `env:"JWT_SECRET,required"`

	ReportingCurrency string `env:"REPORTING_CURRENCY" envDefault:"TWD"`

	RatesURL          string        `env:"RATES_URL"`
	RatesTTL          time.Duration `env:"RATES_TTL" envDefault:"1h"`
	PricesURL         string        `env:"PRICES_URL"`
	PricePollInterval time.Duration `env:"PRICE_POLL_INTERVAL" envDefault:"10s"`
	HTTPTimeout       time.Duration `env:"HTTP_TIMEOUT" envDefault:"5s"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load reads the configuration from the process environment
func Load() (*Config, error) {
	return load(env.Options{Prefix: envPrefix})
}

// LoadFrom reads the configuration from the given variables instead of the process environment
func LoadFrom(vars map[string]string) (*Config, error) {
	return load(env.Options{Prefix: envPrefix, Environment: vars})
}

func load(opts env.Options) (*Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values the env tags cannot express
func (c *Config) Validate() error {
	c.DBDriver = strings.ToLower(strings.TrimSpace(c.DBDriver))
	if c.DBDriver != "sqlite" && c.DBDriver != "postgres" {
		return fmt.Errorf("unsupported db driver %q (want sqlite or postgres)", c.DBDriver)
	}
	if strings.TrimSpace(c.DBDSN) == "" {
		return fmt.Errorf("db dsn is required")
	}
	if c.RatesTTL <= 0 {
		return fmt.Errorf("rates ttl must be positive")
	}
	if c.PricePollInterval <= 0 {
		return fmt.Errorf("price poll interval must be positive")
	}
	c.ReportingCurrency = strings.ToUpper(strings.TrimSpace(c.ReportingCurrency))
	return nil
}
