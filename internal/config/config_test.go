package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{"MONEYJAR_JWT_SECRET": "s3cret"})
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, ":9090", cfg.GRPCAddr)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "TWD", cfg.ReportingCurrency)
	assert.Equal(t, time.Hour, cfg.RatesTTL)
	assert.Equal(t, 10*time.Second, cfg.PricePollInterval)
}

func TestLoadFrom_Overrides(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{
		"MONEYJAR_JWT_SECRET":         "s3cret",
		"MONEYJAR_DB_DRIVER":          "Postgres",
		"MONEYJAR_DB_DSN":             "host=localhost dbname=moneyjar sslmode=disable",
		"MONEYJAR_RATES_TTL":          "30m",
		"MONEYJAR_REPORTING_CURRENCY": "usd",
	})
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, 30*time.Minute, cfg.RatesTTL)
	assert.Equal(t, "USD", cfg.ReportingCurrency)
}

func TestLoadFrom_Errors(t *testing.T) {
	tests := []struct {
		name string
		vars map[string]string
		msg  string
	}{
		{"missing secret", map[string]string{}, "JWT_SECRET"},
		{"bad driver", map[string]string{"MONEYJAR_JWT_SECRET": "x", "MONEYJAR_DB_DRIVER": "mysql"}, "unsupported db driver"},
		{"zero ttl", map[string]string{"MONEYJAR_JWT_SECRET": "x", "MONEYJAR_RATES_TTL": "0s"}, "rates ttl"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFrom(tt.vars)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}
