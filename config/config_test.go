package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "marketplace", cfg.App.Name)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, 3, cfg.Database.Retry.MaxAttempts)
	assert.Equal(t, 100*time.Millisecond, cfg.Database.Retry.InitialDelay)
	assert.Equal(t, "USD", cfg.Pricing.Currency)
	assert.Equal(t, "0.08", cfg.Pricing.TaxRate)
	assert.Equal(t, 2*time.Second, cfg.Outbox.PollInterval)
	assert.Equal(t, "0 0 3 * * *", cfg.Outbox.CleanupCron)
	assert.Equal(t, 168*time.Hour, cfg.Outbox.Retention)
	assert.False(t, cfg.Kafka.Enabled)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	path := filepath.Join(dir, "config.yaml")
	yaml := []byte(`
app:
  env: production
database:
  driver: sqlite
  database: market.db
pricing:
  currency: EUR
  tax_rate: "0.2"
outbox:
  batch_size: 25
`)
	require.NoError(t, os.WriteFile(path, yaml, 0o600))

	t.Setenv("MARKET_SERVER_PORT", "9090")
	t.Setenv("MARKET_OUTBOX_BATCH_SIZE", "50")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "market.db", cfg.Database.Database)
	assert.Equal(t, "EUR", cfg.Pricing.Currency)
	assert.Equal(t, "0.2", cfg.Pricing.TaxRate)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 50, cfg.Outbox.BatchSize, "environment wins over the file")
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("MARKET_PRICING_CURRENCY=GBP\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("MARKET_PRICING_CURRENCY") })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "GBP", cfg.Pricing.Currency)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Database: DatabaseConfig{Driver: "mysql"},
			Pricing:  PricingConfig{Currency: "USD"},
			Outbox:   OutboxConfig{Enabled: true, PollInterval: time.Second, BatchSize: 10},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"unknown driver", func(c *Config) { c.Database.Driver = "postgres" }, "unsupported database driver"},
		{"missing currency", func(c *Config) { c.Pricing.Currency = "" }, "pricing.currency"},
		{"zero poll interval", func(c *Config) { c.Outbox.PollInterval = 0 }, "poll_interval"},
		{"zero batch", func(c *Config) { c.Outbox.BatchSize = 0 }, "batch_size"},
		{"disabled outbox skips checks", func(c *Config) { c.Outbox = OutboxConfig{} }, ""},
		{"kafka without brokers", func(c *Config) { c.Kafka.Enabled = true }, "kafka.brokers"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}
