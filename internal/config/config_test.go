package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsValidate(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, cfg.Validate())
	assert.True(t, cfg.Copy.DryRun, "defaults must be safe to run")
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
mode = "monitor"
log_level = "debug"

[copy]
poll_interval = "10s"
sizing_mode = "fixed"
amount_usdc = 25.0
order_type = "FOK"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "monitor", cfg.Mode)
	assert.Equal(t, 10*time.Second, cfg.Copy.PollInterval.Duration)
	assert.Equal(t, "fixed", cfg.Copy.SizingMode)
	assert.Equal(t, 25.0, cfg.Copy.AmountUSDC)
	assert.Equal(t, "FOK", cfg.Copy.OrderType)
	// Untouched sections keep their defaults.
	assert.Equal(t, "https://data-api.polymarket.com", cfg.Polymarket.DataHost)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("COPYBOT_COPY_PERCENTAGE", "5.5")
	t.Setenv("COPYBOT_COPY_DRY_RUN", "false")
	t.Setenv("COPYBOT_COPY_POLL_INTERVAL", "45s")
	t.Setenv("COPYBOT_WALLET_PRIVATE_KEY", "0xabc123")

	cfg := Defaults()
	applyEnvOverrides(&cfg)

	assert.Equal(t, 5.5, cfg.Copy.Percentage)
	assert.False(t, cfg.Copy.DryRun)
	assert.Equal(t, 45*time.Second, cfg.Copy.PollInterval.Duration)
	assert.Equal(t, "0xabc123", cfg.Wallet.PrivateKey)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"bad mode", func(c *Config) { c.Mode = "turbo" }, "unknown mode"},
		{"bad sizing mode", func(c *Config) { c.Copy.SizingMode = "random" }, "sizing_mode"},
		{"bad order type", func(c *Config) { c.Copy.OrderType = "IOC" }, "order_type"},
		{"min above max", func(c *Config) { c.Copy.MinTradeSize = 500 }, "min_trade_size"},
		{"slippage out of range", func(c *Config) { c.Copy.SlippageTolerance = 0.6 }, "slippage_tolerance"},
		{"poll too fast", func(c *Config) { c.Copy.PollInterval = duration{100 * time.Millisecond} }, "poll_interval"},
		{"live copy without key", func(c *Config) { c.Copy.DryRun = false }, "wallet"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestRedactedConfig(t *testing.T) {
	cfg := Defaults()
	cfg.Wallet.PrivateKey = "0xdeadbeef"
	cfg.Wallet.KeyPassword = "hunter2"

	red := RedactedConfig(&cfg)

	assert.Equal(t, "***", red.Wallet.PrivateKey)
	assert.Equal(t, "***", red.Wallet.KeyPassword)
	// Original untouched.
	assert.Equal(t, "0xdeadbeef", cfg.Wallet.PrivateKey)
	// Empty secrets stay empty rather than becoming "***".
	assert.Empty(t, red.Wallet.EncryptedKeyPath)
}
