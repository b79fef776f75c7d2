// Package config defines the top-level configuration for the copy-trading
// bot and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by COPYBOT_* environment variables.
type Config struct {
	Wallet      WalletConfig      `toml:"wallet"`
	Polymarket  PolymarketConfig  `toml:"polymarket"`
	Copy        CopyConfig        `toml:"copy"`
	Feed        FeedConfig        `toml:"feed"`
	Leaderboard LeaderboardConfig `toml:"leaderboard"`
	Mode        string            `toml:"mode"`
	LogLevel    string            `toml:"log_level"`
}

// WalletConfig holds Ethereum wallet credentials.
type WalletConfig struct {
	PrivateKey       string `toml:"private_key"`
	EncryptedKeyPath string `toml:"encrypted_key_path"`
	KeyPassword      string `toml:"key_password"`
}

// PolymarketConfig holds Polymarket API endpoints and chain parameters.
type PolymarketConfig struct {
	ClobHost        string `toml:"clob_host"`
	GammaHost       string `toml:"gamma_host"`
	DataHost        string `toml:"data_host"`
	WsHost          string `toml:"ws_host"`
	ChainID         int    `toml:"chain_id"`
	SignatureType   int    `toml:"signature_type"`
	CredentialsFile string `toml:"credentials_file"`
}

// CopyConfig holds the copy-trading policy: which trades to mirror and how
// to size the mirror orders.
type CopyConfig struct {
	DryRun       bool     `toml:"dry_run"`
	TradersFile  string   `toml:"traders_file"`
	PollInterval duration `toml:"poll_interval"`

	// SizingMode selects between a fixed USDC amount per copy ("fixed") and
	// a percentage of the source trade ("percentage").
	SizingMode string  `toml:"sizing_mode"`
	AmountUSDC float64 `toml:"amount_usdc"`
	Percentage float64 `toml:"percentage"`
	// SizingBasis selects what the percentage applies to: the source
	// trade's USDC notional ("notional") or its share count ("shares").
	SizingBasis string `toml:"sizing_basis"`

	CopySells    bool    `toml:"copy_sells"`
	MinTradeSize float64 `toml:"min_trade_size"`
	MaxTradeSize float64 `toml:"max_trade_size"`

	// OrderType is the time-in-force for copy orders: FOK, FAK, or GTC.
	OrderType         string   `toml:"order_type"`
	SlippageTolerance float64  `toml:"slippage_tolerance"`
	GtcTimeout        duration `toml:"gtc_timeout"`
}

// FeedConfig controls the optional real-time WebSocket detection source.
type FeedConfig struct {
	Enabled bool `toml:"enabled"`
}

// LeaderboardConfig holds parameters for the leaderboard mode.
type LeaderboardConfig struct {
	Limit  int    `toml:"limit"`
	SortBy string `toml:"sort_by"` // "pnl" or "vol"
	Window string `toml:"window"`  // "1d", "7d", "30d", "all"
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Polymarket: PolymarketConfig{
			ClobHost:        "https://clob.polymarket.com",
			GammaHost:       "https://gamma-api.polymarket.com",
			DataHost:        "https://data-api.polymarket.com",
			WsHost:          "wss://ws-subscriptions-clob.polymarket.com",
			ChainID:         137,
			SignatureType:   0,
			CredentialsFile: "credentials.json",
		},
		Copy: CopyConfig{
			DryRun:            true,
			TradersFile:       "traders.json",
			PollInterval:      duration{30 * time.Second},
			SizingMode:        "percentage",
			AmountUSDC:        10.0,
			Percentage:        10.0,
			SizingBasis:       "notional",
			CopySells:         true,
			MinTradeSize:      1.0,
			MaxTradeSize:      100.0,
			OrderType:         "FAK",
			SlippageTolerance: 0.01,
			GtcTimeout:        duration{5 * time.Minute},
		},
		Feed: FeedConfig{
			Enabled: false,
		},
		Leaderboard: LeaderboardConfig{
			Limit:  20,
			SortBy: "pnl",
			Window: "30d",
		},
		Mode:     "copy",
		LogLevel: "info",
	}
}

// Accepted values for Copy.SizingMode and Copy.SizingBasis.
const (
	SizingModeFixed      = "fixed"
	SizingModePercentage = "percentage"
	SizingBasisNotional  = "notional"
	SizingBasisShares    = "shares"
)

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"copy":        true,
	"monitor":     true,
	"leaderboard": true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// validOrderTypes enumerates the accepted values for Copy.OrderType.
var validOrderTypes = map[string]bool{
	"FOK": true,
	"FAK": true,
	"GTC": true,
}

// Validate checks Config for obviously invalid or missing values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	// Mode
	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: copy, monitor, leaderboard)", c.Mode))
	}

	// LogLevel
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Wallet: a key source is required for live copy mode; dry-run and the
	// read-only modes can run without one.
	needsWallet := strings.ToLower(c.Mode) == "copy" && !c.Copy.DryRun
	if needsWallet {
		if c.Wallet.PrivateKey == "" && c.Wallet.EncryptedKeyPath == "" {
			errs = append(errs, "wallet: either private_key or encrypted_key_path must be set for live copy mode")
		}
		if c.Wallet.EncryptedKeyPath != "" && c.Wallet.KeyPassword == "" {
			errs = append(errs, "wallet: key_password is required when encrypted_key_path is set")
		}
	}

	// Polymarket endpoints
	if c.Polymarket.ClobHost == "" {
		errs = append(errs, "polymarket: clob_host must not be empty")
	}
	if c.Polymarket.DataHost == "" {
		errs = append(errs, "polymarket: data_host must not be empty")
	}
	if c.Polymarket.GammaHost == "" {
		errs = append(errs, "polymarket: gamma_host must not be empty")
	}
	if c.Polymarket.ChainID <= 0 {
		errs = append(errs, "polymarket: chain_id must be positive")
	}
	if c.Polymarket.SignatureType < 0 || c.Polymarket.SignatureType > 2 {
		errs = append(errs, fmt.Sprintf("polymarket: signature_type must be 0 (EOA), 1 (proxy), or 2 (Safe), got %d", c.Polymarket.SignatureType))
	}

	// Copy policy
	if c.Copy.TradersFile == "" {
		errs = append(errs, "copy: traders_file must not be empty")
	}
	if c.Copy.PollInterval.Duration < time.Second {
		errs = append(errs, "copy: poll_interval must be at least 1s")
	}
	switch strings.ToLower(c.Copy.SizingMode) {
	case "fixed":
		if c.Copy.AmountUSDC <= 0 {
			errs = append(errs, "copy: amount_usdc must be > 0 in fixed sizing mode")
		}
	case "percentage":
		if c.Copy.Percentage <= 0 {
			errs = append(errs, "copy: percentage must be > 0 in percentage sizing mode")
		}
	default:
		errs = append(errs, fmt.Sprintf("copy: unknown sizing_mode %q (valid: fixed, percentage)", c.Copy.SizingMode))
	}
	switch strings.ToLower(c.Copy.SizingBasis) {
	case "notional", "shares":
	default:
		errs = append(errs, fmt.Sprintf("copy: unknown sizing_basis %q (valid: notional, shares)", c.Copy.SizingBasis))
	}
	if c.Copy.MinTradeSize < 0 {
		errs = append(errs, "copy: min_trade_size must be >= 0")
	}
	if c.Copy.MaxTradeSize <= 0 {
		errs = append(errs, "copy: max_trade_size must be > 0")
	}
	if c.Copy.MinTradeSize > c.Copy.MaxTradeSize {
		errs = append(errs, "copy: min_trade_size must not exceed max_trade_size")
	}
	if !validOrderTypes[strings.ToUpper(c.Copy.OrderType)] {
		errs = append(errs, fmt.Sprintf("copy: unknown order_type %q (valid: FOK, FAK, GTC)", c.Copy.OrderType))
	}
	if c.Copy.SlippageTolerance < 0 || c.Copy.SlippageTolerance >= 0.5 {
		errs = append(errs, fmt.Sprintf("copy: slippage_tolerance must be in [0, 0.5), got %g", c.Copy.SlippageTolerance))
	}
	if strings.ToUpper(c.Copy.OrderType) == "GTC" && c.Copy.GtcTimeout.Duration <= 0 {
		errs = append(errs, "copy: gtc_timeout must be > 0 when order_type is GTC")
	}

	// Leaderboard
	if strings.ToLower(c.Mode) == "leaderboard" {
		if c.Leaderboard.Limit <= 0 {
			errs = append(errs, "leaderboard: limit must be > 0")
		}
		switch c.Leaderboard.SortBy {
		case "pnl", "vol":
		default:
			errs = append(errs, fmt.Sprintf("leaderboard: unknown sort_by %q (valid: pnl, vol)", c.Leaderboard.SortBy))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
