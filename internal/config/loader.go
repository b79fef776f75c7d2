package config

import (
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies COPYBOT_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known COPYBOT_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// --- Wallet ---
	setStr(&cfg.Wallet.PrivateKey, "COPYBOT_WALLET_PRIVATE_KEY")
	setStr(&cfg.Wallet.PrivateKey, "PK") // compatibility alias
	setStr(&cfg.Wallet.EncryptedKeyPath, "COPYBOT_WALLET_ENCRYPTED_KEY_PATH")
	setStr(&cfg.Wallet.KeyPassword, "COPYBOT_WALLET_KEY_PASSWORD")

	// --- Polymarket ---
	setStr(&cfg.Polymarket.ClobHost, "COPYBOT_POLYMARKET_CLOB_HOST")
	setStr(&cfg.Polymarket.GammaHost, "COPYBOT_POLYMARKET_GAMMA_HOST")
	setStr(&cfg.Polymarket.DataHost, "COPYBOT_POLYMARKET_DATA_HOST")
	setStr(&cfg.Polymarket.WsHost, "COPYBOT_POLYMARKET_WS_HOST")
	setInt(&cfg.Polymarket.ChainID, "COPYBOT_POLYMARKET_CHAIN_ID")
	setInt(&cfg.Polymarket.SignatureType, "COPYBOT_POLYMARKET_SIGNATURE_TYPE")
	setStr(&cfg.Polymarket.CredentialsFile, "COPYBOT_POLYMARKET_CREDENTIALS_FILE")

	// --- Copy policy ---
	setBool(&cfg.Copy.DryRun, "COPYBOT_COPY_DRY_RUN")
	setStr(&cfg.Copy.TradersFile, "COPYBOT_COPY_TRADERS_FILE")
	setDuration(&cfg.Copy.PollInterval, "COPYBOT_COPY_POLL_INTERVAL")
	setStr(&cfg.Copy.SizingMode, "COPYBOT_COPY_SIZING_MODE")
	setFloat64(&cfg.Copy.AmountUSDC, "COPYBOT_COPY_AMOUNT_USDC")
	setFloat64(&cfg.Copy.Percentage, "COPYBOT_COPY_PERCENTAGE")
	setStr(&cfg.Copy.SizingBasis, "COPYBOT_COPY_SIZING_BASIS")
	setBool(&cfg.Copy.CopySells, "COPYBOT_COPY_COPY_SELLS")
	setFloat64(&cfg.Copy.MinTradeSize, "COPYBOT_COPY_MIN_TRADE_SIZE")
	setFloat64(&cfg.Copy.MaxTradeSize, "COPYBOT_COPY_MAX_TRADE_SIZE")
	setStr(&cfg.Copy.OrderType, "COPYBOT_COPY_ORDER_TYPE")
	setFloat64(&cfg.Copy.SlippageTolerance, "COPYBOT_COPY_SLIPPAGE_TOLERANCE")
	setDuration(&cfg.Copy.GtcTimeout, "COPYBOT_COPY_GTC_TIMEOUT")

	// --- Feed ---
	setBool(&cfg.Feed.Enabled, "COPYBOT_FEED_ENABLED")

	// --- Leaderboard ---
	setInt(&cfg.Leaderboard.Limit, "COPYBOT_LEADERBOARD_LIMIT")
	setStr(&cfg.Leaderboard.SortBy, "COPYBOT_LEADERBOARD_SORT_BY")
	setStr(&cfg.Leaderboard.Window, "COPYBOT_LEADERBOARD_WINDOW")

	// --- Top-level ---
	setStr(&cfg.Mode, "COPYBOT_MODE")
	setStr(&cfg.LogLevel, "COPYBOT_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}
