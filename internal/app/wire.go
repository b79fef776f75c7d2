package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/Naeaerc20/polymarket-copy-bot/internal/config"
	"github.com/Naeaerc20/polymarket-copy-bot/internal/crypto"
	"github.com/Naeaerc20/polymarket-copy-bot/internal/executor"
	"github.com/Naeaerc20/polymarket-copy-bot/internal/feed"
	"github.com/Naeaerc20/polymarket-copy-bot/internal/monitor"
	"github.com/Naeaerc20/polymarket-copy-bot/internal/platform/polymarket"
	"github.com/Naeaerc20/polymarket-copy-bot/internal/traders"
)

// Dependencies bundles everything the application modes need. It is
// constructed by Wire and torn down by the returned cleanup function.
type Dependencies struct {
	Data  *polymarket.DataClient
	Gamma *polymarket.GammaClient
	Clob  *polymarket.ClobClient

	Traders  *traders.Snapshot
	Monitor  *monitor.Monitor
	Executor *executor.Executor
	Feed     *feed.RealtimeFeed
}

// needsPipeline reports whether the mode runs the detection pipeline.
func needsPipeline(mode string) bool {
	switch mode {
	case "copy", "monitor":
		return true
	default:
		return false
	}
}

// Wire constructs the concrete dependencies for the configured mode and
// returns them with a cleanup function to call on shutdown.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	mode := strings.ToLower(cfg.Mode)
	deps := &Dependencies{
		Data:  polymarket.NewDataClient(cfg.Polymarket.DataHost),
		Gamma: polymarket.NewGammaClient(cfg.Polymarket.GammaHost),
	}

	if needsPipeline(mode) {
		snap, err := traders.Load(cfg.Copy.TradersFile)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: traders: %w", err)
		}
		deps.Traders = snap
		deps.Monitor = monitor.New(deps.Data, snap, logger)

		logger.Info("trader policy loaded",
			slog.String("file", cfg.Copy.TradersFile),
			slog.Int("traders", snap.Len()),
			slog.Int("enabled", len(snap.Enabled())),
		)
	}

	// Live copy mode needs the full credential stack: signing key, CLOB
	// client, and HMAC API credentials. Every other mode (including
	// dry-run copy) stays read-only.
	live := mode == "copy" && !cfg.Copy.DryRun
	opts := executor.Options{
		DryRun:        !live,
		SignatureType: cfg.Polymarket.SignatureType,
		Slippage:      cfg.Copy.SlippageTolerance,
		GtcTimeout:    cfg.Copy.GtcTimeout.Duration,
	}

	if live {
		key, err := crypto.LoadKey(cfg.Wallet.PrivateKey, cfg.Wallet.EncryptedKeyPath, cfg.Wallet.KeyPassword)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: wallet key: %w", err)
		}
		signer, err := crypto.NewSigner(key, cfg.Polymarket.ChainID)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: signer: %w", err)
		}
		logger.Info("wallet loaded", slog.String("address", signer.Address().Hex()))

		deps.Clob = polymarket.NewClobClient(cfg.Polymarket.ClobHost, signer, nil)
		creds, err := resolveCredentials(ctx, cfg, deps.Clob, signer, logger)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: credentials: %w", err)
		}
		opts.APIKey = creds.Key

		deps.Executor = executor.New(deps.Clob, deps.Gamma, signer, executor.DefaultRetryPolicy(), opts, logger)
		closers = append(closers, deps.Executor.Close)

		if cfg.Feed.Enabled {
			ws := polymarket.NewWSClient(cfg.Polymarket.WsHost, creds)
			closers = append(closers, func() { _ = ws.Close() })
			deps.Feed = feed.New(ws, logger)
		}
	} else if needsPipeline(mode) {
		deps.Executor = executor.New(nil, deps.Gamma, nil, executor.DefaultRetryPolicy(), opts, logger)
	}

	return deps, cleanup, nil
}

// resolveCredentials loads saved API credentials and verifies them against
// the CLOB, deriving and persisting a fresh set when nothing usable is on
// disk.
func resolveCredentials(ctx context.Context, cfg *config.Config, clob *polymarket.ClobClient, signer *crypto.Signer, logger *slog.Logger) (crypto.APICredentials, error) {
	path := cfg.Polymarket.CredentialsFile

	creds, err := crypto.LoadCredentials(path)
	switch {
	case err == nil && strings.EqualFold(creds.Address, signer.Address().Hex()):
		clob.SetAuth(creds.HMAC())
		if verifyErr := clob.VerifyCredentials(ctx); verifyErr == nil {
			logger.Info("api credentials verified", slog.String("file", path))
			return creds, nil
		}
		logger.Warn("saved api credentials rejected, deriving fresh ones")
	case err == nil:
		logger.Warn("saved api credentials belong to a different wallet, deriving fresh ones")
	case errors.Is(err, os.ErrNotExist):
		logger.Info("no saved api credentials, deriving")
	default:
		return crypto.APICredentials{}, err
	}

	creds, err = clob.DeriveAPIKey(ctx)
	if err != nil {
		return crypto.APICredentials{}, err
	}
	if err := crypto.SaveCredentials(path, creds); err != nil {
		return crypto.APICredentials{}, err
	}
	logger.Info("api credentials derived and saved", slog.String("file", path))
	return creds, nil
}
