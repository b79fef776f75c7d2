// Command copybot mirrors the trades of selected Polymarket accounts. It
// loads configuration, applies CLI overrides, sets up signal handling, and
// starts the application in the configured mode.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Naeaerc20/polymarket-copy-bot/internal/app"
	"github.com/Naeaerc20/polymarket-copy-bot/internal/config"
)

func main() {
	configPath := flag.String("config", "config.toml", "path to configuration file")
	mode := flag.String("mode", "", "operating mode: copy, monitor, or leaderboard")
	dryRun := flag.Bool("dry-run", false, "log orders instead of placing them")
	amount := flag.Float64("amount", 0, "fixed USDC amount per copy (switches sizing to fixed mode)")
	percentage := flag.Float64("percentage", 0, "percentage of the source trade to copy")
	orderType := flag.String("order-type", "", "time-in-force for copy orders: FOK, FAK, or GTC")
	tradersFile := flag.String("traders", "", "path to the trader policy file")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config",
			slog.String("path", *configPath),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	// CLI flags override both the file and the environment.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "mode":
			cfg.Mode = *mode
		case "dry-run":
			cfg.Copy.DryRun = *dryRun
		case "amount":
			cfg.Copy.SizingMode = config.SizingModeFixed
			cfg.Copy.AmountUSDC = *amount
		case "percentage":
			cfg.Copy.SizingMode = config.SizingModePercentage
			cfg.Copy.Percentage = *percentage
		case "order-type":
			cfg.Copy.OrderType = *orderType
		case "traders":
			cfg.Copy.TradersFile = *tradersFile
		}
	})

	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("copybot starting",
		slog.String("mode", cfg.Mode),
		slog.String("config", *configPath),
		slog.Any("settings", config.RedactedConfig(cfg)),
	)

	application := app.New(cfg, logger)
	defer application.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := application.Run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info("shut down gracefully")
		} else {
			logger.Error("exited with error", slog.String("error", err.Error()))
			fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
			os.Exit(1)
		}
	}

	logger.Info("copybot stopped")
}
