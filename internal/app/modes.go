package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/Naeaerc20/polymarket-copy-bot/internal/orchestrator"
	"github.com/Naeaerc20/polymarket-copy-bot/internal/traders"
)

// CopyMode runs the full pipeline: monitor, sizing, executor. When the
// realtime feed is wired, it runs alongside the loop and confirms the
// account's fills as they land.
func (a *App) CopyMode(ctx context.Context, deps *Dependencies) error {
	orch := orchestrator.New(deps.Monitor, deps.Executor, deps.Traders, a.cfg.Copy, nil, a.logger)

	if deps.Feed == nil {
		return orch.Run(ctx)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return orch.Run(gctx) })
	g.Go(func() error { return deps.Feed.Run(gctx) })
	return g.Wait()
}

// MonitorMode runs detection and sizing with a dry-run executor: every
// decision is logged, nothing is submitted.
func (a *App) MonitorMode(ctx context.Context, deps *Dependencies) error {
	a.logger.Info("monitor mode: orders will be logged, not placed")
	orch := orchestrator.New(deps.Monitor, deps.Executor, deps.Traders, a.cfg.Copy, nil, a.logger)
	return orch.Run(ctx)
}

// LeaderboardMode prints the top traders by PnL or volume and, when no
// trader policy file exists yet, writes a starter template next to it.
func (a *App) LeaderboardMode(ctx context.Context, deps *Dependencies) error {
	lb := a.cfg.Leaderboard
	entries, err := deps.Data.GetLeaderboard(ctx, lb.SortBy, lb.Window, lb.Limit)
	if err != nil {
		return fmt.Errorf("app: leaderboard: %w", err)
	}

	fmt.Printf("Top %d traders by %s (%s)\n", len(entries), lb.SortBy, lb.Window)
	fmt.Printf("%-4s %-44s %-20s %14s %14s\n", "#", "ADDRESS", "NAME", "PNL", "VOLUME")
	for i, e := range entries {
		name := e.Name
		if name == "" {
			name = e.Pseudonym
		}
		if len(name) > 20 {
			name = name[:20]
		}
		fmt.Printf("%-4d %-44s %-20s %14.2f %14.2f\n", i+1, e.Wallet(), name, e.Pnl, e.Volume)
	}

	if _, err := os.Stat(a.cfg.Copy.TradersFile); os.IsNotExist(err) {
		if err := traders.WriteTemplate(a.cfg.Copy.TradersFile); err != nil {
			a.logger.Warn("could not write trader template", slog.String("error", err.Error()))
		} else {
			fmt.Printf("\nWrote starter policy file %s; add addresses from the table above and enable them.\n", a.cfg.Copy.TradersFile)
		}
	}

	return nil
}
