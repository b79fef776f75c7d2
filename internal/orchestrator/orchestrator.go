// Package orchestrator runs the copy loop: poll for new trades, size them,
// submit the resulting orders, and keep the run statistics. The loop is
// single-threaded; all pipeline state is confined to it.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Naeaerc20/polymarket-copy-bot/internal/config"
	"github.com/Naeaerc20/polymarket-copy-bot/internal/domain"
	"github.com/Naeaerc20/polymarket-copy-bot/internal/sizing"
	"github.com/Naeaerc20/polymarket-copy-bot/internal/traders"
)

// TradeMonitor is the detection surface the loop drives. Implemented by
// *monitor.Monitor.
type TradeMonitor interface {
	Initialize(ctx context.Context) error
	Poll(ctx context.Context) ([]domain.TradeRecord, error)
	Admit(t domain.TradeRecord) bool
}

// OrderSubmitter executes sized instructions. Implemented by
// *executor.Executor.
type OrderSubmitter interface {
	Submit(ctx context.Context, instr domain.CopyInstruction) domain.OrderOutcome
}

// Orchestrator owns the copy loop.
type Orchestrator struct {
	monitor   TradeMonitor
	submitter OrderSubmitter
	policy    *traders.Snapshot
	cfg       config.CopyConfig
	logger    *slog.Logger

	// feed optionally delivers trades detected out of band (the realtime
	// feed). A nil channel never fires.
	feed <-chan domain.TradeRecord

	stats RunStatistics
}

// New creates an Orchestrator. feed may be nil when no realtime source is
// configured.
func New(mon TradeMonitor, submitter OrderSubmitter, policy *traders.Snapshot, cfg config.CopyConfig, feed <-chan domain.TradeRecord, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		monitor:   mon,
		submitter: submitter,
		policy:    policy,
		cfg:       cfg,
		feed:      feed,
		logger:    logger.With(slog.String("component", "orchestrator")),
	}
}

// Stats returns a copy of the run counters.
func (o *Orchestrator) Stats() RunStatistics {
	return o.stats
}

// Run initializes the monitor and drives the copy loop until ctx is
// cancelled. Cancellation is a clean shutdown: the final statistics are
// logged and nil is returned.
func (o *Orchestrator) Run(ctx context.Context) error {
	if err := o.monitor.Initialize(ctx); err != nil {
		return fmt.Errorf("orchestrator: initialize monitor: %w", err)
	}

	o.logger.Info("copy loop started",
		slog.Duration("poll_interval", o.cfg.PollInterval.Duration),
		slog.Bool("dry_run", o.cfg.DryRun),
	)

	ticker := time.NewTicker(o.cfg.PollInterval.Duration)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			o.logFinalStats()
			return nil

		case t := <-o.feed:
			if o.monitor.Admit(t) {
				o.handleTrade(ctx, t)
			}

		case <-ticker.C:
			if err := o.cycle(ctx); err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					o.logFinalStats()
					return nil
				}
				o.logger.Error("poll cycle failed", slog.String("error", err.Error()))
			}
		}
	}
}

// cycle runs one poll and processes every new trade in order.
func (o *Orchestrator) cycle(ctx context.Context) error {
	trades, err := o.monitor.Poll(ctx)
	if err != nil {
		return err
	}

	for _, t := range trades {
		if err := ctx.Err(); err != nil {
			return err
		}
		o.handleTrade(ctx, t)
	}
	return nil
}

// handleTrade sizes and submits one detected trade. Failures are counted
// and logged, never propagated: one bad trade must not stop the loop.
func (o *Orchestrator) handleTrade(ctx context.Context, t domain.TradeRecord) {
	o.stats.TradesDetected++

	trader, ok := o.policy.Lookup(t.TraderAddress)
	if !ok {
		// Poll only covers configured traders; a miss here means the
		// policy and monitor views diverged.
		o.logger.Warn("trade from unknown trader dropped", slog.String("trade", t.Key()))
		return
	}

	log := o.logger.With(
		slog.String("trade", t.Key()),
		slog.String("trader", trader.DisplayName()),
		slog.String("market", t.MarketID),
		slog.String("side", string(t.Side)),
	)
	log.Info("trade detected",
		slog.Float64("price", t.Price),
		slog.Float64("size", t.Size),
		slog.Float64("notional_usdc", t.Notional()),
		slog.String("title", t.Title),
	)

	instr, copyIt, reason := sizing.Evaluate(t, trader, o.cfg)
	if !copyIt {
		o.stats.OrdersSuppressed++
		log.Info("copy suppressed", slog.String("reason", reason))
		return
	}

	o.stats.OrdersSubmitted++
	outcome := o.submitter.Submit(ctx, instr)
	switch {
	case outcome.Accepted():
		o.stats.OrdersSucceeded++
		log.Info("copy order placed",
			slog.String("order_id", outcome.OrderID),
			slog.Float64("size_usdc", instr.SizeUSDC),
			slog.String("kind", string(instr.Kind)),
			slog.Int("attempts", outcome.Attempts),
		)
	default:
		o.stats.OrdersFailed++
		log.Error("copy order failed",
			slog.String("status", string(outcome.Status)),
			slog.String("reason", outcome.Message),
			slog.Int("attempts", outcome.Attempts),
		)
	}
}

func (o *Orchestrator) logFinalStats() {
	o.logger.LogAttrs(context.Background(), slog.LevelInfo, "copy loop stopped", o.stats.Attrs()...)
}
