// Package monitor detects new trades on watched accounts by polling the
// Data API activity feed and deduplicating against per-trader seen cursors.
package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/Naeaerc20/polymarket-copy-bot/internal/domain"
	"github.com/Naeaerc20/polymarket-copy-bot/internal/traders"
)

// activityWindow is the number of recent trades fetched per trader. The
// baseline read and the poll read must use the same window: every trade a
// poll can see must already be in the cursor after Initialize, or pre-existing
// history would surface as new.
const activityWindow = 50

// ActivityReader fetches recent trade activity for a wallet, newest first.
// Implemented by polymarket.DataClient.
type ActivityReader interface {
	GetUserActivity(ctx context.Context, user string, limit int) ([]domain.TradeRecord, error)
}

// Monitor watches the configured traders and returns only trades that
// appeared after initialization and have not been returned before. All
// cursor access happens on the caller's goroutine.
type Monitor struct {
	feed    ActivityReader
	policy  *traders.Snapshot
	logger  *slog.Logger
	cursors map[string]*SeenCursor // keyed by trader address; nil until baseline seeded
}

// New creates a Monitor over the given policy snapshot.
func New(feed ActivityReader, policy *traders.Snapshot, logger *slog.Logger) *Monitor {
	return &Monitor{
		feed:    feed,
		policy:  policy,
		logger:  logger.With(slog.String("component", "monitor")),
		cursors: make(map[string]*SeenCursor),
	}
}

// Initialize seeds the baseline for every enabled trader: everything
// currently visible in the activity feed is marked seen and never emitted.
// A trader whose read fails is left without a cursor; its first successful
// poll seeds the baseline instead of emitting history.
func (m *Monitor) Initialize(ctx context.Context) error {
	enabled := m.policy.Enabled()
	if len(enabled) == 0 {
		return fmt.Errorf("monitor: %w: no enabled traders", domain.ErrTraderConfig)
	}

	for _, trader := range enabled {
		if err := ctx.Err(); err != nil {
			return err
		}

		trades, err := m.feed.GetUserActivity(ctx, trader.Address, activityWindow)
		if err != nil {
			m.logger.Warn("baseline read failed, deferring trader",
				slog.String("trader", trader.DisplayName()),
				slog.String("error", err.Error()),
			)
			continue
		}

		cursor := NewSeenCursor()
		for _, t := range trades {
			cursor.Mark(t)
		}
		m.cursors[trader.Address] = cursor

		m.logger.Info("trader baseline seeded",
			slog.String("trader", trader.DisplayName()),
			slog.Int("existing_trades", cursor.Len()),
		)
	}

	return nil
}

// Poll fetches the activity window for every enabled trader and returns the
// trades not seen before, oldest first. Returned trades are marked seen
// before Poll returns, so a crash mid-processing cannot double-copy them on
// a later cycle. A feed error for one trader skips that trader and leaves
// its cursor untouched.
func (m *Monitor) Poll(ctx context.Context) ([]domain.TradeRecord, error) {
	var fresh []domain.TradeRecord

	for _, trader := range m.policy.Enabled() {
		if err := ctx.Err(); err != nil {
			return fresh, err
		}

		trades, err := m.feed.GetUserActivity(ctx, trader.Address, activityWindow)
		if err != nil {
			m.logger.Warn("activity read failed, skipping cycle for trader",
				slog.String("trader", trader.DisplayName()),
				slog.String("error", err.Error()),
			)
			continue
		}

		cursor := m.cursors[trader.Address]
		if cursor == nil {
			// Baseline was never seeded (Initialize failed for this
			// trader). Seed it now and emit nothing: these trades
			// predate our view of the account.
			cursor = NewSeenCursor()
			for _, t := range trades {
				cursor.Mark(t)
			}
			m.cursors[trader.Address] = cursor
			m.logger.Info("trader baseline seeded late",
				slog.String("trader", trader.DisplayName()),
				slog.Int("existing_trades", cursor.Len()),
			)
			continue
		}

		for _, t := range trades {
			if cursor.Seen(t.Key()) {
				continue
			}
			cursor.Mark(t)
			fresh = append(fresh, t)
		}
	}

	// The feed returns newest first; emit oldest first. The stable sort
	// keeps equal-timestamp trades in feed sequence order, which is also
	// deterministic across cycles.
	sort.SliceStable(fresh, func(i, j int) bool {
		return fresh[i].Timestamp < fresh[j].Timestamp
	})

	return fresh, nil
}

// Admit is the entry point for out-of-band detection sources (the realtime
// feed). It reports whether the trade is new and from an enabled,
// initialized trader, marking it seen when admitted. Trades for traders
// without a baseline are dropped so the no-history-replay guarantee holds
// across transports.
func (m *Monitor) Admit(t domain.TradeRecord) bool {
	trader, ok := m.policy.Lookup(t.TraderAddress)
	if !ok || !trader.Enabled {
		return false
	}
	cursor := m.cursors[t.TraderAddress]
	if cursor == nil {
		return false
	}
	if cursor.Seen(t.Key()) {
		return false
	}
	cursor.Mark(t)
	return true
}

// CursorLen reports the seen-set size for a trader, for status logging.
func (m *Monitor) CursorLen(address string) int {
	if c := m.cursors[domain.NormalizeAddress(address)]; c != nil {
		return c.Len()
	}
	return 0
}
