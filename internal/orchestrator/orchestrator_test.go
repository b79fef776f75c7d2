package orchestrator

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Naeaerc20/polymarket-copy-bot/internal/config"
	"github.com/Naeaerc20/polymarket-copy-bot/internal/domain"
	"github.com/Naeaerc20/polymarket-copy-bot/internal/traders"
)

const addrA = "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"

// scriptedMonitor returns one batch per poll, then signals exhaustion.
type scriptedMonitor struct {
	batches [][]domain.TradeRecord
	polls   int
	drained chan struct{}
	admit   bool
}

func (m *scriptedMonitor) Initialize(context.Context) error { return nil }

func (m *scriptedMonitor) Poll(context.Context) ([]domain.TradeRecord, error) {
	if m.polls >= len(m.batches) {
		select {
		case m.drained <- struct{}{}:
		default:
		}
		return nil, nil
	}
	batch := m.batches[m.polls]
	m.polls++
	return batch, nil
}

func (m *scriptedMonitor) Admit(domain.TradeRecord) bool { return m.admit }

// scriptedSubmitter maps trade keys to outcomes and can signal each call.
type scriptedSubmitter struct {
	outcomes  map[string]domain.OrderOutcome
	seen      []string
	submitted chan struct{}
}

func (s *scriptedSubmitter) Submit(_ context.Context, instr domain.CopyInstruction) domain.OrderOutcome {
	key := instr.SourceTrade.Key()
	s.seen = append(s.seen, key)
	if s.submitted != nil {
		select {
		case s.submitted <- struct{}{}:
		default:
		}
	}
	if out, ok := s.outcomes[key]; ok {
		return out
	}
	return domain.OrderOutcome{Status: domain.OutcomeAccepted, OrderID: "ord-" + key}
}

func trade(tx string, side domain.OrderSide, price, size float64) domain.TradeRecord {
	return domain.TradeRecord{
		TransactionHash: tx,
		TraderAddress:   addrA,
		MarketID:        "0xc1",
		TokenID:         "777",
		Side:            side,
		Price:           price,
		Size:            size,
		Timestamp:       100,
	}
}

func testPolicy(t *testing.T) *traders.Snapshot {
	t.Helper()
	path := filepath.Join(t.TempDir(), "traders.json")
	content := `{"traders":[{"address":"` + addrA + `","enabled":true,"copy_buys":true,"copy_sells":true}]}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	snap, err := traders.Load(path)
	require.NoError(t, err)
	return snap
}

func testCopyConfig() config.CopyConfig {
	cfg := config.Defaults().Copy
	cfg.SizingMode = config.SizingModeFixed
	cfg.AmountUSDC = 50
	cfg.MinTradeSize = 10
	cfg.MaxTradeSize = 1000
	cfg.CopySells = true
	cfg.PollInterval.Duration = time.Millisecond
	return cfg
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func runUntilDrained(t *testing.T, o *Orchestrator, mon *scriptedMonitor) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- o.Run(ctx) }()

	select {
	case <-mon.drained:
	case <-time.After(5 * time.Second):
		t.Fatal("monitor never drained")
	}
	cancel()
	require.NoError(t, <-done)
}

func TestRunAccountsOutcomes(t *testing.T) {
	accepted := trade("0xgood", domain.OrderSideBuy, 0.5, 200)
	rejectedT := trade("0xbad", domain.OrderSideBuy, 0.5, 200)
	suppressed := trade("0xsell", domain.OrderSideSell, 0.5, 10)

	// Sells are gated off globally, so the third trade is suppressed.
	cfg := testCopyConfig()
	cfg.CopySells = false

	mon := &scriptedMonitor{
		batches: [][]domain.TradeRecord{
			{accepted, suppressed},
			{rejectedT},
		},
		drained: make(chan struct{}, 1),
	}
	sub := &scriptedSubmitter{outcomes: map[string]domain.OrderOutcome{
		"0xbad": {Status: domain.OutcomeRejected, Message: "insufficient balance"},
	}}

	o := New(mon, sub, testPolicy(t), cfg, nil, quietLogger())
	runUntilDrained(t, o, mon)

	stats := o.Stats()
	assert.Equal(t, int64(3), stats.TradesDetected)
	assert.Equal(t, int64(2), stats.OrdersSubmitted)
	assert.Equal(t, int64(1), stats.OrdersSucceeded)
	assert.Equal(t, int64(1), stats.OrdersFailed)
	assert.Equal(t, int64(1), stats.OrdersSuppressed)
	assert.Equal(t, []string{"0xgood", "0xbad"}, sub.seen)
}

func TestRunFeedTradesGoThroughAdmit(t *testing.T) {
	feed := make(chan domain.TradeRecord, 1)
	mon := &scriptedMonitor{drained: make(chan struct{}, 1), admit: true}
	sub := &scriptedSubmitter{submitted: make(chan struct{}, 1)}

	o := New(mon, sub, testPolicy(t), testCopyConfig(), feed, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- o.Run(ctx) }()

	feed <- trade("0xlive", domain.OrderSideBuy, 0.5, 200)
	select {
	case <-sub.submitted:
	case <-time.After(5 * time.Second):
		t.Fatal("feed trade never submitted")
	}

	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, int64(1), o.Stats().TradesDetected)
	assert.Equal(t, int64(1), o.Stats().OrdersSucceeded)
}

func TestRunFeedDuplicateDropped(t *testing.T) {
	feed := make(chan domain.TradeRecord, 1)
	mon := &scriptedMonitor{drained: make(chan struct{}, 1), admit: false}
	sub := &scriptedSubmitter{}

	o := New(mon, sub, testPolicy(t), testCopyConfig(), feed, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- o.Run(ctx) }()

	feed <- trade("0xdup", domain.OrderSideBuy, 0.5, 200)

	// Give the loop a few cycles to (not) process the rejected trade.
	select {
	case <-mon.drained:
	case <-time.After(5 * time.Second):
		t.Fatal("loop stalled")
	}
	cancel()
	require.NoError(t, <-done)

	assert.Zero(t, o.Stats().TradesDetected)
	assert.Empty(t, sub.seen)
}

func TestRunInitializeFailureIsFatal(t *testing.T) {
	mon := &failingMonitor{}
	o := New(mon, &scriptedSubmitter{}, testPolicy(t), testCopyConfig(), nil, quietLogger())
	require.Error(t, o.Run(context.Background()))
}

type failingMonitor struct{}

func (failingMonitor) Initialize(context.Context) error { return domain.ErrTraderConfig }
func (failingMonitor) Poll(context.Context) ([]domain.TradeRecord, error) {
	return nil, nil
}
func (failingMonitor) Admit(domain.TradeRecord) bool { return false }
