package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Naeaerc20/polymarket-copy-bot/internal/domain"
	"github.com/Naeaerc20/polymarket-copy-bot/internal/traders"
)

const (
	addrA = "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	addrB = "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
)

// fakeFeed serves scripted activity windows per trader and can be told to
// fail for specific traders. Like the real feed it returns at most limit
// entries, newest first.
type fakeFeed struct {
	activity map[string][]domain.TradeRecord
	failing  map[string]bool
	calls    int
}

func (f *fakeFeed) GetUserActivity(_ context.Context, user string, limit int) ([]domain.TradeRecord, error) {
	f.calls++
	if f.failing[user] {
		return nil, errors.New("boom")
	}
	window := f.activity[user]
	if len(window) > limit {
		window = window[:limit]
	}
	return window, nil
}

func trade(trader, tx string, ts int64) domain.TradeRecord {
	return domain.TradeRecord{
		TransactionHash: tx,
		TraderAddress:   trader,
		MarketID:        "0xc1",
		TokenID:         "777",
		Side:            domain.OrderSideBuy,
		Price:           0.5,
		Size:            10,
		Timestamp:       ts,
	}
}

func testPolicy(t *testing.T, addrs ...string) *traders.Snapshot {
	t.Helper()
	content := `{"traders":[`
	for i, a := range addrs {
		if i > 0 {
			content += ","
		}
		content += `{"address":"` + a + `","enabled":true,"copy_buys":true,"copy_sells":true}`
	}
	content += `]}`
	path := filepath.Join(t.TempDir(), "traders.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	snap, err := traders.Load(path)
	require.NoError(t, err)
	return snap
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestInitializeSuppressesHistory(t *testing.T) {
	feed := &fakeFeed{activity: map[string][]domain.TradeRecord{
		addrA: {trade(addrA, "0xt2", 200), trade(addrA, "0xt1", 100)},
	}}
	m := New(feed, testPolicy(t, addrA), testLogger())

	require.NoError(t, m.Initialize(context.Background()))
	assert.Equal(t, 2, m.CursorLen(addrA))

	// Nothing new since the baseline: poll returns empty.
	fresh, err := m.Poll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, fresh)
}

func TestPollEmitsOnlyNewTradesOnce(t *testing.T) {
	feed := &fakeFeed{activity: map[string][]domain.TradeRecord{
		addrA: {trade(addrA, "0xt1", 100)},
	}}
	m := New(feed, testPolicy(t, addrA), testLogger())
	require.NoError(t, m.Initialize(context.Background()))

	// A new trade appears on top of the feed window.
	feed.activity[addrA] = []domain.TradeRecord{
		trade(addrA, "0xt2", 200),
		trade(addrA, "0xt1", 100),
	}

	fresh, err := m.Poll(context.Background())
	require.NoError(t, err)
	require.Len(t, fresh, 1)
	assert.Equal(t, "0xt2", fresh[0].Key())

	// The same window again yields nothing: marked seen before return.
	fresh, err = m.Poll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, fresh)
}

func TestPollOrdersByTimestampKeepingFeedOrderOnTies(t *testing.T) {
	feed := &fakeFeed{activity: map[string][]domain.TradeRecord{addrA: nil}}
	m := New(feed, testPolicy(t, addrA), testLogger())
	require.NoError(t, m.Initialize(context.Background()))

	feed.activity[addrA] = []domain.TradeRecord{
		trade(addrA, "0xt3", 300),
		trade(addrA, "0xtb", 200),
		trade(addrA, "0xta", 200),
		trade(addrA, "0xt1", 100),
	}

	fresh, err := m.Poll(context.Background())
	require.NoError(t, err)
	require.Len(t, fresh, 4)
	assert.Equal(t, "0xt1", fresh[0].Key())
	assert.Equal(t, "0xtb", fresh[1].Key(), "equal timestamps keep feed sequence order")
	assert.Equal(t, "0xta", fresh[2].Key())
	assert.Equal(t, "0xt3", fresh[3].Key())
}

func TestInitializeBaselineCoversFullPollWindow(t *testing.T) {
	// An account with more history than the activity window: the baseline
	// must cover everything a later poll can see, so none of it replays.
	var history []domain.TradeRecord
	for i := activityWindow + 10; i >= 1; i-- {
		history = append(history, trade(addrA, fmt.Sprintf("0xhist%02d", i), int64(i)))
	}
	feed := &fakeFeed{activity: map[string][]domain.TradeRecord{addrA: history}}
	m := New(feed, testPolicy(t, addrA), testLogger())
	require.NoError(t, m.Initialize(context.Background()))

	fresh, err := m.Poll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, fresh, "pre-existing trades must never surface as new")

	// A genuinely new trade on top of the same deep history still emits.
	feed.activity[addrA] = append(
		[]domain.TradeRecord{trade(addrA, "0xnew", 1000)}, history...)
	fresh, err = m.Poll(context.Background())
	require.NoError(t, err)
	require.Len(t, fresh, 1)
	assert.Equal(t, "0xnew", fresh[0].Key())
}

func TestPollFailureIsolatesTrader(t *testing.T) {
	feed := &fakeFeed{
		activity: map[string][]domain.TradeRecord{addrA: nil, addrB: nil},
		failing:  map[string]bool{},
	}
	m := New(feed, testPolicy(t, addrA, addrB), testLogger())
	require.NoError(t, m.Initialize(context.Background()))

	feed.activity[addrA] = []domain.TradeRecord{trade(addrA, "0xa1", 100)}
	feed.activity[addrB] = []domain.TradeRecord{trade(addrB, "0xb1", 100)}
	feed.failing[addrA] = true

	fresh, err := m.Poll(context.Background())
	require.NoError(t, err)
	require.Len(t, fresh, 1, "healthy trader still processed")
	assert.Equal(t, "0xb1", fresh[0].Key())

	// The failed trader's cursor was not advanced: its trade arrives on
	// the next healthy cycle.
	feed.failing[addrA] = false
	fresh, err = m.Poll(context.Background())
	require.NoError(t, err)
	require.Len(t, fresh, 1)
	assert.Equal(t, "0xa1", fresh[0].Key())
}

func TestInitializeFailureDefersEmission(t *testing.T) {
	feed := &fakeFeed{
		activity: map[string][]domain.TradeRecord{
			addrA: {trade(addrA, "0xt1", 100)},
		},
		failing: map[string]bool{addrA: true},
	}
	m := New(feed, testPolicy(t, addrA), testLogger())
	require.NoError(t, m.Initialize(context.Background()), "per-trader failure is not fatal")

	// First successful poll seeds the baseline without emitting history.
	feed.failing[addrA] = false
	fresh, err := m.Poll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, fresh)

	// Only trades after that baseline are emitted.
	feed.activity[addrA] = []domain.TradeRecord{
		trade(addrA, "0xt2", 200),
		trade(addrA, "0xt1", 100),
	}
	fresh, err = m.Poll(context.Background())
	require.NoError(t, err)
	require.Len(t, fresh, 1)
	assert.Equal(t, "0xt2", fresh[0].Key())
}

func TestCompositeKeyFallbackDedups(t *testing.T) {
	noHash := trade(addrA, "", 100)
	feed := &fakeFeed{activity: map[string][]domain.TradeRecord{addrA: nil}}
	m := New(feed, testPolicy(t, addrA), testLogger())
	require.NoError(t, m.Initialize(context.Background()))

	feed.activity[addrA] = []domain.TradeRecord{noHash}
	fresh, err := m.Poll(context.Background())
	require.NoError(t, err)
	require.Len(t, fresh, 1)

	// Re-delivery of the same hashless trade is suppressed.
	fresh, err = m.Poll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, fresh)
}

func TestAdmit(t *testing.T) {
	feed := &fakeFeed{activity: map[string][]domain.TradeRecord{addrA: nil}}
	policy := testPolicy(t, addrA)
	m := New(feed, policy, testLogger())
	require.NoError(t, m.Initialize(context.Background()))

	fresh := trade(addrA, "0xt9", 900)
	assert.True(t, m.Admit(fresh))
	assert.False(t, m.Admit(fresh), "second delivery rejected")

	// Unknown trader is never admitted.
	assert.False(t, m.Admit(trade(addrB, "0xtz", 900)))

	// A poll window containing the admitted trade does not re-emit it.
	feed.activity[addrA] = []domain.TradeRecord{fresh}
	got, err := m.Poll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestNoEnabledTraders(t *testing.T) {
	path := filepath.Join(t.TempDir(), "traders.json")
	content := `{"traders":[{"address":"` + addrA + `","enabled":false}]}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	snap, err := traders.Load(path)
	require.NoError(t, err)

	m := New(&fakeFeed{}, snap, testLogger())
	require.Error(t, m.Initialize(context.Background()))
}
