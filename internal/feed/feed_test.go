package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Naeaerc20/polymarket-copy-bot/internal/domain"
	"github.com/Naeaerc20/polymarket-copy-bot/internal/platform/polymarket"
)

// fakeChannel scripts Run results and records handler registration.
type fakeChannel struct {
	results       []error
	runs          int
	tradeHandlers []polymarket.TradeEventHandler
	orderHandlers []polymarket.OrderEventHandler
}

func (f *fakeChannel) OnTrade(h polymarket.TradeEventHandler) {
	f.tradeHandlers = append(f.tradeHandlers, h)
}

func (f *fakeChannel) OnOrder(h polymarket.OrderEventHandler) {
	f.orderHandlers = append(f.orderHandlers, h)
}

func (f *fakeChannel) Run(context.Context) error {
	if f.runs >= len(f.results) {
		return nil
	}
	err := f.results[f.runs]
	f.runs++
	return err
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestRunReconnectsAfterDrop(t *testing.T) {
	ch := &fakeChannel{results: []error{
		fmt.Errorf("read: %w: connection reset", domain.ErrWSDisconnect),
		fmt.Errorf("read: %w: connection reset", domain.ErrWSDisconnect),
	}}
	f := New(ch, quietLogger())
	f.delay = time.Millisecond

	require.NoError(t, f.Run(context.Background()))
	assert.Equal(t, 2, ch.runs, "reconnected after each drop before the clean exit")
	assert.Len(t, ch.tradeHandlers, 1, "handlers registered once")
	assert.Len(t, ch.orderHandlers, 1)
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ch := &fakeChannel{results: []error{errors.New("dial tcp: refused")}}
	f := New(ch, quietLogger())
	f.delay = time.Minute

	done := make(chan error, 1)
	go func() { done <- f.Run(ctx) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return on cancellation")
	}
}
