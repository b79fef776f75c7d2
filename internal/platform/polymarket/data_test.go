package polymarket

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Naeaerc20/polymarket-copy-bot/internal/domain"
)

func TestGetUserActivity(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/activity", r.URL.Path)
		assert.Equal(t, "0xABCdef", r.URL.Query().Get("user"))
		assert.Equal(t, "50", r.URL.Query().Get("limit"))
		assert.Equal(t, "TRADE", r.URL.Query().Get("type"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"proxyWallet":"0xABCdef","timestamp":1700000200,"conditionId":"0xc1","type":"TRADE",
			 "size":100,"usdcSize":45,"transactionHash":"0xt2","price":0.45,"asset":"777",
			 "side":"BUY","outcomeIndex":0,"title":"Will it rain?","slug":"will-it-rain","outcome":"Yes"},
			{"proxyWallet":"0xABCdef","timestamp":1700000100,"conditionId":"0xc1","type":"REDEEM",
			 "size":10,"usdcSize":10,"transactionHash":"0xt1","price":1,"asset":"777",
			 "side":"","outcomeIndex":0,"title":"Will it rain?","slug":"will-it-rain","outcome":"Yes"}
		]`))
	}))
	defer srv.Close()

	client := NewDataClient(srv.URL)
	trades, err := client.GetUserActivity(context.Background(), "0xABCdef", 50)
	require.NoError(t, err)
	require.Len(t, trades, 1, "non-TRADE activity filtered out")

	tr := trades[0]
	assert.Equal(t, "0xabcdef", tr.TraderAddress, "address normalized")
	assert.Equal(t, "0xc1", tr.MarketID)
	assert.Equal(t, "777", tr.TokenID)
	assert.Equal(t, domain.OrderSideBuy, tr.Side)
	assert.Equal(t, 0.45, tr.Price)
	assert.Equal(t, 100.0, tr.Size)
	assert.Equal(t, "0xt2", tr.Key())
}

func TestGetUserActivityRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NewDataClient(srv.URL)
	_, err := client.GetUserActivity(context.Background(), "0xabc", 10)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrRateLimited))
}

func TestGetLeaderboard(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/leaderboard", r.URL.Path)
		assert.Equal(t, "pnl", r.URL.Query().Get("sortBy"))
		assert.Equal(t, "30d", r.URL.Query().Get("timeFrame"))
		w.Write([]byte(`[{"proxyWallet":"0xaaa","name":"whale","pnl":12345.6,"volume":99999}]`))
	}))
	defer srv.Close()

	client := NewDataClient(srv.URL)
	entries, err := client.GetLeaderboard(context.Background(), "pnl", "30d", 20)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "0xaaa", entries[0].Wallet())
	assert.Equal(t, 12345.6, entries[0].Pnl)
}
