package polymarket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Naeaerc20/polymarket-copy-bot/internal/crypto"
	"github.com/Naeaerc20/polymarket-copy-bot/internal/domain"
)

const testKey = "c85ef7d79691fe79573b1a7064c19c1a9819ebdbd1faaab1a8ec92344438aaf4"

func newTestSigner(t *testing.T) *crypto.Signer {
	t.Helper()
	s, err := crypto.NewSigner(testKey, 137)
	require.NoError(t, err)
	return s
}

func testAuth() RequestAuthenticator {
	return &crypto.HMACAuth{Key: "k", Secret: "c2VjcmV0", Passphrase: "p"}
}

func TestPostOrderSuccess(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/order", r.URL.Path)
		assert.NotEmpty(t, r.Header.Get("POLY_SIGNATURE"), "L2 headers applied")
		assert.NotEmpty(t, r.Header.Get("POLY_API_KEY"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Write([]byte(`{"success":true,"orderID":"ord-1","status":"live"}`))
	}))
	defer srv.Close()

	client := NewClobClient(srv.URL, newTestSigner(t), testAuth())
	resp, err := client.PostOrder(context.Background(), SignedOrder{
		Salt:        "1",
		Maker:       "0xmaker",
		TokenID:     "777",
		MakerAmount: "5000000",
		TakerAmount: "10000000",
		Side:        domain.OrderSideBuy,
		Signature:   "0xsig",
		Owner:       "api-key",
		OrderType:   "FAK",
	})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "ord-1", resp.OrderID)

	assert.Equal(t, "api-key", gotBody["owner"])
	assert.Equal(t, "FAK", gotBody["orderType"])
	order := gotBody["order"].(map[string]any)
	assert.Equal(t, "BUY", order["side"])
	assert.Equal(t, "5000000", order["makerAmount"])
}

func TestPostOrderExchangeRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false,"errorMsg":"not enough balance / allowance"}`))
	}))
	defer srv.Close()

	client := NewClobClient(srv.URL, newTestSigner(t), testAuth())
	resp, err := client.PostOrder(context.Background(), SignedOrder{Side: domain.OrderSideBuy})
	require.NoError(t, err, "exchange rejection is not a transport error")
	assert.False(t, resp.Success)
	assert.Contains(t, resp.ErrorMsg, "balance")
}

func TestPostOrderHTTPErrors(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusBadRequest, domain.ErrInvalidOrder},
		{http.StatusUnauthorized, domain.ErrUnauthorized},
		{http.StatusTooManyRequests, domain.ErrRateLimited},
	}
	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
		}))
		client := NewClobClient(srv.URL, newTestSigner(t), testAuth())
		_, err := client.PostOrder(context.Background(), SignedOrder{})
		require.Error(t, err)
		assert.True(t, errors.Is(err, tt.want), "status %d", tt.status)
		srv.Close()
	}
}

func TestDeriveAPIKey(t *testing.T) {
	signer := newTestSigner(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/derive-api-key", r.URL.Path)
		assert.Equal(t, signer.Address().Hex(), r.Header.Get("POLY_ADDRESS"))
		assert.NotEmpty(t, r.Header.Get("POLY_SIGNATURE"))
		assert.NotEmpty(t, r.Header.Get("POLY_TIMESTAMP"))
		w.Write([]byte(`{"apiKey":"key-1","secret":"sec-1","passphrase":"pass-1"}`))
	}))
	defer srv.Close()

	client := NewClobClient(srv.URL, signer, nil)
	creds, err := client.DeriveAPIKey(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "key-1", creds.Key)
	assert.Equal(t, signer.Address().Hex(), creds.Address)
	assert.True(t, creds.Complete())
}

func TestCancelOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	client := NewClobClient(srv.URL, newTestSigner(t), testAuth())
	require.NoError(t, client.CancelOrder(context.Background(), "ord-1"))
}

func TestVerifyCredentialsWithoutAuth(t *testing.T) {
	client := NewClobClient("http://unused", newTestSigner(t), nil)
	err := client.VerifyCredentials(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNoCredentials))
}

func TestGetServerTime(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/time", r.URL.Path)
		w.Write([]byte(`1700000000`))
	}))
	defer srv.Close()

	client := NewClobClient(srv.URL, newTestSigner(t), nil)
	ts, err := client.GetServerTime(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1700000000), ts)
}
