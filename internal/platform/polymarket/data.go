package polymarket

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Naeaerc20/polymarket-copy-bot/internal/domain"
)

// DataClient is the REST client for the public Polymarket Data API, which
// exposes per-wallet activity and trader rankings. No authentication is
// required.
type DataClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewDataClient creates a new Data API client.
//
// baseURL is the Data API root, e.g. "https://data-api.polymarket.com".
func NewDataClient(baseURL string) *DataClient {
	return &DataClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// GetUserActivity returns the most recent TRADE activity for a wallet, newest
// first, up to limit entries.
func (d *DataClient) GetUserActivity(ctx context.Context, user string, limit int) ([]domain.TradeRecord, error) {
	params := url.Values{}
	params.Set("user", user)
	params.Set("limit", strconv.Itoa(limit))
	params.Set("type", "TRADE")

	path := "/activity?" + params.Encode()

	body, err := d.doGet(ctx, d.baseURL+path)
	if err != nil {
		return nil, fmt.Errorf("polymarket/data: get activity for %s: %w", user, err)
	}

	var entries []APIActivity
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("polymarket/data: decode activity: %w", err)
	}

	trades := make([]domain.TradeRecord, 0, len(entries))
	for i := range entries {
		if entries[i].Type != "" && entries[i].Type != "TRADE" {
			continue
		}
		trades = append(trades, entries[i].ToDomainTrade())
	}

	return trades, nil
}

// GetLeaderboard returns the top traders ranked by sortBy ("pnl" or "vol")
// over the given time frame ("1d", "7d", "30d", "all").
func (d *DataClient) GetLeaderboard(ctx context.Context, sortBy, timeFrame string, limit int) ([]LeaderboardEntry, error) {
	params := url.Values{}
	params.Set("sortBy", sortBy)
	params.Set("timeFrame", timeFrame)
	params.Set("limit", strconv.Itoa(limit))

	body, err := d.doGet(ctx, d.baseURL+"/leaderboard?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("polymarket/data: get leaderboard: %w", err)
	}

	var entries []LeaderboardEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("polymarket/data: decode leaderboard: %w", err)
	}

	return entries, nil
}

// doGet sends an unauthenticated GET request and returns the raw body.
func (d *DataClient) doGet(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if err := checkHTTPStatus(resp.StatusCode, body); err != nil {
		return nil, err
	}

	return body, nil
}
