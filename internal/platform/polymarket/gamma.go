package polymarket

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/Naeaerc20/polymarket-copy-bot/internal/domain"
)

// marketCacheTTL bounds how long a market lookup is reused. Tick size and
// neg-risk never change for a live market, but the closed flag can flip
// mid-run.
const marketCacheTTL = time.Minute

// GammaClient is the REST client for the Polymarket Gamma API, which
// provides market discovery and metadata. Lookups are cached per condition
// ID for a short TTL.
type GammaClient struct {
	baseURL    string
	httpClient *http.Client
	cacheTTL   time.Duration

	mu    sync.Mutex
	cache map[string]cachedMarket
}

type cachedMarket struct {
	info MarketInfo
	at   time.Time
}

// NewGammaClient creates a new Gamma API client.
//
// baseURL is the Gamma API root, e.g. "https://gamma-api.polymarket.com".
func NewGammaClient(baseURL string) *GammaClient {
	return &GammaClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		cacheTTL: marketCacheTTL,
		cache:    make(map[string]cachedMarket),
	}
}

// GetMarketByConditionID returns tick size and neg-risk metadata for the
// market identified by its condition ID.
func (g *GammaClient) GetMarketByConditionID(ctx context.Context, conditionID string) (MarketInfo, error) {
	g.mu.Lock()
	if entry, ok := g.cache[conditionID]; ok && time.Since(entry.at) < g.cacheTTL {
		g.mu.Unlock()
		return entry.info, nil
	}
	g.mu.Unlock()

	params := url.Values{}
	params.Set("condition_ids", conditionID)

	body, err := g.doGet(ctx, "/markets?"+params.Encode())
	if err != nil {
		return MarketInfo{}, fmt.Errorf("polymarket/gamma: get market %s: %w", conditionID, err)
	}

	var apiMarkets []APIMarket
	if err := json.Unmarshal(body, &apiMarkets); err != nil {
		return MarketInfo{}, fmt.Errorf("polymarket/gamma: decode markets: %w", err)
	}
	if len(apiMarkets) == 0 {
		return MarketInfo{}, fmt.Errorf("polymarket/gamma: %w: condition_id=%s", domain.ErrNotFound, conditionID)
	}

	info := apiMarkets[0].ToMarketInfo()

	g.mu.Lock()
	g.cache[conditionID] = cachedMarket{info: info, at: time.Now()}
	g.mu.Unlock()

	return info, nil
}

// doGet sends an unauthenticated GET request to the Gamma API.
func (g *GammaClient) doGet(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(req)
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
