// Package polymarket contains the REST and WebSocket clients for the three
// Polymarket API surfaces the bot talks to: the public Data API (activity
// feed, leaderboard), the Gamma API (market metadata), and the CLOB API
// (authentication and order management).
package polymarket

import (
	"encoding/json"
	"strings"

	"github.com/Naeaerc20/polymarket-copy-bot/internal/domain"
)

// APIActivity is one entry from the Data API /activity endpoint.
type APIActivity struct {
	ProxyWallet     string  `json:"proxyWallet"`
	Timestamp       int64   `json:"timestamp"`
	ConditionID     string  `json:"conditionId"`
	Type            string  `json:"type"`
	Size            float64 `json:"size"`
	UsdcSize        float64 `json:"usdcSize"`
	TransactionHash string  `json:"transactionHash"`
	Price           float64 `json:"price"`
	Asset           string  `json:"asset"`
	Side            string  `json:"side"`
	OutcomeIndex    int     `json:"outcomeIndex"`
	Title           string  `json:"title"`
	Slug            string  `json:"slug"`
	Outcome         string  `json:"outcome"`
}

// ToDomainTrade converts an activity entry into a TradeRecord.
func (a *APIActivity) ToDomainTrade() domain.TradeRecord {
	return domain.TradeRecord{
		TransactionHash: a.TransactionHash,
		TraderAddress:   domain.NormalizeAddress(a.ProxyWallet),
		MarketID:        a.ConditionID,
		TokenID:         a.Asset,
		Side:            domain.OrderSide(strings.ToUpper(a.Side)),
		Outcome:         a.Outcome,
		OutcomeIndex:    a.OutcomeIndex,
		Price:           a.Price,
		Size:            a.Size,
		Timestamp:       a.Timestamp,
		Title:           a.Title,
		Slug:            a.Slug,
	}
}

// LeaderboardEntry is one row from the Data API /leaderboard endpoint.
type LeaderboardEntry struct {
	Address     string  `json:"address"`
	ProxyWallet string  `json:"proxyWallet"`
	Name        string  `json:"name"`
	Pseudonym   string  `json:"pseudonym"`
	Pnl         float64 `json:"pnl"`
	Volume      float64 `json:"volume"`
}

// Wallet returns whichever address field the API populated.
func (e LeaderboardEntry) Wallet() string {
	if e.Address != "" {
		return e.Address
	}
	return e.ProxyWallet
}

// APIMarket is the subset of Gamma API market fields the bot needs for
// order construction.
type APIMarket struct {
	ID           string      `json:"id"`
	ConditionID  string      `json:"conditionId"`
	Question     string      `json:"question"`
	Slug         string      `json:"slug"`
	Closed       bool        `json:"closed"`
	NegRisk      bool        `json:"negRisk"`
	MinTickSize  json.Number `json:"orderPriceMinTickSize"`
	ClobTokenIDs string      `json:"clobTokenIds"` // JSON-encoded array of token IDs
}

// MarketInfo is the resolved market metadata used by the executor.
type MarketInfo struct {
	ConditionID string
	Question    string
	Slug        string
	Closed      bool
	NegRisk     bool
	TickSize    float64
}

// ToMarketInfo converts an APIMarket, defaulting the tick size to a cent
// when the Gamma API omits it.
func (m *APIMarket) ToMarketInfo() MarketInfo {
	tick := 0.01
	if f, err := m.MinTickSize.Float64(); err == nil && f > 0 {
		tick = f
	}
	return MarketInfo{
		ConditionID: m.ConditionID,
		Question:    m.Question,
		Slug:        m.Slug,
		Closed:      m.Closed,
		NegRisk:     m.NegRisk,
		TickSize:    tick,
	}
}

// OrderResponse is the CLOB API's verdict on a submitted order.
type OrderResponse struct {
	Success  bool   `json:"success"`
	OrderID  string `json:"orderID"`
	Status   string `json:"status"`
	ErrorMsg string `json:"errorMsg"`
}

// SignedOrder bundles a signed EIP-712 order payload with the submission
// envelope fields the CLOB API expects.
type SignedOrder struct {
	Salt          string
	Maker         string
	Signer        string
	Taker         string
	TokenID       string
	MakerAmount   string
	TakerAmount   string
	Expiration    string
	Nonce         string
	FeeRateBps    string
	Side          domain.OrderSide
	SignatureType int
	Signature     string

	Owner     string // API key of the submitting account
	OrderType string // FOK, FAK, or GTC
}
