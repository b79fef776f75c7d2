// Package domain holds the core value types shared by the copy-trading
// pipeline: watched trader profiles, observed trades, copy instructions, and
// order outcomes. The package has no dependencies and performs no I/O.
package domain

import (
	"fmt"
	"time"
)

// OrderSide indicates the direction of a trade or order. The Data API and
// CLOB API both use the upper-case forms.
type OrderSide string

const (
	OrderSideBuy  OrderSide = "BUY"
	OrderSideSell OrderSide = "SELL"
)

// TradeRecord is one trade observed on a watched account via the Data API
// activity feed (or the user WebSocket channel). Records are read-only once
// fetched.
type TradeRecord struct {
	TransactionHash string
	TraderAddress   string // lower-cased wallet of the watched account
	MarketID        string // condition ID
	TokenID         string // outcome token (asset) ID
	Side            OrderSide
	Outcome         string
	OutcomeIndex    int
	Price           float64 // [0,1]
	Size            float64 // shares, > 0
	Timestamp       int64   // unix seconds, feed-assigned
	Title           string
	Slug            string
}

// Notional returns the trade's USDC value (price times share count).
func (t TradeRecord) Notional() float64 {
	return t.Price * t.Size
}

// Key returns the stable identity used for seen-trade deduplication: the
// transaction hash when the feed provides one, otherwise a composite of the
// fields that survive re-delivery.
func (t TradeRecord) Key() string {
	if t.TransactionHash != "" {
		return t.TransactionHash
	}
	return fmt.Sprintf("%d_%s_%s_%.6f", t.Timestamp, t.MarketID, t.Side, t.Size)
}

// Time returns the trade timestamp as a time.Time.
func (t TradeRecord) Time() time.Time {
	return time.Unix(t.Timestamp, 0).UTC()
}
