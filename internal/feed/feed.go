// Package feed streams real-time confirmations for the operator's own
// account over the CLOB user channel: fills and order lifecycle events for
// the copy orders this bot places. Trade detection for watched accounts
// stays on the Data API poll; the user channel only covers the
// authenticated account.
package feed

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Naeaerc20/polymarket-copy-bot/internal/domain"
	"github.com/Naeaerc20/polymarket-copy-bot/internal/platform/polymarket"
)

// reconnectDelay is the pause between reconnection attempts after a drop.
const reconnectDelay = 2 * time.Second

// UserChannel is the WebSocket surface the feed consumes. Implemented by
// *polymarket.WSClient.
type UserChannel interface {
	OnTrade(polymarket.TradeEventHandler)
	OnOrder(polymarket.OrderEventHandler)
	Run(ctx context.Context) error
}

// RealtimeFeed keeps a user-channel subscription alive and logs every fill
// and order event for the account, reconnecting on drops.
type RealtimeFeed struct {
	client UserChannel
	logger *slog.Logger
	delay  time.Duration
}

// New creates a RealtimeFeed over the given user channel.
func New(client UserChannel, logger *slog.Logger) *RealtimeFeed {
	return &RealtimeFeed{
		client: client,
		logger: logger.With(slog.String("component", "feed")),
		delay:  reconnectDelay,
	}
}

// Run subscribes and blocks until ctx is cancelled or the channel is closed
// by its owner. Disconnects are logged and retried after a short delay.
func (f *RealtimeFeed) Run(ctx context.Context) error {
	f.client.OnTrade(f.onFill)
	f.client.OnOrder(f.onOrder)

	for {
		err := f.client.Run(ctx)
		switch {
		case ctx.Err() != nil:
			return nil
		case err == nil:
			// Closed by the owner.
			return nil
		case errors.Is(err, domain.ErrWSDisconnect):
			f.logger.Warn("user channel dropped, reconnecting",
				slog.String("error", err.Error()),
				slog.Duration("delay", f.delay),
			)
		default:
			f.logger.Warn("user channel connect failed, retrying",
				slog.String("error", err.Error()),
				slog.Duration("delay", f.delay),
			)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(f.delay):
		}
	}
}

// onFill logs a fill touching one of the account's orders.
func (f *RealtimeFeed) onFill(msg polymarket.UserTradeMessage) {
	f.logger.Info("fill confirmed",
		slog.String("trade_id", msg.ID),
		slog.String("market", msg.Market),
		slog.String("asset", msg.AssetID),
		slog.String("side", msg.Side),
		slog.String("price", msg.Price),
		slog.String("size", msg.Size),
		slog.String("status", msg.Status),
	)
}

// onOrder logs an order lifecycle event.
func (f *RealtimeFeed) onOrder(msg polymarket.UserOrderMessage) {
	f.logger.Info("order event",
		slog.String("order_id", msg.ID),
		slog.String("market", msg.Market),
		slog.String("type", msg.Type),
		slog.String("status", msg.Status),
	)
}
