package polymarket

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Naeaerc20/polymarket-copy-bot/internal/crypto"
	"github.com/Naeaerc20/polymarket-copy-bot/internal/domain"
)

const (
	// writeWait is the time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// pongWait is the time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// pingPeriod sends pings to the peer at this interval. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
)

// UserTradeMessage is a trade event from the user channel: a fill involving
// one of the authenticated account's orders.
type UserTradeMessage struct {
	EventType    string `json:"event_type"`
	ID           string `json:"id"`
	Market       string `json:"market"`
	AssetID      string `json:"asset_id"`
	Side         string `json:"side"`
	Price        string `json:"price"`
	Size         string `json:"size"`
	Status       string `json:"status"`
	TakerOrderID string `json:"taker_order_id"`
}

// UserOrderMessage is an order lifecycle event from the user channel.
type UserOrderMessage struct {
	EventType string `json:"event_type"`
	ID        string `json:"id"`
	Market    string `json:"market"`
	AssetID   string `json:"asset_id"`
	Type      string `json:"type"` // PLACEMENT, UPDATE, CANCELLATION
	Status    string `json:"status"`
}

// TradeEventHandler is called for every fill on the authenticated account.
type TradeEventHandler func(UserTradeMessage)

// OrderEventHandler is called for every order lifecycle event.
type OrderEventHandler func(UserOrderMessage)

// wsSubscribeCommand is the user-channel subscription envelope.
type wsSubscribeCommand struct {
	Auth    wsAuth   `json:"auth"`
	Markets []string `json:"markets"`
	Type    string   `json:"type"`
}

type wsAuth struct {
	APIKey     string `json:"apikey"`
	Secret     string `json:"secret"`
	Passphrase string `json:"passphrase"`
}

// WSClient is a WebSocket client for the Polymarket CLOB user channel. It
// manages the connection lifecycle and dispatches trade and order events to
// registered handlers. Reconnection is the caller's responsibility; Run
// returns on disconnect.
type WSClient struct {
	wsURL string
	creds crypto.APICredentials

	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool
	done   chan struct{}

	handlerMu     sync.RWMutex
	tradeHandlers []TradeEventHandler
	orderHandlers []OrderEventHandler
}

// NewWSClient creates a client for the user channel.
//
// wsURL is the subscriptions host, e.g. "wss://ws-subscriptions-clob.polymarket.com".
func NewWSClient(wsURL string, creds crypto.APICredentials) *WSClient {
	return &WSClient{
		wsURL: wsURL,
		creds: creds,
		done:  make(chan struct{}),
	}
}

// OnTrade registers a handler for fill events.
func (w *WSClient) OnTrade(handler TradeEventHandler) {
	w.handlerMu.Lock()
	defer w.handlerMu.Unlock()
	w.tradeHandlers = append(w.tradeHandlers, handler)
}

// OnOrder registers a handler for order lifecycle events.
func (w *WSClient) OnOrder(handler OrderEventHandler) {
	w.handlerMu.Lock()
	defer w.handlerMu.Unlock()
	w.orderHandlers = append(w.orderHandlers, handler)
}

// Run connects, subscribes to the user channel, and reads messages until the
// connection drops or ctx is cancelled. It returns ErrWSDisconnect on an
// unexpected disconnect so callers can decide to reconnect.
func (w *WSClient) Run(ctx context.Context) error {
	dialer := websocket.Dialer{
		HandshakeTimeout: 15 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, w.wsURL+"/ws/user", nil)
	if err != nil {
		return fmt.Errorf("polymarket/ws: connect: %w", err)
	}

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		conn.Close()
		return fmt.Errorf("polymarket/ws: %w", domain.ErrWSDisconnect)
	}
	w.conn = conn
	w.mu.Unlock()
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	sub := wsSubscribeCommand{
		Auth: wsAuth{
			APIKey:     w.creds.Key,
			Secret:     w.creds.Secret,
			Passphrase: w.creds.Passphrase,
		},
		Markets: []string{},
		Type:    "user",
	}
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(sub); err != nil {
		return fmt.Errorf("polymarket/ws: subscribe: %w", err)
	}

	go w.pingLoop(ctx, conn)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.done:
			return nil
		default:
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-w.done:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			return fmt.Errorf("polymarket/ws: read: %w: %v", domain.ErrWSDisconnect, err)
		}

		w.handleMessage(message)
	}
}

// Close shuts down the client and its connection.
func (w *WSClient) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	close(w.done)

	if w.conn != nil {
		_ = w.conn.WriteMessage(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		)
		return w.conn.Close()
	}
	return nil
}

// pingLoop sends periodic ping messages to keep the connection alive.
func (w *WSClient) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage parses a raw message and routes it by event type. The user
// channel may deliver a single event or a batch array.
func (w *WSClient) handleMessage(raw []byte) {
	if len(raw) > 0 && raw[0] == '[' {
		var batch []json.RawMessage
		if err := json.Unmarshal(raw, &batch); err != nil {
			return
		}
		for _, item := range batch {
			w.handleMessage(item)
		}
		return
	}

	var envelope struct {
		EventType string `json:"event_type"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return // Silently drop unparseable messages.
	}

	switch envelope.EventType {
	case "trade":
		var msg UserTradeMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			return
		}
		w.handlerMu.RLock()
		handlers := w.tradeHandlers
		w.handlerMu.RUnlock()
		for _, h := range handlers {
			h(msg)
		}

	case "order":
		var msg UserOrderMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			return
		}
		w.handlerMu.RLock()
		handlers := w.orderHandlers
		w.handlerMu.RUnlock()
		for _, h := range handlers {
			h(msg)
		}
	}
}
