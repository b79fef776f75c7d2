// Package executor turns copy instructions into signed CLOB orders and
// classifies the exchange's verdict. Transient submission failures are
// retried under an injected retry policy; rejections are terminal.
package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"github.com/Naeaerc20/polymarket-copy-bot/internal/crypto"
	"github.com/Naeaerc20/polymarket-copy-bot/internal/domain"
	"github.com/Naeaerc20/polymarket-copy-bot/internal/platform/polymarket"
)

// zeroAddress is the public taker for open CLOB orders.
const zeroAddress = "0x0000000000000000000000000000000000000000"

// cancelTimeout bounds the HTTP call made when auto-cancelling a resting
// GTC order.
const cancelTimeout = 10 * time.Second

// StructuredSigner signs EIP-712 order payloads. Implemented by
// *crypto.Signer.
type StructuredSigner interface {
	SignOrder(order crypto.OrderPayload, negRisk bool) (string, error)
	Address() common.Address
}

// OrderPoster is the CLOB surface the executor needs. Implemented by
// *polymarket.ClobClient.
type OrderPoster interface {
	PostOrder(ctx context.Context, order polymarket.SignedOrder) (polymarket.OrderResponse, error)
	CancelOrder(ctx context.Context, orderID string) error
}

// MarketResolver resolves market metadata for order construction.
// Implemented by *polymarket.GammaClient.
type MarketResolver interface {
	GetMarketByConditionID(ctx context.Context, conditionID string) (polymarket.MarketInfo, error)
}

// Options configure order construction and submission.
type Options struct {
	DryRun        bool
	APIKey        string  // owner field on submissions; unused in dry-run
	SignatureType int     // 0 = EOA, 1 = proxy, 2 = Safe
	Slippage      float64 // price chase applied to marketable orders
	GtcTimeout    time.Duration
}

// Executor submits copy instructions to the CLOB.
type Executor struct {
	clob    OrderPoster
	markets MarketResolver
	signer  StructuredSigner
	retry   RetryPolicy
	opts    Options
	logger  *slog.Logger

	mu     sync.Mutex
	timers map[string]*time.Timer // orderID -> pending GTC auto-cancel
	closed bool
}

// New creates an Executor. signer may be nil only when opts.DryRun is set.
func New(clob OrderPoster, markets MarketResolver, signer StructuredSigner, retry RetryPolicy, opts Options, logger *slog.Logger) *Executor {
	return &Executor{
		clob:    clob,
		markets: markets,
		signer:  signer,
		retry:   retry,
		opts:    opts,
		logger:  logger.With(slog.String("component", "executor")),
		timers:  make(map[string]*time.Timer),
	}
}

// Submit executes one copy instruction and reports the outcome. It never
// returns an error: every failure mode is folded into the outcome status so
// the orchestrator's accounting stays uniform.
func (e *Executor) Submit(ctx context.Context, instr domain.CopyInstruction) domain.OrderOutcome {
	if e.opts.DryRun {
		id := "dry-" + uuid.NewString()
		e.logger.Info("dry-run order",
			slog.String("order_id", id),
			slog.String("market", instr.MarketID),
			slog.String("side", string(instr.Side)),
			slog.Float64("size_usdc", instr.SizeUSDC),
			slog.String("kind", string(instr.Kind)),
			slog.String("reason", instr.Reason),
		)
		return domain.OrderOutcome{
			Status:  domain.OutcomeAccepted,
			OrderID: id,
			Message: "dry run",
		}
	}

	market, err := e.markets.GetMarketByConditionID(ctx, instr.MarketID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return rejected(fmt.Sprintf("unknown market %s", instr.MarketID), 0)
		}
		return transient(fmt.Sprintf("market lookup: %v", err), 0)
	}
	if market.Closed {
		return rejected(fmt.Sprintf("market %s is closed", instr.MarketID), 0)
	}

	signed, err := e.buildSignedOrder(instr, market)
	if err != nil {
		return rejected(err.Error(), 0)
	}

	attempts := 0
	resp, err := e.retry.Execute(ctx, func() (polymarket.OrderResponse, error) {
		attempts++
		resp, postErr := e.clob.PostOrder(ctx, signed)
		if postErr != nil && isRejection(postErr) {
			return resp, backoff.Permanent(postErr)
		}
		return resp, postErr
	})
	if err != nil {
		if isRejection(err) {
			return rejected(err.Error(), attempts)
		}
		return transient(err.Error(), attempts)
	}
	if !resp.Success {
		return domain.OrderOutcome{
			Status:   domain.OutcomeRejected,
			OrderID:  resp.OrderID,
			Message:  resp.ErrorMsg,
			Attempts: attempts,
		}
	}

	if instr.Kind == domain.OrderKindGTC && resp.OrderID != "" {
		e.scheduleCancel(resp.OrderID)
	}

	e.logger.Info("order accepted",
		slog.String("order_id", resp.OrderID),
		slog.String("market", instr.MarketID),
		slog.String("side", string(instr.Side)),
		slog.Float64("size_usdc", instr.SizeUSDC),
		slog.Int("attempts", attempts),
	)
	return domain.OrderOutcome{
		Status:   domain.OutcomeAccepted,
		OrderID:  resp.OrderID,
		Message:  resp.Status,
		Attempts: attempts,
	}
}

// Close stops pending GTC auto-cancel timers and cancels their orders.
func (e *Executor) Close() {
	e.mu.Lock()
	e.closed = true
	pending := make([]string, 0, len(e.timers))
	for id, timer := range e.timers {
		if timer.Stop() {
			pending = append(pending, id)
		}
		delete(e.timers, id)
	}
	e.mu.Unlock()

	for _, id := range pending {
		e.cancelOrder(id, "shutdown")
	}
}

// --------------------------------------------------------------------------
// Internal helpers
// --------------------------------------------------------------------------

// buildSignedOrder quantizes the instruction against the market tick and
// produces a signed submission envelope.
func (e *Executor) buildSignedOrder(instr domain.CopyInstruction, market polymarket.MarketInfo) (polymarket.SignedOrder, error) {
	price := instr.LimitPrice
	if price == 0 {
		// Marketable order: chase the source trade price by the
		// slippage tolerance.
		price = instr.SourceTrade.Price
		if instr.Side == domain.OrderSideBuy {
			price += e.opts.Slippage
		} else {
			price -= e.opts.Slippage
		}
	}

	params, err := buildOrderParams(instr.Side, instr.SizeUSDC, price, market.TickSize)
	if err != nil {
		return polymarket.SignedOrder{}, err
	}

	address := e.signer.Address().Hex()
	sideIdx := 0
	if instr.Side == domain.OrderSideSell {
		sideIdx = 1
	}

	payload := crypto.OrderPayload{
		Salt:          newSalt(),
		Maker:         address,
		Signer:        address,
		Taker:         zeroAddress,
		TokenID:       instr.TokenID,
		MakerAmount:   params.MakerAmount,
		TakerAmount:   params.TakerAmount,
		Expiration:    "0",
		Nonce:         "0",
		FeeRateBps:    "0",
		Side:          sideIdx,
		SignatureType: e.opts.SignatureType,
	}

	sig, err := e.signer.SignOrder(payload, market.NegRisk)
	if err != nil {
		return polymarket.SignedOrder{}, fmt.Errorf("%w: %v", domain.ErrSigningFailed, err)
	}

	return polymarket.SignedOrder{
		Salt:          payload.Salt,
		Maker:         payload.Maker,
		Signer:        payload.Signer,
		Taker:         payload.Taker,
		TokenID:       payload.TokenID,
		MakerAmount:   payload.MakerAmount,
		TakerAmount:   payload.TakerAmount,
		Expiration:    payload.Expiration,
		Nonce:         payload.Nonce,
		FeeRateBps:    payload.FeeRateBps,
		Side:          instr.Side,
		SignatureType: payload.SignatureType,
		Signature:     sig,
		Owner:         e.opts.APIKey,
		OrderType:     string(instr.Kind),
	}, nil
}

// scheduleCancel arms the auto-cancel timer for a resting GTC order.
func (e *Executor) scheduleCancel(orderID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.timers[orderID] = time.AfterFunc(e.opts.GtcTimeout, func() {
		e.mu.Lock()
		delete(e.timers, orderID)
		e.mu.Unlock()
		e.cancelOrder(orderID, "gtc timeout")
	})
}

// cancelOrder best-effort cancels a resting order.
func (e *Executor) cancelOrder(orderID, why string) {
	ctx, cancel := context.WithTimeout(context.Background(), cancelTimeout)
	defer cancel()

	if err := e.clob.CancelOrder(ctx, orderID); err != nil {
		e.logger.Warn("order cancel failed",
			slog.String("order_id", orderID),
			slog.String("trigger", why),
			slog.String("error", err.Error()),
		)
		return
	}
	e.logger.Info("order cancelled",
		slog.String("order_id", orderID),
		slog.String("trigger", why),
	)
}

// isRejection reports whether a submission error is a terminal exchange
// verdict rather than a transient fault.
func isRejection(err error) bool {
	return errors.Is(err, domain.ErrInvalidOrder) ||
		errors.Is(err, domain.ErrUnauthorized) ||
		errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, domain.ErrSigningFailed)
}

// newSalt returns a random uint256 order salt as a decimal string.
func newSalt() string {
	u := uuid.New()
	return new(big.Int).SetBytes(u[:]).String()
}

func rejected(msg string, attempts int) domain.OrderOutcome {
	return domain.OrderOutcome{Status: domain.OutcomeRejected, Message: msg, Attempts: attempts}
}

func transient(msg string, attempts int) domain.OrderOutcome {
	return domain.OrderOutcome{Status: domain.OutcomeTransient, Message: msg, Attempts: attempts}
}
