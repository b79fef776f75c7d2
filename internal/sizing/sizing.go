// Package sizing decides whether and how to copy a detected trade. It is a
// pure function of the trade, the trader profile, and the copy settings:
// no I/O, no state.
package sizing

import (
	"fmt"
	"strings"

	"github.com/Naeaerc20/polymarket-copy-bot/internal/config"
	"github.com/Naeaerc20/polymarket-copy-bot/internal/domain"
)

// defaultTick bounds limit prices when the market tick size is not yet
// known. The executor snaps the price to the real tick before signing.
const defaultTick = 0.01

// Evaluate sizes a copy of the given trade under the trader's profile and
// the copy settings. ok is false when the trade should not be copied; the
// returned reason explains the decision either way.
func Evaluate(trade domain.TradeRecord, trader domain.TraderProfile, cfg config.CopyConfig) (domain.CopyInstruction, bool, string) {
	switch trade.Side {
	case domain.OrderSideBuy:
		if !trader.CopyBuys {
			return domain.CopyInstruction{}, false, "buy copying disabled for trader"
		}
	case domain.OrderSideSell:
		if !cfg.CopySells {
			return domain.CopyInstruction{}, false, "sell copying disabled globally"
		}
		if !trader.CopySells {
			return domain.CopyInstruction{}, false, "sell copying disabled for trader"
		}
	default:
		return domain.CopyInstruction{}, false, fmt.Sprintf("unknown trade side %q", trade.Side)
	}

	kind := domain.OrderKind(strings.ToUpper(cfg.OrderType))

	size, how := computeSize(trade, cfg)
	if cfg.MaxTradeSize > 0 && size > cfg.MaxTradeSize {
		size = cfg.MaxTradeSize
		how = fmt.Sprintf("%s, capped at max trade size %.2f", how, size)
	}
	if trader.MaxPositionSize > 0 && size > trader.MaxPositionSize {
		size = trader.MaxPositionSize
		how = fmt.Sprintf("%s, capped at trader limit %.2f", how, size)
	}
	// Checked after the caps: a cap below the minimum suppresses rather
	// than producing an undersized order.
	if size < cfg.MinTradeSize {
		return domain.CopyInstruction{}, false,
			fmt.Sprintf("%s is below min trade size %.2f", how, cfg.MinTradeSize)
	}

	instr := domain.CopyInstruction{
		SourceTrade: trade,
		MarketID:    trade.MarketID,
		TokenID:     trade.TokenID,
		Side:        trade.Side,
		SizeUSDC:    size,
		Kind:        kind,
		LimitPrice:  limitPrice(trade, kind, cfg.SlippageTolerance),
		Reason:      how,
	}
	return instr, true, how
}

// computeSize returns the pre-cap USDC size and a human-readable account of
// how it was derived.
func computeSize(trade domain.TradeRecord, cfg config.CopyConfig) (float64, string) {
	if strings.ToLower(cfg.SizingMode) == config.SizingModeFixed {
		return cfg.AmountUSDC, fmt.Sprintf("fixed %.2f USDC", cfg.AmountUSDC)
	}

	// Percentage mode. The default basis is the trade's notional value;
	// the shares basis copies a fraction of the share count instead,
	// priced at the trade price.
	if strings.ToLower(cfg.SizingBasis) == config.SizingBasisShares {
		shares := trade.Size * cfg.Percentage / 100
		size := shares * trade.Price
		return size, fmt.Sprintf("%.1f%% of %.4f shares at %.4f = %.2f USDC",
			cfg.Percentage, trade.Size, trade.Price, size)
	}

	size := trade.Notional() * cfg.Percentage / 100
	return size, fmt.Sprintf("%.1f%% of %.2f USDC notional = %.2f USDC",
		cfg.Percentage, trade.Notional(), size)
}

// limitPrice derives the order's limit price. FOK orders chase the trade
// price by the slippage tolerance (up for buys, down for sells); GTC orders
// rest at the exact trade price; FAK orders are marketable and carry none.
func limitPrice(trade domain.TradeRecord, kind domain.OrderKind, slippage float64) float64 {
	switch kind {
	case domain.OrderKindFOK:
		p := trade.Price
		if trade.Side == domain.OrderSideBuy {
			p += slippage
		} else {
			p -= slippage
		}
		return clampPrice(p)
	case domain.OrderKindGTC:
		return clampPrice(trade.Price)
	default:
		return 0
	}
}

// clampPrice keeps a price inside the valid book range for binary outcome
// tokens.
func clampPrice(p float64) float64 {
	if p < defaultTick {
		return defaultTick
	}
	if p > 1-defaultTick {
		return 1 - defaultTick
	}
	return p
}
