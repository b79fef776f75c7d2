package executor

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Naeaerc20/polymarket-copy-bot/internal/domain"
)

// orderParams are the quantized order amounts derived from a USDC size and
// a limit price. Maker and taker amounts are on-chain integer strings in
// 1e-6 USDC / share units, computed so that shares * price is exact at that
// resolution.
type orderParams struct {
	Price       decimal.Decimal
	Shares      decimal.Decimal
	MakerAmount string
	TakerAmount string
}

// onChainDecimals is the precision of the collateral and outcome tokens.
const onChainDecimals = 6

// buildOrderParams snaps price to the market tick, derives the share count
// from the USDC size, and scales both legs to on-chain units. Shares are
// rounded down so the spend never exceeds the sized amount, and the share
// precision is chosen so the price * shares product fits the on-chain
// resolution with no remainder.
func buildOrderParams(side domain.OrderSide, sizeUSDC, price, tick float64) (orderParams, error) {
	if price <= 0 || price >= 1 {
		return orderParams{}, fmt.Errorf("%w: price %.4f outside (0, 1)", domain.ErrInvalidOrder, price)
	}
	if tick <= 0 {
		return orderParams{}, fmt.Errorf("%w: tick size %.4f must be positive", domain.ErrInvalidOrder, tick)
	}
	if sizeUSDC <= 0 {
		return orderParams{}, fmt.Errorf("%w: size %.2f must be positive", domain.ErrInvalidOrder, sizeUSDC)
	}

	tickDec := decimal.NewFromFloat(tick)
	priceDec := decimal.NewFromFloat(price).Div(tickDec).Round(0).Mul(tickDec)
	if priceDec.LessThanOrEqual(decimal.Zero) {
		priceDec = tickDec
	}
	one := decimal.NewFromInt(1)
	if priceDec.GreaterThanOrEqual(one) {
		priceDec = one.Sub(tickDec)
	}

	shareDp := int32(onChainDecimals) - (-tickDec.Exponent())
	if shareDp < 0 {
		shareDp = 0
	}
	shares := decimal.NewFromFloat(sizeUSDC).Div(priceDec).RoundDown(shareDp)
	if shares.LessThanOrEqual(decimal.Zero) {
		return orderParams{}, fmt.Errorf("%w: size %.2f rounds to zero shares at price %s", domain.ErrInvalidOrder, sizeUSDC, priceDec)
	}

	usdc := shares.Mul(priceDec)

	p := orderParams{Price: priceDec, Shares: shares}
	switch side {
	case domain.OrderSideBuy:
		// Buying: spend USDC, receive outcome tokens.
		p.MakerAmount = toOnChain(usdc)
		p.TakerAmount = toOnChain(shares)
	case domain.OrderSideSell:
		// Selling: give outcome tokens, receive USDC.
		p.MakerAmount = toOnChain(shares)
		p.TakerAmount = toOnChain(usdc)
	default:
		return orderParams{}, fmt.Errorf("%w: unknown side %q", domain.ErrInvalidOrder, side)
	}

	return p, nil
}

// toOnChain scales a decimal amount to its integer on-chain representation.
func toOnChain(d decimal.Decimal) string {
	return d.Shift(onChainDecimals).Truncate(0).String()
}
