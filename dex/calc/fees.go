// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

// Package calc holds the trading fee arithmetic shared by the order flow and
// any read views that preview an order's cost.
package calc

import (
	"miauswap.org/cdex/dex"

	"github.com/shopspring/decimal"
)

// BaseFeeRate is the fraction of an order's subtotal charged as a trading
// fee before any staking discount.
var BaseFeeRate = decimal.RequireFromString("0.0025")

var hundred = decimal.NewFromInt(100)

// FeeBreakdown is the cost of an order. For a buy, Total is what the account
// pays. For a sell, Total is the proceeds net of fee.
type FeeBreakdown struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Fee      decimal.Decimal `json:"fee"`
	Total    decimal.Decimal `json:"total"`
}

// ComputeFee calculates the fee breakdown for an order of qty units at price,
// with the fee reduced by discountPercent (0 to 100). The calculation is exact.
func ComputeFee(price, qty decimal.Decimal, sell bool, discountPercent decimal.Decimal) (*FeeBreakdown, error) {
	if price.IsNegative() {
		return nil, dex.NewError(dex.ErrInvalidPrice, "price "+price.String()+" is negative")
	}
	if qty.IsNegative() {
		return nil, dex.NewError(dex.ErrInvalidQuantity, "quantity "+qty.String()+" is negative")
	}
	if discountPercent.IsNegative() || discountPercent.GreaterThan(hundred) {
		return nil, dex.NewError(dex.ErrInvalidDiscount, "discount "+discountPercent.String()+"% outside [0, 100]")
	}
	subtotal := price.Mul(qty)
	fee := subtotal.Mul(DiscountedRate(discountPercent))
	total := subtotal.Add(fee)
	if sell {
		total = subtotal.Sub(fee)
	}
	return &FeeBreakdown{
		Subtotal: subtotal,
		Fee:      fee,
		Total:    total,
	}, nil
}

// DiscountedRate is the effective fee rate after a staking discount.
func DiscountedRate(discountPercent decimal.Decimal) decimal.Decimal {
	return BaseFeeRate.Mul(hundred.Sub(discountPercent)).Div(hundred)
}
