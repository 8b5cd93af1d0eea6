// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package core

import (
	"context"

	"github.com/shopspring/decimal"
	"miauswap.org/cdex/client/catalog"
	"miauswap.org/cdex/client/ledger"
	"miauswap.org/cdex/client/orderbook"
	"miauswap.org/cdex/client/portfolio"
	"miauswap.org/cdex/dex/calc"
	"miauswap.org/cdex/dex/candles"
	"miauswap.org/cdex/dex/distribution"
	"miauswap.org/cdex/dex/order"
	"miauswap.org/cdex/dex/staking"
)

// TradeForm is the information necessary to place an order.
type TradeForm struct {
	Market string
	Type   order.OrderType
	Sell   bool
	// Price is ignored for market orders, which take the reference price at
	// submission.
	Price decimal.Decimal
	Qty   decimal.Decimal
	// Edition is the CAT edition traded. The zero value is Standard.
	Edition catalog.Edition
}

// TradePreview is the cost of a trade at the current reference price and
// staking discount.
type TradePreview struct {
	Market          string          `json:"pair"`
	Price           decimal.Decimal `json:"price"`
	DiscountPercent decimal.Decimal `json:"discountPercent"`
	Tier            string          `json:"tier"`
	Affordable      bool            `json:"affordable"`
	*calc.FeeBreakdown
}

// Submission is an order submission awaiting acknowledgement. Once started, a
// submission always completes.
type Submission struct {
	done chan struct{}
	ord  *order.Order
	err  error
}

func newSubmission() *Submission {
	return &Submission{done: make(chan struct{})}
}

func (s *Submission) resolve(ord *order.Order, err error) {
	s.ord, s.err = ord, err
	close(s.done)
}

// Done is closed when the submission is resolved.
func (s *Submission) Done() <-chan struct{} {
	return s.done
}

// Wait blocks until the submission is resolved or ctx is done. A done ctx
// only stops the wait. The submission itself still completes.
func (s *Submission) Wait(ctx context.Context) (*order.Order, error) {
	select {
	case <-s.done:
		return s.ord, s.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// trackedTrade is an order with the CAT it trades.
type trackedTrade struct {
	*order.Order
	creatorID string
	edition   catalog.Edition
}

// User is a snapshot of the account.
type User struct {
	Access      *ledger.Access `json:"access"`
	OpenOrders  []*order.Order `json:"openOrders"`
	UnreadNotes int            `json:"unreadNotes"`
}

// MarketView is a market's reference book, tape and the account's open orders
// on it.
type MarketView struct {
	Creator   *catalog.Creator      `json:"creator"`
	Market    string                `json:"pair"`
	Price     decimal.Decimal       `json:"price"`
	Bids      []*orderbook.PriceBin `json:"bids"`
	Asks      []*orderbook.PriceBin `json:"asks"`
	BestBid   decimal.Decimal       `json:"bestBid"`
	BestAsk   decimal.Decimal       `json:"bestAsk"`
	MidGap    decimal.Decimal       `json:"midGap"`
	Spread    decimal.Decimal       `json:"spread"`
	SpreadPct decimal.Decimal       `json:"spreadPercent"`
	Trades    []*catalog.Trade      `json:"trades"`
	Candles   []candles.Candle      `json:"candles"`
	Change24h decimal.Decimal       `json:"change24h"`
	Volume24h decimal.Decimal       `json:"volume24h"`
	Orders    []*order.Order        `json:"orders"`
}

// CreatorView is a creator profile with its revenue split and the account's
// stake in it.
type CreatorView struct {
	Creator       *catalog.Creator       `json:"creator"`
	RevenueSplit  *distribution.Accrual  `json:"revenueSplit"`
	PerCATETH     decimal.Decimal        `json:"perCATETH"`
	Held          decimal.Decimal        `json:"held"`
	Distributions []*distribution.Record `json:"distributions"`
}

// PortfolioView is the valued portfolio.
type PortfolioView struct {
	*portfolio.Valuation
	Realized  decimal.Decimal `json:"realizedPnL"`
	WeeklyETH decimal.Decimal `json:"weeklyETH"`
}

// StakingView is the staking page: the tier table and the account's
// position.
type StakingView struct {
	Tiers    []staking.Tier  `json:"tiers"`
	VIPStake decimal.Decimal `json:"vipStake"`
	Access   *ledger.Access  `json:"access"`
}
