// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

// Package orderbook is a price-level order book for a CAT market. It holds
// the reference depth shown alongside the account's own orders and is used
// to compute the spread, mid-gap and volume weighted average prices.
package orderbook

import (
	"fmt"
	"sync"

	"github.com/huandu/skiplist"
	"github.com/shopspring/decimal"
)

// PriceBin is the total quantity resting at a price.
type PriceBin struct {
	Price decimal.Decimal `json:"price" yaml:"price"`
	Qty   decimal.Decimal `json:"quantity" yaml:"quantity"`
}

// Total is the MIAU value of the bin, price × quantity.
func (b *PriceBin) Total() decimal.Decimal {
	return b.Price.Mul(b.Qty)
}

// binComparable is a skiplist.Comparable implementation for PriceBin. Bids
// sort by descending price and asks by ascending price, so the front of
// either list is the best price.
type binComparable int

const bidsComparable = binComparable(0)
const asksComparable = binComparable(1)

var _ skiplist.Comparable = (*binComparable)(nil)

func (c binComparable) Compare(lhs, rhs any) int {
	cmp := lhs.(*PriceBin).Price.Cmp(rhs.(*PriceBin).Price)
	if c == bidsComparable {
		return -cmp
	}
	return cmp
}

func (c binComparable) CalcScore(key any) float64 {
	p := key.(*PriceBin).Price.InexactFloat64()
	if c == bidsComparable {
		return -p
	}
	return p
}

// Orderbook is a limit order book keyed by price level. Orderbook is safe for
// concurrent use.
type Orderbook struct {
	mtx  sync.RWMutex
	bids *skiplist.SkipList
	asks *skiplist.SkipList
}

// NewOrderbook is the constructor for an empty Orderbook.
func NewOrderbook() *Orderbook {
	return &Orderbook{
		bids: skiplist.New(bidsComparable),
		asks: skiplist.New(asksComparable),
	}
}

func (ob *Orderbook) String() string {
	bids, asks := ob.Snap()
	return fmt.Sprintf("bids: %v, asks: %v", bins(bids), bins(asks))
}

func bins(bs []*PriceBin) []PriceBin {
	out := make([]PriceBin, 0, len(bs))
	for _, b := range bs {
		out = append(out, *b)
	}
	return out
}

// Update sets the quantities at the given prices. A zero quantity removes
// the price level. Negative quantities and non-positive prices are ignored.
func (ob *Orderbook) Update(bids []*PriceBin, asks []*PriceBin) {
	ob.mtx.Lock()
	defer ob.mtx.Unlock()

	update := func(list *skiplist.SkipList, entries []*PriceBin) {
		for _, entry := range entries {
			if !entry.Price.IsPositive() || entry.Qty.IsNegative() {
				continue
			}
			if entry.Qty.IsZero() {
				list.Remove(entry)
				continue
			}
			bin := *entry
			list.Set(&bin, &bin)
		}
	}
	update(ob.bids, bids)
	update(ob.asks, asks)
}

// Clear removes all price levels.
func (ob *Orderbook) Clear() {
	ob.mtx.Lock()
	defer ob.mtx.Unlock()

	ob.bids = skiplist.New(bidsComparable)
	ob.asks = skiplist.New(asksComparable)
}

// VWAP is the volume weighted average price of filling qty from the best
// prices on one side of the book. extrema is the worst price reached. filled
// is false if the side cannot fill the quantity.
func (ob *Orderbook) VWAP(bids bool, qty decimal.Decimal) (vwap, extrema decimal.Decimal, filled bool) {
	if !qty.IsPositive() {
		return decimal.Zero, decimal.Zero, false
	}

	ob.mtx.RLock()
	defer ob.mtx.RUnlock()

	list := ob.asks
	if bids {
		list = ob.bids
	}

	remaining := qty
	weightedSum := decimal.Zero
	for curr := list.Front(); curr != nil; curr = curr.Next() {
		entry := curr.Value.(*PriceBin)
		extrema = entry.Price
		if entry.Qty.GreaterThanOrEqual(remaining) {
			filled = true
			weightedSum = weightedSum.Add(remaining.Mul(extrema))
			break
		}
		remaining = remaining.Sub(entry.Qty)
		weightedSum = weightedSum.Add(entry.Qty.Mul(extrema))
	}
	if !filled {
		return decimal.Zero, decimal.Zero, false
	}

	return weightedSum.Div(qty), extrema, true
}

// Best returns the best bid and ask. A zero price means the side is empty.
func (ob *Orderbook) Best() (bestBid, bestAsk decimal.Decimal) {
	ob.mtx.RLock()
	defer ob.mtx.RUnlock()

	if e := ob.bids.Front(); e != nil {
		bestBid = e.Value.(*PriceBin).Price
	}
	if e := ob.asks.Front(); e != nil {
		bestAsk = e.Value.(*PriceBin).Price
	}
	return
}

// MidGap is the price halfway between the best bid and best ask, or zero if
// either side is empty.
func (ob *Orderbook) MidGap() decimal.Decimal {
	bestBid, bestAsk := ob.Best()
	if bestBid.IsZero() || bestAsk.IsZero() {
		return decimal.Zero
	}
	return bestBid.Add(bestAsk).Div(decimal.NewFromInt(2))
}

// Spread is the best ask less the best bid, and the spread as a percentage of
// the best ask. Both are zero if either side is empty.
func (ob *Orderbook) Spread() (spread, pct decimal.Decimal) {
	bestBid, bestAsk := ob.Best()
	if bestBid.IsZero() || bestAsk.IsZero() {
		return decimal.Zero, decimal.Zero
	}
	spread = bestAsk.Sub(bestBid)
	return spread, spread.Div(bestAsk).Mul(decimal.NewFromInt(100))
}

// Snap generates a snapshot of the book, best prices first. The returned bins
// are copies.
func (ob *Orderbook) Snap() (bids, asks []*PriceBin) {
	ob.mtx.RLock()
	defer ob.mtx.RUnlock()

	snap := func(list *skiplist.SkipList) []*PriceBin {
		out := make([]*PriceBin, 0, list.Len())
		for curr := list.Front(); curr != nil; curr = curr.Next() {
			bin := *curr.Value.(*PriceBin)
			out = append(out, &bin)
		}
		return out
	}
	return snap(ob.bids), snap(ob.asks)
}
