// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

// Package portfolio tracks CAT holdings at average cost and values them
// against reference prices.
package portfolio

import (
	"fmt"
	"sync"

	"miauswap.org/cdex/client/catalog"
	"miauswap.org/cdex/dex"

	"github.com/shopspring/decimal"
)

// Holding is a quantity of one creator's edition held at an average cost.
type Holding struct {
	CreatorID   string          `json:"creatorID"`
	Edition     catalog.Edition `json:"edition"`
	Quantity    decimal.Decimal `json:"quantity"`
	AvgBuyPrice decimal.Decimal `json:"avgBuyPrice"`
}

type holdingKey struct {
	creatorID string
	edition   catalog.Edition
}

// Book is the set of holdings of an account, keyed by creator and edition.
// Book is safe for concurrent use.
type Book struct {
	mtx      sync.RWMutex
	holdings map[holdingKey]*Holding
	keys     []holdingKey // acquisition order
	realized decimal.Decimal
}

// NewBook is the constructor for an empty Book.
func NewBook() *Book {
	return &Book{
		holdings: make(map[holdingKey]*Holding),
	}
}

// AddBuy adds qty bought at price, moving the average cost to the
// quantity-weighted mean of the old average and price.
func (b *Book) AddBuy(creatorID string, ed catalog.Edition, qty, price decimal.Decimal) (*Holding, error) {
	if !qty.IsPositive() {
		return nil, dex.NewError(dex.ErrInvalidQuantity, "buy quantity must be positive, got "+qty.String())
	}
	if price.IsNegative() {
		return nil, dex.NewError(dex.ErrInvalidPrice, "negative price "+price.String())
	}
	k := holdingKey{creatorID, ed}
	b.mtx.Lock()
	defer b.mtx.Unlock()
	h, found := b.holdings[k]
	if !found {
		h = &Holding{
			CreatorID: creatorID,
			Edition:   ed,
		}
		b.holdings[k] = h
		b.keys = append(b.keys, k)
	}
	cost := h.Quantity.Mul(h.AvgBuyPrice).Add(qty.Mul(price))
	h.Quantity = h.Quantity.Add(qty)
	h.AvgBuyPrice = cost.Div(h.Quantity)
	hc := *h
	return &hc, nil
}

// Sell removes qty sold at price, returning the realized profit or loss. The
// average cost is unchanged. A holding sold down to zero is removed.
func (b *Book) Sell(creatorID string, ed catalog.Edition, qty, price decimal.Decimal) (realized decimal.Decimal, err error) {
	if !qty.IsPositive() {
		return decimal.Zero, dex.NewError(dex.ErrInvalidQuantity, "sell quantity must be positive, got "+qty.String())
	}
	k := holdingKey{creatorID, ed}
	b.mtx.Lock()
	defer b.mtx.Unlock()
	h, found := b.holdings[k]
	if !found || qty.GreaterThan(h.Quantity) {
		held := decimal.Zero
		if found {
			held = h.Quantity
		}
		return decimal.Zero, dex.NewError(dex.ErrInvalidQuantity,
			fmt.Sprintf("selling %s %s CATs of creator %s, holding %s", qty, ed, creatorID, held))
	}
	realized = price.Sub(h.AvgBuyPrice).Mul(qty)
	b.realized = b.realized.Add(realized)
	h.Quantity = h.Quantity.Sub(qty)
	if h.Quantity.IsZero() {
		delete(b.holdings, k)
		for i, key := range b.keys {
			if key == k {
				b.keys = append(b.keys[:i], b.keys[i+1:]...)
				break
			}
		}
	}
	return realized, nil
}

// Holding looks up one holding.
func (b *Book) Holding(creatorID string, ed catalog.Edition) (*Holding, bool) {
	b.mtx.RLock()
	defer b.mtx.RUnlock()
	h, found := b.holdings[holdingKey{creatorID, ed}]
	if !found {
		return nil, false
	}
	hc := *h
	return &hc, true
}

// Holdings lists copies of the holdings in acquisition order.
func (b *Book) Holdings() []*Holding {
	b.mtx.RLock()
	defer b.mtx.RUnlock()
	hs := make([]*Holding, 0, len(b.keys))
	for _, k := range b.keys {
		hc := *b.holdings[k]
		hs = append(hs, &hc)
	}
	return hs
}

// Realized is the total realized profit or loss of all sells.
func (b *Book) Realized() decimal.Decimal {
	b.mtx.RLock()
	defer b.mtx.RUnlock()
	return b.realized
}

// CATsByCreator sums the quantity held over every edition, keyed by creator
// ID.
func (b *Book) CATsByCreator() map[string]decimal.Decimal {
	b.mtx.RLock()
	defer b.mtx.RUnlock()
	held := make(map[string]decimal.Decimal)
	for k, h := range b.holdings {
		held[k.creatorID] = held[k.creatorID].Add(h.Quantity)
	}
	return held
}
