// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

// Package catalog is the read-only reference data for the CAT markets:
// creators, reference prices, edition supply, order book depth and trade
// tapes, and the starting state of the demo account. Reference prices may be
// moved by an external price feed via SetPrice.
package catalog

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"sort"
	"sync"

	"miauswap.org/cdex/client/orderbook"
	"miauswap.org/cdex/dex"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var seedYAML []byte

// Catalog is the reference data store. Catalog is safe for concurrent use.
type Catalog struct {
	mtx      sync.RWMutex
	creators []*Creator
	byID     map[string]*Creator
	bySymbol map[string]*Creator
	bySlug   map[string]*Creator
	books    map[string]*orderbook.Orderbook
	trades   map[string][]*Trade
	account  Account
	dists    []*SeedDistribution
}

// New loads the embedded reference dataset.
func New() *Catalog {
	c, err := Parse(seedYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded dataset: %v", err)) // programmer error
	}
	return c
}

// Load loads a reference dataset from a YAML file.
func Load(path string) (*Catalog, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(b)
}

// Parse decodes a YAML reference dataset. Unknown fields are an error.
func Parse(b []byte) (*Catalog, error) {
	var ds Dataset
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&ds); err != nil {
		return nil, fmt.Errorf("error decoding dataset: %w", err)
	}
	return newCatalog(&ds)
}

func newCatalog(ds *Dataset) (*Catalog, error) {
	c := &Catalog{
		byID:     make(map[string]*Creator, len(ds.Creators)),
		bySymbol: make(map[string]*Creator, len(ds.Creators)),
		bySlug:   make(map[string]*Creator, len(ds.Creators)),
		books:    make(map[string]*orderbook.Orderbook, len(ds.Creators)),
		trades:   make(map[string][]*Trade),
		account:  ds.Account,
		dists:    ds.Distributions,
	}
	for _, cr := range ds.Creators {
		if cr.ID == "" || cr.Symbol == "" {
			return nil, fmt.Errorf("creator %q missing ID or symbol", cr.Name)
		}
		if c.byID[cr.ID] != nil || c.bySymbol[cr.Symbol] != nil || (cr.Slug != "" && c.bySlug[cr.Slug] != nil) {
			return nil, fmt.Errorf("duplicate creator %s (%s)", cr.ID, cr.Symbol)
		}
		if !cr.Price.IsPositive() {
			return nil, fmt.Errorf("creator %s: price must be positive", cr.Symbol)
		}
		for ed, s := range cr.Editions {
			if _, err := ParseEdition(string(ed)); err != nil {
				return nil, fmt.Errorf("creator %s: %w", cr.Symbol, err)
			}
			if s.Remaining > s.Issued || s.Remaining < 0 {
				return nil, fmt.Errorf("creator %s: %s remaining %d exceeds issued %d", cr.Symbol, ed, s.Remaining, s.Issued)
			}
		}
		for ed := range cr.EditionPrices {
			if _, err := ParseEdition(string(ed)); err != nil {
				return nil, fmt.Errorf("creator %s: %w", cr.Symbol, err)
			}
		}
		c.creators = append(c.creators, cr)
		c.byID[cr.ID] = cr
		c.bySymbol[cr.Symbol] = cr
		if cr.Slug != "" {
			c.bySlug[cr.Slug] = cr
		}
		c.books[cr.Symbol] = orderbook.NewOrderbook()
	}
	for sym, sb := range ds.Books {
		book, found := c.books[sym]
		if !found {
			return nil, fmt.Errorf("order book for unknown CAT %s", sym)
		}
		book.Update(sb.Bids, sb.Asks)
		c.trades[sym] = sb.Trades
	}
	for _, h := range ds.Account.Holdings {
		if c.byID[h.CreatorID] == nil {
			return nil, fmt.Errorf("holding of unknown creator %s", h.CreatorID)
		}
	}
	for _, d := range ds.Distributions {
		if c.byID[d.CreatorID] == nil {
			return nil, fmt.Errorf("distribution for unknown creator %s", d.CreatorID)
		}
	}
	log.Debugf("Loaded %d creators, %d seed orders, %d holdings", len(c.creators),
		len(ds.Account.Orders), len(ds.Account.Holdings))
	return c, nil
}

// Creators lists the creators in dataset order. The returned creators are
// copies.
func (c *Catalog) Creators() []*Creator {
	c.mtx.RLock()
	defer c.mtx.RUnlock()
	out := make([]*Creator, 0, len(c.creators))
	for _, cr := range c.creators {
		out = append(out, cr.copy())
	}
	return out
}

// Creator looks up a creator by ID.
func (c *Catalog) Creator(id string) (*Creator, bool) {
	c.mtx.RLock()
	defer c.mtx.RUnlock()
	cr, found := c.byID[id]
	if !found {
		return nil, false
	}
	return cr.copy(), true
}

// CreatorBySlug looks up a creator by URL slug.
func (c *Catalog) CreatorBySlug(slug string) (*Creator, bool) {
	c.mtx.RLock()
	defer c.mtx.RUnlock()
	cr, found := c.bySlug[slug]
	if !found {
		return nil, false
	}
	return cr.copy(), true
}

// CreatorByMarket looks up the creator of a market, e.g. NellaCAT/MIAU.
func (c *Catalog) CreatorByMarket(mkt string) (*Creator, error) {
	sym, err := dex.ParseMarketName(mkt)
	if err != nil {
		return nil, err
	}
	c.mtx.RLock()
	defer c.mtx.RUnlock()
	cr, found := c.bySymbol[sym]
	if !found {
		return nil, dex.NewError(dex.ErrUnknownMarket, mkt)
	}
	return cr.copy(), nil
}

// Price is the creator's current reference price.
func (c *Catalog) Price(creatorID string) (decimal.Decimal, bool) {
	c.mtx.RLock()
	defer c.mtx.RUnlock()
	cr, found := c.byID[creatorID]
	if !found {
		return decimal.Zero, false
	}
	return cr.Price, true
}

// MarketPrice is the current reference price of a market.
func (c *Catalog) MarketPrice(mkt string) (decimal.Decimal, error) {
	cr, err := c.CreatorByMarket(mkt)
	if err != nil {
		return decimal.Zero, err
	}
	return cr.Price, nil
}

// EditionPrice is the price of a creator's edition: the edition's own price
// if it trades at a premium, otherwise the creator's reference price.
func (c *Catalog) EditionPrice(creatorID string, ed Edition) (decimal.Decimal, bool) {
	c.mtx.RLock()
	defer c.mtx.RUnlock()
	cr, found := c.byID[creatorID]
	if !found {
		return decimal.Zero, false
	}
	if p, found := cr.EditionPrices[ed]; found {
		return p, true
	}
	return cr.Price, true
}

// CreatorName is the display name of a creator.
func (c *Catalog) CreatorName(creatorID string) string {
	c.mtx.RLock()
	defer c.mtx.RUnlock()
	if cr, found := c.byID[creatorID]; found {
		return cr.Name
	}
	return creatorID
}

// SetPrice moves a creator's reference price. Edition premiums are moved
// proportionally.
func (c *Catalog) SetPrice(creatorID string, price decimal.Decimal) error {
	if !price.IsPositive() {
		return dex.NewError(dex.ErrInvalidPrice, "reference price must be positive, got "+price.String())
	}
	c.mtx.Lock()
	defer c.mtx.Unlock()
	cr, found := c.byID[creatorID]
	if !found {
		return fmt.Errorf("unknown creator %s", creatorID)
	}
	ratio := price.Div(cr.Price)
	for ed, p := range cr.EditionPrices {
		cr.EditionPrices[ed] = p.Mul(ratio).Round(2)
	}
	log.Tracef("%s reference price %s -> %s", cr.Symbol, cr.Price, price)
	cr.Price = price
	return nil
}

// Book is the reference order book of a CAT.
func (c *Catalog) Book(symbol string) (*orderbook.Orderbook, bool) {
	c.mtx.RLock()
	defer c.mtx.RUnlock()
	book, found := c.books[symbol]
	return book, found
}

// RecentTrades is the trade tape of a CAT, newest first.
func (c *Catalog) RecentTrades(symbol string) []*Trade {
	c.mtx.RLock()
	defer c.mtx.RUnlock()
	trades := make([]*Trade, 0, len(c.trades[symbol]))
	for _, t := range c.trades[symbol] {
		tc := *t
		trades = append(trades, &tc)
	}
	return trades
}

// Account is the starting state of the demo account.
func (c *Catalog) Account() Account {
	return c.account
}

// Distributions are the past weekly distributions, newest week first.
func (c *Catalog) Distributions() []*SeedDistribution {
	dists := make([]*SeedDistribution, len(c.dists))
	copy(dists, c.dists)
	sort.SliceStable(dists, func(i, j int) bool {
		return dists[i].WeekOf.After(dists[j].WeekOf)
	})
	return dists
}
