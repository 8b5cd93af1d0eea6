// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package portfolio

import (
	"sort"

	"miauswap.org/cdex/client/catalog"

	"github.com/shopspring/decimal"
)

// PriceSource supplies reference prices. *catalog.Catalog is a PriceSource.
type PriceSource interface {
	EditionPrice(creatorID string, ed catalog.Edition) (decimal.Decimal, bool)
	CreatorName(creatorID string) string
}

var hundred = decimal.NewFromInt(100)

// Position is a valued Holding.
type Position struct {
	Holding
	CreatorName   string          `json:"creatorName"`
	Price         decimal.Decimal `json:"currentPrice"`
	PriceKnown    bool            `json:"priceKnown"`
	MarketValue   decimal.Decimal `json:"marketValue"`
	CostBasis     decimal.Decimal `json:"costBasis"`
	UnrealizedPnL decimal.Decimal `json:"pnl"`
	PnLPercent    decimal.Decimal `json:"pnlPercent"`
}

// Allocation is one creator's share of the portfolio value, over all of the
// creator's editions.
type Allocation struct {
	CreatorID string          `json:"creatorID"`
	Name      string          `json:"name"`
	Value     decimal.Decimal `json:"value"`
	Percent   decimal.Decimal `json:"percent"`
}

// Valuation is a portfolio valued at reference prices.
type Valuation struct {
	Positions     []*Position     `json:"positions"`
	TotalValue    decimal.Decimal `json:"totalValue"`
	CostBasis     decimal.Decimal `json:"costBasis"`
	UnrealizedPnL decimal.Decimal `json:"unrealizedPnL"`
	PnLPercent    decimal.Decimal `json:"pnlPercent"`
	Allocation    []*Allocation   `json:"allocation"`
}

// percent is part / whole × 100, or zero if whole is zero.
func percent(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred)
}

// Value values the holdings. A holding without a reference price is valued
// at zero with PriceKnown false. Percentages with a zero denominator are
// reported as zero.
func Value(holdings []*Holding, prices PriceSource) *Valuation {
	v := &Valuation{
		Positions: make([]*Position, 0, len(holdings)),
	}
	byCreator := make(map[string]*Allocation)
	var creatorOrder []string
	for _, h := range holdings {
		price, known := prices.EditionPrice(h.CreatorID, h.Edition)
		if !known {
			price = decimal.Zero
		}
		p := &Position{
			Holding:       *h,
			CreatorName:   prices.CreatorName(h.CreatorID),
			Price:         price,
			PriceKnown:    known,
			MarketValue:   h.Quantity.Mul(price),
			CostBasis:     h.Quantity.Mul(h.AvgBuyPrice),
			UnrealizedPnL: h.Quantity.Mul(price.Sub(h.AvgBuyPrice)),
			PnLPercent:    percent(price.Sub(h.AvgBuyPrice), h.AvgBuyPrice),
		}
		v.Positions = append(v.Positions, p)
		v.TotalValue = v.TotalValue.Add(p.MarketValue)
		v.CostBasis = v.CostBasis.Add(p.CostBasis)
		v.UnrealizedPnL = v.UnrealizedPnL.Add(p.UnrealizedPnL)

		alloc, found := byCreator[h.CreatorID]
		if !found {
			alloc = &Allocation{
				CreatorID: h.CreatorID,
				Name:      p.CreatorName,
			}
			byCreator[h.CreatorID] = alloc
			creatorOrder = append(creatorOrder, h.CreatorID)
		}
		alloc.Value = alloc.Value.Add(p.MarketValue)
	}
	v.PnLPercent = percent(v.UnrealizedPnL, v.CostBasis)

	v.Allocation = make([]*Allocation, 0, len(creatorOrder))
	for _, id := range creatorOrder {
		alloc := byCreator[id]
		alloc.Percent = percent(alloc.Value, v.TotalValue)
		v.Allocation = append(v.Allocation, alloc)
	}
	sort.SliceStable(v.Allocation, func(i, j int) bool {
		return v.Allocation[i].Value.GreaterThan(v.Allocation[j].Value)
	})
	return v
}
