// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package catalog

import (
	"fmt"
	"time"

	"miauswap.org/cdex/client/orderbook"
	"miauswap.org/cdex/dex"

	"github.com/shopspring/decimal"
)

// Edition is a CAT edition.
type Edition string

// The CAT editions, scarcest first.
const (
	Founders Edition = "Founders"
	Limited  Edition = "Limited"
	Standard Edition = "Standard"
)

// Editions lists every edition, scarcest first.
var Editions = []Edition{Founders, Limited, Standard}

// ParseEdition checks that s names an edition.
func ParseEdition(s string) (Edition, error) {
	for _, ed := range Editions {
		if string(ed) == s {
			return ed, nil
		}
	}
	return "", fmt.Errorf("unknown edition %q", s)
}

// Supply is the issued and remaining count of an edition.
type Supply struct {
	Issued    int64 `json:"issued" yaml:"issued"`
	Remaining int64 `json:"remaining" yaml:"remaining"`
}

// Creator is a creator with a CAT market.
type Creator struct {
	ID                    string                      `json:"id" yaml:"id"`
	Name                  string                      `json:"name" yaml:"name"`
	Slug                  string                      `json:"slug" yaml:"slug"`
	Symbol                string                      `json:"catSymbol" yaml:"symbol"`
	Score                 int                         `json:"score" yaml:"score"`
	ScoreTier             string                      `json:"scoreTier" yaml:"scoreTier"`
	Price                 decimal.Decimal             `json:"currentPrice" yaml:"price"`
	PriceChange24h        float64                     `json:"priceChange24h" yaml:"priceChange24h"`
	AnnualYield           float64                     `json:"annualYield" yaml:"annualYield"`
	MonthlyRevenue        decimal.Decimal             `json:"monthlyRevenue" yaml:"monthlyRevenue"`
	WeeklyDistributionETH decimal.Decimal             `json:"weeklyDistributionETH" yaml:"weeklyDistributionETH"`
	Subscribers           int64                       `json:"subscribers" yaml:"subscribers"`
	MemberSince           string                      `json:"memberSince" yaml:"memberSince"`
	TotalETHPaid          decimal.Decimal             `json:"totalETHPaid" yaml:"totalETHPaid"`
	Editions              map[Edition]Supply          `json:"editions" yaml:"editions"`
	EditionPrices         map[Edition]decimal.Decimal `json:"editionPrices,omitempty" yaml:"editionPrices"`
	Tagline               string                      `json:"tagline" yaml:"tagline"`
}

// Market is the creator's market name, e.g. NellaCAT/MIAU.
func (c *Creator) Market() string {
	return dex.MarketName(c.Symbol)
}

// CATsIssued is the total issued over all editions.
func (c *Creator) CATsIssued() int64 {
	var n int64
	for _, s := range c.Editions {
		n += s.Issued
	}
	return n
}

func (c *Creator) copy() *Creator {
	cc := *c
	cc.Editions = make(map[Edition]Supply, len(c.Editions))
	for ed, s := range c.Editions {
		cc.Editions[ed] = s
	}
	cc.EditionPrices = make(map[Edition]decimal.Decimal, len(c.EditionPrices))
	for ed, p := range c.EditionPrices {
		cc.EditionPrices[ed] = p
	}
	return &cc
}

// Trade is a print on a market's trade tape.
type Trade struct {
	Time     string          `json:"time" yaml:"time"`
	Price    decimal.Decimal `json:"price" yaml:"price"`
	Quantity decimal.Decimal `json:"quantity" yaml:"quantity"`
	Side     string          `json:"side" yaml:"side"`
}

type seedBook struct {
	Asks   []*orderbook.PriceBin `yaml:"asks"`
	Bids   []*orderbook.PriceBin `yaml:"bids"`
	Trades []*Trade              `yaml:"trades"`
}

// SeedOrder is an open order held by the account at startup.
type SeedOrder struct {
	Market   string          `yaml:"market"`
	Type     string          `yaml:"type"`
	Side     string          `yaml:"side"`
	Price    decimal.Decimal `yaml:"price"`
	Quantity decimal.Decimal `yaml:"quantity"`
	Filled   decimal.Decimal `yaml:"filled"`
}

// SeedHolding is a holding of the account at startup.
type SeedHolding struct {
	CreatorID   string          `yaml:"creator"`
	Edition     Edition         `yaml:"edition"`
	Quantity    decimal.Decimal `yaml:"quantity"`
	AvgBuyPrice decimal.Decimal `yaml:"avgBuyPrice"`
}

// SeedTransaction is a past wallet transaction.
type SeedTransaction struct {
	Stamp  time.Time       `yaml:"stamp"`
	Kind   string          `yaml:"kind"`
	Amount decimal.Decimal `yaml:"amount"`
	Asset  string          `yaml:"asset"`
	Market string          `yaml:"market"`
	Fee    decimal.Decimal `yaml:"fee"`
}

// SeedNote is a notification present at startup, Age before startup.
type SeedNote struct {
	Severity string        `yaml:"severity"`
	Subject  string        `yaml:"subject"`
	Details  string        `yaml:"details"`
	Age      time.Duration `yaml:"age"`
}

// Account is the starting state of the demo account.
type Account struct {
	Balance       decimal.Decimal    `yaml:"balance"`
	Staked        decimal.Decimal    `yaml:"staked"`
	StakedAt      time.Time          `yaml:"stakedAt"`
	Orders        []*SeedOrder       `yaml:"orders"`
	Holdings      []*SeedHolding     `yaml:"holdings"`
	Transactions  []*SeedTransaction `yaml:"transactions"`
	Notifications []*SeedNote        `yaml:"notifications"`
}

// SeedDistribution is a past weekly distribution.
type SeedDistribution struct {
	CreatorID   string          `yaml:"creator"`
	WeekOf      time.Time       `yaml:"weekOf"`
	Gross       decimal.Decimal `yaml:"gross"`
	PlatformFee decimal.Decimal `yaml:"platformFee"`
	HolderShare decimal.Decimal `yaml:"holderShare"`
	Paid        bool            `yaml:"paid"`
}

// Dataset is the decoded reference data file.
type Dataset struct {
	Creators      []*Creator           `yaml:"creators"`
	Books         map[string]*seedBook `yaml:"books"`
	Account       Account              `yaml:"account"`
	Distributions []*SeedDistribution  `yaml:"distributions"`
}
