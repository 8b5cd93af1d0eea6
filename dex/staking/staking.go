// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

// Package staking resolves the staking tier an account holds from the amount
// of MIAU it has staked. The tier is always a projection of the staked amount
// and should never be stored.
package staking

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// NoTier is the name of the tier resolved below the lowest threshold.
const NoTier = "None"

// Tier is a staking tier. MinStake is an inclusive lower bound.
type Tier struct {
	Name               string          `json:"name"`
	MinStake           decimal.Decimal `json:"minStake"`
	LockDays           uint32          `json:"lockDays"`
	FeeDiscountPercent decimal.Decimal `json:"feeDiscount"`
	// Multiplier is the distribution reward multiplier, e.g. 1.5 for "1.5x".
	Multiplier decimal.Decimal `json:"multiplier"`
}

// LockDuration is the lock period as a time.Duration.
func (t *Tier) LockDuration() time.Duration {
	return time.Duration(t.LockDays) * 24 * time.Hour
}

// Resolution is the result of resolving a staked amount against a Table.
type Resolution struct {
	Tier
	IsVIP bool `json:"isVIP"`
}

// Table is an ascending tier table. A Table is immutable once created and is
// safe for concurrent use.
type Table struct {
	tiers    []Tier
	vipStake decimal.Decimal
	none     Tier
}

// NewTable creates a Table from the tiers, which need not be sorted. Tier
// names and thresholds must be unique, thresholds must be positive, and
// discounts must be within [0, 100].
func NewTable(tiers []Tier, vipStake decimal.Decimal) (*Table, error) {
	if len(tiers) == 0 {
		return nil, fmt.Errorf("no staking tiers")
	}
	if vipStake.IsNegative() {
		return nil, fmt.Errorf("negative VIP threshold %s", vipStake)
	}
	sorted := make([]Tier, len(tiers))
	copy(sorted, tiers)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].MinStake.LessThan(sorted[j].MinStake)
	})
	names := make(map[string]bool, len(sorted))
	for i, t := range sorted {
		if t.Name == "" || t.Name == NoTier {
			return nil, fmt.Errorf("invalid tier name %q", t.Name)
		}
		if names[t.Name] {
			return nil, fmt.Errorf("duplicate tier %q", t.Name)
		}
		names[t.Name] = true
		if !t.MinStake.IsPositive() {
			return nil, fmt.Errorf("tier %s: minimum stake must be positive", t.Name)
		}
		if i > 0 && t.MinStake.Equal(sorted[i-1].MinStake) {
			return nil, fmt.Errorf("tiers %s and %s share a threshold", sorted[i-1].Name, t.Name)
		}
		if t.FeeDiscountPercent.IsNegative() || t.FeeDiscountPercent.GreaterThan(decimal.NewFromInt(100)) {
			return nil, fmt.Errorf("tier %s: fee discount %s%% out of range", t.Name, t.FeeDiscountPercent)
		}
		if t.Multiplier.IsZero() {
			sorted[i].Multiplier = decimal.NewFromInt(1)
		}
	}
	return &Table{
		tiers:    sorted,
		vipStake: vipStake,
		none: Tier{
			Name:       NoTier,
			Multiplier: decimal.NewFromInt(1),
		},
	}, nil
}

// DefaultTable is the standard Bronze, Silver and Gold table with the VIP
// threshold at 25,000 MIAU.
func DefaultTable() *Table {
	tbl, err := NewTable([]Tier{
		{
			Name:               "Bronze",
			MinStake:           decimal.NewFromInt(10_000),
			LockDays:           30,
			FeeDiscountPercent: decimal.Zero,
			Multiplier:         decimal.NewFromInt(1),
		},
		{
			Name:               "Silver",
			MinStake:           decimal.NewFromInt(50_000),
			LockDays:           90,
			FeeDiscountPercent: decimal.NewFromInt(10),
			Multiplier:         decimal.RequireFromString("1.5"),
		},
		{
			Name:               "Gold",
			MinStake:           decimal.NewFromInt(250_000),
			LockDays:           365,
			FeeDiscountPercent: decimal.NewFromInt(20),
			Multiplier:         decimal.RequireFromString("2.5"),
		},
	}, decimal.NewFromInt(25_000))
	if err != nil {
		panic(err) // programmer error
	}
	return tbl
}

// Resolve finds the tier for the staked amount: the highest tier whose
// minimum stake is met, or the None tier. Negative amounts resolve to None.
func (tbl *Table) Resolve(staked decimal.Decimal) *Resolution {
	tier := tbl.none
	for i := len(tbl.tiers) - 1; i >= 0; i-- {
		if staked.GreaterThanOrEqual(tbl.tiers[i].MinStake) {
			tier = tbl.tiers[i]
			break
		}
	}
	return &Resolution{
		Tier:  tier,
		IsVIP: staked.IsPositive() && staked.GreaterThanOrEqual(tbl.vipStake),
	}
}

// Tiers lists the tiers in ascending order.
func (tbl *Table) Tiers() []Tier {
	tiers := make([]Tier, len(tbl.tiers))
	copy(tiers, tbl.tiers)
	return tiers
}

// Next returns the lowest tier above the one the staked amount resolves to,
// and the additional stake needed to reach it. ok is false at the top tier.
func (tbl *Table) Next(staked decimal.Decimal) (next Tier, needed decimal.Decimal, ok bool) {
	for _, t := range tbl.tiers {
		if staked.LessThan(t.MinStake) {
			return t, t.MinStake.Sub(staked), true
		}
	}
	return Tier{}, decimal.Zero, false
}

// VIPStake is the staked amount at which an account becomes a VIP.
func (tbl *Table) VIPStake() decimal.Decimal {
	return tbl.vipStake
}

// LockExpiry is when funds staked at deposit unlock, given the staked total
// now held.
func (tbl *Table) LockExpiry(staked decimal.Decimal, deposit time.Time) time.Time {
	tier := tbl.Resolve(staked)
	return deposit.AddDate(0, 0, int(tier.LockDays))
}

var twelve = decimal.NewFromInt(12)

// EstimatedMonthlyReward is the rough monthly reward on a staked amount at
// the given annual percentage yield, staked × apy% / 12.
func EstimatedMonthlyReward(staked, apyPercent decimal.Decimal) decimal.Decimal {
	if !staked.IsPositive() || !apyPercent.IsPositive() {
		return decimal.Zero
	}
	return staked.Mul(apyPercent).Div(decimal.NewFromInt(100)).Div(twelve)
}
