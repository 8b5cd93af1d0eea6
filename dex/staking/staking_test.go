// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package staking

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestResolve(t *testing.T) {
	tbl := DefaultTable()
	tests := []struct {
		staked   string
		name     string
		discount string
		lockDays uint32
		vip      bool
	}{
		{"-5", NoTier, "0", 0, false},
		{"0", NoTier, "0", 0, false},
		{"9999.99", NoTier, "0", 0, false},
		{"10000", "Bronze", "0", 30, false},
		{"24999", "Bronze", "0", 30, false},
		{"25000", "Bronze", "0", 30, true},
		{"49999", "Bronze", "0", 30, true},
		{"50000", "Silver", "10", 90, true},
		{"249999.99", "Silver", "10", 90, true},
		{"250000", "Gold", "20", 365, true},
		{"1000000000", "Gold", "20", 365, true},
	}
	for _, tt := range tests {
		res := tbl.Resolve(d(tt.staked))
		if res.Name != tt.name {
			t.Fatalf("%s: wrong tier %s, wanted %s", tt.staked, res.Name, tt.name)
		}
		if !res.FeeDiscountPercent.Equal(d(tt.discount)) {
			t.Fatalf("%s: wrong discount %s", tt.staked, res.FeeDiscountPercent)
		}
		if res.LockDays != tt.lockDays {
			t.Fatalf("%s: wrong lock days %d", tt.staked, res.LockDays)
		}
		if res.IsVIP != tt.vip {
			t.Fatalf("%s: wrong VIP %t", tt.staked, res.IsVIP)
		}
	}
}

func TestResolveMonotonic(t *testing.T) {
	tbl := DefaultTable()
	var last decimal.Decimal
	for staked := int64(0); staked <= 300_000; staked += 2_500 {
		disc := tbl.Resolve(decimal.NewFromInt(staked)).FeeDiscountPercent
		if disc.LessThan(last) {
			t.Fatalf("discount decreased from %s to %s at %d", last, disc, staked)
		}
		last = disc
	}
}

func TestNext(t *testing.T) {
	tbl := DefaultTable()
	next, needed, ok := tbl.Next(d("50000"))
	if !ok || next.Name != "Gold" || !needed.Equal(d("200000")) {
		t.Fatalf("wrong next tier %s, needed %s, ok %t", next.Name, needed, ok)
	}
	next, needed, ok = tbl.Next(d("0"))
	if !ok || next.Name != "Bronze" || !needed.Equal(d("10000")) {
		t.Fatalf("wrong next tier %s, needed %s, ok %t", next.Name, needed, ok)
	}
	if _, _, ok = tbl.Next(d("250000")); ok {
		t.Fatalf("next tier above Gold")
	}
}

func TestTiersListing(t *testing.T) {
	tiers := DefaultTable().Tiers()
	if len(tiers) != 3 || tiers[0].Name != "Bronze" || tiers[2].Name != "Gold" {
		t.Fatalf("wrong tier listing %+v", tiers)
	}
	tiers[0].Name = "Changed"
	if DefaultTable().Tiers()[0].Name != "Bronze" {
		t.Fatalf("listing aliases the table")
	}
}

func TestLockExpiry(t *testing.T) {
	deposit := time.Date(2026, time.January, 28, 0, 0, 0, 0, time.UTC)
	exp := DefaultTable().LockExpiry(d("50000"), deposit)
	want := time.Date(2026, time.April, 28, 0, 0, 0, 0, time.UTC)
	if !exp.Equal(want) {
		t.Fatalf("wrong lock expiry %s, wanted %s", exp, want)
	}
}

func TestEstimatedMonthlyReward(t *testing.T) {
	r := EstimatedMonthlyReward(d("50000"), d("5"))
	if r.StringFixed(2) != "208.33" {
		t.Fatalf("wrong monthly reward %s", r)
	}
	if !EstimatedMonthlyReward(d("0"), d("5")).IsZero() {
		t.Fatalf("nonzero reward for nothing staked")
	}
}

func TestNewTableErrors(t *testing.T) {
	vip := d("25000")
	bad := [][]Tier{
		nil,
		{{Name: "", MinStake: d("1")}},
		{{Name: NoTier, MinStake: d("1")}},
		{{Name: "A", MinStake: d("0")}},
		{{Name: "A", MinStake: d("1")}, {Name: "A", MinStake: d("2")}},
		{{Name: "A", MinStake: d("1")}, {Name: "B", MinStake: d("1")}},
		{{Name: "A", MinStake: d("1"), FeeDiscountPercent: d("101")}},
	}
	for i, tiers := range bad {
		if _, err := NewTable(tiers, vip); err == nil {
			t.Fatalf("case %d: no error", i)
		}
	}
	if _, err := NewTable([]Tier{{Name: "A", MinStake: d("1")}}, d("-1")); err == nil {
		t.Fatalf("no error for negative VIP threshold")
	}
}

const testTable = `
vipstake = 30000

[Gold]
minstake = 200000
lockdays = 180
feediscount = 25%
multiplier = 3x

[Silver]
minstake = 40000
lockdays = 60
feediscount = 10
multiplier = 1.5
`

func TestLoadTable(t *testing.T) {
	tbl, err := LoadTable([]byte(testTable))
	if err != nil {
		t.Fatalf("LoadTable error: %v", err)
	}
	tiers := tbl.Tiers()
	if len(tiers) != 2 || tiers[0].Name != "Silver" || tiers[1].Name != "Gold" {
		t.Fatalf("wrong tiers loaded %+v", tiers)
	}
	if !tbl.VIPStake().Equal(d("30000")) {
		t.Fatalf("wrong VIP threshold %s", tbl.VIPStake())
	}
	res := tbl.Resolve(d("200000"))
	if res.Name != "Gold" || res.LockDays != 180 || !res.FeeDiscountPercent.Equal(d("25")) || !res.Multiplier.Equal(d("3")) {
		t.Fatalf("wrong Gold tier %+v", res)
	}
	if tbl.Resolve(d("29999")).IsVIP {
		t.Fatalf("VIP below configured threshold")
	}

	for _, bad := range []string{
		"[A]\nlockdays=3\n",
		"[A]\nminstake=abc\n",
		"[A]\nminstake=10\nlockdays=-1\n",
		"[A]\nminstake=10\nfeediscount=x\n",
		"vipstake=lots\n[A]\nminstake=10\n",
	} {
		if _, err := LoadTable([]byte(bad)); err == nil {
			t.Fatalf("no error loading %q", bad)
		}
	}
}
