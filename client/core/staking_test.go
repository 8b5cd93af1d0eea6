// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package core

import (
	"errors"
	"testing"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/shopspring/decimal"
	"miauswap.org/cdex/client/ledger"
	"miauswap.org/cdex/dex"
	"miauswap.org/cdex/dex/staking"
)

func TestStake(t *testing.T) {
	c, _ := newTestCore(t, 0)

	for _, amt := range []string{"0", "-5"} {
		if _, err := c.Stake(dec(amt), 0); !errors.Is(err, dex.ErrInvalidQuantity) || !errorHasCode(err, stakeErr) {
			t.Fatalf("stake %s: expected ErrInvalidQuantity, got %v", amt, err)
		}
	}
	if n := note(c, TopicStakeRejected); n == nil || n.Severity() != ErrorLevel {
		t.Fatalf("no stake rejection toast")
	}

	_, err := c.Stake(dec("5000"), 0)
	if !errors.Is(err, dex.ErrInsufficientStakeBalance) {
		t.Fatalf("expected ErrInsufficientStakeBalance, got %v", err)
	}
	if n := note(c, TopicInsufficientStake); n == nil || n.Details() != "Insufficient MIAU balance for staking." {
		t.Fatalf("wrong toast %s", spew.Sdump(n))
	}
	if !c.Balance().Equal(dec("4250")) || !c.Staked().Equal(dec("50000")) {
		t.Fatalf("failed stakes changed the ledger")
	}

	res, err := c.Stake(dec("1000"), 30)
	if err != nil {
		t.Fatalf("Stake error: %v", err)
	}
	if res.Name != "Silver" {
		t.Fatalf("wrong tier %s", res.Name)
	}
	if !c.Balance().Equal(dec("3250")) || !c.Staked().Equal(dec("51000")) {
		t.Fatalf("wrong balances %s / %s", c.Balance(), c.Staked())
	}
	// The Silver lock outlasts the requested 30 days.
	if n := note(c, TopicStaked); n == nil || n.Details() != "Successfully staked 1,000 MIAU for 90 days." {
		t.Fatalf("wrong toast %s", spew.Sdump(n))
	}
	if exp := c.LockExpiry(); !exp.Equal(tStart.AddDate(0, 0, 90)) {
		t.Fatalf("wrong lock expiry %s", exp)
	}
	if tx := c.Transactions(1)[0]; tx.Kind != ledger.TxStakingDeposit || !tx.Amount.Equal(dec("1000")) {
		t.Fatalf("wrong journal entry %s", spew.Sdump(tx))
	}

	// A longer requested lock wins.
	if _, err := c.Stake(dec("10"), 400); err != nil {
		t.Fatalf("Stake error: %v", err)
	}
	if n := note(c, TopicStaked); n.Details() != "Successfully staked 10 MIAU for 400 days." {
		t.Fatalf("wrong toast %q", n.Details())
	}
}

func TestUnstakeLocked(t *testing.T) {
	c, clock := newTestCore(t, 0)
	seededUnlock := time.Date(2026, 4, 28, 0, 0, 0, 0, time.UTC)

	for _, amt := range []string{"0", "1", "50000", "1000000", "-1"} {
		_, err := c.Unstake(dec(amt))
		if !errors.Is(err, dex.ErrFundsLocked) || !errorHasCode(err, fundsLockedErr) {
			t.Fatalf("unstake %s: expected ErrFundsLocked, got %v", amt, err)
		}
		var lockErr *ledger.LockedError
		if !errors.As(err, &lockErr) || !lockErr.UnlockTime.Equal(seededUnlock) {
			t.Fatalf("unstake %s: wrong unlock time in %v", amt, err)
		}
	}
	if n := note(c, TopicFundsLocked); n == nil || n.Details() != "Your staked MIAU is locked until Apr 28, 2026." {
		t.Fatalf("wrong toast %s", spew.Sdump(n))
	}
	if !c.Balance().Equal(dec("4250")) || !c.Staked().Equal(dec("50000")) {
		t.Fatalf("locked unstakes changed the ledger")
	}

	clock.advance(seededUnlock.Sub(tStart))
	if _, err := c.Unstake(dec("60000")); !errors.Is(err, dex.ErrInsufficientStakeBalance) {
		t.Fatalf("expected ErrInsufficientStakeBalance, got %v", err)
	}
	res, err := c.Unstake(dec("45000"))
	if err != nil {
		t.Fatalf("Unstake error: %v", err)
	}
	if res.Name != staking.NoTier || res.IsVIP {
		t.Fatalf("wrong tier after unstake %s", spew.Sdump(res))
	}
	if n := note(c, TopicUnstaked); n == nil || n.Details() != "Unstaked 45,000 MIAU. Your staking tier is now None." {
		t.Fatalf("wrong toast %s", spew.Sdump(n))
	}
	if !c.Balance().Equal(dec("49250")) || !c.Staked().Equal(dec("5000")) {
		t.Fatalf("wrong balances %s / %s", c.Balance(), c.Staked())
	}

	// Fees lose the Silver discount.
	p, err := c.PreviewTrade(limitBuy("NellaCAT/MIAU", "100", "10"))
	if err != nil {
		t.Fatalf("PreviewTrade error: %v", err)
	}
	if !p.Fee.Equal(dec("2.5")) || !p.DiscountPercent.IsZero() {
		t.Fatalf("wrong undiscounted fee %s", spew.Sdump(p))
	}

	if _, err := c.Unstake(dec("5000")); err != nil {
		t.Fatalf("Unstake error: %v", err)
	}
	if !c.Staked().IsZero() || !c.LockExpiry().IsZero() {
		t.Fatalf("stake not cleared")
	}
}

func TestStakingView(t *testing.T) {
	c, _ := newTestCore(t, 0)
	sv := c.Staking()
	if len(sv.Tiers) != 3 || !sv.VIPStake.Equal(dec("25000")) {
		t.Fatalf("wrong tier table %s", spew.Sdump(sv))
	}
	a := sv.Access
	if a.NextTier == nil || a.NextTier.Name != "Gold" || !a.NeededForNext.Equal(dec("200000")) {
		t.Fatalf("wrong next tier %s", spew.Sdump(a))
	}
	// 50000 × 5% / 12
	want := dec("50000").Mul(dec("0.05")).Div(decimal.NewFromInt(12))
	if !a.MonthlyReward.Equal(want) {
		t.Fatalf("wrong monthly reward %s, want %s", a.MonthlyReward, want)
	}
}

func TestTierDiscountMonotonic(t *testing.T) {
	tbl := staking.DefaultTable()
	prev := decimal.NewFromInt(-1)
	for staked := int64(0); staked <= 300_000; staked += 2_500 {
		res := tbl.Resolve(decimal.NewFromInt(staked))
		if res.FeeDiscountPercent.LessThan(prev) {
			t.Fatalf("discount fell to %s at %d", res.FeeDiscountPercent, staked)
		}
		prev = res.FeeDiscountPercent
	}
}
