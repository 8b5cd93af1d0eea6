// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package core

import (
	"errors"
	"testing"
	"time"

	"github.com/davecgh/go-spew/spew"
	"miauswap.org/cdex/client/ledger"
	"miauswap.org/cdex/dex/distribution"
)

func TestDistributionPayout(t *testing.T) {
	c, _ := newTestCore(t, 0)
	week := time.Date(2026, 2, 25, 12, 0, 0, 0, time.UTC) // a Wednesday
	ev := distribution.Event{
		CreatorID:          "1",
		WeekOf:             week,
		GrossRevenue:       dec("14200"),
		PlatformFeePercent: dec("8"),
		HolderSharePercent: dec("12"),
	}
	rec, err := c.RecordDistribution(ev)
	if err != nil {
		t.Fatalf("RecordDistribution error: %v", err)
	}
	if !rec.Event.WeekOf.Equal(time.Date(2026, 2, 23, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("week not normalized: %s", rec.Event.WeekOf)
	}
	acc := rec.Accrual
	if !acc.Net.Equal(dec("13064")) || !acc.HolderPool.Equal(dec("1567.68")) || !acc.PerCAT.Equal(dec("13.064")) {
		t.Fatalf("wrong accrual %s", spew.Sdump(acc))
	}
	if rec.Status != distribution.StatusPending {
		t.Fatalf("new record is %s", rec.Status)
	}
	if n := note(c, TopicDistributionRecorded); n == nil {
		t.Fatalf("no distribution note")
	}

	_, err = c.RecordDistribution(ev)
	if !errors.Is(err, distribution.ErrDuplicateEvent) || !errorHasCode(err, distributionErr) {
		t.Fatalf("expected duplicate event, got %v", err)
	}
	ev.CreatorID = "99"
	if _, err := c.RecordDistribution(ev); !errorHasCode(err, distributionErr) {
		t.Fatalf("expected distributionErr for an unknown creator, got %v", err)
	}

	// 8 Nella CATs over two editions, 13.064 per CAT, 1000 per ETH.
	share, err := c.PayDistribution("1", week)
	if err != nil {
		t.Fatalf("PayDistribution error: %v", err)
	}
	if !share.Equal(dec("0.104512")) {
		t.Fatalf("wrong share %s", share)
	}
	tx := c.Transactions(1)[0]
	if tx.Kind != ledger.TxDistribution || tx.Asset != "ETH" || !tx.Amount.Equal(share) {
		t.Fatalf("wrong journal entry %s", spew.Sdump(tx))
	}
	if n := note(c, TopicDistributionReceived); n == nil || n.Details() != "Weekly distribution received: 0.104512 ETH from Nella Rose" {
		t.Fatalf("wrong toast %s", spew.Sdump(n))
	}
	if recs := c.Distributions("1"); recs[0].Status != distribution.StatusPaid {
		t.Fatalf("record not paid %s", spew.Sdump(recs[0]))
	}
	if earned := c.WeeklyEarnings(week); !earned.Equal(share) {
		t.Fatalf("wrong weekly earnings %s", earned)
	}

	if _, err := c.PayDistribution("1", week); !errors.Is(err, distribution.ErrAlreadyPaid) {
		t.Fatalf("expected ErrAlreadyPaid, got %v", err)
	}
	if _, err := c.PayDistribution("1", week.AddDate(0, 0, 7)); !errors.Is(err, distribution.ErrUnknownEvent) {
		t.Fatalf("expected ErrUnknownEvent, got %v", err)
	}
}

func TestDistributionNothingHeld(t *testing.T) {
	c, _ := newTestCore(t, 0)
	week := time.Date(2026, 2, 23, 0, 0, 0, 0, time.UTC)
	if _, err := c.RecordDistribution(distribution.Event{
		CreatorID:          "2",
		WeekOf:             week,
		GrossRevenue:       dec("5000"),
		PlatformFeePercent: dec("8"),
		HolderSharePercent: dec("12"),
	}); err != nil {
		t.Fatalf("RecordDistribution error: %v", err)
	}
	txs := len(c.Transactions(0))
	share, err := c.PayDistribution("2", week)
	if err != nil {
		t.Fatalf("PayDistribution error: %v", err)
	}
	if !share.IsZero() || len(c.Transactions(0)) != txs {
		t.Fatalf("payout without holdings: %s", share)
	}
}
