// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package core

import (
	"time"

	"github.com/shopspring/decimal"
	"miauswap.org/cdex/client/ledger"
	"miauswap.org/cdex/dex/distribution"
)

// Reference revenue split of a creator's revenue.
var (
	DefaultPlatformFeePercent = decimal.NewFromInt(8)
	DefaultHolderSharePercent = decimal.NewFromInt(12)
)

// RecordDistribution records a creator's revenue for a week as a Pending
// distribution over the creator's issued CATs.
func (c *Core) RecordDistribution(ev distribution.Event) (*distribution.Record, error) {
	cr, found := c.cat.Creator(ev.CreatorID)
	if !found {
		return nil, newError(distributionErr, "unknown creator %q", ev.CreatorID)
	}
	rec, err := c.dists.Record(ev, cr.CATsIssued())
	if err != nil {
		return nil, codedError(distributionErr, err)
	}
	perCAT := rec.Accrual.PerCATETH(c.ethRate())
	subject, details := formatDetails(TopicDistributionRecorded, cr.Name, rec.Event.WeekOf.Format(time.DateOnly), perCAT.String())
	c.notify(newDistributionNote(TopicDistributionRecorded, subject, details, Poke, cr.ID, perCAT))
	return rec, nil
}

// PayDistribution marks a creator's distribution for the week paid. The
// account's share, perCAT × CATs held over every edition, is journaled in
// ETH. The share is returned.
func (c *Core) PayDistribution(creatorID string, week time.Time) (decimal.Decimal, error) {
	now := c.now()
	if err := c.dists.MarkPaid(creatorID, week, now); err != nil {
		return decimal.Zero, codedError(distributionErr, err)
	}
	week = distribution.WeekStart(week)

	c.acctMtx.Lock()
	held := c.book.CATsByCreator()[creatorID]
	share := c.dists.HolderEarnings(week, map[string]decimal.Decimal{creatorID: held}).Div(c.ethRate())
	if share.IsPositive() {
		c.ledger.Record(&ledger.Transaction{
			Stamp:  now,
			Kind:   ledger.TxDistribution,
			Amount: share,
			Asset:  "ETH",
		})
	}
	c.acctMtx.Unlock()

	if share.IsPositive() {
		subject, details := formatDetails(TopicDistributionReceived, share.String(), c.cat.CreatorName(creatorID))
		c.notify(newDistributionNote(TopicDistributionReceived, subject, details, Success, creatorID, share))
	}
	return share, nil
}

// Distributions lists recorded distributions for the creator, or for every
// creator if creatorID is empty, newest week first.
func (c *Core) Distributions(creatorID string) []*distribution.Record {
	return c.dists.Records(creatorID)
}

// WeeklyEarnings is the account's ETH earned over every creator held for the
// week containing t.
func (c *Core) WeeklyEarnings(t time.Time) decimal.Decimal {
	c.acctMtx.RLock()
	held := c.book.CATsByCreator()
	c.acctMtx.RUnlock()
	return c.dists.HolderEarnings(t, held).Div(c.ethRate())
}
