// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package core

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"miauswap.org/cdex/client/ledger"
	"miauswap.org/cdex/dex"
	"miauswap.org/cdex/dex/staking"
)

// Stake moves amount from the wallet to the staked balance, locked for the
// longer of lockDays and the lock of the resulting tier.
func (c *Core) Stake(amount decimal.Decimal, lockDays uint32) (*staking.Resolution, error) {
	before := c.Access()
	c.acctMtx.Lock()
	now := c.now()
	res, err := c.ledger.Stake(amount, lockDays, now)
	if err == nil {
		c.ledger.Record(&ledger.Transaction{
			Stamp:  now,
			Kind:   ledger.TxStakingDeposit,
			Amount: amount,
			Asset:  dex.QuoteSymbol,
		})
	}
	c.acctMtx.Unlock()
	if err != nil {
		c.metrics.reject("stake")
		topic, args := TopicStakeRejected, []any{err}
		if errors.Is(err, dex.ErrInsufficientStakeBalance) {
			topic, args = TopicInsufficientStake, nil
		}
		subject, details := formatDetails(topic, args...)
		c.notify(newStakingNote(topic, subject, details, ErrorLevel, ""))
		return nil, codedError(stakeErr, err)
	}

	days := res.LockDays
	if lockDays > days {
		days = lockDays
	}
	log.Infof("Staked %s %s for %d days, tier %s", amount, dex.QuoteSymbol, days, res.Name)
	c.metrics.stakeActions.WithLabelValues("stake").Inc()
	subject, details := formatDetails(TopicStaked, amount.InexactFloat64(), days)
	c.notify(newStakingNote(TopicStaked, subject, details, Success, res.Name))
	c.accountUpdated(before)
	return res, nil
}

// Unstake moves amount from the staked balance back to the wallet. While the
// stake is locked every request fails with an error matching
// dex.ErrFundsLocked that carries the unlock time, whatever the amount.
func (c *Core) Unstake(amount decimal.Decimal) (*staking.Resolution, error) {
	before := c.Access()
	c.acctMtx.Lock()
	now := c.now()
	res, err := c.ledger.Unstake(amount, now)
	if err == nil {
		c.ledger.Record(&ledger.Transaction{
			Stamp:  now,
			Kind:   ledger.TxUnstake,
			Amount: amount,
			Asset:  dex.QuoteSymbol,
		})
	}
	c.acctMtx.Unlock()
	if err != nil {
		c.metrics.reject("unstake")
		code, topic, args := stakeErr, TopicUnstakeRejected, []any{err}
		var lockErr *ledger.LockedError
		if errors.As(err, &lockErr) {
			code, topic = fundsLockedErr, TopicFundsLocked
			args = []any{lockErr.UnlockTime.Format("Jan 2, 2006")}
		}
		subject, details := formatDetails(topic, args...)
		c.notify(newStakingNote(topic, subject, details, ErrorLevel, ""))
		return nil, codedError(code, err)
	}

	log.Infof("Unstaked %s %s, tier %s", amount, dex.QuoteSymbol, res.Name)
	c.metrics.stakeActions.WithLabelValues("unstake").Inc()
	subject, details := formatDetails(TopicUnstaked, amount.InexactFloat64(), res.Name)
	c.notify(newStakingNote(TopicUnstaked, subject, details, Success, res.Name))
	c.accountUpdated(before)
	return res, nil
}

// LockExpiry is when the staked funds unlock. The zero time means nothing is
// staked.
func (c *Core) LockExpiry() time.Time {
	c.acctMtx.RLock()
	defer c.acctMtx.RUnlock()
	return c.ledger.LockExpiry()
}
