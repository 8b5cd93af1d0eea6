// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

// Package ledger holds the MIAU balances of an account: the spendable wallet
// balance and the staked amount. Neither balance is ever negative, and a
// failed operation changes nothing.
package ledger

import (
	"fmt"
	"sync"
	"time"

	"miauswap.org/cdex/dex"
	"miauswap.org/cdex/dex/staking"

	"github.com/shopspring/decimal"
)

// LockedError is returned by Unstake while staked funds are locked.
type LockedError struct {
	UnlockTime time.Time
}

// Error satisfies the error interface.
func (e *LockedError) Error() string {
	return fmt.Sprintf("%s until %s", dex.ErrFundsLocked, e.UnlockTime.UTC().Format(time.DateOnly))
}

// Is makes errors.Is(err, dex.ErrFundsLocked) true for a *LockedError.
func (e *LockedError) Is(target error) bool {
	return target == dex.ErrFundsLocked
}

// Ledger is the balance ledger of one account. Ledger is safe for concurrent
// use, but callers combining several operations into one account action must
// serialize those actions themselves.
type Ledger struct {
	tiers *staking.Table

	mtx      sync.RWMutex
	balance  decimal.Decimal
	staked   decimal.Decimal
	stakedAt time.Time
	// lockDays is the lock period requested with the last deposit. The
	// effective lock is never shorter than the resolved tier's.
	lockDays uint32
	journal  []*Transaction
}

// New creates a Ledger with starting balances. stakedAt is the time of the
// last staking deposit, and is ignored if nothing is staked.
func New(tiers *staking.Table, balance, staked decimal.Decimal, stakedAt time.Time) (*Ledger, error) {
	if balance.IsNegative() || staked.IsNegative() {
		return nil, fmt.Errorf("negative starting balance")
	}
	if staked.IsZero() {
		stakedAt = time.Time{}
	}
	return &Ledger{
		tiers:    tiers,
		balance:  balance,
		staked:   staked,
		stakedAt: stakedAt,
	}, nil
}

// Balance is the spendable wallet balance.
func (l *Ledger) Balance() decimal.Decimal {
	l.mtx.RLock()
	defer l.mtx.RUnlock()
	return l.balance
}

// Staked is the staked amount.
func (l *Ledger) Staked() decimal.Decimal {
	l.mtx.RLock()
	defer l.mtx.RUnlock()
	return l.staked
}

// Tier resolves the staking tier of the current staked amount.
func (l *Ledger) Tier() *staking.Resolution {
	return l.tiers.Resolve(l.Staked())
}

// Tiers is the tier table the ledger resolves against.
func (l *Ledger) Tiers() *staking.Table {
	return l.tiers
}

// CheckDebit checks that amount could be debited without debiting it.
func (l *Ledger) CheckDebit(amount decimal.Decimal) error {
	l.mtx.RLock()
	defer l.mtx.RUnlock()
	return l.checkDebit(amount)
}

func (l *Ledger) checkDebit(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return dex.NewError(dex.ErrInvalidQuantity, "negative debit "+amount.String())
	}
	if amount.GreaterThan(l.balance) {
		return dex.NewError(dex.ErrInsufficientBalance, fmt.Sprintf("need %s MIAU, have %s", amount, l.balance))
	}
	return nil
}

// Debit removes amount from the wallet balance.
func (l *Ledger) Debit(amount decimal.Decimal) error {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	if err := l.checkDebit(amount); err != nil {
		return err
	}
	l.balance = l.balance.Sub(amount)
	return nil
}

// Credit adds amount to the wallet balance.
func (l *Ledger) Credit(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return dex.NewError(dex.ErrInvalidQuantity, "negative credit "+amount.String())
	}
	l.mtx.Lock()
	l.balance = l.balance.Add(amount)
	l.mtx.Unlock()
	return nil
}

// Stake moves amount from the wallet to the staked balance. The deposit
// restarts the lock period, which is the longer of lockDays and the lock of
// the tier the new staked total resolves to. lockDays may be zero.
func (l *Ledger) Stake(amount decimal.Decimal, lockDays uint32, now time.Time) (*staking.Resolution, error) {
	if !amount.IsPositive() {
		return nil, dex.NewError(dex.ErrInvalidQuantity, "stake must be positive, got "+amount.String())
	}
	l.mtx.Lock()
	defer l.mtx.Unlock()
	if amount.GreaterThan(l.balance) {
		return nil, dex.NewError(dex.ErrInsufficientStakeBalance, fmt.Sprintf("staking %s MIAU, have %s", amount, l.balance))
	}
	l.balance = l.balance.Sub(amount)
	l.staked = l.staked.Add(amount)
	l.stakedAt = now
	l.lockDays = lockDays
	return l.tiers.Resolve(l.staked), nil
}

// LockExpiry is when the staked funds unlock. The zero time means nothing
// has been staked.
func (l *Ledger) LockExpiry() time.Time {
	l.mtx.RLock()
	defer l.mtx.RUnlock()
	return l.lockExpiry()
}

func (l *Ledger) lockExpiry() time.Time {
	if l.stakedAt.IsZero() {
		return time.Time{}
	}
	days := l.tiers.Resolve(l.staked).LockDays
	if l.lockDays > days {
		days = l.lockDays
	}
	return l.stakedAt.AddDate(0, 0, int(days))
}

// Locked is true if the staked funds are locked at now.
func (l *Ledger) Locked(now time.Time) bool {
	return now.Before(l.LockExpiry())
}

// Unstake moves amount from the staked balance to the wallet. While the
// funds are locked every request fails with a *LockedError, whatever the
// amount.
func (l *Ledger) Unstake(amount decimal.Decimal, now time.Time) (*staking.Resolution, error) {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	if exp := l.lockExpiry(); now.Before(exp) {
		return nil, &LockedError{UnlockTime: exp}
	}
	if !amount.IsPositive() {
		return nil, dex.NewError(dex.ErrInvalidQuantity, "unstake must be positive, got "+amount.String())
	}
	if amount.GreaterThan(l.staked) {
		return nil, dex.NewError(dex.ErrInsufficientStakeBalance, fmt.Sprintf("unstaking %s MIAU, staked %s", amount, l.staked))
	}
	l.staked = l.staked.Sub(amount)
	l.balance = l.balance.Add(amount)
	if l.staked.IsZero() {
		l.stakedAt = time.Time{}
		l.lockDays = 0
	}
	return l.tiers.Resolve(l.staked), nil
}
