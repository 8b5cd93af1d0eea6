// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package ledger

import (
	"time"

	"miauswap.org/cdex/dex/staking"

	"github.com/shopspring/decimal"
)

var (
	// AccessThreshold is the wallet balance needed to trade on the CDEX.
	AccessThreshold = decimal.NewFromInt(1000)
	// WarningThreshold is the balance below which an account with access is
	// warned that it is close to losing it.
	WarningThreshold = decimal.NewFromInt(1100)
	// RewardAPY is the annual percentage yield used to estimate staking
	// rewards.
	RewardAPY = decimal.NewFromInt(5)
)

// Access is a read-time projection of the ledger: the staking tier, trading
// access and related hints. Nothing in it is stored.
type Access struct {
	Balance           decimal.Decimal     `json:"balance"`
	Staked            decimal.Decimal     `json:"staked"`
	Tier              *staking.Resolution `json:"tier"`
	HasCDEXAccess     bool                `json:"hasCDEXAccess"`
	LowBalanceWarning bool                `json:"lowBalanceWarning"`
	LockExpiry        time.Time           `json:"lockExpiry"`
	Locked            bool                `json:"locked"`
	NextTier          *staking.Tier       `json:"nextTier,omitempty"`
	NeededForNext     decimal.Decimal     `json:"neededForNext"`
	MonthlyReward     decimal.Decimal     `json:"estMonthlyReward"`
}

// Access projects the ledger state at now.
func (l *Ledger) Access(now time.Time) *Access {
	l.mtx.RLock()
	bal, staked, exp := l.balance, l.staked, l.lockExpiry()
	l.mtx.RUnlock()

	a := &Access{
		Balance:           bal,
		Staked:            staked,
		Tier:              l.tiers.Resolve(staked),
		HasCDEXAccess:     bal.GreaterThanOrEqual(AccessThreshold),
		LowBalanceWarning: bal.GreaterThanOrEqual(AccessThreshold) && bal.LessThan(WarningThreshold),
		LockExpiry:        exp,
		Locked:            now.Before(exp),
		MonthlyReward:     staking.EstimatedMonthlyReward(staked, RewardAPY),
	}
	if next, needed, ok := l.tiers.Next(staked); ok {
		a.NextTier = &next
		a.NeededForNext = needed
	}
	return a
}
