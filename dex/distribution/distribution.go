// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

// Package distribution computes the weekly creator revenue distributions paid
// to CAT holders, and keeps the record of distribution events.
package distribution

import (
	"fmt"
	"time"

	"miauswap.org/cdex/dex"

	"github.com/shopspring/decimal"
)

// Distribution errors.
const (
	ErrAlreadyPaid    = dex.ErrorKind("distribution already paid")
	ErrDuplicateEvent = dex.ErrorKind("distribution already recorded for week")
	ErrUnknownEvent   = dex.ErrorKind("unknown distribution event")
	ErrInvalidEvent   = dex.ErrorKind("invalid distribution event")
)

var (
	hundred = decimal.NewFromInt(100)

	// DefaultETHRate is the number of revenue units per ETH used to express a
	// per-CAT distribution in ETH.
	DefaultETHRate = decimal.NewFromInt(1000)
)

// Event is one creator's revenue for one week. An Event is never modified
// once recorded.
type Event struct {
	CreatorID          string          `json:"creatorID"`
	WeekOf             time.Time       `json:"weekOf"`
	GrossRevenue       decimal.Decimal `json:"grossRevenue"`
	PlatformFeePercent decimal.Decimal `json:"platformFeePercent"`
	HolderSharePercent decimal.Decimal `json:"holderSharePercent"`
}

func (ev *Event) validate() error {
	if ev.CreatorID == "" {
		return dex.NewError(ErrInvalidEvent, "no creator")
	}
	if ev.GrossRevenue.IsNegative() {
		return dex.NewError(ErrInvalidEvent, "negative gross revenue "+ev.GrossRevenue.String())
	}
	for _, pct := range []decimal.Decimal{ev.PlatformFeePercent, ev.HolderSharePercent} {
		if pct.IsNegative() || pct.GreaterThan(hundred) {
			return dex.NewError(ErrInvalidEvent, fmt.Sprintf("percentage %s outside [0, 100]", pct))
		}
	}
	return nil
}

// Accrual is the computed split of an Event's revenue.
type Accrual struct {
	Gross        decimal.Decimal `json:"gross"`
	PlatformFee  decimal.Decimal `json:"platformFee"`
	Net          decimal.Decimal `json:"net"`
	HolderPool   decimal.Decimal `json:"holderPool"`
	CreatorShare decimal.Decimal `json:"creatorShare"`
	PerCAT       decimal.Decimal `json:"perCAT"`
}

// Compute splits the event's revenue. net = gross × (1 − fee%), holderPool =
// net × holderShare%, and perCAT = holderPool / totalCATs, or zero when no
// CATs are issued.
func Compute(ev *Event, totalCATs int64) *Accrual {
	fee := ev.GrossRevenue.Mul(ev.PlatformFeePercent).Div(hundred)
	net := ev.GrossRevenue.Sub(fee)
	pool := net.Mul(ev.HolderSharePercent).Div(hundred)
	perCAT := decimal.Zero
	if totalCATs > 0 {
		perCAT = pool.Div(decimal.NewFromInt(totalCATs))
	}
	return &Accrual{
		Gross:        ev.GrossRevenue,
		PlatformFee:  fee,
		Net:          net,
		HolderPool:   pool,
		CreatorShare: net.Sub(pool),
		PerCAT:       perCAT,
	}
}

// PerCATETH converts the per-CAT distribution to ETH at rate revenue units per
// ETH. A non-positive rate gives zero.
func (a *Accrual) PerCATETH(rate decimal.Decimal) decimal.Decimal {
	if !rate.IsPositive() {
		return decimal.Zero
	}
	return a.PerCAT.Div(rate)
}

// Status is the payment status of a recorded event.
type Status uint8

const (
	StatusPending Status = iota
	StatusPaid
)

// String implements Stringer.
func (s Status) String() string {
	if s == StatusPaid {
		return "Paid"
	}
	return "Pending"
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// WeekStart truncates t to midnight UTC of the Monday starting its week.
func WeekStart(t time.Time) time.Time {
	t = t.UTC()
	offset := (int(t.Weekday()) + 6) % 7 // Monday = 0
	y, m, d := t.Date()
	return time.Date(y, m, d-offset, 0, 0, 0, 0, time.UTC)
}
