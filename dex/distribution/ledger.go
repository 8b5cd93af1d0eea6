// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package distribution

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"miauswap.org/cdex/dex"

	"github.com/shopspring/decimal"
)

// Record is a recorded Event with its accrual and payment status.
type Record struct {
	Event   Event     `json:"event"`
	Accrual Accrual   `json:"accrual"`
	CATs    int64     `json:"totalCATs"`
	Status  Status    `json:"status"`
	PaidAt  time.Time `json:"paidAt,omitempty"`
}

type recordKey struct {
	creatorID string
	week      time.Time
}

// Ledger records distribution events. There is at most one event per creator
// per week. Ledger is safe for concurrent use.
type Ledger struct {
	mtx     sync.RWMutex
	records map[recordKey]*Record
}

// NewLedger is the constructor for an empty Ledger.
func NewLedger() *Ledger {
	return &Ledger{
		records: make(map[recordKey]*Record),
	}
}

// Record computes and records the event as Pending. The week is normalized to
// the Monday starting it.
func (l *Ledger) Record(ev Event, totalCATs int64) (*Record, error) {
	if err := ev.validate(); err != nil {
		return nil, err
	}
	if totalCATs < 0 {
		return nil, dex.NewError(ErrInvalidEvent, fmt.Sprintf("negative CAT supply %d", totalCATs))
	}
	ev.WeekOf = WeekStart(ev.WeekOf)
	k := recordKey{ev.CreatorID, ev.WeekOf}

	l.mtx.Lock()
	defer l.mtx.Unlock()
	if _, found := l.records[k]; found {
		return nil, dex.NewError(ErrDuplicateEvent, fmt.Sprintf("%s, week of %s", ev.CreatorID, ev.WeekOf.Format(time.DateOnly)))
	}
	rec := &Record{
		Event:   ev,
		Accrual: *Compute(&ev, totalCATs),
		CATs:    totalCATs,
	}
	l.records[k] = rec
	r := *rec
	return &r, nil
}

// MarkPaid moves a Pending record to Paid.
func (l *Ledger) MarkPaid(creatorID string, week time.Time, at time.Time) error {
	k := recordKey{creatorID, WeekStart(week)}
	l.mtx.Lock()
	defer l.mtx.Unlock()
	rec, found := l.records[k]
	if !found {
		return dex.NewError(ErrUnknownEvent, fmt.Sprintf("%s, week of %s", creatorID, k.week.Format(time.DateOnly)))
	}
	if rec.Status == StatusPaid {
		return dex.NewError(ErrAlreadyPaid, fmt.Sprintf("%s, week of %s", creatorID, k.week.Format(time.DateOnly)))
	}
	rec.Status = StatusPaid
	rec.PaidAt = at
	return nil
}

// Records lists records for the creator, or all records if creatorID is
// empty, newest week first.
func (l *Ledger) Records(creatorID string) []*Record {
	l.mtx.RLock()
	recs := make([]*Record, 0, len(l.records))
	for _, rec := range l.records {
		if creatorID != "" && rec.Event.CreatorID != creatorID {
			continue
		}
		r := *rec
		recs = append(recs, &r)
	}
	l.mtx.RUnlock()
	sort.Slice(recs, func(i, j int) bool {
		wi, wj := recs[i].Event.WeekOf, recs[j].Event.WeekOf
		if wi.Equal(wj) {
			return recs[i].Event.CreatorID < recs[j].Event.CreatorID
		}
		return wi.After(wj)
	})
	return recs
}

// HolderEarnings sums perCAT × CATs held over every event in the week for the
// creators in holdings, keyed by creator ID.
func (l *Ledger) HolderEarnings(week time.Time, holdings map[string]decimal.Decimal) decimal.Decimal {
	week = WeekStart(week)
	l.mtx.RLock()
	defer l.mtx.RUnlock()
	total := decimal.Zero
	for k, rec := range l.records {
		if !k.week.Equal(week) {
			continue
		}
		if held, found := holdings[k.creatorID]; found && held.IsPositive() {
			total = total.Add(rec.Accrual.PerCAT.Mul(held))
		}
	}
	return total
}
