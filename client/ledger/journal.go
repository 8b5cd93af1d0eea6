// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TxKind is the kind of a wallet transaction.
type TxKind string

// Transaction kinds.
const (
	TxBuy            TxKind = "Buy"
	TxSell           TxKind = "Sell"
	TxRefund         TxKind = "Refund"
	TxStakingDeposit TxKind = "Staking Deposit"
	TxUnstake        TxKind = "Unstake"
	TxDistribution   TxKind = "Distribution Received"
	TxStakingReward  TxKind = "USDC Staking Reward"
)

// Transaction is an entry in the account's transaction journal.
type Transaction struct {
	ID     string          `json:"id"`
	Stamp  time.Time       `json:"stamp"`
	Kind   TxKind          `json:"type"`
	Amount decimal.Decimal `json:"amount"`
	Asset  string          `json:"asset"`
	Market string          `json:"pair,omitempty"`
	Fee    decimal.Decimal `json:"fee"`
}

// Record adds a transaction to the journal, assigning an ID if it has none.
// The journal is kept newest first.
func (l *Ledger) Record(tx *Transaction) {
	t := *tx
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	l.mtx.Lock()
	defer l.mtx.Unlock()
	i := len(l.journal)
	for i > 0 && t.Stamp.After(l.journal[i-1].Stamp) {
		i--
	}
	l.journal = append(l.journal, nil)
	copy(l.journal[i+1:], l.journal[i:])
	l.journal[i] = &t
}

// Transactions returns up to n journal entries, newest first. n <= 0 returns
// every entry.
func (l *Ledger) Transactions(n int) []*Transaction {
	l.mtx.RLock()
	defer l.mtx.RUnlock()
	if n <= 0 || n > len(l.journal) {
		n = len(l.journal)
	}
	txs := make([]*Transaction, 0, n)
	for _, tx := range l.journal[:n] {
		t := *tx
		txs = append(txs, &t)
	}
	return txs
}
