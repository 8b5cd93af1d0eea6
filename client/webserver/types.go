// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package webserver

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"miauswap.org/cdex/client/catalog"
	"miauswap.org/cdex/client/core"
	"miauswap.org/cdex/client/ledger"
	"miauswap.org/cdex/dex/order"
	"miauswap.org/cdex/dex/staking"
)

// standardResponse is a basic API response when no data needs to be returned.
// Code is the core error code of a failed account action.
type standardResponse struct {
	OK   bool   `json:"ok"`
	Msg  string `json:"msg,omitempty"`
	Code *int   `json:"code,omitempty"`
}

// simpleAck is a plain standardResponse with "ok" = true.
func simpleAck() *standardResponse {
	return &standardResponse{
		OK: true,
	}
}

// tradeForm is the browser's order form.
type tradeForm struct {
	Market string `json:"pair"`
	// Type is "limit" or "market".
	Type string `json:"type"`
	// Side is "buy" or "sell".
	Side    string          `json:"side"`
	Price   decimal.Decimal `json:"price"`
	Qty     decimal.Decimal `json:"qty"`
	Edition string          `json:"edition,omitempty"`
}

func (f *tradeForm) coreForm() (*core.TradeForm, error) {
	ot, err := order.ParseOrderType(f.Type)
	if err != nil {
		return nil, err
	}
	var sell bool
	switch f.Side {
	case "buy":
	case "sell":
		sell = true
	default:
		return nil, fmt.Errorf("unknown side %q", f.Side)
	}
	var ed catalog.Edition
	if f.Edition != "" {
		if ed, err = catalog.ParseEdition(f.Edition); err != nil {
			return nil, err
		}
	}
	return &core.TradeForm{
		Market:  f.Market,
		Type:    ot,
		Sell:    sell,
		Price:   f.Price,
		Qty:     f.Qty,
		Edition: ed,
	}, nil
}

type orderForm struct {
	OrderID string `json:"orderID"`
}

type fillForm struct {
	OrderID string          `json:"orderID"`
	Qty     decimal.Decimal `json:"qty"`
}

type stakeForm struct {
	Amount   decimal.Decimal `json:"amount"`
	LockDays uint32          `json:"lockDays,omitempty"`
}

type priceForm struct {
	CreatorID string          `json:"creatorID"`
	Price     decimal.Decimal `json:"price"`
}

type payForm struct {
	CreatorID string    `json:"creatorID"`
	Week      time.Time `json:"weekOf"`
}

type ackNotesForm struct {
	IDs []string `json:"ids"`
}

type orderResponse struct {
	OK    bool         `json:"ok"`
	Order *order.Order `json:"order"`
}

type stakingResponse struct {
	OK   bool                `json:"ok"`
	Tier *staking.Resolution `json:"tier"`
	// Access is the account after the move.
	Access *ledger.Access `json:"access"`
}

type ordersResponse struct {
	Open     []*order.Order `json:"open"`
	Archived []*order.Order `json:"archived"`
}

type payResponse struct {
	OK    bool            `json:"ok"`
	Share decimal.Decimal `json:"shareETH"`
}
