// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

// Package order defines the Order type and its lifecycle. An order moves from
// Pending to Partial to Filled as fills arrive, and may be cancelled while
// Pending or Partial.
package order

import (
	"encoding/json"
	"fmt"
	"time"

	"miauswap.org/cdex/dex"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderID is the unique identifier for each order.
type OrderID uuid.UUID

// NewOrderID generates a random OrderID.
func NewOrderID() OrderID {
	return OrderID(uuid.New())
}

// ParseOrderID parses the string form of an OrderID.
func ParseOrderID(s string) (OrderID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return OrderID{}, dex.NewError(dex.ErrOrderNotFound, fmt.Sprintf("invalid order ID %q", s))
	}
	return OrderID(id), nil
}

// String returns the canonical hyphenated form of the OrderID. String
// implements fmt.Stringer.
func (oid OrderID) String() string {
	return uuid.UUID(oid).String()
}

// MarshalText implements encoding.TextMarshaler.
func (oid OrderID) MarshalText() ([]byte, error) {
	return []byte(oid.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (oid *OrderID) UnmarshalText(b []byte) error {
	id, err := uuid.ParseBytes(b)
	if err != nil {
		return err
	}
	*oid = OrderID(id)
	return nil
}

// OrderType distinguishes limit and market orders.
type OrderType uint8

// The different OrderType values.
const (
	UnknownOrderType OrderType = iota
	LimitOrderType
	MarketOrderType
)

// String returns a string representation of the OrderType.
func (ot OrderType) String() string {
	switch ot {
	case LimitOrderType:
		return "Limit"
	case MarketOrderType:
		return "Market"
	default:
		return "Unknown"
	}
}

// ParseOrderType parses "limit" or "market", case-sensitively in either the
// lower or title case form.
func ParseOrderType(s string) (OrderType, error) {
	switch s {
	case "limit", "Limit":
		return LimitOrderType, nil
	case "market", "Market":
		return MarketOrderType, nil
	}
	return UnknownOrderType, fmt.Errorf("unknown order type %q", s)
}

// Order is a buy or sell order for a CAT market. The filled amount only grows
// and never exceeds the quantity. Status is derived, never stored.
type Order struct {
	ID       OrderID
	Market   string
	Type     OrderType
	Sell     bool
	Price    decimal.Decimal
	Quantity decimal.Decimal
	// Reserved is the MIAU held in escrow for a buy order, the full total
	// including fee. It is zero for sells.
	Reserved decimal.Decimal
	Stamp    time.Time

	filled    decimal.Decimal
	cancelled bool
}

// New creates a Pending order, validating the quantity and price. A market
// order's price must already be set to the reference price.
func New(mkt string, ot OrderType, sell bool, price, qty decimal.Decimal, stamp time.Time) (*Order, error) {
	if ot != LimitOrderType && ot != MarketOrderType {
		return nil, fmt.Errorf("invalid order type %d", ot)
	}
	if !qty.IsPositive() {
		return nil, dex.NewError(dex.ErrInvalidQuantity, "quantity must be positive, got "+qty.String())
	}
	if !price.IsPositive() {
		return nil, dex.NewError(dex.ErrInvalidPrice, "price must be positive, got "+price.String())
	}
	return &Order{
		ID:       NewOrderID(),
		Market:   mkt,
		Type:     ot,
		Sell:     sell,
		Price:    price,
		Quantity: qty,
		Stamp:    stamp,
	}, nil
}

// Side is "Buy" or "Sell".
func (o *Order) Side() string {
	if o.Sell {
		return "Sell"
	}
	return "Buy"
}

// Filled is the filled quantity.
func (o *Order) Filled() decimal.Decimal {
	return o.filled
}

// Remaining is the unfilled quantity.
func (o *Order) Remaining() decimal.Decimal {
	return o.Quantity.Sub(o.filled)
}

// Status computes the order's status from the filled amount.
func (o *Order) Status() OrderStatus {
	switch {
	case o.cancelled:
		return OrderStatusCancelled
	case o.filled.IsZero():
		return OrderStatusPending
	case o.filled.LessThan(o.Quantity):
		return OrderStatusPartial
	default:
		return OrderStatusFilled
	}
}

// Fill records a fill of qty units, returning the new status. The quantity
// must be positive and no more than the remaining quantity.
func (o *Order) Fill(qty decimal.Decimal) (OrderStatus, error) {
	switch o.Status() {
	case OrderStatusCancelled:
		return OrderStatusCancelled, dex.NewError(dex.ErrOrderNotFound, "order "+o.ID.String()+" is cancelled")
	case OrderStatusFilled:
		return OrderStatusFilled, dex.NewError(dex.ErrOrderAlreadyFilled, o.ID.String())
	}
	if !qty.IsPositive() {
		return o.Status(), dex.NewError(dex.ErrInvalidQuantity, "fill quantity must be positive, got "+qty.String())
	}
	if qty.GreaterThan(o.Remaining()) {
		return o.Status(), dex.NewError(dex.ErrInvalidQuantity,
			fmt.Sprintf("fill of %s exceeds remaining %s", qty, o.Remaining()))
	}
	o.filled = o.filled.Add(qty)
	return o.Status(), nil
}

// Cancel marks a Pending or Partial order as cancelled, returning the escrow
// to release. Filled orders return ErrOrderAlreadyFilled and cancelled orders
// ErrOrderNotFound.
func (o *Order) Cancel() (release decimal.Decimal, err error) {
	switch o.Status() {
	case OrderStatusFilled:
		return decimal.Zero, dex.NewError(dex.ErrOrderAlreadyFilled, o.ID.String())
	case OrderStatusCancelled:
		return decimal.Zero, dex.NewError(dex.ErrOrderNotFound, "order "+o.ID.String()+" is cancelled")
	}
	release = o.UnfilledReserve()
	o.cancelled = true
	return release, nil
}

// UnfilledReserve is the share of the escrow covering the remaining quantity,
// Reserved × remaining / quantity. For an order with no fills this is exactly
// Reserved.
func (o *Order) UnfilledReserve() decimal.Decimal {
	if o.Reserved.IsZero() || o.Quantity.IsZero() {
		return decimal.Zero
	}
	rem := o.Remaining()
	if rem.Equal(o.Quantity) {
		return o.Reserved
	}
	return o.Reserved.Mul(rem).Div(o.Quantity)
}

// String gives a short description, e.g. "Buy 2 NellaCAT/MIAU @ 100".
func (o *Order) String() string {
	return fmt.Sprintf("%s %s %s @ %s", o.Side(), o.Quantity, o.Market, o.Price)
}

// Copy returns a copy of the order that will not be affected by further fills
// or cancellation of the original.
func (o *Order) Copy() *Order {
	c := *o
	return &c
}

type jsonOrder struct {
	ID        OrderID         `json:"id"`
	Market    string          `json:"pair"`
	Type      string          `json:"orderType"`
	Side      string          `json:"side"`
	Price     decimal.Decimal `json:"price"`
	Quantity  decimal.Decimal `json:"quantity"`
	Filled    decimal.Decimal `json:"filled"`
	Status    OrderStatus     `json:"status"`
	Reserved  decimal.Decimal `json:"reserved"`
	Stamp     int64           `json:"stamp"`
	Remaining decimal.Decimal `json:"remaining"`
}

// MarshalJSON encodes the order with its computed status.
func (o *Order) MarshalJSON() ([]byte, error) {
	return json.Marshal(&jsonOrder{
		ID:        o.ID,
		Market:    o.Market,
		Type:      o.Type.String(),
		Side:      o.Side(),
		Price:     o.Price,
		Quantity:  o.Quantity,
		Filled:    o.filled,
		Status:    o.Status(),
		Reserved:  o.Reserved,
		Stamp:     o.Stamp.UnixMilli(),
		Remaining: o.Remaining(),
	})
}
