// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package order

import (
	"encoding/json"
	"fmt"
)

// OrderStatus indicates the state of an order. It is never stored alongside
// the order. It is computed from the filled amount and the cancellation flag.
type OrderStatus uint8

const (
	// OrderStatusUnknown is a sentinel value for a status that could not be
	// determined, e.g. when parsing.
	OrderStatusUnknown OrderStatus = iota

	// OrderStatusPending is for orders with nothing filled yet.
	OrderStatusPending

	// OrderStatusPartial is for orders with some, but not all, of the
	// quantity filled.
	OrderStatusPartial

	// OrderStatusFilled is for orders with the entire quantity filled. The
	// order stays in the open set until the fill is acknowledged.
	OrderStatusFilled

	// OrderStatusCancelled is for orders cancelled by the account holder
	// while Pending or Partial. Any fills before cancellation stand.
	OrderStatusCancelled
)

var orderStatusNames = map[OrderStatus]string{
	OrderStatusUnknown:   "Unknown",
	OrderStatusPending:   "Pending",
	OrderStatusPartial:   "Partial",
	OrderStatusFilled:    "Filled",
	OrderStatusCancelled: "Cancelled",
}

// String implements Stringer.
func (s OrderStatus) String() string {
	name, ok := orderStatusNames[s]
	if !ok {
		return fmt.Sprintf("OrderStatus(%d)", uint8(s))
	}
	return name
}

// Active is true for statuses that can still be cancelled.
func (s OrderStatus) Active() bool {
	return s == OrderStatusPending || s == OrderStatusPartial
}

// MarshalJSON encodes the status by name.
func (s OrderStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a status name.
func (s *OrderStatus) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return err
	}
	for st, n := range orderStatusNames {
		if n == name {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown order status %q", name)
}
