// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package order

import (
	"encoding/json"
	"testing"
)

func TestOrderStatus_String(t *testing.T) {
	if s := OrderStatusPartial.String(); s != "Partial" {
		t.Errorf(`OrderStatusPartial.String() = %s (!= "Partial")`, s)
	}
	if s := OrderStatus(200).String(); s != "OrderStatus(200)" {
		t.Errorf("wrong string for invalid status: %s", s)
	}
}

func TestOrderStatus_JSON(t *testing.T) {
	b, err := json.Marshal(OrderStatusCancelled)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	if string(b) != `"Cancelled"` {
		t.Fatalf("wrong encoding %s", b)
	}
	var s OrderStatus
	if err = json.Unmarshal(b, &s); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	if s != OrderStatusCancelled {
		t.Fatalf("wrong decoded status %s", s)
	}
	if err = json.Unmarshal([]byte(`"Booked"`), &s); err == nil {
		t.Fatalf("no error for unknown status name")
	}
}

func TestOrderStatus_Active(t *testing.T) {
	for s, want := range map[OrderStatus]bool{
		OrderStatusPending:   true,
		OrderStatusPartial:   true,
		OrderStatusFilled:    false,
		OrderStatusCancelled: false,
	} {
		if s.Active() != want {
			t.Fatalf("%s: Active = %t", s, !want)
		}
	}
}
