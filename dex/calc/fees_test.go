// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package calc

import (
	"errors"
	"testing"

	"miauswap.org/cdex/dex"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestComputeFee(t *testing.T) {
	tests := []struct {
		name                 string
		price, qty, discount string
		sell                 bool
		subtotal, fee, total string
	}{
		{"buy no discount", "100", "10", "0", false, "1000", "2.5", "1002.5"},
		{"buy gold discount", "100", "10", "20", false, "1000", "2", "1002"},
		{"buy silver discount", "100", "10", "10", false, "1000", "2.25", "1002.25"},
		{"sell no discount", "100", "10", "0", true, "1000", "2.5", "997.5"},
		{"sell full discount", "100", "10", "100", true, "1000", "0", "1000"},
		{"zero quantity", "100", "0", "0", false, "0", "0", "0"},
		{"fractional", "84.5", "3", "10", false, "253.5", "0.5703750", "254.070375"},
	}
	for _, tt := range tests {
		fb, err := ComputeFee(d(tt.price), d(tt.qty), tt.sell, d(tt.discount))
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.name, err)
		}
		if !fb.Subtotal.Equal(d(tt.subtotal)) {
			t.Fatalf("%s: wrong subtotal %s, wanted %s", tt.name, fb.Subtotal, tt.subtotal)
		}
		if !fb.Fee.Equal(d(tt.fee)) {
			t.Fatalf("%s: wrong fee %s, wanted %s", tt.name, fb.Fee, tt.fee)
		}
		if !fb.Total.Equal(d(tt.total)) {
			t.Fatalf("%s: wrong total %s, wanted %s", tt.name, fb.Total, tt.total)
		}
	}
}

func TestComputeFeeErrors(t *testing.T) {
	if _, err := ComputeFee(d("-1"), d("1"), false, d("0")); !errors.Is(err, dex.ErrInvalidPrice) {
		t.Fatalf("expected ErrInvalidPrice, got %v", err)
	}
	if _, err := ComputeFee(d("1"), d("-1"), false, d("0")); !errors.Is(err, dex.ErrInvalidQuantity) {
		t.Fatalf("expected ErrInvalidQuantity, got %v", err)
	}
	for _, disc := range []string{"-0.01", "100.01"} {
		if _, err := ComputeFee(d("1"), d("1"), true, d(disc)); !errors.Is(err, dex.ErrInvalidDiscount) {
			t.Fatalf("discount %s: expected ErrInvalidDiscount, got %v", disc, err)
		}
	}
}

func TestDiscountedRate(t *testing.T) {
	if r := DiscountedRate(d("20")); !r.Equal(d("0.002")) {
		t.Fatalf("wrong discounted rate %s", r)
	}
}
