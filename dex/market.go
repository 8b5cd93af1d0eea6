// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package dex

import (
	"fmt"
	"strings"
)

// QuoteSymbol is the settlement token every CAT market is quoted in.
const QuoteSymbol = "MIAU"

// MarketName creates the string representation of a CAT market (e.g.
// "NellaCAT/MIAU") given the CAT symbol.
func MarketName(catSymbol string) string {
	return catSymbol + "/" + QuoteSymbol
}

// ParseMarketName splits a market name into its CAT symbol, checking that the
// market is quoted in MIAU.
func ParseMarketName(mkt string) (catSymbol string, err error) {
	base, quote, found := strings.Cut(mkt, "/")
	if !found || base == "" {
		return "", NewError(ErrUnknownMarket, fmt.Sprintf("malformed market name %q", mkt))
	}
	if quote != QuoteSymbol {
		return "", NewError(ErrUnknownMarket, fmt.Sprintf("market %q is not quoted in %s", mkt, QuoteSymbol))
	}
	return base, nil
}
