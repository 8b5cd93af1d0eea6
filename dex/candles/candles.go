// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

// Package candles bins a market's trades into price candles for charting.
package candles

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	// DefaultCandleRequest is the number of candles to return if the request
	// does not specify otherwise.
	DefaultCandleRequest = 50
	// CacheSize is the default cache size. Also represents the maximum number
	// of candles that can be requested at once.
	CacheSize = 1000
)

// BinSizes are the bin sizes a market keeps candles for.
var BinSizes = []time.Duration{24 * time.Hour, time.Hour, 5 * time.Minute}

// Candle is a report about the trading activity of a market over some period
// of time. Stamps are UNIX milliseconds.
type Candle struct {
	StartStamp  uint64          `json:"startStamp"`
	EndStamp    uint64          `json:"endStamp"`
	Volume      decimal.Decimal `json:"volume"`
	QuoteVolume decimal.Decimal `json:"quoteVolume"`
	High        decimal.Decimal `json:"high"`
	Low         decimal.Decimal `json:"low"`
	Open        decimal.Decimal `json:"open"`
	Close       decimal.Decimal `json:"close"`
}

// TradeCandle is the single-trade candle for a trade of qty at price.
func TradeCandle(stamp time.Time, price, qty decimal.Decimal) *Candle {
	ms := uint64(stamp.UnixMilli())
	return &Candle{
		StartStamp:  ms,
		EndStamp:    ms,
		Volume:      qty,
		QuoteVolume: price.Mul(qty),
		High:        price,
		Low:         price,
		Open:        price,
		Close:       price,
	}
}

// Cache is a sized cache of candles. Cache is a typical slice until it
// reaches capacity, when it becomes a "circular array" to avoid
// re-allocations.
type Cache struct {
	candles []Candle
	binSize uint64
	cap     int
	// cursor will be the index of the last inserted candle.
	cursor int
}

// NewCache is a constructor for a Cache.
func NewCache(cap int, binSize time.Duration) *Cache {
	return &Cache{
		cap:     cap,
		binSize: uint64(binSize.Milliseconds()),
	}
}

// BinSize is the candle duration.
func (c *Cache) BinSize() time.Duration {
	return time.Duration(c.binSize) * time.Millisecond
}

// Add adds a new candle TO THE END of the Cache. The caller is responsible to
// ensure that candles added with Add are never older than the last candle
// added.
func (c *Cache) Add(candle *Candle) {
	sz := len(c.candles)
	if sz == 0 {
		c.candles = append(c.candles, *candle)
		return
	}
	if c.combineCandles(c.Last(), candle) {
		return
	}
	if sz == c.cap { // circular mode
		c.cursor = (c.cursor + 1) % c.cap
		c.candles[c.cursor] = *candle
		return
	}
	c.candles = append(c.candles, *candle)
	c.cursor = sz
}

// Reset empties the cache.
func (c *Cache) Reset() {
	c.cursor = 0
	c.candles = nil
}

// Candles returns up to count of the most recent candles, oldest first.
func (c *Cache) Candles(count int) []Candle {
	sz := len(c.candles)
	if count <= 0 || count > sz {
		count = sz
	}
	out := make([]Candle, 0, count)
	for i := sz - count; i < sz; i++ {
		out = append(out, c.candles[(c.cursor+1+i)%sz])
	}
	return out
}

// Delta calculates the change in price, as a percentage, and total volume
// over the period going backwards from since. Because the first candle does
// not necessarily align with the cutoff, the price and volume contribution
// from that candle is linearly interpolated between the endpoints.
func (c *Cache) Delta(since time.Time) (changePct, vol decimal.Decimal) {
	cutoff := uint64(since.UnixMilli())
	sz := len(c.candles)
	if sz == 0 {
		return decimal.Zero, decimal.Zero
	}
	endRate := c.Last().Close
	var startRate decimal.Decimal
	for i := 0; i < sz; i++ {
		candle := &c.candles[(c.cursor+sz-i)%sz]
		if candle.EndStamp <= cutoff {
			break
		} else if candle.StartStamp <= cutoff {
			cut := decimal.NewFromInt(int64(cutoff - candle.StartStamp)).
				Div(decimal.NewFromInt(int64(candle.EndStamp - candle.StartStamp)))
			startRate = candle.Open.Add(cut.Mul(candle.Close.Sub(candle.Open)))
			vol = vol.Add(decimal.NewFromInt(1).Sub(cut).Mul(candle.Volume))
			break
		}
		startRate = candle.Open
		vol = vol.Add(candle.Volume)
	}
	if startRate.IsZero() {
		return decimal.Zero, vol
	}
	return endRate.Sub(startRate).Div(startRate).Mul(decimal.NewFromInt(100)), vol
}

// Last gets the most recent candle in the cache.
func (c *Cache) Last() *Candle {
	return &c.candles[c.cursor]
}

// combineCandles attempts to add the candidate candle to the target candle
// in-place, if they're in the same bin, otherwise returns false.
func (c *Cache) combineCandles(target, candidate *Candle) bool {
	if target.EndStamp/c.binSize != candidate.EndStamp/c.binSize {
		return false
	}
	target.EndStamp = candidate.EndStamp
	target.Close = candidate.Close
	if candidate.High.GreaterThan(target.High) {
		target.High = candidate.High
	}
	if candidate.Low.LessThan(target.Low) || target.Low.IsZero() {
		target.Low = candidate.Low
	}
	target.Volume = target.Volume.Add(candidate.Volume)
	target.QuoteVolume = target.QuoteVolume.Add(candidate.QuoteVolume)
	return true
}
