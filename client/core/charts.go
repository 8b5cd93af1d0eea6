// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package core

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"miauswap.org/cdex/dex/candles"
)

// chartBin is the candle duration of the market charts.
const chartBin = 5 * time.Minute

// tapeClock is the layout of the trade tape time stamps.
const tapeClock = "15:04:05"

// chart is a market's price history.
type chart struct {
	mtx   sync.Mutex
	cache *candles.Cache
	last  time.Time
}

// add adds a trade of qty at price. A stamp older than the last point is
// moved up to it, so the cache only ever grows forward.
func (ch *chart) add(stamp time.Time, price, qty decimal.Decimal) {
	ch.mtx.Lock()
	defer ch.mtx.Unlock()
	if stamp.Before(ch.last) {
		stamp = ch.last
	}
	ch.last = stamp
	ch.cache.Add(candles.TradeCandle(stamp, price, qty))
}

func (ch *chart) snapshot(n int, since time.Time) (cs []candles.Candle, change, vol decimal.Decimal) {
	ch.mtx.Lock()
	defer ch.mtx.Unlock()
	change, vol = ch.cache.Delta(since)
	return ch.cache.Candles(n), change, vol
}

// tapeStamp places a tape clock time in the 24 hours before now.
func tapeStamp(clock string, now time.Time) (time.Time, error) {
	t, err := time.Parse(tapeClock, clock)
	if err != nil {
		return time.Time{}, err
	}
	stamp := time.Date(now.Year(), now.Month(), now.Day(), t.Hour(), t.Minute(), t.Second(), 0, now.Location())
	if stamp.After(now) {
		stamp = stamp.AddDate(0, 0, -1)
	}
	return stamp, nil
}

// seedCharts builds a chart for every market from the catalog trade tape.
func (c *Core) seedCharts() {
	now := c.now()
	c.charts = make(map[string]*chart)
	for _, cr := range c.cat.Creators() {
		ch := &chart{cache: candles.NewCache(candles.CacheSize, chartBin)}
		tape := c.cat.RecentTrades(cr.Symbol)
		for i := len(tape) - 1; i >= 0; i-- {
			tr := tape[i]
			stamp, err := tapeStamp(tr.Time, now)
			if err != nil {
				log.Warnf("Skipping %s tape print with bad time %q: %v", cr.Symbol, tr.Time, err)
				continue
			}
			ch.add(stamp, tr.Price, tr.Quantity)
		}
		c.charts[cr.Market()] = ch
	}
}

// chartTrade adds a trade to the market's chart.
func (c *Core) chartTrade(mkt string, price, qty decimal.Decimal) {
	if ch := c.charts[mkt]; ch != nil {
		ch.add(c.now(), price, qty)
	}
}
