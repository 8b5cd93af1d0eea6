// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/shopspring/decimal"
	"miauswap.org/cdex/client/catalog"
	"miauswap.org/cdex/client/i18n"
	"miauswap.org/cdex/dex"
	"miauswap.org/cdex/dex/order"
)

var tStart = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

type tClock struct {
	mtx sync.Mutex
	t   time.Time
}

func (c *tClock) now() time.Time {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.t
}

func (c *tClock) advance(d time.Duration) {
	c.mtx.Lock()
	c.t = c.t.Add(d)
	c.mtx.Unlock()
}

func newTestCore(t *testing.T, ackDelay time.Duration) (*Core, *tClock) {
	t.Helper()
	clock := &tClock{t: tStart}
	c, err := New(&Config{
		Catalog:  catalog.New(),
		AckDelay: ackDelay,
		Now:      clock.now,
	})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	return c, clock
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// note finds the newest stored note of the topic.
func note(c *Core, topic Topic) Notification {
	for _, n := range c.Notifications(0) {
		if n.Topic() == topic {
			return n
		}
	}
	return nil
}

// place submits a trade and waits for it to resolve.
func place(t *testing.T, c *Core, form *TradeForm) (*order.Order, error) {
	t.Helper()
	sub, err := c.Trade(form)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return sub.Wait(ctx)
}

func limitBuy(mkt, price, qty string) *TradeForm {
	return &TradeForm{
		Market: mkt,
		Type:   order.LimitOrderType,
		Price:  dec(price),
		Qty:    dec(qty),
	}
}

func TestNewSeeded(t *testing.T) {
	c, _ := newTestCore(t, 0)

	u := c.User()
	if !u.Access.Balance.Equal(dec("4250")) {
		t.Fatalf("wrong balance %s", u.Access.Balance)
	}
	if !u.Access.Staked.Equal(dec("50000")) {
		t.Fatalf("wrong staked %s", u.Access.Staked)
	}
	if u.Access.Tier.Name != "Silver" || !u.Access.Tier.IsVIP {
		t.Fatalf("wrong tier %s", spew.Sdump(u.Access.Tier))
	}
	if !u.Access.HasCDEXAccess || u.Access.LowBalanceWarning {
		t.Fatalf("wrong access flags %s", spew.Sdump(u.Access))
	}
	if !u.Access.Locked || !u.Access.LockExpiry.Equal(time.Date(2026, 4, 28, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("wrong lock %v, %v", u.Access.Locked, u.Access.LockExpiry)
	}
	if u.UnreadNotes != 3 {
		t.Fatalf("expected 3 unread notes, got %d", u.UnreadNotes)
	}

	if len(u.OpenOrders) != 3 {
		t.Fatalf("expected 3 open orders, got %d", len(u.OpenOrders))
	}
	nella := u.OpenOrders[0]
	if nella.Market != "NellaCAT/MIAU" || nella.Status() != order.OrderStatusPartial {
		t.Fatalf("wrong first order %s", nella)
	}
	if !nella.Filled().Equal(dec("3")) {
		t.Fatalf("wrong seeded fill %s", nella.Filled())
	}
	// 95 × 8 = 760, fee 760 × 0.25% × 90% = 1.71
	if !nella.Reserved.Equal(dec("761.71")) {
		t.Fatalf("wrong seeded escrow %s", nella.Reserved)
	}
	if coco := u.OpenOrders[2]; !coco.Sell || !coco.Reserved.IsZero() {
		t.Fatalf("wrong seeded sell %s, reserved %s", coco, coco.Reserved)
	}
	for i := 1; i < len(u.OpenOrders); i++ {
		if u.OpenOrders[i].Stamp.After(u.OpenOrders[i-1].Stamp) {
			t.Fatalf("open orders not newest first")
		}
	}

	if n := len(c.Holdings()); n != 6 {
		t.Fatalf("expected 6 holdings, got %d", n)
	}
	if n := len(c.Transactions(0)); n != 15 {
		t.Fatalf("expected 15 transactions, got %d", n)
	}
	if n := len(c.Distributions("")); n != 17 {
		t.Fatalf("expected 17 distributions, got %d", n)
	}
	notes := c.Notifications(0)
	if notes[0].Subject() != "Distribution received" || notes[0].Severity() != Success {
		t.Fatalf("wrong newest note %s", spew.Sdump(notes[0]))
	}
	if notes[1].Severity() != Poke || notes[2].Severity() != WarningLevel {
		t.Fatalf("wrong seeded severities %s, %s", notes[1].Severity(), notes[2].Severity())
	}
	if notes[0].Time() <= notes[1].Time() {
		t.Fatalf("notes not newest first")
	}
}

func TestNewErrors(t *testing.T) {
	if _, err := New(&Config{Language: "not a language!"}); err == nil {
		t.Fatalf("no error for a bad language")
	}
}

func TestUntranslatedLanguage(t *testing.T) {
	c, err := New(&Config{
		Catalog:  catalog.New(),
		AckDelay: 0,
		Now:      func() time.Time { return tStart },
		Language: "de",
	})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	defer translator.SetLanguage(i18n.OriginLang)

	if _, err := c.Stake(dec("1000"), 30); err != nil {
		t.Fatalf("Stake error: %v", err)
	}
	n := note(c, TopicStaked)
	if n == nil || n.Subject() != "Staked" || n.Details() != "Successfully staked 1,000 MIAU for 90 days." {
		t.Fatalf("wrong fallback toast %s", spew.Sdump(n))
	}
}

func TestPortfolio(t *testing.T) {
	c, _ := newTestCore(t, 0)
	pf := c.Portfolio()
	if !pf.TotalValue.Equal(dec("2215")) {
		t.Fatalf("wrong total value %s", pf.TotalValue)
	}
	if !pf.CostBasis.Equal(dec("1961")) {
		t.Fatalf("wrong cost basis %s", pf.CostBasis)
	}
	if !pf.UnrealizedPnL.Equal(dec("254")) {
		t.Fatalf("wrong P&L %s", pf.UnrealizedPnL)
	}
	var sum decimal.Decimal
	for _, p := range pf.Positions {
		sum = sum.Add(p.UnrealizedPnL)
	}
	if !sum.Equal(pf.TotalValue.Sub(pf.CostBasis)) {
		t.Fatalf("per-holding P&L %s != aggregate %s", sum, pf.TotalValue.Sub(pf.CostBasis))
	}
	if len(pf.Allocation) != 4 || pf.Allocation[0].Name != "Nella Rose" {
		t.Fatalf("wrong allocation %s", spew.Sdump(pf.Allocation))
	}
	if !pf.Realized.IsZero() {
		t.Fatalf("unexpected realized P&L %s", pf.Realized)
	}
}

func TestMarket(t *testing.T) {
	c, _ := newTestCore(t, 0)
	mv, err := c.Market("NellaCAT/MIAU")
	if err != nil {
		t.Fatalf("Market error: %v", err)
	}
	if len(mv.Bids) != 8 || len(mv.Asks) != 8 {
		t.Fatalf("wrong book depth %d/%d", len(mv.Bids), len(mv.Asks))
	}
	if !mv.BestBid.LessThan(mv.BestAsk) {
		t.Fatalf("crossed book %s/%s", mv.BestBid, mv.BestAsk)
	}
	if !mv.Spread.Equal(mv.BestAsk.Sub(mv.BestBid)) {
		t.Fatalf("wrong spread %s", mv.Spread)
	}
	if len(mv.Orders) != 1 || len(mv.Trades) == 0 {
		t.Fatalf("wrong orders/trades %d/%d", len(mv.Orders), len(mv.Trades))
	}
	if !mv.Price.Equal(dec("100")) {
		t.Fatalf("wrong price %s", mv.Price)
	}

	_, err = c.Market("NellaCAT/ETH")
	if !errors.Is(err, dex.ErrUnknownMarket) || !errorHasCode(err, marketErr) {
		t.Fatalf("expected unknown market, got %v", err)
	}
}

func TestCreator(t *testing.T) {
	c, _ := newTestCore(t, 0)
	cv, err := c.Creator("nella-rose")
	if err != nil {
		t.Fatalf("Creator error: %v", err)
	}
	// 12400 gross, 8% fee, 12% holder share, 120 CATs.
	if !cv.RevenueSplit.Net.Equal(dec("11408")) || !cv.RevenueSplit.HolderPool.Equal(dec("1368.96")) {
		t.Fatalf("wrong split %s", spew.Sdump(cv.RevenueSplit))
	}
	if !cv.RevenueSplit.PerCAT.Equal(dec("11.408")) || !cv.PerCATETH.Equal(dec("0.011408")) {
		t.Fatalf("wrong per-CAT %s / %s ETH", cv.RevenueSplit.PerCAT, cv.PerCATETH)
	}
	if !cv.Held.Equal(dec("8")) {
		t.Fatalf("wrong held %s", cv.Held)
	}
	if len(cv.Distributions) != 8 {
		t.Fatalf("expected 8 distributions, got %d", len(cv.Distributions))
	}

	if _, err := c.Creator("nobody"); !errorHasCode(err, marketErr) {
		t.Fatalf("expected marketErr, got %v", err)
	}
}

func TestUpdatePrice(t *testing.T) {
	c, _ := newTestCore(t, 0)
	feed := c.NotificationFeed()
	if err := c.UpdatePrice("1", dec("120")); err != nil {
		t.Fatalf("UpdatePrice error: %v", err)
	}
	select {
	case n := <-feed:
		pn, ok := n.(*PriceNote)
		if !ok || !pn.Price.Equal(dec("120")) || pn.Market != "NellaCAT/MIAU" {
			t.Fatalf("wrong price note %s", spew.Sdump(n))
		}
	default:
		t.Fatalf("no price note")
	}
	if note(c, TopicPriceUpdated) != nil {
		t.Fatalf("data note was stored")
	}

	ord, err := place(t, c, &TradeForm{Market: "NellaCAT/MIAU", Type: order.MarketOrderType, Qty: dec("1")})
	if err != nil {
		t.Fatalf("market order error: %v", err)
	}
	if !ord.Price.Equal(dec("120")) {
		t.Fatalf("market order not at the new reference price, got %s", ord.Price)
	}
	// The seeded open order keeps its price.
	if seeded := c.Orders()[1]; !seeded.Price.Equal(dec("95")) {
		t.Fatalf("open order repriced to %s", seeded.Price)
	}

	if err := c.UpdatePrice("1", decimal.Zero); !errors.Is(err, dex.ErrInvalidPrice) {
		t.Fatalf("expected ErrInvalidPrice, got %v", err)
	}
}

func TestNotifications(t *testing.T) {
	c, _ := newTestCore(t, 0)
	notes := c.Notifications(0)
	c.AckNotes([]string{notes[0].ID(), "unknown"})
	if n := c.UnreadCount(); n != 2 {
		t.Fatalf("expected 2 unread, got %d", n)
	}
	if acked := c.Notifications(1)[0]; !acked.Acked() || acked.ID() != notes[0].ID() {
		t.Fatalf("note not acked")
	}
	// Notes already handed out are not modified.
	if notes[0].Acked() {
		t.Fatalf("acknowledgement modified a returned note")
	}

	feed := c.NotificationFeed()
	c.notify(newAccountNote(TopicAccessGained, "subject", "details", Poke))
	sent := <-feed
	c.AckNotes([]string{sent.ID()})
	if sent.Acked() || !c.Notifications(1)[0].Acked() {
		t.Fatalf("feed note shares the stored note")
	}
	c.AckAllNotes()
	if n := c.UnreadCount(); n != 0 {
		t.Fatalf("expected 0 unread, got %d", n)
	}

	for i := 0; i < maxStoredNotes+5; i++ {
		c.notify(newAccountNote(TopicAccessGained, "subject", "details", Poke))
	}
	if n := len(c.Notifications(0)); n != maxStoredNotes {
		t.Fatalf("expected %d stored notes, got %d", maxStoredNotes, n)
	}
	if n := c.UnreadCount(); n != maxStoredNotes {
		t.Fatalf("expected %d unread, got %d", maxStoredNotes, n)
	}
}

func TestSeverity(t *testing.T) {
	for sev := Ignorable; sev <= ErrorLevel; sev++ {
		parsed, err := ParseSeverity(sev.String())
		if err != nil || parsed != sev {
			t.Fatalf("%s: parsed %s, %v", sev, parsed, err)
		}
	}
	if s := Severity(99).String(); s != "Severity(99)" {
		t.Fatalf("wrong unknown severity string %q", s)
	}
	if _, err := ParseSeverity("loud"); err == nil {
		t.Fatalf("no error for unknown severity")
	}
}

func TestMetrics(t *testing.T) {
	c, _ := newTestCore(t, 0)
	if _, err := place(t, c, limitBuy("NellaCAT/MIAU", "100", "1")); err != nil {
		t.Fatalf("trade error: %v", err)
	}
	if _, err := c.Trade(limitBuy("NellaCAT/MIAU", "100", "0")); err == nil {
		t.Fatalf("no error for zero quantity")
	}

	mfs, err := c.MetricsRegistry().Gather()
	if err != nil {
		t.Fatalf("Gather error: %v", err)
	}
	values := make(map[string]float64)
	for _, mf := range mfs {
		for _, m := range mf.GetMetric() {
			switch {
			case m.GetCounter() != nil:
				values[mf.GetName()] += m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				values[mf.GetName()] = m.GetGauge().GetValue()
			}
		}
	}
	if values["cdex_orders_placed_total"] != 1 {
		t.Fatalf("wrong orders placed %v", values["cdex_orders_placed_total"])
	}
	if values["cdex_rejected_actions_total"] != 1 {
		t.Fatalf("wrong rejections %v", values["cdex_rejected_actions_total"])
	}
	if values["cdex_open_orders"] != 4 {
		t.Fatalf("wrong open orders gauge %v", values["cdex_open_orders"])
	}
	// 4250 - 100.225
	if values["cdex_wallet_balance_miau"] != 4149.775 {
		t.Fatalf("wrong balance gauge %v", values["cdex_wallet_balance_miau"])
	}
}
