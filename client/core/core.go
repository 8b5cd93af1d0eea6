// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package core

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"miauswap.org/cdex/client/catalog"
	"miauswap.org/cdex/client/ledger"
	"miauswap.org/cdex/client/portfolio"
	"miauswap.org/cdex/dex"
	"miauswap.org/cdex/dex/candles"
	"miauswap.org/cdex/dex/distribution"
	"miauswap.org/cdex/dex/order"
	"miauswap.org/cdex/dex/staking"
)

// DefaultAckDelay is how long an order submission waits for acknowledgement.
const DefaultAckDelay = 1200 * time.Millisecond

// Config is the configuration for the Core.
type Config struct {
	// LoggerMaker creates the loggers for the core and the packages it
	// drives. Logging is disabled if nil.
	LoggerMaker *dex.LoggerMaker
	// Catalog is the reference data. The embedded dataset is used if nil.
	Catalog *catalog.Catalog
	// Tiers is the staking tier table. staking.DefaultTable is used if nil.
	Tiers *staking.Table
	// AckDelay is the order acknowledgement delay. Zero means no delay, and a
	// negative value means DefaultAckDelay.
	AckDelay time.Duration
	// Now is the clock. time.Now is used if nil.
	Now func() time.Time
	// Registry receives the account metrics. A private registry is created if
	// nil.
	Registry *prometheus.Registry
	// Language is a BCP 47 tag for notification texts. The default is en-US.
	Language string
	// ETHRate is revenue units per ETH for distribution payouts.
	ETHRate decimal.Decimal
}

// Core is the account core. Core owns the ledger, the open orders and the
// portfolio of a single account and serializes every mutation of them.
type Core struct {
	wg      sync.WaitGroup
	cfg     *Config
	cat     *catalog.Catalog
	dists   *distribution.Ledger
	charts  map[string]*chart // by market, fixed after New
	metrics *metrics
	reg     *prometheus.Registry
	now     func() time.Time

	// acctMtx guards the ledger, the portfolio book and the order lists
	// together, so that an account action is a single step.
	acctMtx    sync.RWMutex
	ledger     *ledger.Ledger
	book       *portfolio.Book
	orders     []*trackedTrade // open, newest first
	archive    []*trackedTrade
	submitting bool

	noteMtx   sync.RWMutex
	noteChans []chan Notification
	notes     []Notification
}

// New is the constructor for a new Core. The account starts from the
// catalog's seeded state.
func New(cfg *Config) (*Core, error) {
	if cfg.LoggerMaker != nil {
		UseLoggerMaker(cfg.LoggerMaker)
	}
	cat := cfg.Catalog
	if cat == nil {
		cat = catalog.New()
	}
	tiers := cfg.Tiers
	if tiers == nil {
		tiers = staking.DefaultTable()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	reg := cfg.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	if cfg.Language != "" {
		lang, err := language.Parse(cfg.Language)
		if err != nil {
			return nil, fmt.Errorf("error parsing language %q: %w", cfg.Language, err)
		}
		translator.SetLanguage(lang)
	}

	acct := cat.Account()
	ldgr, err := ledger.New(tiers, acct.Balance, acct.Staked, acct.StakedAt)
	if err != nil {
		return nil, fmt.Errorf("error creating ledger: %w", err)
	}

	c := &Core{
		cfg:     cfg,
		cat:     cat,
		dists:   distribution.NewLedger(),
		metrics: newMetrics(reg),
		reg:     reg,
		now:     now,
		ledger:  ldgr,
		book:    portfolio.NewBook(),
	}
	if err := c.seed(&acct); err != nil {
		return nil, fmt.Errorf("error loading account: %w", err)
	}
	c.seedCharts()
	c.metrics.setAccount(ldgr.Balance(), ldgr.Staked(), len(c.orders))
	c.updateUnread()
	log.Tracef("new account core created")
	return c, nil
}

// Run runs the core until ctx is done, then waits for any in-flight order
// submission to complete.
func (c *Core) Run(ctx context.Context) {
	log.Infof("started account core")
	<-ctx.Done()
	c.wg.Wait()
	log.Infof("account core off")
}

// ackDelay is the effective acknowledgement delay.
func (c *Core) ackDelay() time.Duration {
	if c.cfg.AckDelay < 0 {
		return DefaultAckDelay
	}
	return c.cfg.AckDelay
}

// ethRate is the effective revenue units per ETH.
func (c *Core) ethRate() decimal.Decimal {
	if c.cfg.ETHRate.IsPositive() {
		return c.cfg.ETHRate
	}
	return distribution.DefaultETHRate
}

// MetricsRegistry is the registry the account metrics are registered on.
func (c *Core) MetricsRegistry() *prometheus.Registry {
	return c.reg
}

// Catalog is the reference data.
func (c *Core) Catalog() *catalog.Catalog {
	return c.cat
}

// Creators lists the creators with a CAT market.
func (c *Core) Creators() []*catalog.Creator {
	return c.cat.Creators()
}

// seed loads the starting orders, holdings, journal, notifications and
// distribution history.
func (c *Core) seed(acct *catalog.Account) error {
	now := c.now()
	discount := c.ledger.Tier().FeeDiscountPercent
	for i, so := range acct.Orders {
		cr, err := c.cat.CreatorByMarket(so.Market)
		if err != nil {
			return err
		}
		ot, err := order.ParseOrderType(so.Type)
		if err != nil {
			return err
		}
		sell := strings.EqualFold(so.Side, "sell")
		// Seeded orders are listed newest first.
		stamp := now.Add(-time.Duration(i+1) * time.Hour)
		ord, err := order.New(so.Market, ot, sell, so.Price, so.Quantity, stamp)
		if err != nil {
			return fmt.Errorf("order %d: %w", i, err)
		}
		if !sell {
			// The escrow left the seeded balance before startup.
			fee, err := c.quote(so.Price, so.Quantity, sell, discount)
			if err != nil {
				return err
			}
			ord.Reserved = fee.Total
		}
		if so.Filled.IsPositive() {
			if _, err := ord.Fill(so.Filled); err != nil {
				return fmt.Errorf("order %d: %w", i, err)
			}
		}
		c.orders = append(c.orders, &trackedTrade{
			Order:     ord,
			creatorID: cr.ID,
			edition:   catalog.Standard,
		})
	}

	for _, h := range acct.Holdings {
		if _, err := c.book.AddBuy(h.CreatorID, h.Edition, h.Quantity, h.AvgBuyPrice); err != nil {
			return fmt.Errorf("holding %s/%s: %w", h.CreatorID, h.Edition, err)
		}
	}

	for _, st := range acct.Transactions {
		c.ledger.Record(&ledger.Transaction{
			Stamp:  st.Stamp,
			Kind:   ledger.TxKind(st.Kind),
			Amount: st.Amount,
			Asset:  st.Asset,
			Market: st.Market,
			Fee:    st.Fee,
		})
	}

	// Notes are stored newest first, and the seed lists them that way.
	for i := len(acct.Notifications) - 1; i >= 0; i-- {
		sn := acct.Notifications[i]
		sev := Poke
		switch sn.Severity {
		case "success":
			sev = Success
		case "warning":
			sev = WarningLevel
		case "error":
			sev = ErrorLevel
		}
		n := newAccountNote(TopicSeeded, sn.Subject, sn.Details, sev)
		n.Stamp(now.Add(-sn.Age))
		c.notes = append([]Notification{n}, c.notes...)
	}

	for _, sd := range c.cat.Distributions() {
		cr, found := c.cat.Creator(sd.CreatorID)
		if !found {
			return fmt.Errorf("distribution for unknown creator %q", sd.CreatorID)
		}
		rec, err := c.dists.Record(distribution.Event{
			CreatorID:          sd.CreatorID,
			WeekOf:             sd.WeekOf,
			GrossRevenue:       sd.Gross,
			PlatformFeePercent: sd.PlatformFee,
			HolderSharePercent: sd.HolderShare,
		}, cr.CATsIssued())
		if err != nil {
			return err
		}
		if sd.Paid {
			paidAt := rec.Event.WeekOf.AddDate(0, 0, 7)
			if err := c.dists.MarkPaid(sd.CreatorID, rec.Event.WeekOf, paidAt); err != nil {
				return err
			}
		}
	}
	return nil
}

// User is a snapshot of the account: balances, tier and access, and the open
// orders.
func (c *Core) User() *User {
	c.acctMtx.RLock()
	u := &User{
		Access:     c.ledger.Access(c.now()),
		OpenOrders: copyOrders(c.orders),
	}
	c.acctMtx.RUnlock()
	u.UnreadNotes = c.UnreadCount()
	return u
}

// Access is the account's staking tier and trading access.
func (c *Core) Access() *ledger.Access {
	c.acctMtx.RLock()
	defer c.acctMtx.RUnlock()
	return c.ledger.Access(c.now())
}

// Balance is the spendable wallet balance.
func (c *Core) Balance() decimal.Decimal {
	c.acctMtx.RLock()
	defer c.acctMtx.RUnlock()
	return c.ledger.Balance()
}

// Staked is the staked balance.
func (c *Core) Staked() decimal.Decimal {
	c.acctMtx.RLock()
	defer c.acctMtx.RUnlock()
	return c.ledger.Staked()
}

// Transactions returns up to n journal entries, newest first.
func (c *Core) Transactions(n int) []*ledger.Transaction {
	return c.ledger.Transactions(n)
}

// Orders returns the open orders, newest first.
func (c *Core) Orders() []*order.Order {
	c.acctMtx.RLock()
	defer c.acctMtx.RUnlock()
	return copyOrders(c.orders)
}

// ArchivedOrders returns the cancelled and acknowledged orders, newest first.
func (c *Core) ArchivedOrders() []*order.Order {
	c.acctMtx.RLock()
	defer c.acctMtx.RUnlock()
	return copyOrders(c.archive)
}

// Order looks up an open or archived order.
func (c *Core) Order(id string) (*order.Order, error) {
	oid, err := order.ParseOrderID(id)
	if err != nil {
		return nil, codedError(unknownOrderErr, err)
	}
	c.acctMtx.RLock()
	defer c.acctMtx.RUnlock()
	if tt, _ := c.findOrder(oid); tt != nil {
		return tt.Copy(), nil
	}
	if tt := c.findArchived(oid); tt != nil {
		return tt.Copy(), nil
	}
	return nil, codedError(unknownOrderErr, dex.NewError(dex.ErrOrderNotFound, id))
}

func copyOrders(tts []*trackedTrade) []*order.Order {
	ords := make([]*order.Order, 0, len(tts))
	for _, tt := range tts {
		ords = append(ords, tt.Copy())
	}
	return ords
}

// findOrder finds an open order and its index. The acctMtx must be held.
func (c *Core) findOrder(oid order.OrderID) (*trackedTrade, int) {
	for i, tt := range c.orders {
		if tt.ID == oid {
			return tt, i
		}
	}
	return nil, -1
}

// findArchived finds an archived order. The acctMtx must be held.
func (c *Core) findArchived(oid order.OrderID) *trackedTrade {
	for _, tt := range c.archive {
		if tt.ID == oid {
			return tt
		}
	}
	return nil
}

// retire moves the open order at index i to the archive. The acctMtx must be
// held.
func (c *Core) retire(i int) {
	tt := c.orders[i]
	c.orders = append(c.orders[:i], c.orders[i+1:]...)
	c.archive = append([]*trackedTrade{tt}, c.archive...)
}

// Portfolio values the holdings at current reference prices.
func (c *Core) Portfolio() *PortfolioView {
	c.acctMtx.RLock()
	holdings := c.book.Holdings()
	realized := c.book.Realized()
	held := c.book.CATsByCreator()
	c.acctMtx.RUnlock()
	return &PortfolioView{
		Valuation: portfolio.Value(holdings, c.cat),
		Realized:  realized,
		WeeklyETH: c.dists.HolderEarnings(c.now(), held).Div(c.ethRate()),
	}
}

// Holdings lists the holdings in acquisition order.
func (c *Core) Holdings() []*portfolio.Holding {
	c.acctMtx.RLock()
	defer c.acctMtx.RUnlock()
	return c.book.Holdings()
}

// Market is the reference book and tape of a market, with the account's
// open orders on it.
func (c *Core) Market(mkt string) (*MarketView, error) {
	cr, err := c.cat.CreatorByMarket(mkt)
	if err != nil {
		return nil, codedError(marketErr, err)
	}
	mv := &MarketView{
		Creator: cr,
		Market:  mkt,
		Price:   cr.Price,
		Trades:  c.cat.RecentTrades(cr.Symbol),
	}
	if ob, found := c.cat.Book(cr.Symbol); found {
		mv.Bids, mv.Asks = ob.Snap()
		mv.BestBid, mv.BestAsk = ob.Best()
		mv.MidGap = ob.MidGap()
		mv.Spread, mv.SpreadPct = ob.Spread()
	}
	if ch := c.charts[mkt]; ch != nil {
		mv.Candles, mv.Change24h, mv.Volume24h = ch.snapshot(candles.DefaultCandleRequest, c.now().Add(-24*time.Hour))
	}
	c.acctMtx.RLock()
	for _, tt := range c.orders {
		if tt.Market == mkt {
			mv.Orders = append(mv.Orders, tt.Copy())
		}
	}
	c.acctMtx.RUnlock()
	return mv, nil
}

// Creator is a creator's profile by slug, with the reference revenue split of
// its monthly revenue and the account's CATs of it.
func (c *Core) Creator(slug string) (*CreatorView, error) {
	cr, found := c.cat.CreatorBySlug(slug)
	if !found {
		return nil, codedError(marketErr, dex.NewError(dex.ErrUnknownMarket, "unknown creator "+slug))
	}
	split := distribution.Compute(&distribution.Event{
		CreatorID:          cr.ID,
		GrossRevenue:       cr.MonthlyRevenue,
		PlatformFeePercent: DefaultPlatformFeePercent,
		HolderSharePercent: DefaultHolderSharePercent,
	}, cr.CATsIssued())
	c.acctMtx.RLock()
	held := c.book.CATsByCreator()[cr.ID]
	c.acctMtx.RUnlock()
	return &CreatorView{
		Creator:       cr,
		RevenueSplit:  split,
		PerCATETH:     split.PerCATETH(c.ethRate()),
		Held:          held,
		Distributions: c.dists.Records(cr.ID),
	}, nil
}

// Staking is the tier table with the account's staking position.
func (c *Core) Staking() *StakingView {
	tiers := c.ledger.Tiers()
	return &StakingView{
		Tiers:    tiers.Tiers(),
		VIPStake: tiers.VIPStake(),
		Access:   c.Access(),
	}
}

// UpdatePrice sets a creator's reference price from the price feed. Market
// orders placed afterwards take the new price. Open orders keep theirs.
func (c *Core) UpdatePrice(creatorID string, price decimal.Decimal) error {
	if err := c.cat.SetPrice(creatorID, price); err != nil {
		return codedError(priceErr, err)
	}
	cr, _ := c.cat.Creator(creatorID)
	c.chartTrade(cr.Market(), price, decimal.Zero)
	c.notify(newPriceNote(creatorID, cr.Market(), price))
	return nil
}

// accountUpdated publishes the balances and checks for access changes. It
// must be called without the acctMtx held.
func (c *Core) accountUpdated(before *ledger.Access) {
	c.acctMtx.RLock()
	after := c.ledger.Access(c.now())
	open := len(c.orders)
	c.acctMtx.RUnlock()

	c.metrics.setAccount(after.Balance, after.Staked, open)
	c.notify(newBalanceNote(after.Balance, after.Staked))

	threshold := ledger.AccessThreshold.InexactFloat64()
	switch {
	case before.HasCDEXAccess && !after.HasCDEXAccess:
		subject, details := formatDetails(TopicAccessLost, threshold)
		c.notify(newAccountNote(TopicAccessLost, subject, details, WarningLevel))
	case !before.HasCDEXAccess && after.HasCDEXAccess:
		subject, details := formatDetails(TopicAccessGained)
		c.notify(newAccountNote(TopicAccessGained, subject, details, Success))
	case after.LowBalanceWarning && !before.LowBalanceWarning:
		subject, details := formatDetails(TopicLowBalance, threshold)
		c.notify(newAccountNote(TopicLowBalance, subject, details, WarningLevel))
	}
}
