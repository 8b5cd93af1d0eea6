// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"miauswap.org/cdex/client/catalog"
	"miauswap.org/cdex/client/ledger"
	"miauswap.org/cdex/dex"
	"miauswap.org/cdex/dex/calc"
	"miauswap.org/cdex/dex/order"
)

// tradeRequest is a validated TradeForm.
type tradeRequest struct {
	form    TradeForm
	cr      *catalog.Creator
	price   decimal.Decimal
	edition catalog.Edition
}

// quote computes the fee breakdown of a trade.
func (c *Core) quote(price, qty decimal.Decimal, sell bool, discount decimal.Decimal) (*calc.FeeBreakdown, error) {
	fee, err := calc.ComputeFee(price, qty, sell, discount)
	if err != nil {
		return nil, codedError(orderParamsErr, err)
	}
	return fee, nil
}

// prepareTrade validates the parts of the form that do not depend on the
// account. A market order takes the current reference price of the edition.
func (c *Core) prepareTrade(form *TradeForm) (*tradeRequest, error) {
	if form == nil {
		return nil, newError(orderParamsErr, "no trade form")
	}
	cr, err := c.cat.CreatorByMarket(form.Market)
	if err != nil {
		return nil, codedError(marketErr, err)
	}
	if !form.Qty.IsPositive() {
		return nil, codedError(orderParamsErr, dex.NewError(dex.ErrInvalidQuantity, "quantity must be positive, got "+form.Qty.String()))
	}
	req := &tradeRequest{
		form:    *form,
		cr:      cr,
		edition: form.Edition,
	}
	if req.edition == "" {
		req.edition = catalog.Standard
	}
	if _, err := catalog.ParseEdition(string(req.edition)); err != nil {
		return nil, codedError(orderParamsErr, err)
	}
	switch form.Type {
	case order.LimitOrderType:
		if !form.Price.IsPositive() {
			return nil, codedError(orderParamsErr, dex.NewError(dex.ErrInvalidPrice, "limit price must be positive, got "+form.Price.String()))
		}
		req.price = form.Price
	case order.MarketOrderType:
		req.price, _ = c.cat.EditionPrice(cr.ID, req.edition)
	default:
		return nil, newError(orderParamsErr, "unknown order type %d", form.Type)
	}
	return req, nil
}

// checkTrade prices the trade at the current staking discount and checks that
// a buy is affordable and a sell is covered by holdings. The acctMtx must be
// held.
func (c *Core) checkTrade(req *tradeRequest) (*calc.FeeBreakdown, error) {
	fee, err := c.quote(req.price, req.form.Qty, req.form.Sell, c.ledger.Tier().FeeDiscountPercent)
	if err != nil {
		return nil, err
	}
	if req.form.Sell {
		if err := c.checkHoldings(req.cr.ID, req.edition, req.form.Qty); err != nil {
			return nil, codedError(orderParamsErr, err)
		}
	} else if err := c.ledger.CheckDebit(fee.Total); err != nil {
		return nil, codedError(balanceErr, err)
	}
	return fee, nil
}

// checkHoldings checks that qty of the edition is held and not already
// offered by an open sell. The acctMtx must be held.
func (c *Core) checkHoldings(creatorID string, ed catalog.Edition, qty decimal.Decimal) error {
	avail := decimal.Zero
	if h, found := c.book.Holding(creatorID, ed); found {
		avail = h.Quantity
	}
	for _, tt := range c.orders {
		if tt.Sell && tt.creatorID == creatorID && tt.edition == ed {
			avail = avail.Sub(tt.Remaining())
		}
	}
	if qty.GreaterThan(avail) {
		return dex.NewError(dex.ErrInvalidQuantity, fmt.Sprintf("selling %s %s CATs of creator %s, %s available",
			qty, ed, creatorID, decimal.Max(avail, decimal.Zero)))
	}
	return nil
}

// PreviewTrade prices a trade without placing it.
func (c *Core) PreviewTrade(form *TradeForm) (*TradePreview, error) {
	req, err := c.prepareTrade(form)
	if err != nil {
		return nil, err
	}
	c.acctMtx.RLock()
	defer c.acctMtx.RUnlock()
	tier := c.ledger.Tier()
	fee, err := c.quote(req.price, req.form.Qty, req.form.Sell, tier.FeeDiscountPercent)
	if err != nil {
		return nil, err
	}
	affordable := c.ledger.CheckDebit(fee.Total) == nil
	if req.form.Sell {
		affordable = c.checkHoldings(req.cr.ID, req.edition, req.form.Qty) == nil
	}
	return &TradePreview{
		Market:          req.form.Market,
		Price:           req.price,
		DiscountPercent: tier.FeeDiscountPercent,
		Tier:            tier.Name,
		Affordable:      affordable,
		FeeBreakdown:    fee,
	}, nil
}

// Trade submits an order. The form is validated, and a buy is checked against
// the wallet balance and a sell against the holdings, before Trade returns. The order is placed when the
// returned Submission resolves, after the acknowledgement delay, at which
// point the checks are repeated and the ledger mutation and the new open
// order are applied together. Only one submission may be in flight.
func (c *Core) Trade(form *TradeForm) (*Submission, error) {
	req, err := c.prepareTrade(form)
	if err != nil {
		c.tradeFailed(err)
		return nil, err
	}

	c.acctMtx.Lock()
	if c.submitting {
		c.acctMtx.Unlock()
		err := codedError(submissionBusyErr, dex.NewError(dex.ErrSubmissionInProgress, form.Market))
		c.tradeFailed(err)
		return nil, err
	}
	if _, err := c.checkTrade(req); err != nil {
		c.acctMtx.Unlock()
		c.tradeFailed(err)
		return nil, err
	}
	c.submitting = true
	c.acctMtx.Unlock()

	sub := newSubmission()
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if d := c.ackDelay(); d > 0 {
			time.Sleep(d)
		}
		sub.resolve(c.placeOrder(req))
	}()
	return sub, nil
}

// TradeSync is Trade, waiting on the submission. If ctx is done first, the
// wait is abandoned but the submission still completes.
func (c *Core) TradeSync(ctx context.Context, form *TradeForm) (*order.Order, error) {
	sub, err := c.Trade(form)
	if err != nil {
		return nil, err
	}
	return sub.Wait(ctx)
}

// placeOrder is the acknowledgement of a submission.
func (c *Core) placeOrder(req *tradeRequest) (*order.Order, error) {
	before := c.Access()
	ord, err := c.applyOrder(req)
	if err != nil {
		c.submissionFailed(req, err)
		return nil, err
	}
	log.Infof("Placed order %s: %s", ord.ID, ord)

	c.metrics.ordersPlaced.WithLabelValues(ord.Side(), ord.Type.String()).Inc()
	priceStr := "Market"
	if ord.Type == order.LimitOrderType {
		priceStr = ord.Price.String() + " " + dex.QuoteSymbol
	}
	subject, details := formatDetails(TopicOrderPlaced, ord.Side(), ord.Quantity.InexactFloat64(), req.cr.Symbol, priceStr)
	c.notify(newOrderNote(TopicOrderPlaced, subject, details, Success, ord))
	c.accountUpdated(before)
	return ord, nil
}

// applyOrder repeats the trade checks and applies the ledger mutation, the
// journal entry and the new open order as one step.
func (c *Core) applyOrder(req *tradeRequest) (*order.Order, error) {
	c.acctMtx.Lock()
	defer c.acctMtx.Unlock()
	defer func() { c.submitting = false }()

	fee, err := c.checkTrade(req)
	if err != nil {
		return nil, err
	}
	form := &req.form
	ord, err := order.New(form.Market, form.Type, form.Sell, req.price, form.Qty, c.now())
	if err != nil {
		return nil, codedError(orderParamsErr, err)
	}
	kind := ledger.TxBuy
	if form.Sell {
		kind = ledger.TxSell
		err = c.ledger.Credit(fee.Total)
	} else {
		err = c.ledger.Debit(fee.Total)
		ord.Reserved = fee.Total
	}
	if err != nil {
		return nil, codedError(balanceErr, err)
	}
	c.orders = append([]*trackedTrade{{
		Order:     ord,
		creatorID: req.cr.ID,
		edition:   req.edition,
	}}, c.orders...)
	c.ledger.Record(&ledger.Transaction{
		Stamp:  ord.Stamp,
		Kind:   kind,
		Amount: fee.Total,
		Asset:  dex.QuoteSymbol,
		Market: ord.Market,
		Fee:    fee.Fee,
	})
	return ord.Copy(), nil
}

// tradeFailed notifies the user of a rejected order.
func (c *Core) tradeFailed(err error) {
	c.metrics.reject("trade")
	var topic Topic
	var args []any
	switch {
	case errors.Is(err, dex.ErrInsufficientBalance):
		topic = TopicInsufficientBalance
	case errors.Is(err, dex.ErrSubmissionInProgress):
		topic = TopicSubmissionInProgress
	default:
		topic, args = TopicOrderRejected, []any{err}
	}
	subject, details := formatDetails(topic, args...)
	c.notify(newOrderNote(topic, subject, details, ErrorLevel, nil))
}

// submissionFailed notifies the user of an order that failed its checks at
// acknowledgement.
func (c *Core) submissionFailed(req *tradeRequest, err error) {
	c.metrics.reject("trade")
	side := "Buy"
	if req.form.Sell {
		side = "Sell"
	}
	subject, details := formatDetails(TopicOrderSubmissionFailed, side, req.form.Qty.InexactFloat64(), req.cr.Symbol, err)
	c.notify(newOrderNote(TopicOrderSubmissionFailed, subject, details, ErrorLevel, nil))
}

// Cancel cancels an open order. A buy releases the escrow still covering the
// unfilled quantity back to the wallet.
func (c *Core) Cancel(id string) error {
	before := c.Access()
	ord, release, err := c.cancelOrder(id)
	if err != nil {
		c.metrics.reject("cancel")
		subject, details := formatDetails(TopicCancelError, id, err)
		c.notify(newOrderNote(TopicCancelError, subject, details, ErrorLevel, nil))
		return err
	}
	log.Infof("Cancelled order %s, released %s %s", ord.ID, release, dex.QuoteSymbol)
	c.metrics.ordersCancelled.Inc()
	subject, details := formatDetails(TopicOrderCancelled)
	c.notify(newOrderNote(TopicOrderCancelled, subject, details, Success, ord))
	c.accountUpdated(before)
	return nil
}

func (c *Core) cancelOrder(id string) (*order.Order, decimal.Decimal, error) {
	oid, err := order.ParseOrderID(id)
	if err != nil {
		return nil, decimal.Zero, codedError(unknownOrderErr, err)
	}
	c.acctMtx.Lock()
	defer c.acctMtx.Unlock()
	tt, i := c.findOrder(oid)
	if tt == nil {
		return nil, decimal.Zero, c.missingOrderErr(oid)
	}
	release, err := tt.Cancel()
	if err != nil {
		return nil, decimal.Zero, codedError(orderStateErr, err)
	}
	if release.IsPositive() {
		if err := c.ledger.Credit(release); err != nil {
			return nil, decimal.Zero, codedError(balanceErr, err) // unreachable for a positive release
		}
		c.ledger.Record(&ledger.Transaction{
			Stamp:  c.now(),
			Kind:   ledger.TxRefund,
			Amount: release,
			Asset:  dex.QuoteSymbol,
			Market: tt.Market,
		})
	}
	c.retire(i)
	return tt.Copy(), release, nil
}

// missingOrderErr is the error for an order not in the open set. An
// acknowledged fill is reported as already filled. The acctMtx must be held.
func (c *Core) missingOrderErr(oid order.OrderID) error {
	if tt := c.findArchived(oid); tt != nil && tt.Status() == order.OrderStatusFilled {
		return codedError(orderStateErr, dex.NewError(dex.ErrOrderAlreadyFilled, oid.String()))
	}
	return codedError(unknownOrderErr, dex.NewError(dex.ErrOrderNotFound, oid.String()))
}

// Fill applies a fill of qty to an open order at the order's price. This is
// the contract of the matching process: fills only grow and never exceed the
// order quantity. A buy fill adds to the holdings at the order price. A sell
// fill requires the CATs to be held.
func (c *Core) Fill(id string, qty decimal.Decimal) (*order.Order, error) {
	ord, err := c.fillOrder(id, qty)
	if err != nil {
		c.metrics.reject("fill")
		subject, details := formatDetails(TopicFillError, id, err)
		c.notify(newOrderNote(TopicFillError, subject, details, ErrorLevel, nil))
		return nil, err
	}
	c.metrics.fills.WithLabelValues(ord.Side()).Inc()
	c.chartTrade(ord.Market, ord.Price, qty)
	sym, _ := dex.ParseMarketName(ord.Market)
	var topic Topic
	var args []any
	if ord.Status() == order.OrderStatusFilled {
		topic = TopicOrderFilled
		args = []any{ord.Side(), ord.Quantity.InexactFloat64(), sym, ord.Price.String()}
	} else {
		topic = TopicOrderPartiallyFilled
		args = []any{ord.Side(), ord.Market, ord.Filled().InexactFloat64(), ord.Quantity.InexactFloat64(), ord.Price.String()}
	}
	subject, details := formatDetails(topic, args...)
	c.notify(newOrderNote(topic, subject, details, Success, ord))
	return ord, nil
}

func (c *Core) fillOrder(id string, qty decimal.Decimal) (*order.Order, error) {
	oid, err := order.ParseOrderID(id)
	if err != nil {
		return nil, codedError(unknownOrderErr, err)
	}
	c.acctMtx.Lock()
	defer c.acctMtx.Unlock()
	tt, _ := c.findOrder(oid)
	if tt == nil {
		return nil, c.missingOrderErr(oid)
	}
	// Check the fill on a copy so the holdings are only touched by a fill
	// that will be applied.
	if _, err := tt.Copy().Fill(qty); err != nil {
		return nil, codedError(orderParamsErr, err)
	}
	if tt.Sell {
		realized, err := c.book.Sell(tt.creatorID, tt.edition, qty, tt.Price)
		if err != nil {
			return nil, codedError(orderParamsErr, err)
		}
		log.Debugf("Sell fill of %s on order %s realized %s", qty, tt.ID, realized)
	} else if _, err := c.book.AddBuy(tt.creatorID, tt.edition, qty, tt.Price); err != nil {
		return nil, codedError(orderParamsErr, err)
	}
	status, _ := tt.Fill(qty)
	log.Infof("Order %s filled %s of %s, now %s", tt.ID, tt.Filled(), tt.Quantity, status)
	return tt.Copy(), nil
}

// AckFilled acknowledges a fully filled order, removing it from the open set.
func (c *Core) AckFilled(id string) error {
	oid, err := order.ParseOrderID(id)
	if err != nil {
		return codedError(unknownOrderErr, err)
	}
	c.acctMtx.Lock()
	tt, i := c.findOrder(oid)
	if tt == nil {
		err = c.missingOrderErr(oid)
	} else if status := tt.Status(); status != order.OrderStatusFilled {
		err = newError(orderStateErr, "order %s is %s, not filled", oid, status)
	} else {
		c.retire(i)
	}
	open := len(c.orders)
	c.acctMtx.Unlock()
	if err != nil {
		return err
	}
	c.metrics.openOrders.Set(float64(open))
	return nil
}
