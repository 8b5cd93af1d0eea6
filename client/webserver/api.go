// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package webserver

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"miauswap.org/cdex/dex"
	"miauswap.org/cdex/dex/distribution"
	"miauswap.org/cdex/dex/order"
)

// defaultListLen is the number of journal entries or notifications returned
// when the request does not say.
const defaultListLen = 50

// apiUser handles the 'user' API request.
func (s *WebServer) apiUser(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.core.User(), s.indent)
}

// apiCreators handles the 'creators' API request.
func (s *WebServer) apiCreators(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.core.Creators(), s.indent)
}

// apiCreator handles the 'creator/{slug}' API request.
func (s *WebServer) apiCreator(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	view, err := s.core.Creator(slug)
	if err != nil {
		s.writeAPIError(w, err, "creator %q", slug)
		return
	}
	writeJSON(w, view, s.indent)
}

// apiMarket handles the 'market/{cat}' API request. The market is the CAT
// symbol quoted in MIAU.
func (s *WebServer) apiMarket(w http.ResponseWriter, r *http.Request) {
	mkt := dex.MarketName(chi.URLParam(r, "cat"))
	view, err := s.core.Market(mkt)
	if err != nil {
		s.writeAPIError(w, err, "market %s", mkt)
		return
	}
	writeJSON(w, view, s.indent)
}

// apiOrders handles the 'orders' API request.
func (s *WebServer) apiOrders(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, &ordersResponse{
		Open:     s.core.Orders(),
		Archived: s.core.ArchivedOrders(),
	}, s.indent)
}

// apiOrder handles the 'order/{oid}' API request.
func (s *WebServer) apiOrder(w http.ResponseWriter, r *http.Request) {
	oid := r.Context().Value(ctxOID).(order.OrderID)
	ord, err := s.core.Order(oid.String())
	if err != nil {
		s.writeAPIError(w, err, "order %s", oid)
		return
	}
	writeJSON(w, &orderResponse{OK: true, Order: ord}, s.indent)
}

// apiPortfolio handles the 'portfolio' API request.
func (s *WebServer) apiPortfolio(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.core.Portfolio(), s.indent)
}

// apiStaking handles the 'staking' API request.
func (s *WebServer) apiStaking(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.core.Staking(), s.indent)
}

// apiDistributions handles the 'distributions' API request. The optional
// creator query parameter limits the list to one creator.
func (s *WebServer) apiDistributions(w http.ResponseWriter, r *http.Request) {
	recs := s.core.Distributions(r.URL.Query().Get("creator"))
	if recs == nil {
		recs = []*distribution.Record{}
	}
	writeJSON(w, recs, s.indent)
}

// apiTransactions handles the 'transactions' API request.
func (s *WebServer) apiTransactions(w http.ResponseWriter, r *http.Request) {
	n, ok := s.listLen(w, r)
	if !ok {
		return
	}
	writeJSON(w, s.core.Transactions(n), s.indent)
}

// apiNotes handles the 'notes' API request.
func (s *WebServer) apiNotes(w http.ResponseWriter, r *http.Request) {
	n, ok := s.listLen(w, r)
	if !ok {
		return
	}
	writeJSON(w, s.core.Notifications(n), s.indent)
}

// listLen parses the n query parameter.
func (s *WebServer) listLen(w http.ResponseWriter, r *http.Request) (int, bool) {
	nStr := r.URL.Query().Get("n")
	if nStr == "" {
		return defaultListLen, true
	}
	n, err := strconv.Atoi(nStr)
	if err != nil || n < 0 {
		s.writeAPIError(w, nil, "invalid list length %q", nStr)
		return 0, false
	}
	return n, true
}

// apiPreview handles the 'preview' API request.
func (s *WebServer) apiPreview(w http.ResponseWriter, r *http.Request) {
	form := new(tradeForm)
	if !readPost(w, r, form) {
		return
	}
	coreForm, err := form.coreForm()
	if err != nil {
		s.writeAPIError(w, err, "bad order form")
		return
	}
	preview, err := s.core.PreviewTrade(coreForm)
	if err != nil {
		s.writeAPIError(w, err, "preview error")
		return
	}
	writeJSON(w, preview, s.indent)
}

// apiTrade handles the 'trade' API request. The response is sent once the
// order is acknowledged.
func (s *WebServer) apiTrade(w http.ResponseWriter, r *http.Request) {
	form := new(tradeForm)
	if !readPost(w, r, form) {
		return
	}
	coreForm, err := form.coreForm()
	if err != nil {
		s.writeAPIError(w, err, "bad order form")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), tradeTimeout)
	defer cancel()
	ord, err := s.core.TradeSync(ctx, coreForm)
	if err != nil {
		s.writeAPIError(w, err, "error placing order")
		return
	}
	writeJSON(w, &orderResponse{OK: true, Order: ord}, s.indent)
}

// apiCancel handles the 'cancel' API request.
func (s *WebServer) apiCancel(w http.ResponseWriter, r *http.Request) {
	form := new(orderForm)
	if !readPost(w, r, form) {
		return
	}
	if err := s.core.Cancel(form.OrderID); err != nil {
		s.writeAPIError(w, err, "error cancelling order %s", form.OrderID)
		return
	}
	writeJSON(w, simpleAck(), s.indent)
}

// apiFill handles the 'fill' API request.
func (s *WebServer) apiFill(w http.ResponseWriter, r *http.Request) {
	form := new(fillForm)
	if !readPost(w, r, form) {
		return
	}
	ord, err := s.core.Fill(form.OrderID, form.Qty)
	if err != nil {
		s.writeAPIError(w, err, "error filling order %s", form.OrderID)
		return
	}
	writeJSON(w, &orderResponse{OK: true, Order: ord}, s.indent)
}

// apiAckFilled handles the 'ackfilled' API request.
func (s *WebServer) apiAckFilled(w http.ResponseWriter, r *http.Request) {
	form := new(orderForm)
	if !readPost(w, r, form) {
		return
	}
	if err := s.core.AckFilled(form.OrderID); err != nil {
		s.writeAPIError(w, err, "error archiving order %s", form.OrderID)
		return
	}
	writeJSON(w, simpleAck(), s.indent)
}

// apiStake handles the 'stake' API request.
func (s *WebServer) apiStake(w http.ResponseWriter, r *http.Request) {
	form := new(stakeForm)
	if !readPost(w, r, form) {
		return
	}
	res, err := s.core.Stake(form.Amount, form.LockDays)
	if err != nil {
		s.writeAPIError(w, err, "error staking")
		return
	}
	writeJSON(w, &stakingResponse{OK: true, Tier: res, Access: s.core.User().Access}, s.indent)
}

// apiUnstake handles the 'unstake' API request.
func (s *WebServer) apiUnstake(w http.ResponseWriter, r *http.Request) {
	form := new(stakeForm)
	if !readPost(w, r, form) {
		return
	}
	res, err := s.core.Unstake(form.Amount)
	if err != nil {
		s.writeAPIError(w, err, "error unstaking")
		return
	}
	writeJSON(w, &stakingResponse{OK: true, Tier: res, Access: s.core.User().Access}, s.indent)
}

// apiUpdatePrice handles the 'price' API request.
func (s *WebServer) apiUpdatePrice(w http.ResponseWriter, r *http.Request) {
	form := new(priceForm)
	if !readPost(w, r, form) {
		return
	}
	if err := s.core.UpdatePrice(form.CreatorID, form.Price); err != nil {
		s.writeAPIError(w, err, "error updating price")
		return
	}
	writeJSON(w, simpleAck(), s.indent)
}

// apiRecordDistribution handles the 'distribution' API request.
func (s *WebServer) apiRecordDistribution(w http.ResponseWriter, r *http.Request) {
	ev := new(distribution.Event)
	if !readPost(w, r, ev) {
		return
	}
	rec, err := s.core.RecordDistribution(*ev)
	if err != nil {
		s.writeAPIError(w, err, "error recording distribution")
		return
	}
	writeJSON(w, rec, s.indent)
}

// apiPayDistribution handles the 'paydistribution' API request.
func (s *WebServer) apiPayDistribution(w http.ResponseWriter, r *http.Request) {
	form := new(payForm)
	if !readPost(w, r, form) {
		return
	}
	share, err := s.core.PayDistribution(form.CreatorID, form.Week)
	if err != nil {
		s.writeAPIError(w, err, "error paying distribution")
		return
	}
	writeJSON(w, &payResponse{OK: true, Share: share}, s.indent)
}

// apiAckNotes handles the 'acknotes' API request.
func (s *WebServer) apiAckNotes(w http.ResponseWriter, r *http.Request) {
	form := new(ackNotesForm)
	if !readPost(w, r, form) {
		return
	}
	s.core.AckNotes(form.IDs)
	writeJSON(w, simpleAck(), s.indent)
}

// apiAckAllNotes handles the 'ackallnotes' API request.
func (s *WebServer) apiAckAllNotes(w http.ResponseWriter, _ *http.Request) {
	s.core.AckAllNotes()
	writeJSON(w, simpleAck(), s.indent)
}
