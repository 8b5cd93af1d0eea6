// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

// Package webserver serves the account's JSON API and a websocket feed of
// notifications to the browser front end.
package webserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
	"miauswap.org/cdex/client/catalog"
	"miauswap.org/cdex/client/core"
	"miauswap.org/cdex/client/ledger"
	"miauswap.org/cdex/dex"
	"miauswap.org/cdex/dex/distribution"
	"miauswap.org/cdex/dex/order"
	"miauswap.org/cdex/dex/staking"
	"miauswap.org/cdex/dex/ws"
)

const (
	// rpcTimeoutSeconds is the number of seconds a connection to the server
	// is allowed to stay open without a complete request.
	rpcTimeoutSeconds = 10
	// tradeTimeout bounds the wait on an order submission. The submission
	// itself completes regardless.
	tradeTimeout = 30 * time.Second
	// notifyRoute is the websocket route for notifications.
	notifyRoute = "notify"
)

var log = dex.Disabled

// clientCore is satisfied by core.Core.
type clientCore interface {
	User() *core.User
	Creators() []*catalog.Creator
	Orders() []*order.Order
	ArchivedOrders() []*order.Order
	Order(id string) (*order.Order, error)
	TradeSync(ctx context.Context, form *core.TradeForm) (*order.Order, error)
	PreviewTrade(form *core.TradeForm) (*core.TradePreview, error)
	Cancel(id string) error
	Fill(id string, qty decimal.Decimal) (*order.Order, error)
	AckFilled(id string) error
	Stake(amount decimal.Decimal, lockDays uint32) (*staking.Resolution, error)
	Unstake(amount decimal.Decimal) (*staking.Resolution, error)
	Staking() *core.StakingView
	Portfolio() *core.PortfolioView
	Market(mkt string) (*core.MarketView, error)
	Creator(slug string) (*core.CreatorView, error)
	UpdatePrice(creatorID string, price decimal.Decimal) error
	Distributions(creatorID string) []*distribution.Record
	RecordDistribution(ev distribution.Event) (*distribution.Record, error)
	PayDistribution(creatorID string, week time.Time) (decimal.Decimal, error)
	Transactions(n int) []*ledger.Transaction
	Notifications(n int) []core.Notification
	NotificationFeed() <-chan core.Notification
	AckNotes(ids []string)
	AckAllNotes()
	MetricsRegistry() *prometheus.Registry
}

var _ clientCore = (*core.Core)(nil)

// Config is the configuration for the WebServer.
type Config struct {
	Core   clientCore
	Addr   string
	Logger dex.Logger
	// RatePerSec and Burst limit each client's API requests. A zero
	// RatePerSec is no limit.
	RatePerSec rate.Limit
	Burst      int
	// Indent pretty-prints JSON responses.
	Indent bool
}

// WebServer is a single-client http and websocket server enabling a browser
// interface to the account.
type WebServer struct {
	core    clientCore
	addr    string
	srv     *http.Server
	indent  bool
	limiter *ipLimiters

	mtx     sync.RWMutex
	clients map[int32]*wsClient
}

// New is the constructor for a new WebServer.
func New(cfg *Config) (*WebServer, error) {
	if cfg.Core == nil {
		return nil, errors.New("no core")
	}
	if cfg.Logger != nil {
		log = cfg.Logger
		ws.UseLogger(cfg.Logger)
	}

	mux := chi.NewRouter()
	httpServer := &http.Server{
		Handler:      mux,
		ReadTimeout:  rpcTimeoutSeconds * time.Second,
		WriteTimeout: tradeTimeout + rpcTimeoutSeconds*time.Second,
	}

	s := &WebServer{
		core:    cfg.Core,
		addr:    cfg.Addr,
		srv:     httpServer,
		indent:  cfg.Indent,
		clients: make(map[int32]*wsClient),
	}
	if cfg.RatePerSec > 0 {
		s.limiter = newIPLimiters(cfg.RatePerSec, cfg.Burst)
	}

	mux.Use(middleware.Recoverer)
	mux.Use(securityMiddleware)
	mux.Get("/ws", s.handleWS)
	mux.Handle("/metrics", promhttp.HandlerFor(cfg.Core.MetricsRegistry(), promhttp.HandlerOpts{}))

	mux.Route("/api", func(r chi.Router) {
		r.Use(s.limitRate)
		r.Get("/user", s.apiUser)
		r.Get("/creators", s.apiCreators)
		r.Get("/creator/{slug}", s.apiCreator)
		r.Get("/market/{cat}", s.apiMarket)
		r.Get("/orders", s.apiOrders)
		r.With(orderIDCtx).Get("/order/{oid}", s.apiOrder)
		r.Get("/portfolio", s.apiPortfolio)
		r.Get("/staking", s.apiStaking)
		r.Get("/distributions", s.apiDistributions)
		r.Get("/transactions", s.apiTransactions)
		r.Get("/notes", s.apiNotes)

		r.Group(func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			r.Post("/preview", s.apiPreview)
			r.Post("/trade", s.apiTrade)
			r.Post("/cancel", s.apiCancel)
			r.Post("/fill", s.apiFill)
			r.Post("/ackfilled", s.apiAckFilled)
			r.Post("/stake", s.apiStake)
			r.Post("/unstake", s.apiUnstake)
			r.Post("/price", s.apiUpdatePrice)
			r.Post("/distribution", s.apiRecordDistribution)
			r.Post("/paydistribution", s.apiPayDistribution)
			r.Post("/acknotes", s.apiAckNotes)
			r.Post("/ackallnotes", s.apiAckAllNotes)
		})
	})

	return s, nil
}

// Run starts the web server, blocking until ctx is done.
func (s *WebServer) Run(ctx context.Context) {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		log.Errorf("Can't listen on %s. web server quitting: %v", s.addr, err)
		return
	}

	// Shutdown the server on context cancellation.
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		<-ctx.Done()
		if err := s.srv.Shutdown(context.Background()); err != nil {
			log.Errorf("Problem shutting down rpc: %v", err)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.readNotifications(ctx)
	}()

	if s.limiter != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.limiter.prune(ctx)
		}()
	}

	log.Infof("Web server listening on http://%s", listener.Addr())
	err = s.srv.Serve(listener)
	if !errors.Is(err, http.ErrServerClosed) {
		log.Warnf("unexpected (http.Server).Serve error: %v", err)
	}
	log.Infof("Web server off")

	// Shutdown does not deal with hijacked websocket connections.
	s.mtx.Lock()
	for _, cl := range s.clients {
		cl.Disconnect()
	}
	s.mtx.Unlock()

	wg.Wait()
}

// readNotifications reads from the Core notification channel and relays to
// websocket clients.
func (s *WebServer) readNotifications(ctx context.Context) {
	ch := s.core.NotificationFeed()
	for {
		select {
		case n := <-ch:
			s.notify(notifyRoute, n)
		case <-ctx.Done():
			return
		}
	}
}

// notify sends a message to all connected websocket clients.
func (s *WebServer) notify(route string, payload any) {
	msg, err := ws.NewMessage(route, payload)
	if err != nil {
		log.Errorf("%q notification encoding error: %v", route, err)
		return
	}
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	for _, cl := range s.clients {
		if err = cl.Send(msg); err != nil {
			log.Warnf("Failed to send %v notification to client %v at %v: %v",
				msg.Route, cl.cid, cl.IP(), err)
		}
	}
}

// readPost unmarshals the request body into the provided interface.
func readPost(w http.ResponseWriter, r *http.Request, thing any) bool {
	body, err := io.ReadAll(r.Body)
	r.Body.Close()
	if err != nil {
		log.Debugf("Error reading request body: %v", err)
		http.Error(w, "error reading JSON message", http.StatusBadRequest)
		return false
	}
	if err = json.Unmarshal(body, thing); err != nil {
		log.Debugf("failed to unmarshal JSON request: %v", err)
		http.Error(w, "failed to unmarshal JSON request", http.StatusBadRequest)
		return false
	}
	return true
}

// writeJSON marshals the provided interface and writes the bytes to the
// ResponseWriter. The response code is assumed to be StatusOK.
func writeJSON(w http.ResponseWriter, thing any, indent bool) {
	writeJSONWithStatus(w, thing, http.StatusOK, indent)
}

// writeJSONWithStatus writes the JSON with the specified response code.
func writeJSONWithStatus(w http.ResponseWriter, thing any, code int, indent bool) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	encoder := json.NewEncoder(w)
	if indent {
		encoder.SetIndent("", "    ")
	}
	if err := encoder.Encode(thing); err != nil {
		log.Infof("JSON encode error: %v", err)
	}
}

// writeAPIError logs the formatted error and sends a standardResponse with
// the error message and the status for the error's kind.
func (s *WebServer) writeAPIError(w http.ResponseWriter, err error, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if err != nil {
		msg = fmt.Sprintf("%s: %v", msg, err)
	}
	log.Debug(msg)
	resp := &standardResponse{OK: false, Msg: msg}
	var cErr *core.Error
	if errors.As(err, &cErr) {
		resp.Code = cErr.Code()
	}
	writeJSONWithStatus(w, resp, errorStatus(err), s.indent)
}

// errorStatus is the HTTP status for an error.
func errorStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusBadRequest
	case errors.Is(err, dex.ErrOrderNotFound),
		errors.Is(err, dex.ErrUnknownMarket),
		errors.Is(err, distribution.ErrUnknownEvent):
		return http.StatusNotFound
	case errors.Is(err, dex.ErrOrderAlreadyFilled),
		errors.Is(err, dex.ErrSubmissionInProgress),
		errors.Is(err, distribution.ErrDuplicateEvent),
		errors.Is(err, distribution.ErrAlreadyPaid):
		return http.StatusConflict
	case errors.Is(err, dex.ErrFundsLocked):
		return http.StatusLocked
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusBadRequest
}
