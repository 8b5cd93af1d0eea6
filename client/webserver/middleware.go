// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package webserver

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/time/rate"
	"miauswap.org/cdex/dex/order"
)

type ctxID int

const (
	ctxOID ctxID = iota
)

// limiterIdle is how long an IP's limiter is kept after its last request.
const limiterIdle = 5 * time.Minute

// securityMiddleware adds security headers to the server responses.
func securityMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("x-frame-options", "DENY")
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Content-Security-Policy", "default-src 'none'; connect-src 'self'")
		next.ServeHTTP(w, r)
	})
}

// orderIDCtx parses the order ID URL parameter into the request context.
func orderIDCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		oid, err := order.ParseOrderID(chi.URLParam(r, "oid"))
		if err != nil {
			log.Debugf("bad order ID %q: %v", chi.URLParam(r, "oid"), err)
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		ctx := context.WithValue(r.Context(), ctxOID, oid)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ipRateLimiter tracks an IP's request rate.
type ipRateLimiter struct {
	*rate.Limiter
	lastHit time.Time
}

// ipLimiters hands out a rate limiter per client IP.
type ipLimiters struct {
	limit rate.Limit
	burst int

	mtx      sync.Mutex
	limiters map[string]*ipRateLimiter
}

func newIPLimiters(limit rate.Limit, burst int) *ipLimiters {
	if burst < 1 {
		burst = 1
	}
	return &ipLimiters{
		limit:    limit,
		burst:    burst,
		limiters: make(map[string]*ipRateLimiter),
	}
}

// get the limiter for the IP, creating it if it doesn't exist.
func (l *ipLimiters) get(ip string) *ipRateLimiter {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	limiter := l.limiters[ip]
	if limiter != nil {
		limiter.lastHit = time.Now()
		return limiter
	}
	limiter = &ipRateLimiter{
		Limiter: rate.NewLimiter(l.limit, l.burst),
		lastHit: time.Now(),
	}
	l.limiters[ip] = limiter
	return limiter
}

// prune periodically forgets idle IPs until ctx is done.
func (l *ipLimiters) prune(ctx context.Context) {
	ticker := time.NewTicker(limiterIdle)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.mtx.Lock()
			for ip, limiter := range l.limiters {
				if time.Since(limiter.lastHit) > limiterIdle {
					delete(l.limiters, ip)
				}
			}
			l.mtx.Unlock()
		case <-ctx.Done():
			return
		}
	}
}

// limitRate rejects requests from a client over its request rate.
func (s *WebServer) limitRate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter != nil && !s.limiter.get(clientIP(r)).Allow() {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP is the request's remote host without the port.
func clientIP(r *http.Request) string {
	ip := r.RemoteAddr
	if host, _, err := net.SplitHostPort(ip); err == nil && host != "" {
		ip = host
	}
	return ip
}
