// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package middleware

import (
	"net"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/fluxprotocol/oracle/cache"
)

const maxTrackedClients = 4096

// RateLimitMiddleware allows each client address perSecond requests a second with
// bursts of burst. Requests over the limit get 429.
func RateLimitMiddleware(perSecond float64, burst int) (func(http.Handler) http.Handler, error) {
	limiters, err := cache.NewLRU[string, *rate.Limiter](maxTrackedClients)
	if err != nil {
		return nil, err
	}
	newLimiter := func(string) (*rate.Limiter, error) {
		return rate.NewLimiter(rate.Limit(perSecond), burst), nil
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			limiter, _ := limiters.GetOrLoad(clientAddr(r), newLimiter, nil)
			if !limiter.Allow() {
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}, nil
}

func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
