// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/fluxprotocol/oracle/api/accounts"
	"github.com/fluxprotocol/oracle/api/calls"
	"github.com/fluxprotocol/oracle/api/middleware"
	"github.com/fluxprotocol/oracle/api/requests"
	"github.com/fluxprotocol/oracle/api/subscriptions"
	"github.com/fluxprotocol/oracle/health"
	"github.com/fluxprotocol/oracle/ledger"
	"github.com/fluxprotocol/oracle/log"
	"github.com/fluxprotocol/oracle/metrics"
	"github.com/fluxprotocol/oracle/runtime"
)

var logger = log.WithContext("pkg", "api")

type Options struct {
	AllowedOrigins       string
	EnableReqLogger      *atomic.Bool
	SlowQueriesThreshold time.Duration
	Log5xxErrors         bool
	EnableMetrics        bool
	// RateLimit is requests per second per client, 0 disables it.
	RateLimit float64
	RateBurst int
	CacheSize int
	SoloMode  bool
	// RelayToken, if set, is the bearer token /calls requires. Without it
	// /calls is only mounted in solo mode.
	RelayToken string
	// Health, if set, records every committed call.
	Health *health.Health
}

// ParseOrigins splits a comma separated origin list.
func ParseOrigins(s string) []string {
	origins := strings.Split(strings.TrimSpace(s), ",")
	for i, o := range origins {
		origins[i] = strings.ToLower(strings.TrimSpace(o))
	}
	return origins
}

// New return api router. subs must be the hub the dispatcher notifies, so it is
// created by the caller and only mounted here.
func New(
	rt *runtime.Runtime,
	l *ledger.Ledger,
	subs *subscriptions.Subscriptions,
	opts Options,
) (http.HandlerFunc, error) {
	origins := ParseOrigins(opts.AllowedOrigins)
	if opts.CacheSize <= 0 {
		opts.CacheSize = 1024
	}
	if opts.EnableReqLogger == nil {
		opts.EnableReqLogger = &atomic.Bool{}
	}

	router := mux.NewRouter()

	reqs, err := requests.New(rt, opts.CacheSize)
	if err != nil {
		return nil, err
	}
	reqs.Mount(router, "")
	var onCall func()
	if opts.Health != nil {
		onCall = opts.Health.NewCall
	}
	switch {
	case opts.RelayToken != "":
		calls.New(rt, onCall).
			Mount(router, "/calls", middleware.RelayAuthMiddleware(opts.RelayToken))
	case opts.SoloMode:
		calls.New(rt, onCall).
			Mount(router, "/calls")
	}
	if l != nil {
		accounts.New(l, rt.Address(), rt, opts.SoloMode).
			Mount(router, "/accounts")
	}
	if subs != nil {
		subs.Mount(router, "/subscriptions")
	}

	if opts.EnableMetrics {
		router.Use(metricsMiddleware)
		if h := metrics.HTTPHandler(); h != nil {
			router.Path("/metrics").Methods(http.MethodGet).Handler(h)
		}
	}
	router.Use(middleware.RequestLoggerMiddleware(logger, opts.EnableReqLogger, opts.SlowQueriesThreshold, opts.Log5xxErrors))

	handler := handlers.CompressHandler(router)
	handler = handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedHeaders([]string{"content-type", "authorization"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
	)(handler)

	if opts.RateLimit > 0 {
		limit, err := middleware.RateLimitMiddleware(opts.RateLimit, max(opts.RateBurst, 1))
		if err != nil {
			return nil, err
		}
		handler = limit(handler)
	}
	return handler.ServeHTTP, nil
}
