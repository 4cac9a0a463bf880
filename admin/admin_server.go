// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package admin serves the operator endpoints of a running oracle.
package admin

import (
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/fluxprotocol/oracle/api/utils"
	"github.com/fluxprotocol/oracle/co"
	"github.com/fluxprotocol/oracle/health"
	"github.com/fluxprotocol/oracle/log"
)

var logger = log.WithContext("pkg", "admin")

// Options are the values the admin endpoints read and change.
type Options struct {
	LogLevel *slog.LevelVar
	APILogs  *atomic.Bool
	Health   *health.Health
	Failed   FailedLister
}

// HTTPHandler routes /admin. Endpoints whose option is nil are not mounted.
func HTTPHandler(opts Options) http.Handler {
	router := mux.NewRouter()
	sub := router.PathPrefix("/admin").Subrouter()

	if opts.LogLevel != nil {
		sub.Path("/loglevel").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(getLogLevelHandler(opts.LogLevel)))
		sub.Path("/loglevel").Methods(http.MethodPost).HandlerFunc(utils.WrapHandlerFunc(postLogLevelHandler(opts.LogLevel)))
	}
	if opts.APILogs != nil {
		sub.Path("/apilogs").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(getAPILogsHandler(opts.APILogs)))
		sub.Path("/apilogs").Methods(http.MethodPost).HandlerFunc(utils.WrapHandlerFunc(postAPILogsHandler(opts.APILogs)))
	}
	if opts.Health != nil {
		sub.Path("/health").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(healthHandler(opts.Health)))
	}
	if opts.Failed != nil {
		sub.Path("/deliveries").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(deliveriesHandler(opts.Failed)))
	}
	return handlers.CompressHandler(router)
}

// StartServer serves the admin endpoints on addr. It returns the base URL and a
// function that stops the server.
func StartServer(addr string, opts Options) (string, func(), error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", nil, errors.Wrapf(err, "listen admin API addr [%v]", addr)
	}

	srv := &http.Server{Handler: HTTPHandler(opts), ReadHeaderTimeout: time.Second, ReadTimeout: 5 * time.Second}
	var goes co.Goes
	goes.Go(func() {
		if err := srv.Serve(listener); !errors.Is(err, http.ErrServerClosed) {
			logger.Error("admin server stopped", "err", err)
		}
	})
	return "http://" + listener.Addr().String() + "/admin", func() {
		srv.Close()
		goes.Wait()
	}, nil
}
