// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package admin

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/fluxprotocol/oracle/api/utils"
	"github.com/fluxprotocol/oracle/dispatch"
	"github.com/fluxprotocol/oracle/health"
	"github.com/fluxprotocol/oracle/log"
)

// FailedLister lists the deliveries waiting for a redelivery.
type FailedLister interface {
	Failed() []dispatch.Delivery
}

type logLevelRequest struct {
	Level string `json:"level"`
}

type logLevelResponse struct {
	CurrentLevel string `json:"currentLevel"`
}

type apiLogsRequest struct {
	Enabled *bool `json:"enabled"`
}

type apiLogsResponse struct {
	Enabled bool `json:"enabled"`
}

func getLogLevelHandler(logLevel *slog.LevelVar) utils.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) error {
		return utils.WriteJSON(w, logLevelResponse{CurrentLevel: log.LevelName(logLevel.Level())})
	}
}

func postLogLevelHandler(logLevel *slog.LevelVar) utils.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		var req logLevelRequest
		if err := utils.ParseJSON(r.Body, &req); err != nil {
			return utils.BadRequest(errors.WithMessage(err, "body"))
		}
		level, ok := log.ParseLevel(req.Level)
		if !ok {
			return utils.BadRequest(errors.New("invalid verbosity level"))
		}
		logLevel.Set(level)
		logger.Info("log level changed", "level", req.Level)
		return utils.WriteJSON(w, logLevelResponse{CurrentLevel: log.LevelName(level)})
	}
}

func getAPILogsHandler(enabled *atomic.Bool) utils.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) error {
		return utils.WriteJSON(w, apiLogsResponse{Enabled: enabled.Load()})
	}
}

func postAPILogsHandler(enabled *atomic.Bool) utils.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		var req apiLogsRequest
		if err := utils.ParseJSON(r.Body, &req); err != nil {
			return utils.BadRequest(errors.WithMessage(err, "body"))
		}
		if req.Enabled == nil {
			return utils.BadRequest(errors.New("enabled: required"))
		}
		enabled.Store(*req.Enabled)
		return utils.WriteJSON(w, apiLogsResponse{Enabled: *req.Enabled})
	}
}

func healthHandler(h *health.Health) utils.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) error {
		status, err := h.Status()
		if err != nil {
			return err
		}
		if !status.Healthy {
			w.Header().Set("Content-Type", utils.JSONContentType)
			w.WriteHeader(http.StatusServiceUnavailable)
			return json.NewEncoder(w).Encode(status)
		}
		return utils.WriteJSON(w, status)
	}
}

func deliveriesHandler(failed FailedLister) utils.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) error {
		return utils.WriteJSON(w, failed.Failed())
	}
}
