// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package requests

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/fluxprotocol/oracle/api/utils"
	"github.com/fluxprotocol/oracle/builtin/oracle"
	"github.com/fluxprotocol/oracle/builtin/oracle/outcome"
	"github.com/fluxprotocol/oracle/builtin/oracle/request"
	"github.com/fluxprotocol/oracle/builtin/params"
	"github.com/fluxprotocol/oracle/builtin/whitelist"
	"github.com/fluxprotocol/oracle/cache"
	"github.com/fluxprotocol/oracle/flux"
	"github.com/fluxprotocol/oracle/runtime"
)

const (
	defaultLimit = 10
	maxLimit     = 100
)

// Viewer runs read-only calls against the committed oracle state.
type Viewer interface {
	View(fn func(o *oracle.Oracle) error) error
}

var _ Viewer = (*runtime.Runtime)(nil)

type Requests struct {
	viewer    Viewer
	finalized *cache.LRU[uint64, *request.Summary]
}

// New serves request and config views. Summaries of finalized requests never
// change and are kept in a cache of cacheSize entries.
func New(viewer Viewer, cacheSize int) (*Requests, error) {
	c, err := cache.NewLRU[uint64, *request.Summary](cacheSize)
	if err != nil {
		return nil, err
	}
	return &Requests{viewer: viewer, finalized: c}, nil
}

func (r *Requests) summary(id uint64) (*request.Summary, error) {
	return r.finalized.GetOrLoad(id, func(id uint64) (s *request.Summary, err error) {
		err = r.viewer.View(func(o *oracle.Oracle) error {
			s, err = o.RequestByID(id)
			return err
		})
		return
	}, func(s *request.Summary) bool {
		return s != nil && s.Finalized != nil
	})
}

func (r *Requests) handleGetRequests(w http.ResponseWriter, req *http.Request) error {
	query := req.URL.Query()
	from, err := utils.ParseUint(query.Get("from"), 0)
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "from"))
	}
	limit, err := utils.ParseUint(query.Get("limit"), defaultLimit)
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "limit"))
	}
	if limit > maxLimit {
		return utils.BadRequest(errors.Errorf("limit: exceeds %d", maxLimit))
	}
	var list []*request.Summary
	if err := r.viewer.View(func(o *oracle.Oracle) (err error) {
		list, err = o.Requests(from, limit)
		return
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, list)
}

func (r *Requests) handleGetLatest(w http.ResponseWriter, _ *http.Request) error {
	var s *request.Summary
	if err := r.viewer.View(func(o *oracle.Oracle) (err error) {
		s, err = o.LatestRequest()
		return
	}); err != nil {
		return err
	}
	if s == nil {
		return utils.NotFound(errors.New("no request yet"))
	}
	return utils.WriteJSON(w, s)
}

func parseID(req *http.Request) (uint64, error) {
	id, err := utils.ParseUint(mux.Vars(req)["id"], 0)
	if err != nil {
		return 0, utils.BadRequest(errors.WithMessage(err, "id"))
	}
	return id, nil
}

func (r *Requests) handleGetRequest(w http.ResponseWriter, req *http.Request) error {
	id, err := parseID(req)
	if err != nil {
		return err
	}
	s, err := r.summary(id)
	if err != nil {
		return err
	}
	if s == nil {
		return utils.NotFound(errors.Errorf("request %d", id))
	}
	return utils.WriteJSON(w, s)
}

func (r *Requests) handleGetOutcome(w http.ResponseWriter, req *http.Request) error {
	id, err := parseID(req)
	if err != nil {
		return err
	}
	var out outcome.Outcome
	if err := r.viewer.View(func(o *oracle.Oracle) (err error) {
		out, err = o.Outcome(id)
		return
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, utils.M{"id": id, "outcome": out})
}

func (r *Requests) handleGetConfig(w http.ResponseWriter, _ *http.Request) error {
	var (
		cfg *params.Config
		id  uint64
	)
	if err := r.viewer.View(func(o *oracle.Oracle) (err error) {
		cfg, id, err = o.Config()
		return
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, utils.M{"id": id, "config": cfg})
}

func (r *Requests) handleGetConfigByID(w http.ResponseWriter, req *http.Request) error {
	id, err := parseID(req)
	if err != nil {
		return err
	}
	var cfg *params.Config
	if err := r.viewer.View(func(o *oracle.Oracle) error {
		_, current, err := o.Config()
		if err != nil {
			return err
		}
		if id > current {
			return utils.NotFound(errors.Errorf("config %d", id))
		}
		cfg, err = o.ConfigByID(id)
		return err
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, utils.M{"id": id, "config": cfg})
}

func (r *Requests) handleGetWhitelist(w http.ResponseWriter, req *http.Request) error {
	account, err := flux.ParseAccountID(mux.Vars(req)["account"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "account"))
	}
	var (
		listed    bool
		requester *whitelist.Requester
	)
	if err := r.viewer.View(func(o *oracle.Oracle) (err error) {
		if listed, err = o.WhitelistContains(account); err != nil || !listed {
			return err
		}
		requester, err = o.Requester(account)
		return
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, utils.M{"whitelisted": listed, "requester": requester})
}

func (r *Requests) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/requests").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(r.handleGetRequests))
	sub.Path("/requests/latest").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(r.handleGetLatest))
	sub.Path("/requests/{id:[0-9]+}").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(r.handleGetRequest))
	sub.Path("/requests/{id:[0-9]+}/outcome").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(r.handleGetOutcome))
	sub.Path("/config").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(r.handleGetConfig))
	sub.Path("/config/{id:[0-9]+}").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(r.handleGetConfigByID))
	sub.Path("/whitelist/{account}").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(r.handleGetWhitelist))
}
