// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package calls

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/fluxprotocol/oracle/api/utils"
	"github.com/fluxprotocol/oracle/flux"
	"github.com/fluxprotocol/oracle/runtime"
)

// Call is the body of an inbound operation. Caller is taken as given, so the
// route must sit behind a relay that authenticated it. Calls moving tokens are
// not accepted here, they come in through the token transfer hook.
type Call struct {
	Caller flux.AccountID  `json:"caller"`
	Args   json.RawMessage `json:"args"`
}

type Invoker interface {
	Invoke(name string, caller flux.AccountID, raw json.RawMessage) (*runtime.Result, error)
}

type Calls struct {
	invoker Invoker
	onCall  func()
}

// New returns the calls API. onCall, if not nil, runs after every committed call.
func New(invoker Invoker, onCall func()) *Calls {
	return &Calls{invoker, onCall}
}

func (c *Calls) handleGetMethods(w http.ResponseWriter, _ *http.Request) error {
	return utils.WriteJSON(w, runtime.Methods())
}

func (c *Calls) handleCall(w http.ResponseWriter, req *http.Request) error {
	var call Call
	if err := utils.ParseJSON(req.Body, &call); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	if call.Caller == "" {
		return utils.BadRequest(errors.New("caller: required"))
	}
	method := mux.Vars(req)["method"]
	res, err := c.invoker.Invoke(method, call.Caller, call.Args)
	if err != nil {
		if errors.Is(err, runtime.ErrUnknownMethod) {
			return utils.NotFound(err)
		}
		return err
	}
	if c.onCall != nil {
		c.onCall()
	}
	return utils.WriteJSON(w, res)
}

func (c *Calls) Mount(root *mux.Router, pathPrefix string, mws ...mux.MiddlewareFunc) {
	sub := root.PathPrefix(pathPrefix).Subrouter()
	sub.Use(mws...)

	sub.Path("").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(c.handleGetMethods))
	sub.Path("/{method}").Methods(http.MethodPost).HandlerFunc(utils.WrapHandlerFunc(c.handleCall))
}
