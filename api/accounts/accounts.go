// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package accounts

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/fluxprotocol/oracle/api/utils"
	"github.com/fluxprotocol/oracle/flux"
	"github.com/fluxprotocol/oracle/ledger"
)

// TransferCall is the body of a token transfer to the oracle. Msg is the hook
// message, such as {"StakeDataRequest":{"id":0,"outcome":{"Answer":{"String":"yes"}}}}.
type TransferCall struct {
	Amount *uint256.Int `json:"amount"`
	Msg    string       `json:"msg"`
}

type Mint struct {
	Amount *uint256.Int `json:"amount"`
}

// Accounts serves the dev ledger. Writes are only mounted in solo mode.
type Accounts struct {
	ledger   *ledger.Ledger
	oracle   flux.AccountID
	receiver ledger.Receiver
	solo     bool
}

func New(l *ledger.Ledger, oracle flux.AccountID, receiver ledger.Receiver, solo bool) *Accounts {
	return &Accounts{
		l,
		oracle,
		receiver,
		solo,
	}
}

func vars(req *http.Request) (token, account flux.AccountID, err error) {
	v := mux.Vars(req)
	if token, err = flux.ParseAccountID(v["token"]); err != nil {
		return "", "", utils.BadRequest(errors.WithMessage(err, "token"))
	}
	if account, err = flux.ParseAccountID(v["account"]); err != nil {
		return "", "", utils.BadRequest(errors.WithMessage(err, "account"))
	}
	return
}

func ledgerError(err error) error {
	if errors.Is(err, ledger.ErrInsufficientBalance) {
		return utils.BadRequest(err)
	}
	return err
}

func (a *Accounts) handleGetBalance(w http.ResponseWriter, req *http.Request) error {
	token, account, err := vars(req)
	if err != nil {
		return err
	}
	b, err := a.ledger.BalanceOf(token, account)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, utils.M{"token": token, "account": account, "balance": b})
}

func (a *Accounts) handleTransferCall(w http.ResponseWriter, req *http.Request) error {
	token, account, err := vars(req)
	if err != nil {
		return err
	}
	var body TransferCall
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	if body.Amount == nil || body.Amount.IsZero() {
		return utils.BadRequest(errors.New("amount: must be positive"))
	}
	used, err := a.ledger.TransferCall(req.Context(), token, account, a.oracle, body.Amount, body.Msg, a.receiver)
	if err != nil {
		return ledgerError(err)
	}
	return utils.WriteJSON(w, utils.M{"used": used})
}

func (a *Accounts) handleMint(w http.ResponseWriter, req *http.Request) error {
	token, account, err := vars(req)
	if err != nil {
		return err
	}
	var body Mint
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	if body.Amount == nil {
		return utils.BadRequest(errors.New("amount: required"))
	}
	if err := a.ledger.Mint(token, account, body.Amount); err != nil {
		return err
	}
	return a.handleGetBalance(w, req)
}

func (a *Accounts) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/{token}/{account}").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(a.handleGetBalance))
	if a.solo {
		sub.Path("/{token}/{account}/transfer_call").Methods(http.MethodPost).HandlerFunc(utils.WrapHandlerFunc(a.handleTransferCall))
		sub.Path("/{token}/{account}/mint").Methods(http.MethodPost).HandlerFunc(utils.WrapHandlerFunc(a.handleMint))
	}
}
