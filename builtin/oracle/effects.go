// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package oracle

import (
	"github.com/holiman/uint256"

	"github.com/fluxprotocol/oracle/builtin/oracle/outcome"
	"github.com/fluxprotocol/oracle/flux"
)

// Transfer moves Amount of Token from the oracle account to To.
type Transfer struct {
	Token  flux.AccountID `json:"token"`
	To     flux.AccountID `json:"to"`
	Amount *uint256.Int   `json:"amount"`
}

// Notification tells a requester the outcome of its request.
type Notification struct {
	RequestID       uint64          `json:"request_id"`
	Requester       flux.AccountID  `json:"requester"`
	Outcome         outcome.Outcome `json:"outcome"`
	Tags            []string        `json:"tags"`
	FinalArbitrator bool            `json:"final_arbitrator"`
}

// Effect is an outbound call issued after the state of a call is committed.
// Transfers of one effect are chained: a failure stops the rest.
type Effect struct {
	Transfers    []*Transfer   `json:"transfers,omitempty"`
	Notification *Notification `json:"notification,omitempty"`
}

func transferEffect(transfers ...*Transfer) *Effect {
	return &Effect{Transfers: transfers}
}
