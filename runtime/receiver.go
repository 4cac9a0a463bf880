// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package runtime

import (
	"context"
	"encoding/json"

	"github.com/holiman/uint256"

	"github.com/fluxprotocol/oracle/builtin/oracle/request"
	"github.com/fluxprotocol/oracle/builtin/reverts"
	"github.com/fluxprotocol/oracle/flux"
)

// transferMsg is the message of a token transfer into the oracle. Exactly one field is set.
type transferMsg struct {
	NewDataRequest   *request.NewArgs   `json:"NewDataRequest"`
	StakeDataRequest *request.StakeArgs `json:"StakeDataRequest"`
}

// OnTransfer handles a token transfer call into the oracle account: token is the
// calling token contract and sender the account that paid. It returns the
// amount to refund.
func (r *Runtime) OnTransfer(_ context.Context, token, sender flux.AccountID, amount *uint256.Int, msg string) (*uint256.Int, error) {
	var m transferMsg
	if err := json.Unmarshal([]byte(msg), &m); err != nil {
		return nil, reverts.NewValidation("ERR_INVALID_MSG: %v", err)
	}
	switch {
	case m.NewDataRequest != nil && m.StakeDataRequest == nil:
		_, change, err := r.NewDataRequest(token, sender, amount, m.NewDataRequest)
		return change, err
	case m.StakeDataRequest != nil && m.NewDataRequest == nil:
		return r.Stake(token, sender, amount, m.StakeDataRequest)
	default:
		return nil, reverts.NewValidation("ERR_INVALID_MSG: expected one of NewDataRequest, StakeDataRequest")
	}
}
