// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package runtime

import (
	"bytes"
	"encoding/json"
	"slices"

	"github.com/google/uuid"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/fluxprotocol/oracle/builtin/oracle/outcome"
	"github.com/fluxprotocol/oracle/builtin/params"
	"github.com/fluxprotocol/oracle/builtin/reverts"
	"github.com/fluxprotocol/oracle/builtin/whitelist"
	"github.com/fluxprotocol/oracle/flux"
)

// ErrUnknownMethod is returned by Invoke for a name missing from the method table.
var ErrUnknownMethod = errors.New("unknown method")

// Result is the JSON answer of an invoked method.
type Result struct {
	Value      any         `json:"value,omitempty"`
	Deliveries []uuid.UUID `json:"deliveries,omitempty"`
}

type (
	unstakeArgs struct {
		RequestID uint64          `json:"request_id"`
		Round     uint16          `json:"resolution_round"`
		Outcome   outcome.Outcome `json:"outcome"`
		Amount    *uint256.Int    `json:"amount"`
	}
	claimArgs struct {
		AccountID flux.AccountID `json:"account_id"`
		RequestID uint64         `json:"request_id"`
	}
	requestIDArgs struct {
		RequestID uint64 `json:"request_id"`
	}
	finalizeArgs struct {
		RequestID uint64          `json:"request_id"`
		Outcome   outcome.Outcome `json:"outcome"`
	}
	accountArgs struct {
		AccountID flux.AccountID `json:"account_id"`
	}
	redeliverArgs struct {
		ID uuid.UUID `json:"id"`
	}
)

type method func(r *Runtime, caller flux.AccountID, raw json.RawMessage) (*Result, error)

func decode[T any](raw json.RawMessage) (*T, error) {
	var v T
	if len(bytes.TrimSpace(raw)) == 0 {
		raw = json.RawMessage("{}")
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil {
		return nil, reverts.NewValidation("invalid arguments: %v", err)
	}
	return &v, nil
}

func requireAmount(amount *uint256.Int) error {
	if amount == nil {
		return reverts.NewValidation("invalid arguments: amount is required")
	}
	return nil
}

// methods are the calls a caller makes directly. Requests and stakes move tokens,
// so they only arrive through OnTransfer from the paying token contract.
var methods = map[string]method{
	"dr_unstake": func(r *Runtime, caller flux.AccountID, raw json.RawMessage) (*Result, error) {
		a, err := decode[unstakeArgs](raw)
		if err != nil {
			return nil, err
		}
		if err := requireAmount(a.Amount); err != nil {
			return nil, err
		}
		ids, err := r.Unstake(caller, a.RequestID, a.Round, a.Outcome, a.Amount)
		return &Result{Deliveries: ids}, err
	},
	"dr_claim": func(r *Runtime, caller flux.AccountID, raw json.RawMessage) (*Result, error) {
		a, err := decode[claimArgs](raw)
		if err != nil {
			return nil, err
		}
		payout, err := r.Claim(caller, a.AccountID, a.RequestID)
		if err != nil {
			return nil, err
		}
		return &Result{Value: payout}, nil
	},
	"dr_finalize": func(r *Runtime, caller flux.AccountID, raw json.RawMessage) (*Result, error) {
		a, err := decode[requestIDArgs](raw)
		if err != nil {
			return nil, err
		}
		ids, err := r.Finalize(caller, a.RequestID)
		return &Result{Deliveries: ids}, err
	},
	"dr_finalize_by_provider": func(r *Runtime, caller flux.AccountID, raw json.RawMessage) (*Result, error) {
		a, err := decode[finalizeArgs](raw)
		if err != nil {
			return nil, err
		}
		ids, err := r.FinalizeByProvider(caller, a.RequestID, a.Outcome)
		return &Result{Deliveries: ids}, err
	},
	"dr_final_arbitrator_finalize": func(r *Runtime, caller flux.AccountID, raw json.RawMessage) (*Result, error) {
		a, err := decode[finalizeArgs](raw)
		if err != nil {
			return nil, err
		}
		ids, err := r.FinalArbitratorFinalize(caller, a.RequestID, a.Outcome)
		return &Result{Deliveries: ids}, err
	},
	"set_config": func(r *Runtime, caller flux.AccountID, raw json.RawMessage) (*Result, error) {
		cfg, err := decode[params.Config](raw)
		if err != nil {
			return nil, err
		}
		id, err := r.SetConfig(caller, cfg)
		if err != nil {
			return nil, err
		}
		return &Result{Value: map[string]any{"id": id}}, nil
	},
	"toggle_pause": func(r *Runtime, caller flux.AccountID, _ json.RawMessage) (*Result, error) {
		paused, err := r.TogglePause(caller)
		if err != nil {
			return nil, err
		}
		return &Result{Value: map[string]any{"paused": paused}}, nil
	},
	"add_to_whitelist": func(r *Runtime, caller flux.AccountID, raw json.RawMessage) (*Result, error) {
		requester, err := decode[whitelist.Requester](raw)
		if err != nil {
			return nil, err
		}
		return &Result{}, r.AddToWhitelist(caller, requester)
	},
	"remove_from_whitelist": func(r *Runtime, caller flux.AccountID, raw json.RawMessage) (*Result, error) {
		a, err := decode[accountArgs](raw)
		if err != nil {
			return nil, err
		}
		return &Result{}, r.RemoveFromWhitelist(caller, a.AccountID)
	},
	"redeliver": func(r *Runtime, caller flux.AccountID, raw json.RawMessage) (*Result, error) {
		a, err := decode[redeliverArgs](raw)
		if err != nil {
			return nil, err
		}
		return &Result{}, r.Redeliver(caller, a.ID)
	},
}

// Methods lists the names accepted by Invoke.
func Methods() []string {
	names := make([]string, 0, len(methods))
	for name := range methods {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Invoke calls a method by name with JSON arguments.
func (r *Runtime) Invoke(name string, caller flux.AccountID, raw json.RawMessage) (*Result, error) {
	m, ok := methods[name]
	if !ok {
		return nil, errors.Wrap(ErrUnknownMethod, name)
	}
	res, err := m(r, caller, raw)
	if err != nil {
		return nil, err
	}
	return res, nil
}
