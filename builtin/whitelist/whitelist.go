// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package whitelist keeps the accounts allowed to create data requests and their fee settings.
package whitelist

import (
	"github.com/holiman/uint256"

	"github.com/fluxprotocol/oracle/builtin/reverts"
	"github.com/fluxprotocol/oracle/builtin/solidity"
	"github.com/fluxprotocol/oracle/flux"
)

var (
	slotEnabled    = flux.BytesToBytes32([]byte("whitelist"))
	slotRequesters = flux.BytesToBytes32([]byte("requesters"))
)

// Requester is a whitelisted account and its settings.
type Requester struct {
	AccountID       flux.AccountID `json:"account_id"`
	ContractName    string         `json:"contract_name"`
	StakeMultiplier *uint16        `json:"stake_multiplier" rlp:"nil"`
	CodeBaseURL     string         `json:"code_base_url"`
	FixedFee        *uint256.Int   `json:"fixed_fee"`
}

// FeeParameters decide how a requester's payment is split and how its bond is sized.
type FeeParameters struct {
	// StakeMultiplier in basis points, nil means the default.
	StakeMultiplier *uint16
	// FixedFee caps the fee taken from a payment, nil takes everything above the validity bond.
	FixedFee *uint256.Int
}

// Default is the requester record used for any account while the whitelist is disabled.
func Default(account flux.AccountID) *Requester {
	return &Requester{AccountID: account}
}

// Whitelist binder of the whitelist storage.
// A disabled whitelist allows everyone.
type Whitelist struct {
	enabled    *solidity.Raw[bool]
	requesters *solidity.Mapping[flux.AccountID, *Requester]
}

func New(ctx *solidity.Context) *Whitelist {
	return &Whitelist{
		enabled:    solidity.NewRaw[bool](ctx, slotEnabled),
		requesters: solidity.NewMapping[flux.AccountID, *Requester](ctx, slotRequesters),
	}
}

func (w *Whitelist) Enabled() (bool, error) {
	return w.enabled.Get()
}

// Init enables the whitelist with the given entries. A nil slice leaves it disabled.
func (w *Whitelist) Init(initial []*Requester) error {
	if initial == nil {
		return nil
	}
	if err := w.enabled.Set(true); err != nil {
		return err
	}
	for _, r := range initial {
		if err := validate(r); err != nil {
			return err
		}
		if err := w.requesters.Set(r.AccountID, r); err != nil {
			return err
		}
	}
	return nil
}

func validate(r *Requester) error {
	if r.StakeMultiplier != nil && *r.StakeMultiplier == 0 {
		return reverts.NewValidation("stake multiplier can't be 0")
	}
	if r.FixedFee != nil && r.FixedFee.IsZero() {
		return reverts.NewValidation("fixed fee can't be 0")
	}
	return nil
}

// Add inserts or replaces a requester, enabling the whitelist if needed.
func (w *Whitelist) Add(r *Requester) error {
	if err := validate(r); err != nil {
		return err
	}
	if err := w.enabled.Set(true); err != nil {
		return err
	}
	return w.requesters.Set(r.AccountID, r)
}

func (w *Whitelist) Remove(account flux.AccountID) error {
	enabled, err := w.enabled.Get()
	if err != nil {
		return err
	}
	if !enabled {
		return reverts.NewState("Uninitiated whitelist")
	}
	w.requesters.Delete(account)
	return nil
}

// Contains reports whether account is listed. A disabled whitelist contains nobody.
func (w *Whitelist) Contains(account flux.AccountID) (bool, error) {
	enabled, err := w.enabled.Get()
	if err != nil || !enabled {
		return false, err
	}
	return w.requesters.Exists(account)
}

// AssertWhitelisted fails if the whitelist is enabled and account is not on it.
func (w *Whitelist) AssertWhitelisted(account flux.AccountID) error {
	enabled, err := w.enabled.Get()
	if err != nil || !enabled {
		return err
	}
	ok, err := w.requesters.Exists(account)
	if err != nil {
		return err
	}
	if !ok {
		return reverts.NewAuthorization("Err predecessor is not whitelisted")
	}
	return nil
}

// Get returns the requester record for account.
func (w *Whitelist) Get(account flux.AccountID) (*Requester, error) {
	enabled, err := w.enabled.Get()
	if err != nil {
		return nil, err
	}
	if !enabled {
		return Default(account), nil
	}
	r, err := w.requesters.Get(account)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, reverts.NewAuthorization("requester not whitelisted")
	}
	return r, nil
}

// FeeParameters returns the fee settings of account.
func (w *Whitelist) FeeParameters(account flux.AccountID) (FeeParameters, error) {
	r, err := w.Get(account)
	if err != nil {
		return FeeParameters{}, err
	}
	fp := FeeParameters{StakeMultiplier: r.StakeMultiplier}
	// a stored zero fee means none was set
	if r.FixedFee != nil && !r.FixedFee.IsZero() {
		fp.FixedFee = r.FixedFee
	}
	return fp, nil
}
