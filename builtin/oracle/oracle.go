// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package oracle is the registry of data requests: it authorizes and routes the
// inbound operations and produces the outbound effects of each call.
package oracle

import (
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/fluxprotocol/oracle/builtin/oracle/fees"
	"github.com/fluxprotocol/oracle/builtin/oracle/outcome"
	"github.com/fluxprotocol/oracle/builtin/oracle/request"
	"github.com/fluxprotocol/oracle/builtin/oracle/window"
	"github.com/fluxprotocol/oracle/builtin/params"
	"github.com/fluxprotocol/oracle/builtin/reverts"
	"github.com/fluxprotocol/oracle/builtin/solidity"
	"github.com/fluxprotocol/oracle/builtin/whitelist"
	"github.com/fluxprotocol/oracle/flux"
	"github.com/fluxprotocol/oracle/log"
	"github.com/fluxprotocol/oracle/state"
)

var (
	logger       = log.WithContext("pkg", "oracle")
	slotRequests = flux.BytesToBytes32([]byte("requests"))
)

// Env is the host context of a call.
type Env struct {
	// Caller is the account invoking the operation.
	Caller flux.AccountID
	// Now is the host timestamp.
	Now uint64
}

// Oracle binds the oracle contract storage of one state.
type Oracle struct {
	addr      flux.AccountID
	params    *params.Params
	whitelist *whitelist.Whitelist
	requests  *solidity.Array[*request.Record]
	stakes    *window.Stakes
}

func New(addr flux.AccountID, st *state.State) *Oracle {
	ctx := solidity.NewContext(addr, st)
	return &Oracle{
		addr:      addr,
		params:    params.New(ctx),
		whitelist: whitelist.New(ctx),
		requests:  solidity.NewArray[*request.Record](ctx, slotRequests),
		stakes:    window.NewStakes(ctx),
	}
}

// Address is the oracle's own account, the holder of all escrowed funds.
func (o *Oracle) Address() flux.AccountID {
	return o.addr
}

// Initialize stores the first config snapshot and the initial whitelist.
// A nil whitelist leaves creation open to everyone.
func (o *Oracle) Initialize(cfg *params.Config, initial []*whitelist.Requester) error {
	n, err := o.params.Len()
	if err != nil {
		return err
	}
	if n > 0 {
		return reverts.NewState("oracle is already initialized")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if _, err := o.params.Push(cfg); err != nil {
		return err
	}
	if err := o.whitelist.Init(initial); err != nil {
		return err
	}
	logger.Info("oracle initialized", "gov", cfg.Gov, "validity_bond", cfg.ValidityBond, "whitelist", initial != nil)
	return nil
}

func (o *Oracle) assertSender(env *Env, token flux.AccountID) error {
	if env.Caller != token {
		return reverts.NewAuthorization("This function can only be called by %s", token)
	}
	return nil
}

func (o *Oracle) get(id uint64) (*request.Record, error) {
	rec, ok, err := o.requests.Get(id)
	if err != nil {
		return nil, errors.Wrap(err, "get request")
	}
	if !ok {
		return nil, nil
	}
	return rec, nil
}

func (o *Oracle) getExpect(id uint64) (*request.Record, error) {
	rec, err := o.get(id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, reverts.NewState("ERR_DATA_REQUEST_NOT_FOUND")
	}
	return rec, nil
}

func (o *Oracle) getExpectActive(id uint64) (*request.Active, error) {
	rec, err := o.get(id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, reverts.NewState("Error no DataRequest with this id exists")
	}
	if rec.Active == nil {
		return nil, reverts.NewState("Error DataRequest is already finalized")
	}
	return rec.Active, nil
}

func (o *Oracle) getExpectFinalized(id uint64) (*request.Finalized, error) {
	rec, err := o.get(id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, reverts.NewState("Error no DataRequest with this id exists")
	}
	if rec.Finalized == nil {
		return nil, reverts.NewState("Error DataRequest is not yet finalized")
	}
	return rec.Finalized, nil
}

func (o *Oracle) save(rec *request.Record) error {
	return errors.Wrap(o.requests.Set(rec.ID(), rec), "save request")
}

// NewDataRequest creates a request paid by sender through the payment token.
// It returns the new id and the part of amount that is not kept.
func (o *Oracle) NewDataRequest(env *Env, sender flux.AccountID, amount *uint256.Int, args *request.NewArgs) (uint64, *uint256.Int, error) {
	if err := o.params.AssertUnpaused(); err != nil {
		return 0, nil, err
	}
	cfg, cfgID, err := o.params.Current()
	if err != nil {
		return 0, nil, err
	}
	if err := o.whitelist.AssertWhitelisted(sender); err != nil {
		return 0, nil, err
	}
	if err := o.assertSender(env, cfg.PaymentToken); err != nil {
		return 0, nil, err
	}
	if amount.Lt(cfg.ValidityBond) {
		return 0, nil, reverts.NewValidation("Validity bond of %s not reached, received only %s", cfg.ValidityBond.Dec(), amount.Dec())
	}
	if err := request.Validate(args, cfg); err != nil {
		return 0, nil, err
	}

	requester, err := o.whitelist.Get(sender)
	if err != nil {
		return 0, nil, err
	}
	fp, err := o.whitelist.FeeParameters(sender)
	if err != nil {
		return 0, nil, err
	}
	paidFee := new(uint256.Int).Sub(amount, cfg.ValidityBond)
	change := new(uint256.Int)
	if fp.FixedFee != nil && paidFee.Gt(fp.FixedFee) {
		change.Sub(paidFee, fp.FixedFee)
		paidFee = fp.FixedFee.Clone()
	}

	id, err := o.requests.Len()
	if err != nil {
		return 0, nil, err
	}
	dr := request.NewActive(requester, id, cfgID, cfg, paidFee, args)
	// a request nobody can stake on would never finalize
	if _, err := dr.ResolutionBond(); err != nil {
		return 0, nil, err
	}
	if _, err := o.requests.Push(&request.Record{Active: dr}); err != nil {
		return 0, nil, errors.Wrap(err, "push request")
	}
	logger.Info("new data request", "id", id, "requester", sender, "paid_fee", paidFee, "config", cfgID)
	return id, change, nil
}

// Stake stakes amount of the stake token on behalf of sender. It returns the unspent amount.
func (o *Oracle) Stake(env *Env, sender flux.AccountID, amount *uint256.Int, args *request.StakeArgs) (*uint256.Int, error) {
	if err := o.params.AssertUnpaused(); err != nil {
		return nil, err
	}
	dr, err := o.getExpectActive(args.ID)
	if err != nil {
		return nil, err
	}
	cfg, err := o.params.Get(dr.ConfigID)
	if err != nil {
		return nil, err
	}
	if err := o.assertSender(env, cfg.StakeToken); err != nil {
		return nil, err
	}
	if err := dr.AssertFinalArbitratorNotInvoked(); err != nil {
		return nil, err
	}
	if err := dr.AssertCanStakeOnOutcome(args.Outcome); err != nil {
		return nil, err
	}
	if err := dr.AssertValidOutcome(args.Outcome); err != nil {
		return nil, err
	}
	if err := dr.AssertValidOutcomeType(args.Outcome); err != nil {
		return nil, err
	}

	unspent, err := dr.Stake(o.stakes, sender, args.Outcome, amount, env.Now)
	if err != nil {
		return nil, err
	}
	if err := o.save(&request.Record{Active: dr}); err != nil {
		return nil, err
	}
	return unspent, nil
}

// Unstake withdraws the caller's stake from a round and refunds it in the stake token.
// It works in any lifecycle state.
func (o *Oracle) Unstake(env *Env, id uint64, round uint16, out outcome.Outcome, amount *uint256.Int) ([]*Effect, error) {
	if err := o.params.AssertUnpaused(); err != nil {
		return nil, err
	}
	rec, err := o.getExpect(id)
	if err != nil {
		return nil, err
	}
	windows := rec.Windows()
	if int(round) >= len(windows) {
		return nil, reverts.NewState("ERR_NO_RESOLUTION_WINDOW")
	}
	unstaked, err := windows[round].Unstake(o.stakes, env.Caller, out, amount)
	if err != nil {
		return nil, err
	}
	cfg, err := o.params.Get(rec.ConfigID())
	if err != nil {
		return nil, err
	}
	if unstaked.IsZero() {
		return nil, nil
	}
	return []*Effect{transferEffect(&Transfer{Token: cfg.StakeToken, To: env.Caller, Amount: unstaked})}, nil
}

// Claim pays out account's share of a finalized request: the stake token first,
// then the payment token.
func (o *Oracle) Claim(env *Env, account flux.AccountID, id uint64) (*fees.Payout, []*Effect, error) {
	if err := o.params.AssertUnpaused(); err != nil {
		return nil, nil, err
	}
	dr, err := o.getExpectFinalized(id)
	if err != nil {
		return nil, nil, err
	}
	payout, err := dr.Claim(o.stakes, account)
	if err != nil {
		return nil, nil, err
	}
	if payout.IsZero() {
		return nil, nil, reverts.NewState("can't claim 0")
	}
	cfg, err := o.params.Get(dr.ConfigID)
	if err != nil {
		return nil, nil, err
	}

	var transfers []*Transfer
	if !payout.Stake.IsZero() {
		transfers = append(transfers, &Transfer{Token: cfg.StakeToken, To: account, Amount: payout.Stake})
	}
	if !payout.Fee.IsZero() {
		transfers = append(transfers, &Transfer{Token: cfg.PaymentToken, To: account, Amount: payout.Fee})
	}
	logger.Info("claimed", "request", id, "account", account, "stake", payout.Stake, "fee", payout.Fee)
	return payout, []*Effect{transferEffect(transfers...)}, nil
}

// Finalize settles a request on the outcome of its last bonded round once the
// trailing round timed out.
func (o *Oracle) Finalize(env *Env, id uint64) ([]*Effect, error) {
	if err := o.params.AssertUnpaused(); err != nil {
		return nil, err
	}
	dr, err := o.getExpectActive(id)
	if err != nil {
		return nil, err
	}
	if err := dr.AssertCanFinalize(env.Now); err != nil {
		return nil, err
	}
	final, err := dr.FinalOutcome()
	if err != nil {
		return nil, err
	}
	return o.finalize(dr, final, false)
}

// FinalizeByProvider lets the provider of a provider request settle it directly.
func (o *Oracle) FinalizeByProvider(env *Env, id uint64, out outcome.Outcome) ([]*Effect, error) {
	if err := o.params.AssertUnpaused(); err != nil {
		return nil, err
	}
	dr, err := o.getExpectActive(id)
	if err != nil {
		return nil, err
	}
	if err := dr.AssertValidOutcome(out); err != nil {
		return nil, err
	}
	if err := dr.AssertValidOutcomeType(out); err != nil {
		return nil, err
	}
	if err := dr.AssertProvider(env.Caller); err != nil {
		return nil, err
	}
	return o.finalize(dr, out, false)
}

// FinalArbitratorFinalize lets the final arbitrator settle an escalated request.
func (o *Oracle) FinalArbitratorFinalize(env *Env, id uint64, out outcome.Outcome) ([]*Effect, error) {
	if err := o.params.AssertUnpaused(); err != nil {
		return nil, err
	}
	dr, err := o.getExpectActive(id)
	if err != nil {
		return nil, err
	}
	if err := dr.AssertFinalArbitrator(env.Caller); err != nil {
		return nil, err
	}
	if err := dr.AssertValidOutcome(out); err != nil {
		return nil, err
	}
	if err := dr.AssertValidOutcomeType(out); err != nil {
		return nil, err
	}
	if err := dr.AssertFinalArbitratorInvoked(); err != nil {
		return nil, err
	}
	return o.finalize(dr, out, true)
}

func (o *Oracle) finalize(dr *request.Active, final outcome.Outcome, byArbitrator bool) ([]*Effect, error) {
	cfg, err := o.params.Get(dr.ConfigID)
	if err != nil {
		return nil, err
	}
	fdr := dr.Finalize(final)
	if err := o.save(&request.Record{Finalized: fdr}); err != nil {
		return nil, err
	}

	effects := []*Effect{{Notification: &Notification{
		RequestID:       dr.ID,
		Requester:       dr.Requester.AccountID,
		Outcome:         final,
		Tags:            dr.Tags,
		FinalArbitrator: byArbitrator,
	}}}
	if refund := fdr.ValidityBondRefund(); refund != nil {
		effects = append(effects, transferEffect(&Transfer{Token: cfg.PaymentToken, To: dr.Requester.AccountID, Amount: refund}))
	}
	return effects, nil
}
