// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package request implements the lifecycle of a data request: staking across
// escalating rounds, finalization and claims.
package request

import (
	"slices"

	"github.com/holiman/uint256"

	"github.com/fluxprotocol/oracle/builtin/oracle/fees"
	"github.com/fluxprotocol/oracle/builtin/oracle/outcome"
	"github.com/fluxprotocol/oracle/builtin/oracle/window"
	"github.com/fluxprotocol/oracle/builtin/params"
	"github.com/fluxprotocol/oracle/builtin/reverts"
	"github.com/fluxprotocol/oracle/builtin/whitelist"
	"github.com/fluxprotocol/oracle/flux"
	"github.com/fluxprotocol/oracle/log"
)

var logger = log.WithContext("pkg", "request")

// NewActive creates a request pinned to the config snapshot cfg.
func NewActive(requester *whitelist.Requester, id, configID uint64, cfg *params.Config, paidFee *uint256.Int, args *NewArgs) *Active {
	a := &Active{
		ID:        id,
		Sources:   args.Sources,
		Outcomes:  args.Outcomes,
		Requester: requester,
		ConfigID:  configID,
		Config: Config{
			DefaultChallengeWindowDuration: cfg.DefaultChallengeWindowDuration,
			FinalArbitratorInvokeAmount:    cfg.FinalArbitratorInvokeAmount.Clone(),
			FinalArbitrator:                cfg.FinalArbitrator,
			ValidityBond:                   cfg.ValidityBond.Clone(),
			StakeMultiplier:                requester.StakeMultiplier,
			PaidFee:                        paidFee.Clone(),
			MinResolutionBond:              cfg.MinResolutionBond.Clone(),
		},
		InitialChallengePeriod: args.ChallengePeriod,
		Tags:                   args.Tags,
		DataType:               args.DataType,
		Provider:               args.Provider,
	}
	if args.Description != nil {
		a.Description = *args.Description
	}
	return a
}

// ResolutionBond is the bond of the first round.
func (a *Active) ResolutionBond() (*uint256.Int, error) {
	return fees.ResolutionBond(a.Config.PaidFee, a.Config.ValidityBond, a.Config.MinResolutionBond, a.Config.StakeMultiplier)
}

// Stake routes amount to the open round, creating the first round on demand, and
// opens the next round once the current one bonds below the arbitration threshold.
// It returns the part of amount that did not fit in the round.
func (a *Active) Stake(s *window.Stakes, staker flux.AccountID, o outcome.Outcome, amount *uint256.Int, now uint64) (*uint256.Int, error) {
	var w *window.Window
	if len(a.Windows) == 0 {
		bond, err := a.ResolutionBond()
		if err != nil {
			return nil, err
		}
		w = window.New(a.ID, 0, bond, a.InitialChallengePeriod, now)
		a.Windows = append(a.Windows, w)
	} else {
		w = a.Windows[len(a.Windows)-1]
	}

	unspent, err := w.Stake(s, staker, o, amount)
	if err != nil {
		return nil, err
	}

	if w.IsBonded() && !a.invokeFinalArbitrator(w.BondSize) {
		// the round after the first one still gets the requester's challenge period
		duration := a.Config.DefaultChallengeWindowDuration
		if len(a.Windows) == 1 {
			duration = a.InitialChallengePeriod
		}
		bond, err := fees.Mul(w.BondSize, uint256.NewInt(2))
		if err != nil {
			return nil, err
		}
		a.Windows = append(a.Windows, window.New(a.ID, uint16(len(a.Windows)), bond, duration, now))
	}
	return unspent, nil
}

func (a *Active) invokeFinalArbitrator(bondSize *uint256.Int) bool {
	if !bondSize.Lt(a.Config.FinalArbitratorInvokeAmount) {
		a.FinalArbitratorTriggered = true
		logger.Info("final arbitrator invoked", "request", a.ID, "bond", bondSize)
	}
	return a.FinalArbitratorTriggered
}

// FinalOutcome is the bonded outcome of the last bonded round.
// Every round but the trailing open one must be bonded.
func (a *Active) FinalOutcome() (outcome.Outcome, error) {
	n := len(a.Windows)
	if n < 2 {
		return outcome.Outcome{}, reverts.NewState("No bonded outcome found or final arbitrator triggered after first round")
	}
	last, prev := a.Windows[n-1], a.Windows[n-2]
	if last.IsBonded() || !prev.IsBonded() {
		return outcome.Outcome{}, reverts.NewState("Error, no final outcome")
	}
	return *prev.BondedOutcome, nil
}

// AssertValidOutcome checks o against the allow-list, if any. Invalid is always allowed.
func (a *Active) AssertValidOutcome(o outcome.Outcome) error {
	if len(a.Outcomes) == 0 || o.IsInvalid() {
		return nil
	}
	text, ok := o.Text()
	if !ok {
		return reverts.NewValidation("ERR_OUTCOME_NOT_STRING")
	}
	if !slices.Contains(a.Outcomes, text) {
		return reverts.NewValidation("Incompatible outcome")
	}
	return nil
}

// AssertValidOutcomeType checks o against the request's data type.
func (a *Active) AssertValidOutcomeType(o outcome.Outcome) error {
	switch {
	case o.IsString():
		if a.DataType.IsNumber() {
			return reverts.NewValidation("ERR_WRONG_OUTCOME_TYPE")
		}
	case o.IsNumber():
		if !a.DataType.IsNumber() {
			return reverts.NewValidation("ERR_WRONG_OUTCOME_TYPE")
		}
		if !a.DataType.Multiplier().Eq(o.Multiplier()) {
			return reverts.NewValidation("ERR_WRONG_MULTIPLIER")
		}
	}
	return nil
}

// AssertCanStakeOnOutcome rejects the outcome that bonded the previous round.
func (a *Active) AssertCanStakeOnOutcome(o outcome.Outcome) error {
	if n := len(a.Windows); n > 1 {
		prev := a.Windows[n-2]
		if prev.IsBonded() && *prev.BondedOutcome == o {
			return reverts.NewState("Outcome is incompatible for this round")
		}
	}
	return nil
}

// AssertCanFinalize checks that the last round timed out without escalation to the arbitrator.
func (a *Active) AssertCanFinalize(now uint64) error {
	if len(a.Windows) == 0 {
		return reverts.NewState("Error no bonded outcome, `DataRequest` still in progress")
	}
	if a.FinalArbitratorTriggered {
		return reverts.NewState("Can only be finalized by final arbitrator: %s", a.Config.FinalArbitrator)
	}
	if now < a.Windows[len(a.Windows)-1].EndTime {
		return reverts.NewState("Error can only be finalized after final dispute round has timed out")
	}
	return nil
}

func (a *Active) AssertFinalArbitrator(caller flux.AccountID) error {
	if caller != a.Config.FinalArbitrator {
		return reverts.NewAuthorization("sender is not the final arbitrator of this `DataRequest`, the final arbitrator is: %s", a.Config.FinalArbitrator)
	}
	return nil
}

func (a *Active) AssertFinalArbitratorInvoked() error {
	if !a.FinalArbitratorTriggered {
		return reverts.NewState("Final arbitrator can not finalize `DataRequest` with id: %d", a.ID)
	}
	return nil
}

func (a *Active) AssertFinalArbitratorNotInvoked() error {
	if a.FinalArbitratorTriggered {
		return reverts.NewState("Final arbitrator is invoked for `DataRequest` with id: %d", a.ID)
	}
	return nil
}

// AssertProvider checks that caller is the provider of a provider request.
func (a *Active) AssertProvider(caller flux.AccountID) error {
	if a.Provider.IsZero() {
		return reverts.NewState("error this is not a provider data request")
	}
	if a.Provider != caller {
		return reverts.NewAuthorization("this request can only be finalized by the provider")
	}
	return nil
}

// Finalize turns the request into its finalized form.
func (a *Active) Finalize(final outcome.Outcome) *Finalized {
	logger.Info("request finalized", "request", a.ID, "outcome", final, "rounds", len(a.Windows))
	return &Finalized{
		ID:               a.ID,
		FinalizedOutcome: final,
		Windows:          a.Windows,
		ConfigID:         a.ConfigID,
		PaidFee:          a.Config.PaidFee.Clone(),
		ValidityBond:     a.Config.ValidityBond.Clone(),
		Requester:        a.Requester.AccountID,
	}
}
