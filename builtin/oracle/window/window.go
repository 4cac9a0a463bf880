// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package window implements a single escalation round of a data request.
package window

import (
	"github.com/holiman/uint256"

	"github.com/fluxprotocol/oracle/builtin/oracle/fees"
	"github.com/fluxprotocol/oracle/builtin/oracle/outcome"
	"github.com/fluxprotocol/oracle/builtin/reverts"
	"github.com/fluxprotocol/oracle/flux"
	"github.com/fluxprotocol/oracle/log"
)

var logger = log.WithContext("pkg", "window")

// Window is the header of one resolution round. Stake totals live in Stakes.
type Window struct {
	RequestID     uint64
	Round         uint16
	StartTime     uint64
	EndTime       uint64
	BondSize      *uint256.Int
	BondedOutcome *outcome.Outcome `rlp:"nil"`
}

// New opens a round that lasts challengePeriod from startTime.
func New(requestID uint64, round uint16, bondSize *uint256.Int, challengePeriod, startTime uint64) *Window {
	w := &Window{
		RequestID: requestID,
		Round:     round,
		StartTime: startTime,
		EndTime:   startTime + challengePeriod,
		BondSize:  bondSize.Clone(),
	}
	logger.Debug("new resolution window", "request", requestID, "round", round, "bond", bondSize, "end", w.EndTime)
	return w
}

// IsBonded reports whether an outcome filled this round.
func (w *Window) IsBonded() bool {
	return w.BondedOutcome != nil
}

// Stake adds up to the remaining room on o and returns what did not fit.
// The round becomes bonded when the outcome total reaches the bond size.
func (w *Window) Stake(s *Stakes, staker flux.AccountID, o outcome.Outcome, amount *uint256.Int) (*uint256.Int, error) {
	onOutcome, err := s.OutcomeStake(w.RequestID, w.Round, o)
	if err != nil {
		return nil, err
	}
	onUser, err := s.UserStake(w.RequestID, w.Round, staker, o)
	if err != nil {
		return nil, err
	}

	room, err := fees.Sub(w.BondSize, onOutcome)
	if err != nil {
		return nil, err
	}
	accepted := fees.Min(amount, room)
	unspent, err := fees.Sub(amount, accepted)
	if err != nil {
		return nil, err
	}

	newOnOutcome, err := fees.Add(onOutcome, accepted)
	if err != nil {
		return nil, err
	}
	newOnUser, err := fees.Add(onUser, accepted)
	if err != nil {
		return nil, err
	}
	if err := s.setOutcomeStake(w.RequestID, w.Round, o, newOnOutcome); err != nil {
		return nil, err
	}
	if err := s.setUserStake(w.RequestID, w.Round, staker, o, newOnUser); err != nil {
		return nil, err
	}

	logger.Debug("staked", "request", w.RequestID, "round", w.Round, "account", staker, "outcome", o, "amount", accepted, "unspent", unspent)

	if newOnOutcome.Eq(w.BondSize) {
		bonded := o
		w.BondedOutcome = &bonded
		logger.Debug("window bonded", "request", w.RequestID, "round", w.Round, "outcome", o)
	}
	return unspent, nil
}

// Unstake withdraws amount of staker's stake on o and returns it.
func (w *Window) Unstake(s *Stakes, staker flux.AccountID, o outcome.Outcome, amount *uint256.Int) (*uint256.Int, error) {
	if w.BondedOutcome != nil && *w.BondedOutcome == o {
		return nil, reverts.NewState("Cannot withdraw from bonded outcome")
	}
	onUser, err := s.UserStake(w.RequestID, w.Round, staker, o)
	if err != nil {
		return nil, err
	}
	if onUser.Lt(amount) {
		return nil, reverts.NewState("%s has less staked on this outcome (%s) than unstake amount", staker, onUser.Dec())
	}
	onOutcome, err := s.OutcomeStake(w.RequestID, w.Round, o)
	if err != nil {
		return nil, err
	}

	newOnOutcome, err := fees.Sub(onOutcome, amount)
	if err != nil {
		return nil, err
	}
	newOnUser, err := fees.Sub(onUser, amount)
	if err != nil {
		return nil, err
	}
	if err := s.setOutcomeStake(w.RequestID, w.Round, o, newOnOutcome); err != nil {
		return nil, err
	}
	if err := s.setUserStake(w.RequestID, w.Round, staker, o, newOnUser); err != nil {
		return nil, err
	}

	logger.Debug("unstaked", "request", w.RequestID, "round", w.Round, "account", staker, "outcome", o, "amount", amount)
	return amount.Clone(), nil
}

// ResultKind tells how a round counts towards a claim.
type ResultKind uint8

const (
	// NoResult is the trailing round that never bonded.
	NoResult ResultKind = iota
	// Correct rounds bonded on the final outcome.
	Correct
	// Incorrect rounds bonded on another outcome; their bond is shared by correct stakers.
	Incorrect
)

// Result is the contribution of one round to a claim.
type Result struct {
	Kind        ResultKind
	BondedStake *uint256.Int
	UserStake   *uint256.Int
}

// ClaimFor evaluates the round for account. On a correct round the user's stake is
// removed, so a second claim yields nothing.
func (w *Window) ClaimFor(s *Stakes, account flux.AccountID, final outcome.Outcome) (*Result, error) {
	if w.BondedOutcome == nil {
		return &Result{Kind: NoResult}, nil
	}
	if *w.BondedOutcome != final {
		return &Result{Kind: Incorrect, BondedStake: w.BondSize.Clone()}, nil
	}
	userStake, err := s.UserStake(w.RequestID, w.Round, account, final)
	if err != nil {
		return nil, err
	}
	if err := s.setUserStake(w.RequestID, w.Round, account, final, new(uint256.Int)); err != nil {
		return nil, err
	}
	return &Result{Kind: Correct, BondedStake: w.BondSize.Clone(), UserStake: userStake}, nil
}

// Summary is the read only view of a window.
type Summary struct {
	Round         uint16           `json:"round"`
	StartTime     uint64           `json:"start_time"`
	EndTime       uint64           `json:"end_time"`
	BondSize      *uint256.Int     `json:"bond_size"`
	BondedOutcome *outcome.Outcome `json:"bonded_outcome"`
}

func (w *Window) Summarize() *Summary {
	return &Summary{
		Round:         w.Round,
		StartTime:     w.StartTime,
		EndTime:       w.EndTime,
		BondSize:      w.BondSize.Clone(),
		BondedOutcome: w.BondedOutcome,
	}
}
