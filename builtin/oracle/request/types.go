// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package request

import (
	"github.com/holiman/uint256"

	"github.com/fluxprotocol/oracle/builtin/oracle/outcome"
	"github.com/fluxprotocol/oracle/builtin/oracle/window"
	"github.com/fluxprotocol/oracle/builtin/whitelist"
	"github.com/fluxprotocol/oracle/flux"
)

const (
	MaxSources  = 8
	MaxTags     = 10
	MinOutcomes = 2
	// MaxChallengePeriodMultiplier bounds a request's challenge period relative to the default window.
	MaxChallengePeriodMultiplier = 3
)

// Source is a place resolvers are pointed at.
type Source struct {
	EndPoint   string `json:"end_point"`
	SourcePath string `json:"source_path"`
}

// NewArgs is the payload of a new data request.
type NewArgs struct {
	Sources         []Source         `json:"sources"`
	Outcomes        []string         `json:"outcomes"`
	ChallengePeriod uint64           `json:"challenge_period"`
	Description     *string          `json:"description"`
	Tags            []string         `json:"tags"`
	DataType        outcome.DataType `json:"data_type"`
	Provider        flux.AccountID   `json:"provider,omitempty"`
}

// StakeArgs is the payload of a stake.
type StakeArgs struct {
	ID      uint64          `json:"id"`
	Outcome outcome.Outcome `json:"outcome"`
}

// Config holds the economic settings pinned at creation.
type Config struct {
	DefaultChallengeWindowDuration uint64
	FinalArbitratorInvokeAmount    *uint256.Int
	FinalArbitrator                flux.AccountID
	ValidityBond                   *uint256.Int
	StakeMultiplier                *uint16 `rlp:"nil"`
	PaidFee                        *uint256.Int
	MinResolutionBond              *uint256.Int
}

// Active is a request still being resolved.
type Active struct {
	ID                       uint64
	Description              string
	Sources                  []Source
	Outcomes                 []string
	Requester                *whitelist.Requester
	Windows                  []*window.Window
	ConfigID                 uint64
	Config                   Config
	InitialChallengePeriod   uint64
	FinalArbitratorTriggered bool
	Tags                     []string
	DataType                 outcome.DataType
	Provider                 flux.AccountID
}

// Finalized is a resolved request. It only serves claims and unstakes.
type Finalized struct {
	ID               uint64
	FinalizedOutcome outcome.Outcome
	Windows          []*window.Window
	ConfigID         uint64
	PaidFee          *uint256.Int
	ValidityBond     *uint256.Int
	Requester        flux.AccountID
}

// Record is the stored form of a request, exactly one of the fields is set.
type Record struct {
	Active    *Active    `rlp:"nil"`
	Finalized *Finalized `rlp:"nil"`
}

func (r *Record) ID() uint64 {
	if r.Active != nil {
		return r.Active.ID
	}
	return r.Finalized.ID
}

func (r *Record) Windows() []*window.Window {
	if r.Active != nil {
		return r.Active.Windows
	}
	return r.Finalized.Windows
}

func (r *Record) ConfigID() uint64 {
	if r.Active != nil {
		return r.Active.ConfigID
	}
	return r.Finalized.ConfigID
}

func (r *Record) Summarize() *Summary {
	if r.Active != nil {
		return &Summary{Active: r.Active.Summarize()}
	}
	return &Summary{Finalized: r.Finalized.Summarize()}
}
