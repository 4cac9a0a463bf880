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

// Summary is the JSON view of a request, keyed by its lifecycle state.
type Summary struct {
	Active    *ActiveSummary    `json:"Active,omitempty"`
	Finalized *FinalizedSummary `json:"Finalized,omitempty"`
}

type ConfigSummary struct {
	ValidityBond      *uint256.Int `json:"validity_bond"`
	PaidFee           *uint256.Int `json:"paid_fee"`
	StakeMultiplier   *uint16      `json:"stake_multiplier"`
	MinResolutionBond *uint256.Int `json:"min_resolution_bond"`
}

type ActiveSummary struct {
	ID                       uint64               `json:"id"`
	Description              *string              `json:"description"`
	Sources                  []Source             `json:"sources"`
	Outcomes                 []string             `json:"outcomes"`
	Requester                *whitelist.Requester `json:"requester"`
	ResolutionWindows        []*window.Summary    `json:"resolution_windows"`
	GlobalConfigID           uint64               `json:"global_config_id"`
	InitialChallengePeriod   uint64               `json:"initial_challenge_period"`
	FinalArbitratorTriggered bool                 `json:"final_arbitrator_triggered"`
	Tags                     []string             `json:"tags"`
	DataType                 outcome.DataType     `json:"data_type"`
	Provider                 flux.AccountID       `json:"provider,omitempty"`
	RequestConfig            ConfigSummary        `json:"request_config"`
}

type FinalizedSummary struct {
	ID                uint64            `json:"id"`
	FinalizedOutcome  outcome.Outcome   `json:"finalized_outcome"`
	ResolutionWindows []*window.Summary `json:"resolution_windows"`
	GlobalConfigID    uint64            `json:"global_config_id"`
	PaidFee           *uint256.Int      `json:"paid_fee"`
	ValidityBond      *uint256.Int      `json:"validity_bond"`
	Requester         flux.AccountID    `json:"requester"`
}

func summarizeWindows(windows []*window.Window) []*window.Summary {
	out := make([]*window.Summary, 0, len(windows))
	for _, w := range windows {
		out = append(out, w.Summarize())
	}
	return out
}

func (a *Active) Summarize() *ActiveSummary {
	s := &ActiveSummary{
		ID:                       a.ID,
		Sources:                  a.Sources,
		Requester:                a.Requester,
		ResolutionWindows:        summarizeWindows(a.Windows),
		GlobalConfigID:           a.ConfigID,
		InitialChallengePeriod:   a.InitialChallengePeriod,
		FinalArbitratorTriggered: a.FinalArbitratorTriggered,
		Tags:                     a.Tags,
		DataType:                 a.DataType,
		Provider:                 a.Provider,
		RequestConfig: ConfigSummary{
			ValidityBond:      a.Config.ValidityBond,
			PaidFee:           a.Config.PaidFee,
			StakeMultiplier:   a.Config.StakeMultiplier,
			MinResolutionBond: a.Config.MinResolutionBond,
		},
	}
	if a.Description != "" {
		description := a.Description
		s.Description = &description
	}
	if len(a.Outcomes) > 0 {
		s.Outcomes = a.Outcomes
	}
	return s
}

func (f *Finalized) Summarize() *FinalizedSummary {
	return &FinalizedSummary{
		ID:                f.ID,
		FinalizedOutcome:  f.FinalizedOutcome,
		ResolutionWindows: summarizeWindows(f.Windows),
		GlobalConfigID:    f.ConfigID,
		PaidFee:           f.PaidFee,
		ValidityBond:      f.ValidityBond,
		Requester:         f.Requester,
	}
}
