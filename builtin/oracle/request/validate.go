// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package request

import (
	"github.com/fluxprotocol/oracle/builtin/params"
	"github.com/fluxprotocol/oracle/builtin/reverts"
)

// Validate checks a new request payload against cfg. Rules are checked in a fixed
// order and the first failure is reported.
func Validate(args *NewArgs, cfg *params.Config) error {
	if args.Description == nil && len(args.Sources) == 0 {
		return reverts.NewValidation("Description should be filled when no sources are given")
	}
	if len(args.Sources) > MaxSources {
		return reverts.NewValidation("Too many sources provided, max sources is: %d", MaxSources)
	}
	if args.ChallengePeriod < cfg.MinInitialChallengeWindowDuration {
		return reverts.NewValidation("Challenge shorter than minimum challenge period of %d", cfg.MinInitialChallengeWindowDuration)
	}
	maxPeriod := cfg.DefaultChallengeWindowDuration * MaxChallengePeriodMultiplier
	if args.ChallengePeriod > maxPeriod {
		return reverts.NewValidation("Challenge period exceeds maximum challenge period of %d", maxPeriod)
	}
	if len(args.Tags) > MaxTags {
		return reverts.NewValidation("Too many tags provided, max tags is: %d", MaxTags)
	}
	if args.Outcomes != nil && (len(args.Outcomes) < MinOutcomes || len(args.Outcomes) > int(cfg.MaxOutcomes)) {
		return reverts.NewValidation("Invalid outcome list either exceeds min of: %d or max of %d", MinOutcomes, cfg.MaxOutcomes)
	}
	return nil
}
