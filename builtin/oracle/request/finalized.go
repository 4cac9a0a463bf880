// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package request

import (
	"github.com/holiman/uint256"

	"github.com/fluxprotocol/oracle/builtin/oracle/fees"
	"github.com/fluxprotocol/oracle/builtin/oracle/window"
	"github.com/fluxprotocol/oracle/flux"
)

// FeePool is the payment token amount shared by correct stakers.
// A request resolved as Invalid forfeits its validity bond into the pool.
func (f *Finalized) FeePool() (*uint256.Int, error) {
	if f.FinalizedOutcome.IsInvalid() {
		return fees.Add(f.PaidFee, f.ValidityBond)
	}
	return f.PaidFee.Clone(), nil
}

// ValidityBondRefund returns the bond owed back to the requester, nil if forfeited.
func (f *Finalized) ValidityBondRefund() *uint256.Int {
	if f.FinalizedOutcome.IsInvalid() || f.ValidityBond.IsZero() {
		return nil
	}
	return f.ValidityBond.Clone()
}

// Claim computes account's payout over every round and clears its correct stake.
func (f *Finalized) Claim(s *window.Stakes, account flux.AccountID) (*fees.Payout, error) {
	var (
		totalCorrect   = new(uint256.Int)
		totalIncorrect = new(uint256.Int)
		userCorrect    = new(uint256.Int)
	)
	for _, w := range f.Windows {
		res, err := w.ClaimFor(s, account, f.FinalizedOutcome)
		if err != nil {
			return nil, err
		}
		switch res.Kind {
		case window.Correct:
			if totalCorrect, err = fees.Add(totalCorrect, res.BondedStake); err != nil {
				return nil, err
			}
			if userCorrect, err = fees.Add(userCorrect, res.UserStake); err != nil {
				return nil, err
			}
		case window.Incorrect:
			if totalIncorrect, err = fees.Add(totalIncorrect, res.BondedStake); err != nil {
				return nil, err
			}
		}
	}

	pool, err := f.FeePool()
	if err != nil {
		return nil, err
	}
	payout, err := fees.CalcPayout(userCorrect, totalCorrect, totalIncorrect, pool)
	if err != nil {
		return nil, err
	}
	logger.Debug("claim",
		"request", f.ID,
		"account", account,
		"total_correct", totalCorrect,
		"total_incorrect", totalIncorrect,
		"user_correct", userCorrect,
		"stake_payout", payout.Stake,
		"fee_payout", payout.Fee,
	)
	return payout, nil
}
