// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package fees holds the checked balance arithmetic used for bonds and payouts.
package fees

import (
	"github.com/holiman/uint256"

	"github.com/fluxprotocol/oracle/builtin/reverts"
)

const (
	// BasisPoints is the stake multiplier meaning 1x.
	BasisPoints = 10_000
	// DefaultStakeMultiplier applies when a requester has none configured.
	DefaultStakeMultiplier = 2 * BasisPoints
)

func Add(x, y *uint256.Int) (*uint256.Int, error) {
	z, overflow := new(uint256.Int).AddOverflow(x, y)
	if overflow {
		return nil, reverts.NewArithmetic("addition overflow: %s + %s", x.Dec(), y.Dec())
	}
	return z, nil
}

func Sub(x, y *uint256.Int) (*uint256.Int, error) {
	z, underflow := new(uint256.Int).SubOverflow(x, y)
	if underflow {
		return nil, reverts.NewArithmetic("subtraction underflow: %s - %s", x.Dec(), y.Dec())
	}
	return z, nil
}

func Mul(x, y *uint256.Int) (*uint256.Int, error) {
	z, overflow := new(uint256.Int).MulOverflow(x, y)
	if overflow {
		return nil, reverts.NewArithmetic("multiplication overflow: %s * %s", x.Dec(), y.Dec())
	}
	return z, nil
}

// MulDiv returns floor(x * y / d) using a full width intermediate product.
func MulDiv(x, y, d *uint256.Int) (*uint256.Int, error) {
	if d.IsZero() {
		return nil, reverts.NewArithmetic("division by zero")
	}
	z, overflow := new(uint256.Int).MulDivOverflow(x, y, d)
	if overflow {
		return nil, reverts.NewArithmetic("multiplication overflow: %s * %s / %s", x.Dec(), y.Dec(), d.Dec())
	}
	return z, nil
}

// Min returns a copy of the smaller value.
func Min(x, y *uint256.Int) *uint256.Int {
	if x.Lt(y) {
		return x.Clone()
	}
	return y.Clone()
}

// Max returns a copy of the larger value.
func Max(x, y *uint256.Int) *uint256.Int {
	if x.Gt(y) {
		return x.Clone()
	}
	return y.Clone()
}

// MultiplyStake applies a basis point multiplier to bond. A nil multiplier doubles it.
func MultiplyStake(bond *uint256.Int, multiplier *uint16) (*uint256.Int, error) {
	m := uint64(DefaultStakeMultiplier)
	if multiplier != nil {
		m = uint64(*multiplier)
	}
	return MulDiv(bond, uint256.NewInt(m), uint256.NewInt(BasisPoints))
}

// ResolutionBond sizes the first round of a request: the larger of the paid fee and the
// validity bond, raised to minResolutionBond, then multiplied. The bond can't be 0.
func ResolutionBond(paidFee, validityBond, minResolutionBond *uint256.Int, multiplier *uint16) (*uint256.Int, error) {
	base := Max(Max(paidFee, validityBond), minResolutionBond)
	bond, err := MultiplyStake(base, multiplier)
	if err != nil {
		return nil, err
	}
	if bond.IsZero() {
		return nil, reverts.NewValidation("resolution bond of %s multiplied is 0", base.Dec())
	}
	return bond, nil
}

// Payout is what a correct staker receives.
type Payout struct {
	Stake *uint256.Int `json:"stake_token_payout"`
	Fee   *uint256.Int `json:"payment_token_payout"`
}

// IsZero reports whether nothing is owed.
func (p *Payout) IsZero() bool {
	return p.Stake.IsZero() && p.Fee.IsZero()
}

// CalcPayout splits the losing stake and the fee pool by the user's share of the correct stake.
func CalcPayout(userCorrect, totalCorrect, totalIncorrect, feePool *uint256.Int) (*Payout, error) {
	if totalCorrect.IsZero() {
		return &Payout{Stake: userCorrect.Clone(), Fee: new(uint256.Int)}, nil
	}
	stakeProfit, err := MulDiv(userCorrect, totalIncorrect, totalCorrect)
	if err != nil {
		return nil, err
	}
	feeProfit, err := MulDiv(userCorrect, feePool, totalCorrect)
	if err != nil {
		return nil, err
	}
	stake, err := Add(userCorrect, stakeProfit)
	if err != nil {
		return nil, err
	}
	return &Payout{Stake: stake, Fee: feeProfit}, nil
}
