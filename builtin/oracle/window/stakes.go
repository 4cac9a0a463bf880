// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package window

import (
	"encoding/binary"

	"github.com/holiman/uint256"

	"github.com/fluxprotocol/oracle/builtin/oracle/outcome"
	"github.com/fluxprotocol/oracle/builtin/solidity"
	"github.com/fluxprotocol/oracle/flux"
)

var (
	slotOutcomeStakes = flux.BytesToBytes32([]byte("outcome-stakes"))
	slotUserStakes    = flux.BytesToBytes32([]byte("user-stakes"))
)

type outcomeKey struct {
	requestID uint64
	round     uint16
	outcome   outcome.Outcome
}

func (k outcomeKey) Bytes() []byte {
	b := binary.BigEndian.AppendUint64(nil, k.requestID)
	b = binary.BigEndian.AppendUint16(b, k.round)
	return append(b, k.outcome.Bytes()...)
}

type userKey struct {
	requestID uint64
	round     uint16
	account   flux.AccountID
	outcome   outcome.Outcome
}

func (k userKey) Bytes() []byte {
	b := binary.BigEndian.AppendUint64(nil, k.requestID)
	b = binary.BigEndian.AppendUint16(b, k.round)
	b = append(b, byte(len(k.account)))
	b = append(b, k.account...)
	return append(b, k.outcome.Bytes()...)
}

// Stakes is the flat store of every window's stake totals, keyed by
// (request, round, outcome) and (request, round, account, outcome).
type Stakes struct {
	outcomes *solidity.Mapping[outcomeKey, *uint256.Int]
	users    *solidity.Mapping[userKey, *uint256.Int]
}

func NewStakes(ctx *solidity.Context) *Stakes {
	return &Stakes{
		outcomes: solidity.NewMapping[outcomeKey, *uint256.Int](ctx, slotOutcomeStakes),
		users:    solidity.NewMapping[userKey, *uint256.Int](ctx, slotUserStakes),
	}
}

func orZero(v *uint256.Int) *uint256.Int {
	if v == nil {
		return new(uint256.Int)
	}
	return v
}

// OutcomeStake returns the total staked on o in the given round.
func (s *Stakes) OutcomeStake(requestID uint64, round uint16, o outcome.Outcome) (*uint256.Int, error) {
	v, err := s.outcomes.Get(outcomeKey{requestID, round, o})
	return orZero(v), err
}

// UserStake returns what account staked on o in the given round.
func (s *Stakes) UserStake(requestID uint64, round uint16, account flux.AccountID, o outcome.Outcome) (*uint256.Int, error) {
	v, err := s.users.Get(userKey{requestID, round, account, o})
	return orZero(v), err
}

func (s *Stakes) setOutcomeStake(requestID uint64, round uint16, o outcome.Outcome, v *uint256.Int) error {
	key := outcomeKey{requestID, round, o}
	if v.IsZero() {
		s.outcomes.Delete(key)
		return nil
	}
	return s.outcomes.Set(key, v)
}

func (s *Stakes) setUserStake(requestID uint64, round uint16, account flux.AccountID, o outcome.Outcome, v *uint256.Int) error {
	key := userKey{requestID, round, account, o}
	if v.IsZero() {
		s.users.Delete(key)
		return nil
	}
	return s.users.Set(key, v)
}
