// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package oracle

import (
	"github.com/holiman/uint256"

	"github.com/fluxprotocol/oracle/builtin/oracle/outcome"
	"github.com/fluxprotocol/oracle/builtin/oracle/request"
	"github.com/fluxprotocol/oracle/builtin/params"
	"github.com/fluxprotocol/oracle/builtin/whitelist"
	"github.com/fluxprotocol/oracle/flux"
)

// Initialized reports whether a config snapshot is stored.
func (o *Oracle) Initialized() (bool, error) {
	n, err := o.params.Len()
	return n > 0, err
}

func (o *Oracle) Exists(id uint64) (bool, error) {
	n, err := o.requests.Len()
	return id < n, err
}

// Len returns the number of requests ever created.
func (o *Oracle) Len() (uint64, error) {
	return o.requests.Len()
}

// RequestByID returns nil if there is no request with id.
func (o *Oracle) RequestByID(id uint64) (*request.Summary, error) {
	rec, err := o.get(id)
	if err != nil || rec == nil {
		return nil, err
	}
	return rec.Summarize(), nil
}

// LatestRequest returns nil while no request exists.
func (o *Oracle) LatestRequest() (*request.Summary, error) {
	n, err := o.requests.Len()
	if err != nil || n == 0 {
		return nil, err
	}
	return o.RequestByID(n - 1)
}

// Requests lists the requests in [from, min(from+limit, len)).
func (o *Oracle) Requests(from, limit uint64) ([]*request.Summary, error) {
	n, err := o.requests.Len()
	if err != nil {
		return nil, err
	}
	list := make([]*request.Summary, 0)
	if from >= n {
		return list, nil
	}
	to := n
	if limit < n-from {
		to = from + limit
	}
	for i := from; i < to; i++ {
		s, err := o.RequestByID(i)
		if err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return list, nil
}

// Outcome returns the finalized outcome of a request.
func (o *Oracle) Outcome(id uint64) (outcome.Outcome, error) {
	dr, err := o.getExpectFinalized(id)
	if err != nil {
		return outcome.Outcome{}, err
	}
	return dr.FinalizedOutcome, nil
}

// Config returns the current config snapshot and its id.
func (o *Oracle) Config() (*params.Config, uint64, error) {
	return o.params.Current()
}

func (o *Oracle) ConfigByID(id uint64) (*params.Config, error) {
	return o.params.Get(id)
}

func (o *Oracle) Paused() (bool, error) {
	return o.params.Paused()
}

func (o *Oracle) WhitelistContains(account flux.AccountID) (bool, error) {
	return o.whitelist.Contains(account)
}

// Requester returns the record used for account when it creates a request.
func (o *Oracle) Requester(account flux.AccountID) (*whitelist.Requester, error) {
	return o.whitelist.Get(account)
}

// StakeOf returns what account has staked on out in a round of a request.
func (o *Oracle) StakeOf(id uint64, round uint16, account flux.AccountID, out outcome.Outcome) (*uint256.Int, error) {
	return o.stakes.UserStake(id, round, account, out)
}

// OutcomeStake returns the total staked on out in a round of a request.
func (o *Oracle) OutcomeStake(id uint64, round uint16, out outcome.Outcome) (*uint256.Int, error) {
	return o.stakes.OutcomeStake(id, round, out)
}
