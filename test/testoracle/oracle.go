// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package testoracle builds an in-memory oracle with a dev ledger, a
// synchronous dispatcher and a controllable clock.
package testoracle

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"

	"github.com/holiman/uint256"

	"github.com/fluxprotocol/oracle/builtin/oracle"
	"github.com/fluxprotocol/oracle/builtin/oracle/outcome"
	"github.com/fluxprotocol/oracle/builtin/oracle/request"
	"github.com/fluxprotocol/oracle/builtin/params"
	"github.com/fluxprotocol/oracle/builtin/whitelist"
	"github.com/fluxprotocol/oracle/dispatch"
	"github.com/fluxprotocol/oracle/flux"
	"github.com/fluxprotocol/oracle/ledger"
	"github.com/fluxprotocol/oracle/lvldb"
	"github.com/fluxprotocol/oracle/runtime"
)

const (
	Address    flux.AccountID = "oracle.near"
	Token      flux.AccountID = "token.near"
	Gov        flux.AccountID = "gov.near"
	Arbitrator flux.AccountID = "alice.near"
)

// DefaultConfig uses one token for fees and stakes.
func DefaultConfig() *params.Config {
	return &params.Config{
		Gov:                               Gov,
		FinalArbitrator:                   Arbitrator,
		PaymentToken:                      Token,
		StakeToken:                        Token,
		ValidityBond:                      uint256.NewInt(100),
		MaxOutcomes:                       8,
		DefaultChallengeWindowDuration:    1000,
		MinInitialChallengeWindowDuration: 1000,
		FinalArbitratorInvokeAmount:       uint256.NewInt(1_000_000),
		MinResolutionBond:                 uint256.NewInt(100),
	}
}

// NewArgs is a request payload with a description, the given outcomes and the minimal challenge period.
func NewArgs(outcomes ...string) *request.NewArgs {
	description := "test request"
	return &request.NewArgs{
		Sources:         []request.Source{},
		Outcomes:        outcomes,
		ChallengePeriod: 1000,
		Description:     &description,
		Tags:            []string{},
		DataType:        outcome.StringType(),
	}
}

type options struct {
	config    *params.Config
	whitelist []*whitelist.Requester
	workers   int
}

type Option func(*options)

func WithConfig(cfg *params.Config) Option {
	return func(o *options) { o.config = cfg }
}

// WithWhitelist enables the whitelist with the given requesters.
func WithWhitelist(requesters ...*whitelist.Requester) Option {
	return func(o *options) { o.whitelist = requesters }
}

// WithWorkers delivers effects asynchronously.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// Recorder collects notifications.
type Recorder struct {
	mu   sync.Mutex
	list []*oracle.Notification
}

func (r *Recorder) Notify(_ context.Context, n *oracle.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.list = append(r.list, n)
	return nil
}

func (r *Recorder) Notifications() []*oracle.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*oracle.Notification(nil), r.list...)
}

// Oracle wires a runtime to a dev ledger.
type Oracle struct {
	DB         *lvldb.LevelDB
	Ledger     *ledger.Ledger
	Dispatcher *dispatch.Dispatcher
	Runtime    *runtime.Runtime
	Recorder   *Recorder

	now atomic.Uint64
}

func New(opts ...Option) (*Oracle, error) {
	o := options{config: DefaultConfig()}
	for _, opt := range opts {
		opt(&o)
	}

	db, err := lvldb.NewMem()
	if err != nil {
		return nil, err
	}
	t := &Oracle{DB: db, Ledger: ledger.New(db), Recorder: &Recorder{}}
	if t.Dispatcher, err = dispatch.New(Address, t.Ledger, t.Recorder, dispatch.Options{Workers: o.workers, Store: db}); err != nil {
		return nil, err
	}
	t.Runtime = runtime.New(db, Address, t.Dispatcher, t.now.Load)
	if err := t.Runtime.Initialize(o.config, o.whitelist); err != nil {
		return nil, err
	}
	return t, nil
}

// SetTime sets the host timestamp of the next calls.
func (t *Oracle) SetTime(ts uint64) {
	t.now.Store(ts)
}

// Fund mints amount of Token to account.
func (t *Oracle) Fund(account flux.AccountID, amount uint64) error {
	return t.Ledger.Mint(Token, account, uint256.NewInt(amount))
}

func (t *Oracle) Balance(account flux.AccountID) (*uint256.Int, error) {
	return t.Ledger.BalanceOf(Token, account)
}

func (t *Oracle) transferCall(sender flux.AccountID, amount uint64, msg any) (*uint256.Int, error) {
	raw, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}
	return t.Ledger.TransferCall(context.Background(), Token, sender, Address, uint256.NewInt(amount), string(raw), t.Runtime)
}

// NewRequest pays amount from sender into a new request. It returns the amount kept by the oracle.
func (t *Oracle) NewRequest(sender flux.AccountID, amount uint64, args *request.NewArgs) (*uint256.Int, error) {
	return t.transferCall(sender, amount, map[string]any{"NewDataRequest": args})
}

// Stake pays amount from staker into a stake. It returns the amount kept by the oracle.
func (t *Oracle) Stake(staker flux.AccountID, amount uint64, id uint64, out outcome.Outcome) (*uint256.Int, error) {
	return t.transferCall(staker, amount, map[string]any{"StakeDataRequest": &request.StakeArgs{ID: id, Outcome: out}})
}

// Close waits for pending deliveries and closes the store.
func (t *Oracle) Close() error {
	t.Dispatcher.Close()
	return t.DB.Close()
}
