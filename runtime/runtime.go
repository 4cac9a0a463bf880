// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package runtime executes oracle calls one at a time against the store.
//
// Every call runs on a fresh state. A failed call leaves no trace; a successful
// one is committed in a single batch before its effects are dispatched.
package runtime

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/fluxprotocol/oracle/builtin/oracle"
	"github.com/fluxprotocol/oracle/builtin/oracle/fees"
	"github.com/fluxprotocol/oracle/builtin/oracle/outcome"
	"github.com/fluxprotocol/oracle/builtin/oracle/request"
	"github.com/fluxprotocol/oracle/builtin/params"
	"github.com/fluxprotocol/oracle/builtin/reverts"
	"github.com/fluxprotocol/oracle/builtin/whitelist"
	"github.com/fluxprotocol/oracle/flux"
	"github.com/fluxprotocol/oracle/kv"
	"github.com/fluxprotocol/oracle/log"
	"github.com/fluxprotocol/oracle/metrics"
	"github.com/fluxprotocol/oracle/state"
)

var (
	logger = log.WithContext("pkg", "runtime")

	metricCalls  = metrics.LazyLoadCounterVec("runtime_calls_count", []string{"method", "status"})
	metricCallMs = metrics.LazyLoadHistogramVec("runtime_call_ms", []string{"method"}, metrics.BucketHTTPReqs)
)

const stateBucket = kv.Bucket("state.")

// Dispatcher takes the effects of committed calls.
type Dispatcher interface {
	Dispatch(effects []*oracle.Effect) []uuid.UUID
}

// Redeliverer resumes failed deliveries.
type Redeliverer interface {
	Redeliver(id uuid.UUID) error
}

// Clock supplies the host timestamp of a call.
type Clock func() uint64

// SystemClock is the wall clock in unix seconds.
func SystemClock() uint64 {
	return uint64(time.Now().Unix())
}

// Runtime serializes calls to the oracle contract at addr.
type Runtime struct {
	mu         sync.RWMutex
	store      kv.Store
	addr       flux.AccountID
	dispatcher Dispatcher
	clock      Clock
}

// New creates a runtime. A nil clock means SystemClock; a nil dispatcher drops effects.
func New(db kv.Store, addr flux.AccountID, dispatcher Dispatcher, clock Clock) *Runtime {
	if clock == nil {
		clock = SystemClock
	}
	return &Runtime{
		store:      stateBucket.NewStore(db),
		addr:       addr,
		dispatcher: dispatcher,
		clock:      clock,
	}
}

// Address is the oracle account.
func (r *Runtime) Address() flux.AccountID {
	return r.addr
}

func (r *Runtime) exec(method string, caller flux.AccountID, fn func(o *oracle.Oracle, env *oracle.Env) ([]*oracle.Effect, error)) ([]uuid.UUID, error) {
	start := time.Now()
	effects, err := r.commit(caller, fn)

	status := "ok"
	switch {
	case err == nil:
	case reverts.IsRevertErr(err):
		status = "reverted"
		logger.Debug("call reverted", "method", method, "caller", caller, "err", err)
	default:
		status = "error"
		logger.Error("call failed", "method", method, "caller", caller, "err", err)
	}
	metricCalls().AddWithLabel(1, map[string]string{"method": method, "status": status})
	metricCallMs().ObserveWithLabels(time.Since(start).Milliseconds(), map[string]string{"method": method})
	if err != nil {
		return nil, err
	}

	if r.dispatcher == nil || len(effects) == 0 {
		return nil, nil
	}
	return r.dispatcher.Dispatch(effects), nil
}

func (r *Runtime) commit(caller flux.AccountID, fn func(o *oracle.Oracle, env *oracle.Env) ([]*oracle.Effect, error)) ([]*oracle.Effect, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	st := state.New(r.store)
	env := &oracle.Env{Caller: caller, Now: r.clock()}
	effects, err := fn(oracle.New(r.addr, st), env)
	if err != nil {
		return nil, err
	}
	stage := st.Stage()
	if stage.Len() == 0 {
		return effects, nil
	}
	if err := stage.Commit(r.store.NewBatch()); err != nil {
		return nil, err
	}
	return effects, nil
}

// View runs fn on a read only oracle. Writes made by fn are discarded.
func (r *Runtime) View(fn func(o *oracle.Oracle) error) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return fn(oracle.New(r.addr, state.New(r.store)))
}

// Initialize stores the genesis config and whitelist.
func (r *Runtime) Initialize(cfg *params.Config, initial []*whitelist.Requester) error {
	_, err := r.exec("initialize", r.addr, func(o *oracle.Oracle, _ *oracle.Env) ([]*oracle.Effect, error) {
		return nil, o.Initialize(cfg, initial)
	})
	return err
}

// Initialized reports whether a config is stored.
func (r *Runtime) Initialized() (ok bool, err error) {
	err = r.View(func(o *oracle.Oracle) error {
		ok, err = o.Initialized()
		return err
	})
	return
}

// NewDataRequest is invoked by the payment token on behalf of sender.
func (r *Runtime) NewDataRequest(caller, sender flux.AccountID, amount *uint256.Int, args *request.NewArgs) (id uint64, change *uint256.Int, err error) {
	_, err = r.exec("dr_new", caller, func(o *oracle.Oracle, env *oracle.Env) ([]*oracle.Effect, error) {
		id, change, err = o.NewDataRequest(env, sender, amount, args)
		return nil, err
	})
	return
}

// Stake is invoked by the stake token on behalf of sender.
func (r *Runtime) Stake(caller, sender flux.AccountID, amount *uint256.Int, args *request.StakeArgs) (unspent *uint256.Int, err error) {
	_, err = r.exec("dr_stake", caller, func(o *oracle.Oracle, env *oracle.Env) ([]*oracle.Effect, error) {
		unspent, err = o.Stake(env, sender, amount, args)
		return nil, err
	})
	return
}

func (r *Runtime) Unstake(caller flux.AccountID, id uint64, round uint16, out outcome.Outcome, amount *uint256.Int) ([]uuid.UUID, error) {
	return r.exec("dr_unstake", caller, func(o *oracle.Oracle, env *oracle.Env) ([]*oracle.Effect, error) {
		return o.Unstake(env, id, round, out, amount)
	})
}

func (r *Runtime) Claim(caller, account flux.AccountID, id uint64) (payout *fees.Payout, err error) {
	_, err = r.exec("dr_claim", caller, func(o *oracle.Oracle, env *oracle.Env) ([]*oracle.Effect, error) {
		var effects []*oracle.Effect
		payout, effects, err = o.Claim(env, account, id)
		return effects, err
	})
	return
}

func (r *Runtime) Finalize(caller flux.AccountID, id uint64) ([]uuid.UUID, error) {
	return r.exec("dr_finalize", caller, func(o *oracle.Oracle, env *oracle.Env) ([]*oracle.Effect, error) {
		return o.Finalize(env, id)
	})
}

func (r *Runtime) FinalizeByProvider(caller flux.AccountID, id uint64, out outcome.Outcome) ([]uuid.UUID, error) {
	return r.exec("dr_finalize_by_provider", caller, func(o *oracle.Oracle, env *oracle.Env) ([]*oracle.Effect, error) {
		return o.FinalizeByProvider(env, id, out)
	})
}

func (r *Runtime) FinalArbitratorFinalize(caller flux.AccountID, id uint64, out outcome.Outcome) ([]uuid.UUID, error) {
	return r.exec("dr_final_arbitrator_finalize", caller, func(o *oracle.Oracle, env *oracle.Env) ([]*oracle.Effect, error) {
		return o.FinalArbitratorFinalize(env, id, out)
	})
}

func (r *Runtime) SetConfig(caller flux.AccountID, cfg *params.Config) (id uint64, err error) {
	_, err = r.exec("set_config", caller, func(o *oracle.Oracle, env *oracle.Env) ([]*oracle.Effect, error) {
		id, err = o.SetConfig(env, cfg)
		return nil, err
	})
	return
}

func (r *Runtime) TogglePause(caller flux.AccountID) (paused bool, err error) {
	_, err = r.exec("toggle_pause", caller, func(o *oracle.Oracle, env *oracle.Env) ([]*oracle.Effect, error) {
		paused, err = o.TogglePause(env)
		return nil, err
	})
	return
}

func (r *Runtime) AddToWhitelist(caller flux.AccountID, requester *whitelist.Requester) error {
	_, err := r.exec("add_to_whitelist", caller, func(o *oracle.Oracle, env *oracle.Env) ([]*oracle.Effect, error) {
		return nil, o.AddToWhitelist(env, requester)
	})
	return err
}

func (r *Runtime) RemoveFromWhitelist(caller, account flux.AccountID) error {
	_, err := r.exec("remove_from_whitelist", caller, func(o *oracle.Oracle, env *oracle.Env) ([]*oracle.Effect, error) {
		return nil, o.RemoveFromWhitelist(env, account)
	})
	return err
}

// Redeliver lets governance resume a failed delivery.
func (r *Runtime) Redeliver(caller flux.AccountID, id uuid.UUID) error {
	rd, ok := r.dispatcher.(Redeliverer)
	if !ok {
		return errors.New("dispatcher does not support redelivery")
	}
	if err := r.View(func(o *oracle.Oracle) error { return o.AssertGov(caller) }); err != nil {
		return err
	}
	return rd.Redeliver(id)
}
