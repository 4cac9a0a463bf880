// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package params

import (
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/fluxprotocol/oracle/builtin/reverts"
	"github.com/fluxprotocol/oracle/builtin/solidity"
	"github.com/fluxprotocol/oracle/flux"
)

var (
	slotConfigs = flux.BytesToBytes32([]byte("configs"))
	slotPaused  = flux.BytesToBytes32([]byte("paused"))
)

// Config is one snapshot of the oracle's global settings.
// Requests pin the snapshot that was current when they were created.
type Config struct {
	Gov                               flux.AccountID `json:"gov"`
	FinalArbitrator                   flux.AccountID `json:"final_arbitrator"`
	PaymentToken                      flux.AccountID `json:"payment_token"`
	StakeToken                        flux.AccountID `json:"stake_token"`
	ValidityBond                      *uint256.Int   `json:"validity_bond"`
	MaxOutcomes                       uint8          `json:"max_outcomes"`
	DefaultChallengeWindowDuration    uint64         `json:"default_challenge_window_duration"`
	MinInitialChallengeWindowDuration uint64         `json:"min_initial_challenge_window_duration"`
	FinalArbitratorInvokeAmount       *uint256.Int   `json:"final_arbitrator_invoke_amount"`
	MinResolutionBond                 *uint256.Int   `json:"min_resolution_bond"`
}

// Validate checks the bounds governance must respect when pushing a snapshot.
func (c *Config) Validate() error {
	if c.ValidityBond == nil || c.ValidityBond.IsZero() {
		return reverts.NewValidation("validity bond has to be higher than 0")
	}
	if c.MinResolutionBond == nil || c.MinResolutionBond.IsZero() {
		return reverts.NewValidation("resolution bond has to be higher than 0")
	}
	if c.FinalArbitratorInvokeAmount == nil {
		return reverts.NewValidation("final arbitrator invoke amount is required")
	}
	return nil
}

// Params binder of the versioned config log and the pause flag.
type Params struct {
	configs *solidity.Array[*Config]
	paused  *solidity.Raw[bool]
}

func New(ctx *solidity.Context) *Params {
	return &Params{
		configs: solidity.NewArray[*Config](ctx, slotConfigs),
		paused:  solidity.NewRaw[bool](ctx, slotPaused),
	}
}

// Push appends a snapshot and returns its id.
func (p *Params) Push(cfg *Config) (uint64, error) {
	return p.configs.Push(cfg)
}

func (p *Params) Len() (uint64, error) {
	return p.configs.Len()
}

// Current returns the last snapshot and its id.
func (p *Params) Current() (*Config, uint64, error) {
	n, err := p.configs.Len()
	if err != nil {
		return nil, 0, err
	}
	if n == 0 {
		return nil, 0, errors.New("oracle config not initialized")
	}
	cfg, err := p.Get(n - 1)
	return cfg, n - 1, err
}

// Get returns the snapshot with the given id.
func (p *Params) Get(id uint64) (*Config, error) {
	cfg, ok, err := p.configs.Get(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.Errorf("no config with id %d", id)
	}
	return cfg, nil
}

func (p *Params) Paused() (bool, error) {
	return p.paused.Get()
}

// TogglePaused flips the pause flag and returns the new value.
func (p *Params) TogglePaused() (bool, error) {
	paused, err := p.paused.Get()
	if err != nil {
		return false, err
	}
	return !paused, p.paused.Set(!paused)
}

// AssertGov fails unless caller is the governance account of the current snapshot.
func (p *Params) AssertGov(caller flux.AccountID) error {
	cfg, _, err := p.Current()
	if err != nil {
		return err
	}
	if cfg.Gov != caller {
		return reverts.NewAuthorization("This method is only callable by the governance contract %s", cfg.Gov)
	}
	return nil
}

// AssertUnpaused fails while the oracle is paused.
func (p *Params) AssertUnpaused() error {
	paused, err := p.paused.Get()
	if err != nil {
		return err
	}
	if paused {
		return reverts.NewState("Oracle is paused")
	}
	return nil
}
