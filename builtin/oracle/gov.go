// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package oracle

import (
	"github.com/fluxprotocol/oracle/builtin/params"
	"github.com/fluxprotocol/oracle/builtin/whitelist"
	"github.com/fluxprotocol/oracle/flux"
)

// SetConfig appends a config snapshot. Existing requests keep the one they pinned.
func (o *Oracle) SetConfig(env *Env, cfg *params.Config) (uint64, error) {
	if err := o.params.AssertGov(env.Caller); err != nil {
		return 0, err
	}
	if err := cfg.Validate(); err != nil {
		return 0, err
	}
	id, err := o.params.Push(cfg)
	if err != nil {
		return 0, err
	}
	logger.Info("config updated", "id", id, "gov", cfg.Gov)
	return id, nil
}

// TogglePause flips the pause flag and returns the new value.
func (o *Oracle) TogglePause(env *Env) (bool, error) {
	if err := o.params.AssertGov(env.Caller); err != nil {
		return false, err
	}
	paused, err := o.params.TogglePaused()
	if err != nil {
		return false, err
	}
	logger.Info("pause toggled", "paused", paused)
	return paused, nil
}

func (o *Oracle) AddToWhitelist(env *Env, r *whitelist.Requester) error {
	if err := o.params.AssertGov(env.Caller); err != nil {
		return err
	}
	if err := o.whitelist.Add(r); err != nil {
		return err
	}
	logger.Info("whitelisted", "account", r.AccountID)
	return nil
}

func (o *Oracle) RemoveFromWhitelist(env *Env, account flux.AccountID) error {
	if err := o.params.AssertGov(env.Caller); err != nil {
		return err
	}
	if err := o.whitelist.Remove(account); err != nil {
		return err
	}
	logger.Info("removed from whitelist", "account", account)
	return nil
}

// AssertGov fails unless caller is the current governance account.
func (o *Oracle) AssertGov(caller flux.AccountID) error {
	return o.params.AssertGov(caller)
}
