// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package solidity

import (
	"github.com/fluxprotocol/oracle/flux"
	"github.com/fluxprotocol/oracle/state"
)

// Context binds storage abstractions to one contract account.
type Context struct {
	address flux.AccountID
	state   *state.State
}

func NewContext(address flux.AccountID, state *state.State) *Context {
	return &Context{
		address: address,
		state:   state,
	}
}

func (c *Context) Address() flux.AccountID {
	return c.address
}

func (c *Context) State() *state.State {
	return c.state
}
