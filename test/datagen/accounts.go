// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package datagen

import (
	"fmt"

	"github.com/fluxprotocol/oracle/flux"
)

// RandAccount returns a random valid account id.
func RandAccount() flux.AccountID {
	return flux.MustParseAccountID(fmt.Sprintf("acc-%x.near", RandomHash().Bytes()[:6]))
}

// Accounts returns n distinct account ids.
func Accounts(n int) []flux.AccountID {
	seen := make(map[flux.AccountID]bool, n)
	out := make([]flux.AccountID, 0, n)
	for len(out) < n {
		a := RandAccount()
		if !seen[a] {
			seen[a] = true
			out = append(out, a)
		}
	}
	return out
}
