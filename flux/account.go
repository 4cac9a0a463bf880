// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package flux

import (
	"encoding/json"

	"github.com/pkg/errors"
)

const (
	// MinAccountIDLen is the shortest accepted account id.
	MinAccountIDLen = 2
	// MaxAccountIDLen is the longest accepted account id.
	MaxAccountIDLen = 64
)

// AccountID identifies an account on the host ledger, e.g. "alice.near".
type AccountID string

var (
	_ json.Unmarshaler = (*AccountID)(nil)
)

// ParseAccountID validates s and converts it into an AccountID.
// Accepted ids are 2..64 characters of lower case letters, digits and '.', '_', '-'.
func ParseAccountID(s string) (AccountID, error) {
	if len(s) < MinAccountIDLen || len(s) > MaxAccountIDLen {
		return "", errors.Errorf("invalid account id length %d", len(s))
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '.', c == '_', c == '-':
		default:
			return "", errors.Errorf("invalid character %q in account id", c)
		}
	}
	return AccountID(s), nil
}

// MustParseAccountID is like ParseAccountID but panics on error.
func MustParseAccountID(s string) AccountID {
	id, err := ParseAccountID(s)
	if err != nil {
		panic(err)
	}
	return id
}

// String implements stringer.
func (a AccountID) String() string {
	return string(a)
}

// Bytes returns the raw byte form, used to build storage keys.
func (a AccountID) Bytes() []byte {
	return []byte(a)
}

// IsZero returns true for the empty account id.
func (a AccountID) IsZero() bool {
	return a == ""
}

// UnmarshalJSON implements json.Unmarshaler and validates the id.
func (a *AccountID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseAccountID(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
