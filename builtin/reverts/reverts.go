// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reverts

import (
	"errors"
	"fmt"
)

// Kind classifies why a call was rejected.
type Kind uint8

const (
	Validation Kind = iota + 1
	Authorization
	State
	Arithmetic
)

func (k Kind) String() string {
	switch k {
	case Validation:
		return "validation"
	case Authorization:
		return "authorization"
	case State:
		return "state"
	case Arithmetic:
		return "arithmetic"
	default:
		return "unknown"
	}
}

// ErrRevert rejects the whole call. No state change of a reverted call persists.
type ErrRevert struct {
	kind    Kind
	message string
}

func New(kind Kind, format string, args ...any) *ErrRevert {
	return &ErrRevert{
		kind:    kind,
		message: fmt.Sprintf(format, args...),
	}
}

func NewValidation(format string, args ...any) *ErrRevert {
	return New(Validation, format, args...)
}

func NewAuthorization(format string, args ...any) *ErrRevert {
	return New(Authorization, format, args...)
}

func NewState(format string, args ...any) *ErrRevert {
	return New(State, format, args...)
}

func NewArithmetic(format string, args ...any) *ErrRevert {
	return New(Arithmetic, format, args...)
}

func (e *ErrRevert) Error() string {
	return e.message
}

func (e *ErrRevert) Kind() Kind {
	return e.kind
}

func IsRevertErr(err any) bool {
	_, ok := KindOf(err)
	return ok
}

// KindOf returns the kind of a revert error anywhere in the chain of err.
func KindOf(err any) (Kind, bool) {
	e, ok := err.(error)
	if !ok || e == nil {
		return 0, false
	}
	var re *ErrRevert
	if errors.As(e, &re) && re != nil {
		return re.kind, true
	}
	return 0, false
}
