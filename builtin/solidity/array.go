// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package solidity

import (
	"github.com/pkg/errors"

	"github.com/fluxprotocol/oracle/flux"
)

// Array is an append-only vector, like a dynamic array in Solidity.
// The length lives at pos, elements at Blake2b(index, pos).
type Array[V any] struct {
	length   *Raw[uint64]
	elements *Mapping[Uint64Key, V]
}

func NewArray[V any](context *Context, pos flux.Bytes32) *Array[V] {
	return &Array[V]{
		length:   NewRaw[uint64](context, pos),
		elements: NewMapping[Uint64Key, V](context, pos),
	}
}

func (a *Array[V]) Len() (uint64, error) {
	return a.length.Get()
}

// Get returns the element at index. ok is false when index is out of range.
func (a *Array[V]) Get(index uint64) (value V, ok bool, err error) {
	n, err := a.length.Get()
	if err != nil {
		return value, false, err
	}
	if index >= n {
		return value, false, nil
	}
	value, err = a.elements.Get(Uint64Key(index))
	if err != nil {
		return value, false, err
	}
	return value, true, nil
}

// Last returns the last element. ok is false when the array is empty.
func (a *Array[V]) Last() (value V, ok bool, err error) {
	n, err := a.length.Get()
	if err != nil || n == 0 {
		return value, false, err
	}
	return a.Get(n - 1)
}

// Push appends value and returns its index.
func (a *Array[V]) Push(value V) (uint64, error) {
	n, err := a.length.Get()
	if err != nil {
		return 0, err
	}
	if err := a.elements.Set(Uint64Key(n), value); err != nil {
		return 0, err
	}
	if err := a.length.Set(n + 1); err != nil {
		return 0, err
	}
	return n, nil
}

// Set replaces the element at index, which must exist.
func (a *Array[V]) Set(index uint64, value V) error {
	n, err := a.length.Get()
	if err != nil {
		return err
	}
	if index >= n {
		return errors.Errorf("array index %d out of range [0, %d)", index, n)
	}
	return a.elements.Set(Uint64Key(index), value)
}
