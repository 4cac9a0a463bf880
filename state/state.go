// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"bytes"

	"github.com/pkg/errors"

	"github.com/fluxprotocol/oracle/flux"
	"github.com/fluxprotocol/oracle/kv"
)

type storageKey struct {
	contract flux.AccountID
	slot     flux.Bytes32
}

// Bytes returns the kv key of the slot.
func (k storageKey) Bytes() []byte {
	b := make([]byte, 0, len(k.contract)+1+len(k.slot))
	b = append(b, k.contract...)
	b = append(b, 0)
	return append(b, k.slot[:]...)
}

// State manages contract storage of one call.
// Writes are kept in memory until staged. It's not thread-safe.
type State struct {
	src     kv.Getter
	written map[storageKey][]byte
	order   []storageKey // first write order
	reads   map[storageKey][]byte
}

// New create state object.
func New(src kv.Getter) *State {
	return &State{
		src:     src,
		written: make(map[storageKey][]byte),
		reads:   make(map[storageKey][]byte),
	}
}

func (s *State) load(key storageKey) ([]byte, bool, error) {
	val, err := s.src.Get(key.Bytes())
	if err != nil {
		if s.src.IsNotFound(err) {
			return nil, false, nil
		}
		return nil, false, errors.Wrap(err, "load storage")
	}
	return val, true, nil
}

// GetStorage returns the raw value of the slot, nil if not set.
func (s *State) GetStorage(contract flux.AccountID, slot flux.Bytes32) ([]byte, error) {
	key := storageKey{contract, slot}
	if v, ok := s.written[key]; ok {
		return v, nil
	}
	if v, ok := s.reads[key]; ok {
		return v, nil
	}
	v, _, err := s.load(key)
	if err != nil {
		return nil, err
	}
	s.reads[key] = v
	return v, nil
}

// SetStorage sets the raw value of the slot. An empty value clears the slot.
func (s *State) SetStorage(contract flux.AccountID, slot flux.Bytes32, value []byte) {
	if len(value) == 0 {
		value = nil
	}
	key := storageKey{contract, slot}
	if _, ok := s.written[key]; !ok {
		s.order = append(s.order, key)
	}
	s.written[key] = value
}

// DecodeStorage reads the slot and hands the raw value to dec.
// dec receives an empty slice if the slot is not set.
func (s *State) DecodeStorage(contract flux.AccountID, slot flux.Bytes32, dec func(raw []byte) error) error {
	raw, err := s.GetStorage(contract, slot)
	if err != nil {
		return err
	}
	return dec(raw)
}

// EncodeStorage stores the value produced by enc into the slot.
func (s *State) EncodeStorage(contract flux.AccountID, slot flux.Bytes32, enc func() ([]byte, error)) error {
	raw, err := enc()
	if err != nil {
		return err
	}
	s.SetStorage(contract, slot, raw)
	return nil
}

// Stage makes a stage object to commit changes.
func (s *State) Stage() *Stage {
	changes := make(map[storageKey][]byte, len(s.written))
	var kept []storageKey
	for _, key := range s.order {
		val := s.written[key]
		// drop writes that restore the original value
		orig, _, err := s.load(key)
		if err == nil && bytes.Equal(orig, val) {
			continue
		}
		changes[key] = val
		kept = append(kept, key)
	}
	return &Stage{changes: changes, order: kept}
}

// Stage abstracts changes on contract storage.
type Stage struct {
	changes map[storageKey][]byte
	order   []storageKey
}

// Len returns count of changed slots.
func (st *Stage) Len() int {
	return len(st.order)
}

// Commit writes all changes into the batch and flushes it.
func (st *Stage) Commit(batch kv.Batch) error {
	for _, key := range st.order {
		val := st.changes[key]
		var err error
		if val == nil {
			err = batch.Delete(key.Bytes())
		} else {
			err = batch.Put(key.Bytes(), val)
		}
		if err != nil {
			return errors.Wrap(err, "stage storage")
		}
	}
	if err := batch.Write(); err != nil {
		return errors.Wrap(err, "commit storage")
	}
	return nil
}
