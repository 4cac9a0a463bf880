// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package dispatch

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/fluxprotocol/oracle/kv"
)

const parkingBucket = kv.Bucket("dispatch.failed.")

// parking keeps failed deliveries in a store, keyed by id.
type parking struct {
	store kv.Store
}

func newParking(store kv.Store) *parking {
	return &parking{parkingBucket.NewStore(store)}
}

func (p *parking) put(del *Delivery) error {
	data, err := json.Marshal(del)
	if err != nil {
		return errors.Wrap(err, "encode delivery")
	}
	return errors.Wrap(p.store.Put(del.ID[:], data), "put delivery")
}

func (p *parking) delete(id uuid.UUID) error {
	return errors.Wrap(p.store.Delete(id[:]), "delete delivery")
}

func (p *parking) load() ([]*Delivery, error) {
	it := p.store.Iterate(kv.Range{})
	defer it.Release()

	var list []*Delivery
	for it.Next() {
		var del Delivery
		if err := json.Unmarshal(it.Value(), &del); err != nil {
			return nil, errors.Wrapf(err, "decode delivery %x", it.Key())
		}
		list = append(list, &del)
	}
	return list, errors.Wrap(it.Error(), "iterate deliveries")
}
