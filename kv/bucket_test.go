// Copyright (c) 2021 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kv_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluxprotocol/oracle/kv"
	"github.com/fluxprotocol/oracle/lvldb"
)

func TestBucket(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	defer db.Close()

	requests := kv.Bucket("r").NewStore(db)
	ledger := kv.Bucket("l").NewStore(db)

	require.NoError(t, requests.Put([]byte("1"), []byte("a")))
	require.NoError(t, ledger.Put([]byte("1"), []byte("b")))

	got, err := requests.Get([]byte("1"))
	require.NoError(t, err)
	assert.Equal(t, []byte("a"), got)

	raw, err := db.Get([]byte("l1"))
	require.NoError(t, err)
	assert.Equal(t, []byte("b"), raw)

	has, err := requests.Has([]byte("2"))
	require.NoError(t, err)
	assert.False(t, has)

	_, err = ledger.Get([]byte("2"))
	assert.True(t, ledger.IsNotFound(err))
}

func TestBucketBatchAndIterate(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	defer db.Close()

	store := kv.Bucket("s").NewStore(db)
	require.NoError(t, db.Put([]byte("t1"), []byte("outside")))

	batch := store.NewBatch()
	for _, k := range []string{"1", "2", "3"} {
		require.NoError(t, batch.Put([]byte(k), []byte(k)))
	}
	assert.Equal(t, 3, batch.Len())
	require.NoError(t, batch.Write())

	iter := store.Iterate(kv.Range{})
	defer iter.Release()
	var keys []string
	for iter.Next() {
		keys = append(keys, string(iter.Key()))
	}
	require.NoError(t, iter.Error())
	assert.Equal(t, []string{"1", "2", "3"}, keys)
}
