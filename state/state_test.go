// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluxprotocol/oracle/flux"
	"github.com/fluxprotocol/oracle/lvldb"
)

func TestStateReadWrite(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	defer db.Close()

	contract := flux.AccountID("oracle.near")
	slot := flux.BytesToBytes32([]byte("paused"))

	st := New(db)
	v, err := st.GetStorage(contract, slot)
	require.NoError(t, err)
	assert.Nil(t, v)

	st.SetStorage(contract, slot, []byte{1})
	v, err = st.GetStorage(contract, slot)
	require.NoError(t, err)
	assert.Equal(t, []byte{1}, v)

	// other contracts don't share slots
	v, err = st.GetStorage("other.near", slot)
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestStageDropsRestoredWrites(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	defer db.Close()

	contract := flux.AccountID("oracle.near")
	slot := flux.BytesToBytes32([]byte("counter"))

	st := New(db)
	st.SetStorage(contract, slot, []byte{1})
	require.NoError(t, st.Stage().Commit(db.NewBatch()))

	st = New(db)
	st.SetStorage(contract, slot, []byte{2})
	st.SetStorage(contract, flux.BytesToBytes32([]byte("x")), []byte{9})
	st.SetStorage(contract, slot, []byte{1})

	v, err := st.GetStorage(contract, slot)
	require.NoError(t, err)
	assert.Equal(t, []byte{1}, v)

	stage := st.Stage()
	assert.Equal(t, 1, stage.Len(), "only x changed")
}

func TestDiscardedStateLeavesStore(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	defer db.Close()

	contract := flux.AccountID("oracle.near")
	slot := flux.BytesToBytes32([]byte("paused"))

	st := New(db)
	st.SetStorage(contract, slot, []byte{1})

	v, err := New(db).GetStorage(contract, slot)
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestStageCommit(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	defer db.Close()

	contract := flux.AccountID("oracle.near")
	a := flux.BytesToBytes32([]byte("a"))
	b := flux.BytesToBytes32([]byte("b"))

	st := New(db)
	st.SetStorage(contract, a, []byte("1"))
	st.SetStorage(contract, b, []byte("2"))
	require.NoError(t, st.Stage().Commit(db.NewBatch()))

	// a fresh state observes committed values
	st = New(db)
	v, err := st.GetStorage(contract, b)
	require.NoError(t, err)
	assert.Equal(t, []byte("2"), v)

	// clearing a slot deletes it, re-writing the same value is a no-op
	st.SetStorage(contract, a, nil)
	st.SetStorage(contract, b, []byte("2"))
	stage := st.Stage()
	assert.Equal(t, 1, stage.Len())
	require.NoError(t, stage.Commit(db.NewBatch()))

	has, err := db.Has(storageKey{contract, a}.Bytes())
	require.NoError(t, err)
	assert.False(t, has)
}
