// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package runtime_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluxprotocol/oracle/builtin/oracle"
	"github.com/fluxprotocol/oracle/builtin/oracle/outcome"
	"github.com/fluxprotocol/oracle/builtin/reverts"
	"github.com/fluxprotocol/oracle/flux"
	"github.com/fluxprotocol/oracle/runtime"
	"github.com/fluxprotocol/oracle/test/testoracle"
)

const (
	alice = testoracle.Arbitrator
	bob   flux.AccountID = "bob.near"
	carol flux.AccountID = "carol.near"
)

func newOracle(t *testing.T, opts ...testoracle.Option) *testoracle.Oracle {
	o, err := testoracle.New(opts...)
	require.NoError(t, err)
	t.Cleanup(func() { o.Close() })
	for _, account := range []flux.AccountID{alice, bob, carol} {
		require.NoError(t, o.Fund(account, 10_000))
	}
	return o
}

func balance(t *testing.T, o *testoracle.Oracle, account flux.AccountID) uint64 {
	b, err := o.Balance(account)
	require.NoError(t, err)
	return b.Uint64()
}

func requestCount(t *testing.T, o *testoracle.Oracle) uint64 {
	var n uint64
	require.NoError(t, o.Runtime.View(func(or *oracle.Oracle) (err error) {
		n, err = or.Len()
		return
	}))
	return n
}

func TestLifecycleThroughLedger(t *testing.T) {
	o := newOracle(t)

	used, err := o.NewRequest(bob, 150, testoracle.NewArgs("a", "b"))
	require.NoError(t, err)
	assert.Equal(t, uint64(150), used.Uint64())
	assert.Equal(t, uint64(150), balance(t, o, testoracle.Address))

	// the first round bond is 2 * max(fee, validity bond) = 200
	used, err = o.Stake(alice, 250, 0, outcome.NewString("a"))
	require.NoError(t, err)
	assert.Equal(t, uint64(200), used.Uint64())
	assert.Equal(t, uint64(9800), balance(t, o, alice))

	_, err = o.Runtime.Finalize(carol, 0)
	assert.EqualError(t, err, "Error can only be finalized after final dispute round has timed out")

	o.SetTime(1000)
	ids, err := o.Runtime.Finalize(carol, 0)
	require.NoError(t, err)
	assert.Len(t, ids, 2, "notification and validity bond refund")
	assert.Equal(t, uint64(10_000-150+100), balance(t, o, bob))

	notes := o.Recorder.Notifications()
	require.Len(t, notes, 1)
	assert.Equal(t, outcome.NewString("a"), notes[0].Outcome)

	payout, err := o.Runtime.Claim(alice, alice, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(200), payout.Stake.Uint64())
	assert.Equal(t, uint64(50), payout.Fee.Uint64())
	assert.Equal(t, uint64(10_050), balance(t, o, alice))
	assert.Zero(t, balance(t, o, testoracle.Address))
}

func TestRevertedCallLeavesNoState(t *testing.T) {
	o := newOracle(t)

	_, err := o.NewRequest(bob, 99, testoracle.NewArgs("a", "b"))
	assert.EqualError(t, err, "Validity bond of 100 not reached, received only 99")
	assert.Equal(t, uint64(10_000), balance(t, o, bob), "refunded")
	assert.Zero(t, requestCount(t, o))

	_, err = o.NewRequest(bob, 100, testoracle.NewArgs("a", "b"))
	require.NoError(t, err)

	// a rejected stake is refunded in full
	_, err = o.Stake(alice, 10, 0, outcome.NewString("c"))
	assert.EqualError(t, err, "Incompatible outcome")
	assert.Equal(t, uint64(10_000), balance(t, o, alice))

	_, err = o.Ledger.TransferCall(context.Background(), testoracle.Token, alice, testoracle.Address, uint256.NewInt(5), "not json", o.Runtime)
	assert.True(t, reverts.IsRevertErr(err))
	_, err = o.Ledger.TransferCall(context.Background(), testoracle.Token, alice, testoracle.Address, uint256.NewInt(5), "{}", o.Runtime)
	assert.True(t, reverts.IsRevertErr(err))
	assert.Equal(t, uint64(10_000), balance(t, o, alice))
}

func TestExcessStakeIsRefunded(t *testing.T) {
	o := newOracle(t)
	_, err := o.NewRequest(bob, 100, testoracle.NewArgs("a", "b"))
	require.NoError(t, err)

	_, err = o.Stake(alice, 200, 0, outcome.NewString("a"))
	require.NoError(t, err)
	used, err := o.Stake(carol, 1000, 0, outcome.NewString("b"))
	require.NoError(t, err)
	assert.Equal(t, uint64(400), used.Uint64())
	assert.Equal(t, uint64(9600), balance(t, o, carol))
}

func TestUnstakeTransfers(t *testing.T) {
	o := newOracle(t)
	_, err := o.NewRequest(bob, 100, testoracle.NewArgs("a", "b"))
	require.NoError(t, err)
	_, err = o.Stake(carol, 50, 0, outcome.NewString("b"))
	require.NoError(t, err)

	ids, err := o.Runtime.Unstake(carol, 0, 0, outcome.NewString("b"), uint256.NewInt(20))
	require.NoError(t, err)
	assert.Len(t, ids, 1)
	assert.Equal(t, uint64(9970), balance(t, o, carol))
}

func TestInvoke(t *testing.T) {
	o := newOracle(t)
	ctx := context.Background()

	change, err := o.Runtime.OnTransfer(ctx, testoracle.Token, bob, uint256.NewInt(130), `{"NewDataRequest":{
		"sources": [],
		"outcomes": ["a", "b"],
		"challenge_period": 1000,
		"description": "x",
		"tags": [],
		"data_type": "String"
	}}`)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), change.Uint64())

	unspent, err := o.Runtime.OnTransfer(ctx, testoracle.Token, alice, uint256.NewInt(300), `{"StakeDataRequest":{"id":0,"outcome":{"Answer":{"String":"a"}}}}`)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), unspent.Uint64())

	for _, name := range []string{"dr_new", "dr_stake"} {
		_, err = o.Runtime.Invoke(name, testoracle.Token, json.RawMessage(`{"sender":"carol.near","amount":"200","args":{"id":0,"outcome":"Invalid"}}`))
		assert.ErrorIs(t, err, runtime.ErrUnknownMethod, "%s only arrives with a token transfer", name)
	}
	assert.NotContains(t, runtime.Methods(), "dr_stake")

	_, err = o.Runtime.Invoke("toggle_pause", alice, nil)
	assert.EqualError(t, err, "This method is only callable by the governance contract gov.near")
	res, err := o.Runtime.Invoke("toggle_pause", testoracle.Gov, nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"paused": true}, res.Value)

	_, err = o.Runtime.Invoke("dr_finalize", carol, json.RawMessage(`{"request_id":0}`))
	assert.EqualError(t, err, "Oracle is paused")

	_, err = o.Runtime.Invoke("dr_finalize", carol, json.RawMessage(`{"id":0}`))
	assert.True(t, reverts.IsRevertErr(err), "unknown field")
	_, err = o.Runtime.Invoke("dr_unstake", alice, json.RawMessage(`{"request_id":0,"resolution_round":0,"outcome":"Invalid"}`))
	assert.EqualError(t, err, "invalid arguments: amount is required")

	_, err = o.Runtime.Invoke("ft_transfer", carol, nil)
	assert.ErrorIs(t, err, runtime.ErrUnknownMethod)
	assert.Contains(t, runtime.Methods(), "dr_final_arbitrator_finalize")
}

func TestRedeliver(t *testing.T) {
	cfg := testoracle.DefaultConfig()
	cfg.PaymentToken = "pay.near"
	o := newOracle(t, testoracle.WithConfig(cfg))

	_, _, err := o.Runtime.NewDataRequest("pay.near", bob, uint256.NewInt(100), testoracle.NewArgs("a", "b"))
	require.NoError(t, err)
	_, err = o.Stake(alice, 200, 0, outcome.NewString("a"))
	require.NoError(t, err)
	o.SetTime(1000)

	// the oracle never received pay.near, so the bond refund can not be paid
	_, err = o.Runtime.Finalize(carol, 0)
	require.NoError(t, err)
	failed := o.Dispatcher.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, flux.AccountID("pay.near"), failed[0].Effect.Transfers[0].Token)

	assert.EqualError(t, o.Runtime.Redeliver(carol, failed[0].ID), "This method is only callable by the governance contract gov.near")

	require.NoError(t, o.Ledger.Mint("pay.near", testoracle.Address, uint256.NewInt(100)))
	require.NoError(t, o.Runtime.Redeliver(testoracle.Gov, failed[0].ID))
	assert.Empty(t, o.Dispatcher.Failed())
	refunded, err := o.Ledger.BalanceOf("pay.near", bob)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), refunded.Uint64())

	assert.Error(t, o.Runtime.Redeliver(testoracle.Gov, uuid.New()))
}

func TestInitialized(t *testing.T) {
	o := newOracle(t)
	ok, err := o.Runtime.Initialized()
	require.NoError(t, err)
	assert.True(t, ok)

	assert.EqualError(t, o.Runtime.Initialize(testoracle.DefaultConfig(), nil), "oracle is already initialized")
}
