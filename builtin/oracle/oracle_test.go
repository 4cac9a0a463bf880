// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package oracle

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluxprotocol/oracle/builtin/oracle/outcome"
	"github.com/fluxprotocol/oracle/builtin/oracle/request"
	"github.com/fluxprotocol/oracle/builtin/params"
	"github.com/fluxprotocol/oracle/builtin/reverts"
	"github.com/fluxprotocol/oracle/builtin/whitelist"
	"github.com/fluxprotocol/oracle/flux"
	"github.com/fluxprotocol/oracle/lvldb"
	"github.com/fluxprotocol/oracle/state"
)

const (
	alice flux.AccountID = "alice.near"
	bob   flux.AccountID = "bob.near"
	carol flux.AccountID = "carol.near"
	dave  flux.AccountID = "dave.near"
	token flux.AccountID = "token.near"
	gov   flux.AccountID = "gov.near"
)

var (
	a = outcome.NewString("a")
	b = outcome.NewString("b")
)

func u(v uint64) *uint256.Int { return uint256.NewInt(v) }

func newConfig(arbitrationAmount uint64) *params.Config {
	return &params.Config{
		Gov:                               gov,
		FinalArbitrator:                   alice,
		PaymentToken:                      token,
		StakeToken:                        token,
		ValidityBond:                      u(100),
		MaxOutcomes:                       8,
		DefaultChallengeWindowDuration:    1000,
		MinInitialChallengeWindowDuration: 1000,
		FinalArbitratorInvokeAmount:       u(arbitrationAmount),
		MinResolutionBond:                 u(100),
	}
}

func registryEntry(account flux.AccountID) *whitelist.Requester {
	return &whitelist.Requester{AccountID: account, ContractName: string(account)}
}

func newOracle(t *testing.T, cfg *params.Config, initial ...*whitelist.Requester) *Oracle {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	o := New("oracle.near", state.New(db))
	if initial == nil {
		initial = []*whitelist.Requester{registryEntry(bob), registryEntry(carol)}
	}
	require.NoError(t, o.Initialize(cfg, initial))
	return o
}

func env(caller flux.AccountID, now uint64) *Env {
	return &Env{Caller: caller, Now: now}
}

func newArgs() *request.NewArgs {
	description := "a"
	return &request.NewArgs{
		Sources:         []request.Source{},
		Outcomes:        []string{"a", "b"},
		ChallengePeriod: 1500,
		Description:     &description,
		Tags:            []string{"1"},
		DataType:        outcome.StringType(),
	}
}

func drNew(t *testing.T, o *Oracle) uint64 {
	return drNewWithAmount(t, o, 100)
}

func drNewWithAmount(t *testing.T, o *Oracle, amount uint64) uint64 {
	id, change, err := o.NewDataRequest(env(token, 0), bob, u(amount), newArgs())
	require.NoError(t, err)
	assert.True(t, change.IsZero())
	return id
}

func stake(t *testing.T, o *Oracle, staker flux.AccountID, amount uint64, out outcome.Outcome) *uint256.Int {
	unspent, err := o.Stake(env(token, 0), staker, u(amount), &request.StakeArgs{ID: 0, Outcome: out})
	require.NoError(t, err)
	return unspent
}

// drFinalize fills the open round with alice's stake on out and finalizes once it timed out.
func drFinalize(t *testing.T, o *Oracle, out outcome.Outcome) {
	stake(t, o, alice, 2000, out)
	_, err := o.Finalize(env(token, 1501), 0)
	require.NoError(t, err)
}

func arbitrate(t *testing.T, o *Oracle, out outcome.Outcome) {
	_, err := o.FinalArbitratorFinalize(env(alice, 0), 0, out)
	require.NoError(t, err)
}

func claimSum(t *testing.T, o *Oracle, account flux.AccountID) uint64 {
	payout, _, err := o.Claim(env(account, 0), account, 0)
	if err != nil {
		require.EqualError(t, err, "can't claim 0")
		return 0
	}
	return new(uint256.Int).Add(payout.Stake, payout.Fee).Uint64()
}

func TestNewDataRequestRejections(t *testing.T) {
	tests := []struct {
		name   string
		sender flux.AccountID
		caller flux.AccountID
		amount uint64
		modify func(*request.NewArgs)
		want   string
	}{
		{"single outcome", bob, token, 100, func(args *request.NewArgs) { args.Outcomes = []string{"a"} }, "Invalid outcome list either exceeds min of: 2 or max of 8"},
		{"not whitelisted", alice, token, 100, nil, "Err predecessor is not whitelisted"},
		{"not the payment token", bob, alice, 100, nil, "This function can only be called by token.near"},
		{"too many sources", bob, token, 100, func(args *request.NewArgs) { args.Sources = make([]request.Source, 9) }, "Too many sources provided, max sources is: 8"},
		{"no description", bob, token, 100, func(args *request.NewArgs) { args.Description = nil }, "Description should be filled when no sources are given"},
		{"short challenge", bob, token, 100, func(args *request.NewArgs) { args.ChallengePeriod = 999 }, "Challenge shorter than minimum challenge period of 1000"},
		{"long challenge", bob, token, 100, func(args *request.NewArgs) { args.ChallengePeriod = 3001 }, "Challenge period exceeds maximum challenge period of 3000"},
		{"bond not reached", bob, token, 90, nil, "Validity bond of 100 not reached, received only 90"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := newOracle(t, newConfig(1_000_000))
			args := newArgs()
			if tt.modify != nil {
				tt.modify(args)
			}
			_, _, err := o.NewDataRequest(env(tt.caller, 0), tt.sender, u(tt.amount), args)
			assert.EqualError(t, err, tt.want)
			assert.True(t, reverts.IsRevertErr(err))

			n, err := o.Len()
			require.NoError(t, err)
			assert.Zero(t, n)
		})
	}
}

func TestNewDataRequestOpenWhitelist(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	o := New("oracle.near", state.New(db))
	require.NoError(t, o.Initialize(newConfig(1_000_000), nil))

	id, _, err := o.NewDataRequest(env(token, 0), dave, u(100), newArgs())
	require.NoError(t, err)
	s, err := o.RequestByID(id)
	require.NoError(t, err)
	assert.Equal(t, dave, s.Active.Requester.AccountID)
}

func TestPausable(t *testing.T) {
	o := newOracle(t, newConfig(1_000_000))

	_, err := o.TogglePause(env(alice, 0))
	assert.EqualError(t, err, "This method is only callable by the governance contract gov.near")

	paused, err := o.TogglePause(env(gov, 0))
	require.NoError(t, err)
	assert.True(t, paused)

	_, _, err = o.NewDataRequest(env(token, 0), bob, u(100), newArgs())
	assert.EqualError(t, err, "Oracle is paused")
	_, err = o.Stake(env(token, 0), bob, u(1), &request.StakeArgs{Outcome: a})
	assert.EqualError(t, err, "Oracle is paused")
}

func TestStakeRejections(t *testing.T) {
	o := newOracle(t, newConfig(1_000_000))

	_, err := o.Stake(env(token, 0), alice, u(10), &request.StakeArgs{ID: 0, Outcome: a})
	assert.EqualError(t, err, "Error no DataRequest with this id exists")

	drNew(t, o)
	_, err = o.Stake(env(alice, 0), alice, u(10), &request.StakeArgs{ID: 0, Outcome: a})
	assert.EqualError(t, err, "This function can only be called by token.near")

	_, err = o.Stake(env(token, 0), alice, u(10), &request.StakeArgs{ID: 0, Outcome: outcome.NewString("c")})
	assert.EqualError(t, err, "Incompatible outcome")

	stake(t, o, alice, 200, a)
	_, err = o.Stake(env(token, 0), bob, u(10), &request.StakeArgs{ID: 0, Outcome: a})
	assert.EqualError(t, err, "Outcome is incompatible for this round")

	_, err = o.Finalize(env(token, 1501), 0)
	require.NoError(t, err)
	_, err = o.Stake(env(token, 0), bob, u(10), &request.StakeArgs{ID: 0, Outcome: b})
	assert.EqualError(t, err, "Error DataRequest is already finalized")
}

func TestStakeRounds(t *testing.T) {
	o := newOracle(t, newConfig(1_000_000))
	drNew(t, o)

	assert.True(t, stake(t, o, alice, 5, a).IsZero())
	s, err := o.RequestByID(0)
	require.NoError(t, err)
	require.Len(t, s.Active.ResolutionWindows, 1)
	assert.Equal(t, uint64(1500), s.Active.ResolutionWindows[0].EndTime)
	assert.Equal(t, u(200), s.Active.ResolutionWindows[0].BondSize)

	o = newOracle(t, newConfig(1_000_000))
	drNew(t, o)
	stake(t, o, alice, 200, a)
	assert.Equal(t, u(100), stake(t, o, alice, 500, b))

	s, err = o.RequestByID(0)
	require.NoError(t, err)
	windows := s.Active.ResolutionWindows
	require.Len(t, windows, 3)
	for i, want := range []struct{ end, bond uint64 }{{1500, 200}, {1500, 400}, {1000, 800}} {
		assert.Equal(t, uint16(i), windows[i].Round)
		assert.Equal(t, want.end, windows[i].EndTime)
		assert.Equal(t, u(want.bond), windows[i].BondSize)
	}
}

func TestStakeAtLaterTime(t *testing.T) {
	o := newOracle(t, newConfig(1_000_000))
	drNew(t, o)

	for _, st := range []struct {
		staker flux.AccountID
		amount uint64
		out    outcome.Outcome
	}{{alice, 200, a}, {bob, 500, b}} {
		_, err := o.Stake(env(token, 600), st.staker, u(st.amount), &request.StakeArgs{ID: 0, Outcome: st.out})
		require.NoError(t, err)
	}

	s, err := o.RequestByID(0)
	require.NoError(t, err)
	windows := s.Active.ResolutionWindows
	require.Len(t, windows, 3)
	assert.Equal(t, uint64(2100), windows[0].EndTime)
	assert.Equal(t, uint64(2100), windows[1].EndTime)
	assert.Equal(t, uint64(1600), windows[2].EndTime)
}

func TestFinalize(t *testing.T) {
	o := newOracle(t, newConfig(1_000_000))
	drNew(t, o)

	_, err := o.Finalize(env(token, 1501), 0)
	assert.EqualError(t, err, "Error no bonded outcome, `DataRequest` still in progress")

	stake(t, o, alice, 200, a)
	_, err = o.Finalize(env(token, 1000), 0)
	assert.EqualError(t, err, "Error can only be finalized after final dispute round has timed out")

	effects, err := o.Finalize(env(token, 1501), 0)
	require.NoError(t, err)

	require.Len(t, effects, 2)
	assert.Equal(t, &Notification{RequestID: 0, Requester: bob, Outcome: a, Tags: []string{"1"}}, effects[0].Notification)
	assert.Equal(t, []*Transfer{{Token: token, To: bob, Amount: u(100)}}, effects[1].Transfers)

	s, err := o.RequestByID(0)
	require.NoError(t, err)
	require.NotNil(t, s.Finalized)
	assert.Len(t, s.Finalized.ResolutionWindows, 2)
	assert.Equal(t, a, s.Finalized.FinalizedOutcome)

	out, err := o.Outcome(0)
	require.NoError(t, err)
	assert.Equal(t, a, out)

	_, err = o.Finalize(env(token, 1501), 0)
	assert.EqualError(t, err, "Error DataRequest is already finalized")
}

func TestFinalizeRequiresNoArbitrator(t *testing.T) {
	o := newOracle(t, newConfig(250))
	drNew(t, o)
	stake(t, o, alice, 200, a)
	stake(t, o, bob, 400, b)

	_, err := o.Finalize(env(token, 10_000), 0)
	assert.EqualError(t, err, "Can only be finalized by final arbitrator: alice.near")
	_, err = o.Stake(env(token, 0), carol, u(10), &request.StakeArgs{ID: 0, Outcome: a})
	assert.EqualError(t, err, "Final arbitrator is invoked for `DataRequest` with id: 0")
}

func TestFinalArbitrator(t *testing.T) {
	o := newOracle(t, newConfig(250))
	drNew(t, o)
	stake(t, o, alice, 200, a)

	_, err := o.FinalArbitratorFinalize(env(alice, 0), 0, a)
	assert.EqualError(t, err, "Final arbitrator can not finalize `DataRequest` with id: 0")

	stake(t, o, bob, 400, b)

	_, err = o.FinalArbitratorFinalize(env(bob, 0), 0, a)
	assert.EqualError(t, err, "sender is not the final arbitrator of this `DataRequest`, the final arbitrator is: alice.near")
	_, err = o.FinalArbitratorFinalize(env(alice, 0), 0, outcome.NewString("c"))
	assert.EqualError(t, err, "Incompatible outcome")

	effects, err := o.FinalArbitratorFinalize(env(alice, 0), 0, a)
	require.NoError(t, err)
	require.NotEmpty(t, effects)
	assert.True(t, effects[0].Notification.FinalArbitrator)

	s, err := o.RequestByID(0)
	require.NoError(t, err)
	assert.Len(t, s.Finalized.ResolutionWindows, 2)
	assert.Equal(t, a, s.Finalized.FinalizedOutcome)

	_, err = o.FinalArbitratorFinalize(env(alice, 0), 0, a)
	assert.EqualError(t, err, "Error DataRequest is already finalized")
}

func TestFinalOutcomeMustMatchDataType(t *testing.T) {
	o := newOracle(t, newConfig(250))
	args := newArgs()
	args.Outcomes = nil
	_, _, err := o.NewDataRequest(env(token, 0), bob, u(100), args)
	require.NoError(t, err)
	stake(t, o, alice, 200, a)
	stake(t, o, bob, 400, b)

	number := outcome.NewNumber(u(7), u(1), false)
	_, err = o.Stake(env(token, 0), carol, u(10), &request.StakeArgs{ID: 0, Outcome: number})
	require.Error(t, err)
	_, err = o.FinalArbitratorFinalize(env(alice, 0), 0, number)
	assert.EqualError(t, err, "ERR_WRONG_OUTCOME_TYPE")

	provided := newArgs()
	provided.Outcomes = nil
	provided.Provider = carol
	_, _, err = o.NewDataRequest(env(token, 0), bob, u(100), provided)
	require.NoError(t, err)
	_, err = o.FinalizeByProvider(env(carol, 0), 1, number)
	assert.EqualError(t, err, "ERR_WRONG_OUTCOME_TYPE")

	s, err := o.RequestByID(0)
	require.NoError(t, err)
	assert.NotNil(t, s.Active, "still waiting for the arbitrator")
}

func TestUnstake(t *testing.T) {
	o := newOracle(t, newConfig(1_000_000))

	_, err := o.Unstake(env(alice, 0), 0, 0, a, u(0))
	assert.EqualError(t, err, "ERR_DATA_REQUEST_NOT_FOUND")

	drNew(t, o)
	stake(t, o, alice, 10, b)

	_, err = o.Unstake(env(alice, 0), 0, 0, b, u(11))
	assert.EqualError(t, err, "alice.near has less staked on this outcome (10) than unstake amount")
	_, err = o.Unstake(env(alice, 0), 0, 1, b, u(1))
	assert.EqualError(t, err, "ERR_NO_RESOLUTION_WINDOW")

	effects, err := o.Unstake(env(alice, 0), 0, 0, b, u(1))
	require.NoError(t, err)
	require.Len(t, effects, 1)
	assert.Equal(t, []*Transfer{{Token: token, To: alice, Amount: u(1)}}, effects[0].Transfers)

	left, err := o.StakeOf(0, 0, alice, b)
	require.NoError(t, err)
	assert.Equal(t, u(9), left)
	total, err := o.OutcomeStake(0, 0, b)
	require.NoError(t, err)
	assert.Equal(t, u(9), total)

	drFinalize(t, o, a)
	_, err = o.Unstake(env(alice, 0), 0, 0, a, u(0))
	assert.EqualError(t, err, "Cannot withdraw from bonded outcome")
	_, err = o.Unstake(env(token, 0), 0, 0, outcome.NewString("c"), u(1))
	assert.EqualError(t, err, "token.near has less staked on this outcome (0) than unstake amount")

	// losing stake stays withdrawable after finalization
	_, err = o.Unstake(env(alice, 0), 0, 0, b, u(9))
	assert.NoError(t, err)
}

func TestClaimRequiresFinalized(t *testing.T) {
	o := newOracle(t, newConfig(1_000_000))
	_, _, err := o.Claim(env(alice, 0), alice, 0)
	assert.EqualError(t, err, "Error no DataRequest with this id exists")

	drNew(t, o)
	_, _, err = o.Claim(env(alice, 0), alice, 0)
	assert.EqualError(t, err, "Error DataRequest is not yet finalized")

	_, err = o.Outcome(0)
	assert.EqualError(t, err, "Error DataRequest is not yet finalized")
}

func TestClaimTransfers(t *testing.T) {
	cfg := newConfig(1_000_000)
	cfg.PaymentToken = "pay.near"
	o := newOracle(t, cfg)
	_, _, err := o.NewDataRequest(env("pay.near", 0), bob, u(150), newArgs())
	require.NoError(t, err)
	drFinalize(t, o, a)

	payout, effects, err := o.Claim(env(carol, 0), alice, 0)
	require.NoError(t, err)
	assert.Equal(t, u(200), payout.Stake)
	assert.Equal(t, u(50), payout.Fee)
	require.Len(t, effects, 1)
	assert.Equal(t, []*Transfer{
		{Token: token, To: alice, Amount: u(200)},
		{Token: "pay.near", To: alice, Amount: u(50)},
	}, effects[0].Transfers)
}

func TestClaimScenarios(t *testing.T) {
	type stakeOp struct {
		staker flux.AccountID
		amount uint64
		out    outcome.Outcome
	}
	tests := []struct {
		name        string
		arbitration uint64
		stakes      []stakeOp
		arbitrate   *outcome.Outcome
		finalize    outcome.Outcome
		want        map[flux.AccountID]uint64
	}{
		{
			name:     "single",
			finalize: a,
			want:     map[flux.AccountID]uint64{alice: 200},
		},
		{
			name:     "double",
			stakes:   []stakeOp{{bob, 100, a}},
			finalize: a,
			want:     map[flux.AccountID]uint64{alice: 100, bob: 100},
		},
		{
			name:     "two rounds single",
			stakes:   []stakeOp{{bob, 200, a}},
			finalize: b,
			want:     map[flux.AccountID]uint64{alice: 600, bob: 0},
		},
		{
			name:     "two rounds double",
			stakes:   []stakeOp{{bob, 200, a}, {carol, 100, b}},
			finalize: b,
			want:     map[flux.AccountID]uint64{alice: 450, bob: 0, carol: 150},
		},
		{
			name:     "three rounds single",
			stakes:   []stakeOp{{bob, 200, a}, {carol, 400, b}},
			finalize: a,
			want:     map[flux.AccountID]uint64{alice: 1120, bob: 280, carol: 0},
		},
		{
			name:     "three rounds double in round 0",
			stakes:   []stakeOp{{bob, 100, a}, {dave, 100, a}, {carol, 400, b}},
			finalize: a,
			want:     map[flux.AccountID]uint64{alice: 1120, bob: 140, carol: 0, dave: 140},
		},
		{
			name:     "three rounds double in round 2",
			stakes:   []stakeOp{{bob, 200, a}, {carol, 400, b}, {dave, 300, a}},
			finalize: a,
			want:     map[flux.AccountID]uint64{alice: 700, bob: 280, carol: 0, dave: 420},
		},
		{
			name:        "final arbitrator",
			arbitration: 250,
			stakes:      []stakeOp{{alice, 200, a}, {bob, 400, b}},
			arbitrate:   &a,
			want:        map[flux.AccountID]uint64{alice: 600, bob: 0},
		},
		{
			name:        "final arbitrator after extra round",
			arbitration: 600,
			stakes:      []stakeOp{{alice, 200, a}, {bob, 400, b}, {carol, 800, a}},
			arbitrate:   &a,
			want:        map[flux.AccountID]uint64{alice: 280, bob: 0, carol: 1120},
		},
		{
			name:        "final arbitrator overrules the last round",
			arbitration: 600,
			stakes:      []stakeOp{{alice, 200, a}, {bob, 400, b}, {carol, 800, a}},
			arbitrate:   &b,
			want:        map[flux.AccountID]uint64{alice: 0, bob: 1400, carol: 0},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			arbitration := tt.arbitration
			if arbitration == 0 {
				arbitration = 1_000_000
			}
			o := newOracle(t, newConfig(arbitration))
			drNew(t, o)
			for _, st := range tt.stakes {
				stake(t, o, st.staker, st.amount, st.out)
			}
			if tt.arbitrate != nil {
				arbitrate(t, o, *tt.arbitrate)
			} else {
				drFinalize(t, o, tt.finalize)
			}
			for account, want := range tt.want {
				assert.Equal(t, want, claimSum(t, o, account), account)
			}
			// claims only pay once
			for account := range tt.want {
				assert.Zero(t, claimSum(t, o, account), account)
			}
		})
	}
}

func TestClaimWithValidityBond(t *testing.T) {
	cfg := newConfig(1_000_000)
	cfg.ValidityBond = u(2)
	cfg.MinResolutionBond = u(2)
	o := newOracle(t, cfg)
	drNew(t, o)
	drFinalize(t, o, a)
	assert.Equal(t, uint64(294), claimSum(t, o, alice))
}

func TestFixedFee(t *testing.T) {
	cfg := newConfig(1_000_000)
	cfg.ValidityBond = u(2)
	cfg.MinResolutionBond = u(2)

	o := newOracle(t, cfg)
	drNewWithAmount(t, o, 22)
	drFinalize(t, o, a)
	assert.Equal(t, uint64(60), claimSum(t, o, alice))

	requester := registryEntry(bob)
	requester.FixedFee = u(20)
	o = newOracle(t, cfg, requester)
	_, change, err := o.NewDataRequest(env(token, 0), bob, u(30), newArgs())
	require.NoError(t, err)
	assert.Equal(t, u(8), change)
	drFinalize(t, o, a)
	assert.Equal(t, uint64(60), claimSum(t, o, alice))
}

func TestTinyStakeMultiplier(t *testing.T) {
	tiny := uint16(1)
	requester := registryEntry(bob)
	requester.StakeMultiplier = &tiny
	o := newOracle(t, newConfig(1_000_000), requester)

	_, _, err := o.NewDataRequest(env(token, 0), bob, u(100), newArgs())
	assert.EqualError(t, err, "resolution bond of 100 multiplied is 0")
	assert.True(t, reverts.IsRevertErr(err))
	n, err := o.Len()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestInvalidForfeitsValidityBond(t *testing.T) {
	o := newOracle(t, newConfig(1_000_000))
	drNew(t, o)
	stake(t, o, alice, 2000, outcome.Invalid())
	effects, err := o.Finalize(env(token, 1501), 0)
	require.NoError(t, err)
	require.Len(t, effects, 1, "no validity bond refund")
	assert.True(t, effects[0].Notification.Outcome.IsInvalid())

	payout, _, err := o.Claim(env(alice, 0), alice, 0)
	require.NoError(t, err)
	assert.Equal(t, u(200), payout.Stake)
	assert.Equal(t, u(100), payout.Fee)
}

func TestFinalizeByProvider(t *testing.T) {
	o := newOracle(t, newConfig(1_000_000))
	args := newArgs()
	args.Outcomes = nil
	args.Provider = bob
	_, _, err := o.NewDataRequest(env(token, 0), bob, u(100), args)
	require.NoError(t, err)
	_, _, err = o.NewDataRequest(env(token, 0), bob, u(100), newArgs())
	require.NoError(t, err)

	answer := outcome.NewString("1_000_000")
	_, err = o.FinalizeByProvider(env(carol, 0), 0, answer)
	assert.EqualError(t, err, "this request can only be finalized by the provider")
	_, err = o.FinalizeByProvider(env(carol, 0), 1, a)
	assert.EqualError(t, err, "error this is not a provider data request")

	effects, err := o.FinalizeByProvider(env(bob, 0), 0, answer)
	require.NoError(t, err)
	assert.Equal(t, answer, effects[0].Notification.Outcome)

	out, err := o.Outcome(0)
	require.NoError(t, err)
	assert.Equal(t, answer, out)
}

func TestGetters(t *testing.T) {
	o := newOracle(t, newConfig(1_000_000))

	latest, err := o.LatestRequest()
	require.NoError(t, err)
	assert.Nil(t, latest)

	for range 3 {
		drNew(t, o)
	}

	latest, err = o.LatestRequest()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), latest.Active.ID)

	byID, err := o.RequestByID(1)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), byID.Active.ID)

	missing, err := o.RequestByID(3)
	require.NoError(t, err)
	assert.Nil(t, missing)

	for _, tt := range []struct{ from, limit, want uint64 }{{0, 1, 1}, {1, 1, 1}, {1, 2, 2}, {0, 3, 3}, {2, 10, 1}, {5, 1, 0}, {1, ^uint64(0), 2}} {
		list, err := o.Requests(tt.from, tt.limit)
		require.NoError(t, err)
		assert.Len(t, list, int(tt.want), "from %d limit %d", tt.from, tt.limit)
	}
	list, err := o.Requests(0, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), list[0].Active.ID)

	exists, err := o.Exists(2)
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = o.Exists(3)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestGovernance(t *testing.T) {
	o := newOracle(t, newConfig(1_000_000))
	drNew(t, o)

	next := newConfig(1_000_000)
	next.Gov = alice
	next.ValidityBond = u(10)

	_, err := o.SetConfig(env(alice, 0), next)
	assert.EqualError(t, err, "This method is only callable by the governance contract gov.near")

	invalid := newConfig(1_000_000)
	invalid.ValidityBond = u(0)
	_, err = o.SetConfig(env(gov, 0), invalid)
	assert.EqualError(t, err, "validity bond has to be higher than 0")

	id, err := o.SetConfig(env(gov, 0), next)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), id)

	cfg, current, err := o.Config()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), current)
	assert.Equal(t, alice, cfg.Gov)

	first, err := o.ConfigByID(0)
	require.NoError(t, err)
	assert.Equal(t, gov, first.Gov)

	// the existing request keeps its pinned snapshot
	s, err := o.RequestByID(0)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), s.Active.GlobalConfigID)
	assert.Equal(t, u(100), s.Active.RequestConfig.ValidityBond)

	assert.Error(t, o.AddToWhitelist(env(gov, 0), registryEntry(dave)), "gov moved to alice")
	require.NoError(t, o.AddToWhitelist(env(alice, 0), registryEntry(dave)))
	ok, err := o.WhitelistContains(dave)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, o.RemoveFromWhitelist(env(alice, 0), dave))
	ok, err = o.WhitelistContains(dave)
	require.NoError(t, err)
	assert.False(t, ok)

	r, err := o.Requester(bob)
	require.NoError(t, err)
	assert.Equal(t, bob, r.AccountID)
}

func TestInitializeOnce(t *testing.T) {
	o := newOracle(t, newConfig(1_000_000))
	assert.EqualError(t, o.Initialize(newConfig(1_000_000), nil), "oracle is already initialized")
}
