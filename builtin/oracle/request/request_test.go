// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package request

import (
	"testing"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluxprotocol/oracle/builtin/oracle/outcome"
	"github.com/fluxprotocol/oracle/builtin/oracle/window"
	"github.com/fluxprotocol/oracle/builtin/params"
	"github.com/fluxprotocol/oracle/builtin/reverts"
	"github.com/fluxprotocol/oracle/builtin/solidity"
	"github.com/fluxprotocol/oracle/builtin/whitelist"
	"github.com/fluxprotocol/oracle/lvldb"
	"github.com/fluxprotocol/oracle/state"
)

var (
	a = outcome.NewString("a")
	b = outcome.NewString("b")
)

func u(v uint64) *uint256.Int { return uint256.NewInt(v) }

func newConfig(arbitrationAmount uint64) *params.Config {
	return &params.Config{
		Gov:                               "gov.near",
		FinalArbitrator:                   "alice.near",
		PaymentToken:                      "token.near",
		StakeToken:                        "token.near",
		ValidityBond:                      u(100),
		MaxOutcomes:                       8,
		DefaultChallengeWindowDuration:    1000,
		MinInitialChallengeWindowDuration: 1000,
		FinalArbitratorInvokeAmount:       u(arbitrationAmount),
		MinResolutionBond:                 u(100),
	}
}

func newArgs() *NewArgs {
	return &NewArgs{
		Sources:         []Source{},
		Outcomes:        []string{"a", "b"},
		ChallengePeriod: 1500,
		Tags:            []string{"1"},
		DataType:        outcome.StringType(),
	}
}

func newStakes(t *testing.T) *window.Stakes {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	return window.NewStakes(solidity.NewContext("oracle.near", state.New(db)))
}

func newActive(arbitrationAmount uint64) *Active {
	return NewActive(whitelist.Default("bob.near"), 0, 0, newConfig(arbitrationAmount), u(0), newArgs())
}

func TestStakeOpensRounds(t *testing.T) {
	s := newStakes(t)
	dr := newActive(1_000_000)

	unspent, err := dr.Stake(s, "alice.near", a, u(5), 0)
	require.NoError(t, err)
	assert.True(t, unspent.IsZero())
	require.Len(t, dr.Windows, 1)
	assert.Equal(t, uint64(1500), dr.Windows[0].EndTime)
	assert.Equal(t, u(200), dr.Windows[0].BondSize)

	_, err = dr.Stake(s, "alice.near", a, u(195), 600)
	require.NoError(t, err)
	require.NoError(t, dr.AssertCanStakeOnOutcome(b))
	assert.ErrorContains(t, dr.AssertCanStakeOnOutcome(a), "Outcome is incompatible for this round")

	_, err = dr.Stake(s, "bob.near", b, u(400), 600)
	require.NoError(t, err)

	require.Len(t, dr.Windows, 3)
	for i, want := range []struct{ end, bond uint64 }{{1500, 200}, {2100, 400}, {1600, 800}} {
		assert.Equal(t, uint16(i), dr.Windows[i].Round)
		assert.Equal(t, want.end, dr.Windows[i].EndTime, "round %d", i)
		assert.Equal(t, u(want.bond), dr.Windows[i].BondSize, "round %d", i)
	}

	final, err := dr.FinalOutcome()
	require.NoError(t, err)
	assert.Equal(t, b, final)
}

func TestStakeReturnsExcess(t *testing.T) {
	s := newStakes(t)
	dr := newActive(1_000_000)

	unspent, err := dr.Stake(s, "alice.near", a, u(250), 0)
	require.NoError(t, err)
	assert.Equal(t, u(50), unspent)
	assert.Len(t, dr.Windows, 2)
}

func TestFinalArbitratorTrigger(t *testing.T) {
	s := newStakes(t)
	dr := newActive(250)

	_, err := dr.Stake(s, "alice.near", a, u(200), 0)
	require.NoError(t, err)
	assert.False(t, dr.FinalArbitratorTriggered)

	_, err = dr.Stake(s, "bob.near", b, u(400), 0)
	require.NoError(t, err)
	assert.True(t, dr.FinalArbitratorTriggered)
	assert.Len(t, dr.Windows, 2)

	assert.EqualError(t, dr.AssertFinalArbitratorNotInvoked(), "Final arbitrator is invoked for `DataRequest` with id: 0")
	assert.EqualError(t, dr.AssertCanFinalize(10_000), "Can only be finalized by final arbitrator: alice.near")
	assert.NoError(t, dr.AssertFinalArbitratorInvoked())
	assert.NoError(t, dr.AssertFinalArbitrator("alice.near"))
	assert.Error(t, dr.AssertFinalArbitrator("bob.near"))

	_, err = dr.FinalOutcome()
	assert.Error(t, err)
}

func TestAssertCanFinalize(t *testing.T) {
	s := newStakes(t)
	dr := newActive(1_000_000)
	assert.EqualError(t, dr.AssertCanFinalize(0), "Error no bonded outcome, `DataRequest` still in progress")

	_, err := dr.Stake(s, "alice.near", a, u(100), 0)
	require.NoError(t, err)
	assert.EqualError(t, dr.AssertCanFinalize(1499), "Error can only be finalized after final dispute round has timed out")
	assert.NoError(t, dr.AssertCanFinalize(1500))

	_, err = dr.FinalOutcome()
	assert.Error(t, err, "a single open round has no final outcome")
}

func TestOutcomeChecks(t *testing.T) {
	dr := newActive(1_000_000)
	num := outcome.NewNumber(u(1), u(10), false)

	assert.NoError(t, dr.AssertValidOutcome(a))
	assert.NoError(t, dr.AssertValidOutcome(outcome.Invalid()))
	assert.EqualError(t, dr.AssertValidOutcome(outcome.NewString("c")), "Incompatible outcome")
	assert.EqualError(t, dr.AssertValidOutcome(num), "ERR_OUTCOME_NOT_STRING")

	assert.NoError(t, dr.AssertValidOutcomeType(a))
	assert.EqualError(t, dr.AssertValidOutcomeType(num), "ERR_WRONG_OUTCOME_TYPE")

	dr.DataType = outcome.NumberType(u(10))
	assert.NoError(t, dr.AssertValidOutcomeType(num))
	assert.NoError(t, dr.AssertValidOutcomeType(outcome.Invalid()))
	assert.EqualError(t, dr.AssertValidOutcomeType(a), "ERR_WRONG_OUTCOME_TYPE")
	assert.EqualError(t, dr.AssertValidOutcomeType(outcome.NewNumber(u(1), u(100), false)), "ERR_WRONG_MULTIPLIER")
}

func TestProvider(t *testing.T) {
	dr := newActive(1_000_000)
	assert.EqualError(t, dr.AssertProvider("carol.near"), "error this is not a provider data request")

	dr.Provider = "carol.near"
	assert.NoError(t, dr.AssertProvider("carol.near"))
	assert.EqualError(t, dr.AssertProvider("bob.near"), "this request can only be finalized by the provider")
}

func TestClaimAndFeePool(t *testing.T) {
	s := newStakes(t)
	dr := NewActive(whitelist.Default("bob.near"), 0, 0, newConfig(1_000_000), u(50), newArgs())

	_, err := dr.Stake(s, "alice.near", a, u(100), 0)
	require.NoError(t, err)
	_, err = dr.Stake(s, "dave.near", a, u(100), 0)
	require.NoError(t, err)
	_, err = dr.Stake(s, "carol.near", b, u(400), 0)
	require.NoError(t, err)

	f := dr.Finalize(a)
	assert.Equal(t, u(100), f.ValidityBondRefund())

	p, err := f.Claim(s, "alice.near")
	require.NoError(t, err)
	// own stake plus half of the losing round
	assert.Equal(t, u(300), p.Stake)
	assert.Equal(t, u(25), p.Fee)

	p, err = f.Claim(s, "alice.near")
	require.NoError(t, err)
	assert.True(t, p.IsZero())

	p, err = f.Claim(s, "carol.near")
	require.NoError(t, err)
	assert.True(t, p.IsZero())

	invalid := dr.Finalize(outcome.Invalid())
	assert.Nil(t, invalid.ValidityBondRefund())
	pool, err := invalid.FeePool()
	require.NoError(t, err)
	assert.Equal(t, u(150), pool)
}

func TestRecordRLP(t *testing.T) {
	s := newStakes(t)
	dr := newActive(1_000_000)
	_, err := dr.Stake(s, "alice.near", a, u(200), 7)
	require.NoError(t, err)

	data, err := rlp.EncodeToBytes(&Record{Active: dr})
	require.NoError(t, err)
	var rec Record
	require.NoError(t, rlp.DecodeBytes(data, &rec))
	require.NotNil(t, rec.Active)
	assert.Nil(t, rec.Finalized)
	assert.Equal(t, dr.Windows, rec.Active.Windows)
	assert.Equal(t, dr.Outcomes, rec.Active.Outcomes)
	assert.Equal(t, dr.DataType, rec.Active.DataType)

	data, err = rlp.EncodeToBytes(&Record{Finalized: dr.Finalize(a)})
	require.NoError(t, err)
	rec = Record{}
	require.NoError(t, rlp.DecodeBytes(data, &rec))
	assert.Nil(t, rec.Active)
	require.NotNil(t, rec.Finalized)
	assert.Equal(t, a, rec.Finalized.FinalizedOutcome)
	assert.Equal(t, uint64(0), rec.ID())
	assert.Len(t, rec.Windows(), 2)
}

func TestValidate(t *testing.T) {
	desc := "what"
	cfg := newConfig(1_000_000)
	tests := []struct {
		name   string
		modify func(*NewArgs)
		want   string
	}{
		{"valid", func(*NewArgs) {}, ""},
		{"no description nor sources", func(args *NewArgs) { args.Sources = nil }, "Description should be filled when no sources are given"},
		{"description without sources", func(args *NewArgs) { args.Sources = nil; args.Description = &desc }, ""},
		{"too many sources", func(args *NewArgs) { args.Sources = make([]Source, 9) }, "Too many sources provided, max sources is: 8"},
		{"short challenge", func(args *NewArgs) { args.ChallengePeriod = 999 }, "Challenge shorter than minimum challenge period of 1000"},
		{"long challenge", func(args *NewArgs) { args.ChallengePeriod = 3001 }, "Challenge period exceeds maximum challenge period of 3000"},
		{"too many tags", func(args *NewArgs) { args.Tags = make([]string, 11) }, "Too many tags provided, max tags is: 10"},
		{"one outcome", func(args *NewArgs) { args.Outcomes = []string{"a"} }, "Invalid outcome list either exceeds min of: 2 or max of 8"},
		{"nine outcomes", func(args *NewArgs) { args.Outcomes = make([]string, 9) }, "Invalid outcome list either exceeds min of: 2 or max of 8"},
		{"no allow-list", func(args *NewArgs) { args.Outcomes = nil }, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := newArgs()
			args.Sources = []Source{{EndPoint: "https://example.org", SourcePath: "a.b"}}
			tt.modify(args)
			err := Validate(args, cfg)
			if tt.want == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tt.want)
			kind, _ := reverts.KindOf(err)
			assert.Equal(t, reverts.Validation, kind)
		})
	}
}
