package instrument

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	maturity := now.AddDate(1, 0, 0)

	inst, err := New(" GREENBOND ", KindBond, decimal.NewFromInt(1000), Terms{
		Principal:  decimal.NewFromInt(1),
		ProfitRate: decimal.RequireFromString("0.05"),
		MaturityAt: &maturity,
	}, now)
	require.NoError(t, err)
	assert.Equal(t, "GREENBOND", inst.Code)
	assert.Equal(t, StateDraft, inst.State)
	assert.False(t, inst.IsMinted())
	assert.NotEmpty(t, inst.ID)
	assert.False(t, inst.Matured(now))
	assert.True(t, inst.Matured(maturity))

	_, err = New("", KindAsset, decimal.NewFromInt(1), Terms{}, now)
	assert.ErrorIs(t, err, ErrEmptyCode)
	_, err = New("X", KindAsset, decimal.Zero, Terms{}, now)
	assert.ErrorIs(t, err, ErrInvalidSupply)
	_, err = New("X", KindBond, decimal.NewFromInt(1), Terms{}, now)
	assert.ErrorIs(t, err, ErrMissingMaturity)
}

func TestLifecycle(t *testing.T) {
	tests := []struct {
		from, to State
		ok       bool
	}{
		{StateDraft, StatePublished, true},
		{StatePublished, StateRedeemed, true},
		{StateDraft, StateRedeemed, false},
		{StateRedeemed, StatePublished, false},
		{StatePublished, StateDraft, false},
		{State("BOGUS"), StateDraft, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.ok, CanTransition(tt.from, tt.to))
			err := Transition(tt.from, tt.to)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				var te *TransitionError
				assert.ErrorAs(t, err, &te)
			}
		})
	}
	assert.True(t, StateRedeemed.IsTerminal())
	assert.False(t, StateDraft.IsTerminal())
	assert.False(t, State("BOGUS").Valid())
}

func TestPayouts(t *testing.T) {
	p, err := PayoutFromSale(decimal.NewFromInt(12), decimal.NewFromInt(1000))
	require.NoError(t, err)
	assert.True(t, p.Equal(decimal.RequireFromString("0.012")))

	_, err = PayoutFromSale(decimal.NewFromInt(12), decimal.Zero)
	assert.ErrorIs(t, err, ErrInvalidSupply)

	b, err := PayoutFromBond(decimal.NewFromInt(10), decimal.RequireFromString("0.05"))
	require.NoError(t, err)
	assert.True(t, b.Equal(decimal.RequireFromString("10.5")))

	kind, err := ParseKind("bond")
	require.NoError(t, err)
	assert.Equal(t, KindBond, kind)
	_, err = ParseKind("share")
	assert.Error(t, err)
}
