// Package storetest holds behaviour tests shared by every store.Store backend.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goXRPLrwa/internal/instrument"
	"github.com/LeJamon/goXRPLrwa/internal/store"
)

// Factory opens an empty store for one subtest.
type Factory func(t *testing.T) store.Store

// Run exercises the store contract against a backend.
func Run(t *testing.T, open Factory) {
	t.Run("RoleBindings", func(t *testing.T) { testRoleBindings(t, open(t)) })
	t.Run("RoleBindingRace", func(t *testing.T) { testRoleBindingRace(t, open(t)) })
	t.Run("Instruments", func(t *testing.T) { testInstruments(t, open(t)) })
	t.Run("CurrencyImmutable", func(t *testing.T) { testCurrencyImmutable(t, open(t)) })
	t.Run("StateTransitions", func(t *testing.T) { testStateTransitions(t, open(t)) })
	t.Run("Reports", func(t *testing.T) { testReports(t, open(t)) })
}

func newInstrument(t *testing.T, code string) *instrument.Instrument {
	t.Helper()
	maturity := time.Date(2027, 6, 1, 0, 0, 0, 0, time.UTC)
	inst, err := instrument.New(code, instrument.KindBond, decimal.NewFromInt(1000), instrument.Terms{
		Principal:  decimal.NewFromInt(1),
		ProfitRate: decimal.RequireFromString("0.05"),
		MaturityAt: &maturity,
	}, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	return inst
}

func testRoleBindings(t *testing.T, s store.Store) {
	ctx := context.Background()

	_, err := s.GetRoleBinding(ctx, store.RoleIssuer)
	assert.ErrorIs(t, err, store.ErrNotFound)

	saved, created, err := s.SaveRoleBinding(ctx, store.RoleBinding{Role: store.RoleIssuer, Address: "rFirst", Seed: "sFirst"})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "rFirst", saved.Address)

	// A second bind never reassigns the role.
	saved, created, err = s.SaveRoleBinding(ctx, store.RoleBinding{Role: store.RoleIssuer, Address: "rSecond", Seed: "sSecond"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "rFirst", saved.Address)
	assert.Equal(t, "sFirst", saved.Seed)

	got, err := s.GetRoleBinding(ctx, store.RoleIssuer)
	require.NoError(t, err)
	assert.Equal(t, "rFirst", got.Address)

	_, _, err = s.SaveRoleBinding(ctx, store.RoleBinding{Role: "AUDITOR", Address: "r", Seed: "s"})
	assert.ErrorIs(t, err, store.ErrUnknownRole)
}

func testRoleBindingRace(t *testing.T, s store.Store) {
	ctx := context.Background()
	const racers = 8

	var wg sync.WaitGroup
	results := make([]store.RoleBinding, racers)
	createdCount := make([]bool, racers)
	errs := make([]error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], createdCount[i], errs[i] = s.SaveRoleBinding(ctx, store.RoleBinding{
				Role:    store.RoleTreasury,
				Address: fmt.Sprintf("rTreasury%d", i),
				Seed:    fmt.Sprintf("s%d", i),
			})
		}(i)
	}
	wg.Wait()

	winners := 0
	for i := 0; i < racers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, results[0].Address, results[i].Address)
		if createdCount[i] {
			winners++
		}
	}
	assert.Equal(t, 1, winners)
}

func testInstruments(t *testing.T, s store.Store) {
	ctx := context.Background()
	inst := newInstrument(t, "GREENBOND")
	require.NoError(t, s.CreateInstrument(ctx, inst))

	err := s.CreateInstrument(ctx, newInstrument(t, "GREENBOND"))
	assert.ErrorIs(t, err, store.ErrDuplicate)

	got, err := s.GetInstrumentByCode(ctx, "GREENBOND")
	require.NoError(t, err)
	assert.Equal(t, inst.ID, got.ID)
	assert.True(t, got.TotalSupply.Equal(decimal.NewFromInt(1000)))
	assert.True(t, got.ProfitRate.Equal(decimal.RequireFromString("0.05")))
	require.NotNil(t, got.MaturityAt)
	assert.True(t, got.MaturityAt.Equal(*inst.MaturityAt))
	assert.Equal(t, instrument.StateDraft, got.State)
	assert.False(t, got.IsMinted())

	byID, err := s.GetInstrument(ctx, inst.ID)
	require.NoError(t, err)
	assert.Equal(t, "GREENBOND", byID.Code)

	_, err = s.GetInstrument(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.CreateInstrument(ctx, newInstrument(t, "SOLARFARM")))
	all, err := s.ListInstruments(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	drafts, err := s.ListInstruments(ctx, instrument.StateDraft)
	require.NoError(t, err)
	assert.Len(t, drafts, 2)

	published, err := s.ListInstruments(ctx, instrument.StatePublished)
	require.NoError(t, err)
	assert.Empty(t, published)
}

func testCurrencyImmutable(t *testing.T, s store.Store) {
	ctx := context.Background()
	inst := newInstrument(t, "GREENBOND")
	require.NoError(t, s.CreateInstrument(ctx, inst))

	require.NoError(t, s.SetMinted(ctx, inst.ID, "GRE", "rIssuer", "rTreasury", "HASH"))
	// Recording the same id again is harmless.
	require.NoError(t, s.SetMinted(ctx, inst.ID, "GRE", "rIssuer", "rTreasury", "HASH"))

	err := s.SetMinted(ctx, inst.ID, "OTH", "rIssuer", "rTreasury", "HASH2")
	assert.ErrorIs(t, err, store.ErrImmutable)

	got, err := s.GetInstrument(ctx, inst.ID)
	require.NoError(t, err)
	assert.EqualValues(t, "GRE", got.CurrencyID)
	assert.Equal(t, "rIssuer", got.IssuerAddress)
	assert.Equal(t, "rTreasury", got.TreasuryAddress)
	assert.Equal(t, "HASH", got.MintTxHash)

	err = s.SetMinted(ctx, "missing", "GRE", "r", "r", "h")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testStateTransitions(t *testing.T, s store.Store) {
	ctx := context.Background()
	inst := newInstrument(t, "GREENBOND")
	require.NoError(t, s.CreateInstrument(ctx, inst))

	err := s.UpdateInstrumentState(ctx, inst.ID, instrument.StateRedeemed, store.StateExtra{})
	assert.ErrorIs(t, err, store.ErrStateConflict)
	var te *instrument.TransitionError
	assert.True(t, errors.As(err, &te))

	require.NoError(t, s.UpdateInstrumentState(ctx, inst.ID, instrument.StatePublished, store.StateExtra{PublishTxHash: "OFFER"}))

	redeemedAt := time.Date(2027, 6, 2, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.UpdateInstrumentState(ctx, inst.ID, instrument.StateRedeemed, store.StateExtra{
		LastRunID:  "run-1",
		RedeemedAt: &redeemedAt,
	}))

	got, err := s.GetInstrument(ctx, inst.ID)
	require.NoError(t, err)
	assert.Equal(t, instrument.StateRedeemed, got.State)
	assert.Equal(t, "OFFER", got.PublishTxHash)
	assert.Equal(t, "run-1", got.LastRunID)
	require.NotNil(t, got.RedeemedAt)
	assert.True(t, got.RedeemedAt.Equal(redeemedAt))

	err = s.UpdateInstrumentState(ctx, inst.ID, instrument.StatePublished, store.StateExtra{})
	assert.ErrorIs(t, err, store.ErrStateConflict)
}

func testReports(t *testing.T, s store.Store) {
	ctx := context.Background()
	payload := []byte(`{"holders_processed":2,"total_xrp_paid":"12"}`)

	require.NoError(t, s.SaveReport(ctx, store.ReportRecord{
		RunID: "run-1", InstrumentID: "inst-1", Payload: payload,
		CreatedAt: time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC),
	}))
	require.NoError(t, s.SaveReport(ctx, store.ReportRecord{
		RunID: "run-2", InstrumentID: "inst-1", Payload: []byte(`{}`),
		CreatedAt: time.Date(2027, 1, 2, 0, 0, 0, 0, time.UTC),
	}))

	err := s.SaveReport(ctx, store.ReportRecord{RunID: "run-1", InstrumentID: "inst-1", Payload: []byte(`{}`)})
	assert.ErrorIs(t, err, store.ErrDuplicate)

	got, err := s.GetReport(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, payload, got.Payload)
	assert.Equal(t, "inst-1", got.InstrumentID)

	_, err = s.GetReport(ctx, "nope")
	assert.ErrorIs(t, err, store.ErrNotFound)

	list, err := s.ListReports(ctx, "inst-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "run-1", list[0].RunID)
	assert.Equal(t, "run-2", list[1].RunID)
}
