package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diediegodie/tattoo-studio-system/extrato"
	"github.com/diediegodie/tattoo-studio-system/store/sqlite"
)

func newStore(t *testing.T) *sqlite.Store {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleSnapshot(month time.Month, year int) *extrato.MonthlySnapshot {
	name := "Carlos"
	return &extrato.MonthlySnapshot{
		Month: month,
		Year:  year,
		Payments: []extrato.ArchivedPayment{{
			ID: 1, Data: "2025-09-10", Valor: decimal.NewFromInt(200),
			FormaPagamento: "pix", ClienteName: &name, ArtistaName: "Luna",
			CreatedAt: "2025-09-10T12:00:00Z",
		}},
		Sessions:    []extrato.ArchivedSession{},
		Commissions: []extrato.ArchivedCommission{},
		Expenses:    []extrato.ArchivedExpense{},
		Totals: extrato.Totals{
			ReceitaTotal:            decimal.NewFromInt(200),
			Saldo:                   decimal.NewFromInt(200),
			PorArtista:              map[string]extrato.ArtistTotals{},
			PorFormaPagamento:       map[string]decimal.Decimal{"pix": decimal.NewFromInt(200)},
			GastosPorFormaPagamento: map[string]decimal.Decimal{},
			GastosPorCategoria:      map[string]decimal.Decimal{},
		},
		CreatedAt: time.Date(2025, time.October, 2, 8, 0, 0, 0, time.UTC),
	}
}

// =============================================================================
// MIGRATION
// =============================================================================

func TestNew_MigrationIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "studio.db")

	s1, err := sqlite.New(path)
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := sqlite.New(path)
	require.NoError(t, err)
	require.NoError(t, s2.Close())
}

// =============================================================================
// SNAPSHOT ROWS
// =============================================================================

func TestSnapshot_InsertGetRoundtrip(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	p := extrato.Period{Month: time.September, Year: 2025}

	err := store.WithTx(ctx, func(tx extrato.Tx) error {
		return tx.InsertMonthlySnapshot(ctx, sampleSnapshot(time.September, 2025))
	})
	require.NoError(t, err)

	snap, err := store.GetMonthlySnapshot(ctx, p)
	require.NoError(t, err)
	require.NotNil(t, snap)

	assert.Equal(t, time.September, snap.Month)
	assert.Equal(t, 2025, snap.Year)
	require.Len(t, snap.Payments, 1)
	assert.Equal(t, "2025-09-10", snap.Payments[0].Data)
	require.NotNil(t, snap.Payments[0].ClienteName)
	assert.Equal(t, "Carlos", *snap.Payments[0].ClienteName)
	assert.True(t, snap.Totals.ReceitaTotal.Equal(decimal.NewFromInt(200)))
}

func TestSnapshot_GetMissingReturnsNil(t *testing.T) {
	store := newStore(t)

	snap, err := store.GetMonthlySnapshot(context.Background(), extrato.Period{Month: time.May, Year: 2020})
	require.NoError(t, err)
	assert.Nil(t, snap)
}

func TestSnapshot_DuplicateInsertIsConflict(t *testing.T) {
	// GIVEN: September already has a snapshot row
	// WHEN: Inserting a second one for the same (mes, ano)
	// THEN: The unique index surfaces as a ConflictError

	store := newStore(t)
	ctx := context.Background()

	err := store.WithTx(ctx, func(tx extrato.Tx) error {
		return tx.InsertMonthlySnapshot(ctx, sampleSnapshot(time.September, 2025))
	})
	require.NoError(t, err)

	err = store.WithTx(ctx, func(tx extrato.Tx) error {
		return tx.InsertMonthlySnapshot(ctx, sampleSnapshot(time.September, 2025))
	})
	assert.True(t, extrato.IsConflict(err), "got: %v", err)
}

func TestSnapshot_ListNewestFirst(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	for _, p := range []extrato.Period{
		{Month: time.January, Year: 2025},
		{Month: time.December, Year: 2024},
		{Month: time.February, Year: 2025},
	} {
		require.NoError(t, store.UpsertMonthlySnapshot(ctx, sampleSnapshot(p.Month, p.Year)))
	}

	snapshots, err := store.ListMonthlySnapshots(ctx)
	require.NoError(t, err)
	require.Len(t, snapshots, 3)
	assert.Equal(t, extrato.Period{Month: time.February, Year: 2025}, snapshots[0].Period())
	assert.Equal(t, extrato.Period{Month: time.January, Year: 2025}, snapshots[1].Period())
	assert.Equal(t, extrato.Period{Month: time.December, Year: 2024}, snapshots[2].Period())
}

func TestSnapshot_UpsertOverwrites(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	p := extrato.Period{Month: time.September, Year: 2025}

	require.NoError(t, store.UpsertMonthlySnapshot(ctx, sampleSnapshot(time.September, 2025)))

	updated := sampleSnapshot(time.September, 2025)
	updated.Totals.ReceitaTotal = decimal.NewFromInt(999)
	require.NoError(t, store.UpsertMonthlySnapshot(ctx, updated))

	snap, err := store.GetMonthlySnapshot(ctx, p)
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.True(t, snap.Totals.ReceitaTotal.Equal(decimal.NewFromInt(999)))
}

// =============================================================================
// WINDOW QUERIES
// =============================================================================

func TestPaymentsInWindow_HalfOpenBoundary(t *testing.T) {
	// GIVEN: Payments on Sep 1 00:00, Sep 30 and Oct 1 00:00
	// WHEN: Querying the September window
	// THEN: Oct 1 00:00 is excluded, Sep 1 00:00 included

	store := newStore(t)
	ctx := context.Background()

	artistaID, err := store.InsertArtista(ctx, "Luna")
	require.NoError(t, err)

	for _, d := range []time.Time{
		time.Date(2025, time.September, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, time.September, 30, 23, 0, 0, 0, time.UTC),
		time.Date(2025, time.October, 1, 0, 0, 0, 0, time.UTC),
	} {
		_, err := store.InsertPagamento(ctx, extrato.Payment{
			Date: d, Amount: decimal.NewFromInt(10), Method: "pix", ArtistID: artistaID,
		})
		require.NoError(t, err)
	}

	from := time.Date(2025, time.September, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, time.October, 1, 0, 0, 0, 0, time.UTC)

	var payments []extrato.Payment
	err = store.WithTx(ctx, func(tx extrato.Tx) error {
		var err error
		payments, err = tx.PaymentsInWindow(ctx, from, to)
		return err
	})
	require.NoError(t, err)
	assert.Len(t, payments, 2)
}

func TestDeleteSessions_AfterClearingPaymentRefs(t *testing.T) {
	// The session<->payment cycle: clearing the back-reference first lets
	// payments and then sessions go while foreign keys stay enforced.

	store := newStore(t)
	ctx := context.Background()

	clienteID, err := store.InsertCliente(ctx, "Carlos")
	require.NoError(t, err)
	artistaID, err := store.InsertArtista(ctx, "Luna")
	require.NoError(t, err)

	date := time.Date(2025, time.September, 10, 0, 0, 0, 0, time.UTC)
	sessID, err := store.InsertSessao(ctx, extrato.Session{
		Date: date, Amount: decimal.NewFromInt(100), ClientID: clienteID, ArtistID: artistaID,
	})
	require.NoError(t, err)

	payID, err := store.InsertPagamento(ctx, extrato.Payment{
		Date: date, Amount: decimal.NewFromInt(100), Method: "pix",
		ArtistID: artistaID, SessionID: &sessID,
	})
	require.NoError(t, err)
	require.NoError(t, store.SetSessaoPayment(ctx, sessID, payID))

	err = store.WithTx(ctx, func(tx extrato.Tx) error {
		if err := tx.ClearSessionPaymentRefs(ctx, []int64{sessID}); err != nil {
			return err
		}
		if n, err := tx.DeletePayments(ctx, []int64{payID}); err != nil || n != 1 {
			return err
		}
		n, err := tx.DeleteSessions(ctx, []int64{sessID})
		require.Equal(t, int64(1), n)
		return err
	})
	require.NoError(t, err)

	left, err := store.CountSourceRows(ctx, date.AddDate(0, 0, -1), date.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Zero(t, left)
}

func TestDeleteByIDs_EmptySliceIsNoOp(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	err := store.WithTx(ctx, func(tx extrato.Tx) error {
		n, err := tx.DeletePayments(ctx, nil)
		require.NoError(t, err)
		assert.Zero(t, n)
		return nil
	})
	require.NoError(t, err)
}

// =============================================================================
// RUN LEDGER
// =============================================================================

func TestRunLedger_AppendAndQuery(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	p := extrato.Period{Month: time.September, Year: 2025}

	entries := []extrato.RunLogEntry{
		{Month: time.September, Year: 2025, Status: extrato.RunError, Message: "boom", CorrelationID: "aaa", RanAt: time.Now().UTC()},
		{Month: time.September, Year: 2025, Status: extrato.RunSuccess, Message: "archived 5 records", CorrelationID: "bbb", RanAt: time.Now().UTC()},
	}
	for _, e := range entries {
		require.NoError(t, store.AppendRun(ctx, e))
	}

	done, err := store.HasSuccessfulRun(ctx, p)
	require.NoError(t, err)
	assert.True(t, done)

	done, err = store.HasSuccessfulRun(ctx, extrato.Period{Month: time.August, Year: 2025})
	require.NoError(t, err)
	assert.False(t, done, "error-only or absent periods do not count as done")

	runs, err := store.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "bbb", runs[0].CorrelationID) // newest first

	limited, err := store.ListRuns(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

// =============================================================================
// UNDO SNAPSHOTS
// =============================================================================

func TestUndoSnapshots_Lifecycle(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	old := extrato.UndoSnapshot{
		SnapshotID:    "snap-old",
		Month:         time.August,
		Year:          2025,
		Payload:       *sampleSnapshot(time.August, 2025),
		CorrelationID: "aaa",
		CreatedAt:     time.Now().UTC().AddDate(0, 0, -60),
	}
	fresh := extrato.UndoSnapshot{
		SnapshotID:    "snap-fresh",
		Month:         time.September,
		Year:          2025,
		Payload:       *sampleSnapshot(time.September, 2025),
		CorrelationID: "bbb",
		CreatedAt:     time.Now().UTC(),
	}

	err := store.WithTx(ctx, func(tx extrato.Tx) error {
		if err := tx.InsertUndoSnapshot(ctx, old); err != nil {
			return err
		}
		return tx.InsertUndoSnapshot(ctx, fresh)
	})
	require.NoError(t, err)

	got, err := store.GetUndoSnapshot(ctx, "snap-fresh")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, time.September, got.Month)
	assert.True(t, got.Payload.Totals.ReceitaTotal.Equal(decimal.NewFromInt(200)))

	missing, err := store.GetUndoSnapshot(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	// Filter by period
	infos, err := store.ListUndoSnapshots(ctx, time.August, 2025)
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "snap-old", infos[0].SnapshotID)

	// Zero month/year means any
	all, err := store.ListUndoSnapshots(ctx, 0, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	// Retention cleanup removes only the stale one
	deleted, err := store.DeleteUndoSnapshotsBefore(ctx, time.Now().UTC().AddDate(0, 0, -30))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	remaining, err := store.ListUndoSnapshots(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "snap-fresh", remaining[0].SnapshotID)
}
