package api

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diediegodie/tattoo-studio-system/extrato"
	"github.com/diediegodie/tattoo-studio-system/store/sqlite"
)

func newTestScheduler(t *testing.T) (*MonthlyScheduler, *sqlite.Store) {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	gate := extrato.NewBackupGate(nil, false)
	undo := extrato.NewUndoService(store, extrato.DefaultUndoRetentionDays)
	// minRunDay 1 so the check is due on any calendar day
	resolver := extrato.NewResolver("UTC", 1, store)
	archiver := extrato.NewArchiver(store, gate, undo, resolver, 100)

	return NewMonthlyScheduler(archiver, resolver), store
}

func TestScheduler_RunNowIsIdempotent(t *testing.T) {
	// GIVEN: An empty previous month
	// WHEN: Triggering the check twice
	// THEN: The first records a success run, the second is skipped by the
	//       run ledger

	scheduler, store := newTestScheduler(t)
	ctx := context.Background()

	scheduler.RunNow()

	runs, err := store.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, extrato.RunSuccess, runs[0].Status)

	scheduler.RunNow()

	runs, err = store.ListRuns(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestScheduler_DisabledDoesNotStart(t *testing.T) {
	scheduler, _ := newTestScheduler(t)
	scheduler.Enabled = false

	scheduler.Start()
	scheduler.Stop() // must not block or panic with no goroutine running
}
