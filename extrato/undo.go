/*
undo.go - Pre-overwrite snapshot service

PURPOSE:
  Before a forced regeneration deletes an existing monthly snapshot, a full
  copy is persisted under a fresh snapshot id so a bad run can be undone.
  Restoration is a manual operator action, never automatic.

LIFECYCLE:
  created  -> only immediately before a forced overwrite
  retained -> for a configurable window (default 30 days)
  purged   -> by an explicit cleanup call
*/
package extrato

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
)

// DefaultUndoRetentionDays is the default retention window for undo
// snapshots.
const DefaultUndoRetentionDays = 30

// UndoService persists, lists, restores and prunes undo snapshots.
type UndoService struct {
	store         Store
	retentionDays int
}

// NewUndoService creates the service. A non-positive retention falls back
// to the default.
func NewUndoService(store Store, retentionDays int) *UndoService {
	if retentionDays <= 0 {
		retentionDays = DefaultUndoRetentionDays
	}
	return &UndoService{store: store, retentionDays: retentionDays}
}

// CreateSnapshotTx saves a copy of the period's existing monthly snapshot
// inside the caller's transaction, returning the new snapshot id. When no
// monthly snapshot exists there is nothing to protect: a fresh id is
// returned without persisting anything.
func (s *UndoService) CreateSnapshotTx(ctx context.Context, tx Tx, p Period, correlationID string) (string, error) {
	snapshotID := uuid.NewString()

	existing, err := tx.GetMonthlySnapshot(ctx, p)
	if err != nil {
		return "", fmt.Errorf("load extrato for %s: %w", p, err)
	}
	if existing == nil {
		return snapshotID, nil
	}

	undo := UndoSnapshot{
		SnapshotID:    snapshotID,
		Month:         p.Month,
		Year:          p.Year,
		Payload:       *existing,
		CorrelationID: correlationID,
		CreatedAt:     time.Now().UTC(),
	}
	if err := tx.InsertUndoSnapshot(ctx, undo); err != nil {
		return "", fmt.Errorf("persist undo snapshot for %s: %w", p, err)
	}

	log.Printf("[Undo] (%s) Saved undo snapshot %s for %s", correlationID, snapshotID, p)
	return snapshotID, nil
}

// CreateSnapshot is the operator entry point; it runs CreateSnapshotTx in
// its own transaction.
func (s *UndoService) CreateSnapshot(ctx context.Context, p Period, correlationID string) (string, error) {
	if !p.Valid() {
		return "", fmt.Errorf("%w: %s", ErrInvalidPeriod, p)
	}
	var snapshotID string
	err := s.store.WithTx(ctx, func(tx Tx) error {
		var err error
		snapshotID, err = s.CreateSnapshotTx(ctx, tx, p, correlationID)
		return err
	})
	return snapshotID, err
}

// RestoreFromSnapshot overwrites (or recreates) the monthly snapshot for
// the period embedded in the undo snapshot. The payload's original creation
// time is preserved.
func (s *UndoService) RestoreFromSnapshot(ctx context.Context, snapshotID, correlationID string) error {
	undo, err := s.store.GetUndoSnapshot(ctx, snapshotID)
	if err != nil {
		return fmt.Errorf("load undo snapshot %s: %w", snapshotID, err)
	}
	if undo == nil {
		return fmt.Errorf("undo snapshot %s: %w", snapshotID, ErrSnapshotNotFound)
	}

	restored := undo.Payload
	restored.Month = undo.Month
	restored.Year = undo.Year
	if err := s.store.UpsertMonthlySnapshot(ctx, &restored); err != nil {
		return fmt.Errorf("restore extrato for %s: %w", restored.Period(), err)
	}

	log.Printf("[Undo] (%s) Restored extrato %s from snapshot %s", correlationID, restored.Period(), snapshotID)
	return nil
}

// ListSnapshots lists undo snapshots, optionally filtered by month and/or
// year (zero means any).
func (s *UndoService) ListSnapshots(ctx context.Context, month time.Month, year int) ([]UndoSnapshotInfo, error) {
	return s.store.ListUndoSnapshots(ctx, month, year)
}

// CleanupOlderThan deletes undo snapshots older than retentionDays and
// returns how many were removed. A non-positive argument uses the
// configured retention window.
func (s *UndoService) CleanupOlderThan(ctx context.Context, retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		retentionDays = s.retentionDays
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays)
	return s.store.DeleteUndoSnapshotsBefore(ctx, cutoff)
}
