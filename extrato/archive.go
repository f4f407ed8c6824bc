/*
archive.go - Atomic archival orchestrator

PURPOSE:
  The transaction boundary of the pipeline. One Generate call runs:

    backup gate -> duplicate check -> extraction -> aggregation ->
    snapshot insert -> ordered source deletion -> commit

  entirely inside a single store transaction. An error anywhere rolls back
  everything, including the snapshot insert; partial archival is never
  observable. A run ledger entry is written for every terminal outcome
  except a backup precondition failure, which happens before any
  transaction is opened.

SEE ALSO:
  - delete.go: the deletion engine invoked between insert and commit
  - undo.go:   pre-overwrite snapshot taken on force
  - period.go: period arithmetic and the scheduled-run decision
*/
package extrato

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
)

// Archiver drives the monthly close.
type Archiver struct {
	store     Store
	gate      *BackupGate
	undo      *UndoService
	resolver  *Resolver
	batchSize int
}

// NewArchiver wires the orchestrator. An invalid batch size falls back to
// the default.
func NewArchiver(store Store, gate *BackupGate, undo *UndoService, resolver *Resolver, batchSize int) *Archiver {
	return &Archiver{
		store:     store,
		gate:      gate,
		undo:      undo,
		resolver:  resolver,
		batchSize: NormalizeBatchSize(batchSize),
	}
}

// newCorrelationID returns the short opaque token attached to all log lines
// and the run ledger entry of one invocation.
func newCorrelationID() string {
	return uuid.NewString()[:8]
}

// Generate archives one period. It returns true on success, including the
// empty-period no-op. A false return carries the classifying error:
// ErrBackupMissing before any transaction, ErrSnapshotExists on a
// non-forced duplicate, anything else after a full rollback.
func (a *Archiver) Generate(ctx context.Context, month time.Month, year int, force bool) (bool, error) {
	p := Period{Month: month, Year: year}
	if !p.Valid() {
		return false, fmt.Errorf("%w: %s", ErrInvalidPeriod, p)
	}

	correlationID := newCorrelationID()
	log.Printf("[Archiver] (%s) Starting archival for %s (force=%v)", correlationID, p, force)

	// Hard precondition, checked before any transaction is opened. No run
	// ledger entry is written for this outcome.
	if !a.gate.Allow(ctx, p, correlationID) {
		return false, fmt.Errorf("archival blocked for %s: %w", p, ErrBackupMissing)
	}

	from, to := a.resolver.Window(p)
	var archived int64

	err := a.store.WithTx(ctx, func(tx Tx) error {
		existing, err := tx.GetMonthlySnapshot(ctx, p)
		if err != nil {
			return fmt.Errorf("check existing extrato: %w", err)
		}
		if existing != nil {
			if !force {
				return &ConflictError{Period: p}
			}
			// Forced overwrite: keep a restorable copy, then drop the
			// original inside the same transaction.
			if _, err := a.undo.CreateSnapshotTx(ctx, tx, p, correlationID); err != nil {
				return err
			}
			if err := tx.DeleteMonthlySnapshot(ctx, p); err != nil {
				return fmt.Errorf("delete existing extrato: %w", err)
			}
		}

		data, err := queryPeriod(ctx, tx, from, to)
		if err != nil {
			return err
		}
		if data.empty() {
			return ErrNothingToArchive
		}

		snap := &MonthlySnapshot{
			Month:       p.Month,
			Year:        p.Year,
			Payments:    serializePayments(data.payments),
			Sessions:    serializeSessions(data.sessions),
			Commissions: serializeCommissions(data.commissions),
			Expenses:    serializeExpenses(data.expenses),
			CreatedAt:   time.Now().UTC(),
		}
		snap.Totals = CalculateTotals(snap.Payments, snap.Sessions, snap.Commissions, snap.Expenses)

		if err := tx.InsertMonthlySnapshot(ctx, snap); err != nil {
			return fmt.Errorf("insert extrato: %w", err)
		}

		if err := a.deleteSourceRows(ctx, tx, p, data, correlationID); err != nil {
			return err
		}

		archived = data.count()
		return nil
	})

	switch {
	case err == nil:
		message := fmt.Sprintf("archived %d records", archived)
		a.appendRun(ctx, p, RunSuccess, message, correlationID)
		log.Printf("[Archiver] (%s) Committed extrato for %s: %s", correlationID, p, message)
		return true, nil

	case errors.Is(err, ErrNothingToArchive):
		// An empty period is not an error; there was nothing to commit.
		a.appendRun(ctx, p, RunSuccess, "no records to archive", correlationID)
		log.Printf("[Archiver] (%s) Nothing to archive for %s", correlationID, p)
		return true, nil

	default:
		a.appendRun(ctx, p, RunError, err.Error(), correlationID)
		log.Printf("[Archiver] (%s) Archival for %s rolled back: %v", correlationID, p, err)
		return false, err
	}
}

// CheckAndGenerate defaults to the previous period when both month and
// year are zero and applies the idempotency guard: a period with a
// recorded success is skipped unless force is set. A half-specified
// period is rejected rather than silently replaced.
func (a *Archiver) CheckAndGenerate(ctx context.Context, month time.Month, year int, force bool) (bool, error) {
	p := Period{Month: month, Year: year}
	if month == 0 && year == 0 {
		p = a.resolver.PreviousPeriod(time.Now())
	} else if month == 0 || year == 0 {
		return false, fmt.Errorf("%w: %s", ErrInvalidPeriod, p)
	}

	if !force {
		done, err := a.store.HasSuccessfulRun(ctx, p)
		if err != nil {
			return false, fmt.Errorf("check run ledger for %s: %w", p, err)
		}
		if done {
			log.Printf("[Archiver] Skipping %s: successful run already recorded", p)
			return true, nil
		}
	}

	return a.Generate(ctx, p.Month, p.Year, force)
}

// appendRun records the terminal outcome. A run ledger write failure never
// flips an already-decided result; it is logged and dropped.
func (a *Archiver) appendRun(ctx context.Context, p Period, status RunStatus, message, correlationID string) {
	entry := RunLogEntry{
		Month:         p.Month,
		Year:          p.Year,
		Status:        status,
		Message:       message,
		CorrelationID: correlationID,
		RanAt:         time.Now().UTC(),
	}
	if err := a.store.AppendRun(ctx, entry); err != nil {
		log.Printf("[Archiver] (%s) Failed to append run ledger entry for %s: %v", correlationID, p, err)
	}
}
