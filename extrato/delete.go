package extrato

import (
	"context"
	"fmt"
	"log"
)

// =============================================================================
// DELETION ENGINE - Ordered, counted removal of archived source rows
// =============================================================================

// deleteSourceRows removes the period's source rows in dependency order:
//
//  1. commissions (reference payments)
//  2. clear Session.payment_id to break the session<->payment cycle
//  3. payments
//  4. sessions
//  5. expenses
//
// Every delete is counted; a final mismatch against the archived count
// returns a DeleteCountError, which aborts the whole transaction. That
// catches silent no-op deletes that would otherwise leave orphaned source
// data while the archive claims completeness.
func (a *Archiver) deleteSourceRows(ctx context.Context, tx Tx, p Period, data *periodData, correlationID string) error {
	expected := data.count()
	var deleted int64

	if err := ForEachBatch(recordIDs(data.commissions, func(c Commission) int64 { return c.ID }), a.batchSize, func(ids []int64) error {
		n, err := tx.DeleteCommissions(ctx, ids)
		deleted += n
		return err
	}); err != nil {
		return fmt.Errorf("delete commissions: %w", err)
	}

	sessionIDs := recordIDs(data.sessions, func(s Session) int64 { return s.ID })
	if err := ForEachBatch(sessionIDs, a.batchSize, func(ids []int64) error {
		return tx.ClearSessionPaymentRefs(ctx, ids)
	}); err != nil {
		return fmt.Errorf("clear session payment references: %w", err)
	}

	if err := ForEachBatch(recordIDs(data.payments, func(p Payment) int64 { return p.ID }), a.batchSize, func(ids []int64) error {
		n, err := tx.DeletePayments(ctx, ids)
		deleted += n
		return err
	}); err != nil {
		return fmt.Errorf("delete payments: %w", err)
	}

	if err := ForEachBatch(sessionIDs, a.batchSize, func(ids []int64) error {
		n, err := tx.DeleteSessions(ctx, ids)
		deleted += n
		return err
	}); err != nil {
		return fmt.Errorf("delete sessions: %w", err)
	}

	if err := ForEachBatch(recordIDs(data.expenses, func(e Expense) int64 { return e.ID }), a.batchSize, func(ids []int64) error {
		n, err := tx.DeleteExpenses(ctx, ids)
		deleted += n
		return err
	}); err != nil {
		return fmt.Errorf("delete expenses: %w", err)
	}

	if deleted != expected {
		return &DeleteCountError{Period: p, Expected: expected, Deleted: deleted}
	}

	log.Printf("[Archiver] (%s) Deleted %d source rows for %s", correlationID, deleted, p)
	return nil
}

func recordIDs[T any](records []T, id func(T) int64) []int64 {
	ids := make([]int64, 0, len(records))
	for _, r := range records {
		ids = append(ids, id(r))
	}
	return ids
}
