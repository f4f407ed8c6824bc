/*
store.go - Persistence collaborator interfaces

PURPOSE:
  Defines what the archival pipeline needs from storage. The sqlite
  implementation lives in store/sqlite; tests may wrap it to inject
  failures at any single operation.

TRANSACTION MODEL:
  WithTx opens one database transaction, passes a Tx to fn, commits when
  fn returns nil and rolls back on any error. Everything destructive the
  orchestrator does goes through a single WithTx call, so a failure at
  any step leaves no partial state behind.

SEE ALSO:
  - store/sqlite/sqlite.go: SQLite implementation
  - archive.go:             the only caller of WithTx
*/
package extrato

import (
	"context"
	"time"
)

// Tx is the transactional view of the store. All reads and writes issued
// through a Tx belong to one database transaction.
type Tx interface {
	// Snapshot rows
	GetMonthlySnapshot(ctx context.Context, p Period) (*MonthlySnapshot, error)
	InsertMonthlySnapshot(ctx context.Context, snap *MonthlySnapshot) error
	DeleteMonthlySnapshot(ctx context.Context, p Period) error
	InsertUndoSnapshot(ctx context.Context, snap UndoSnapshot) error

	// Source extraction. Payments, sessions and expenses are selected by
	// their own date in [from, to); commissions by their linked payment's
	// date. All rows come back with display names resolved.
	PaymentsInWindow(ctx context.Context, from, to time.Time) ([]Payment, error)
	SessionsInWindow(ctx context.Context, from, to time.Time) ([]Session, error)
	CommissionsByPaymentWindow(ctx context.Context, from, to time.Time) ([]Commission, error)
	ExpensesInWindow(ctx context.Context, from, to time.Time) ([]Expense, error)

	// Source deletion, by id batch. Each delete reports rows affected so
	// the deletion engine can verify the running count.
	DeleteCommissions(ctx context.Context, ids []int64) (int64, error)
	ClearSessionPaymentRefs(ctx context.Context, ids []int64) error
	DeletePayments(ctx context.Context, ids []int64) (int64, error)
	DeleteSessions(ctx context.Context, ids []int64) (int64, error)
	DeleteExpenses(ctx context.Context, ids []int64) (int64, error)
}

// RunLedger is the append-only audit log of archival invocations.
type RunLedger interface {
	AppendRun(ctx context.Context, entry RunLogEntry) error
	HasSuccessfulRun(ctx context.Context, p Period) (bool, error)
	ListRuns(ctx context.Context, limit int) ([]RunLogEntry, error)
}

// Store is the full persistence collaborator.
type Store interface {
	RunLedger

	// WithTx runs fn inside one transaction: commit on nil, rollback on
	// error. The connection is released on every exit path.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Snapshot reads and the restore path. Upsert overwrites an existing
	// (month, year) row or creates it, which is exactly what restoring an
	// undo snapshot needs.
	GetMonthlySnapshot(ctx context.Context, p Period) (*MonthlySnapshot, error)
	ListMonthlySnapshots(ctx context.Context) ([]MonthlySnapshot, error)
	UpsertMonthlySnapshot(ctx context.Context, snap *MonthlySnapshot) error

	// Undo snapshot queries. A zero month/year means "any".
	GetUndoSnapshot(ctx context.Context, snapshotID string) (*UndoSnapshot, error)
	ListUndoSnapshots(ctx context.Context, month time.Month, year int) ([]UndoSnapshotInfo, error)
	DeleteUndoSnapshotsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
