/*
errors.go - Centralized error types for the archival pipeline

ERROR CATEGORIES:
  1. Precondition failures - backup missing; no transaction is opened
  2. Conflicts             - snapshot already exists without force
  3. Integrity failures    - deletion count mismatch; aborts the transaction
  4. Not found             - missing undo snapshot on restore

The orchestrator is the single point that maps an error returned from
inside the transaction closure to a rollback; nothing deeper in the call
chain panics or commits.
*/
package extrato

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrBackupMissing is returned when the backup gate blocks a run
	// because no verified backup exists for the target period.
	ErrBackupMissing = errors.New("verified backup missing for period")

	// ErrSnapshotExists is returned when a monthly snapshot already exists
	// for the period and force was not requested.
	ErrSnapshotExists = errors.New("monthly snapshot already exists")

	// ErrSnapshotNotFound is returned when a referenced snapshot does not
	// exist.
	ErrSnapshotNotFound = errors.New("snapshot not found")

	// ErrDeleteCountMismatch is returned when the deletion engine removed a
	// different number of rows than it archived. It aborts the whole
	// transaction: the archive must never claim completeness while source
	// rows survive.
	ErrDeleteCountMismatch = errors.New("deleted row count does not match archived count")

	// ErrNothingToArchive signals an empty period. The transaction is
	// rolled back but the operation itself reports success.
	ErrNothingToArchive = errors.New("no records to archive for period")

	// ErrInvalidPeriod is returned for a month outside 1-12 or a
	// non-positive year.
	ErrInvalidPeriod = errors.New("invalid period")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ConflictError reports an existing snapshot blocking a non-forced run.
type ConflictError struct {
	Period Period
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("extrato for %s already exists - use force to overwrite", e.Period)
}

func (e *ConflictError) Unwrap() error {
	return ErrSnapshotExists
}

// DeleteCountError reports how far off the deletion engine landed.
type DeleteCountError struct {
	Period   Period
	Expected int64
	Deleted  int64
}

func (e *DeleteCountError) Error() string {
	return fmt.Sprintf("deletion for %s removed %d rows, expected %d", e.Period, e.Deleted, e.Expected)
}

func (e *DeleteCountError) Unwrap() error {
	return ErrDeleteCountMismatch
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsConflict reports whether the error is an already-exists conflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrSnapshotExists)
}

// IsPrecondition reports whether the error is a backup precondition
// failure, i.e. no transaction was ever opened.
func IsPrecondition(err error) bool {
	return errors.Is(err, ErrBackupMissing)
}

// IsNotFound reports whether the error indicates a missing snapshot.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrSnapshotNotFound)
}
