package extrato

import (
	"context"
	"log"
	"time"
)

// =============================================================================
// BACKUP GATE - Precondition check before any destructive work
// =============================================================================

// BackupInfo is diagnostic metadata about an existing backup. The pipeline
// never inspects backup content; this is for logging only.
type BackupInfo struct {
	Path        string    `json:"path"`
	Size        int64     `json:"size"`
	RecordCount int       `json:"record_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// BackupVerifier is the external backup collaborator, consumed as an
// opaque boolean gate plus diagnostics.
type BackupVerifier interface {
	VerifyBackupExists(ctx context.Context, year int, month time.Month) (bool, error)
	GetBackupInfo(ctx context.Context, year int, month time.Month) (*BackupInfo, error)
}

// BackupGate blocks destructive work when a backup for the target period is
// required but missing. With required=false a missing backup is logged as a
// warning and ignored (degraded mode for non-production).
type BackupGate struct {
	verifier BackupVerifier
	required bool
}

func NewBackupGate(verifier BackupVerifier, required bool) *BackupGate {
	return &BackupGate{verifier: verifier, required: required}
}

// Allow reports whether the archival run may proceed for the period.
func (g *BackupGate) Allow(ctx context.Context, p Period, correlationID string) bool {
	if g.verifier == nil {
		if g.required {
			log.Printf("[BackupGate] (%s) No backup verifier configured, blocking %s", correlationID, p)
			return false
		}
		return true
	}

	ok, err := g.verifier.VerifyBackupExists(ctx, p.Year, p.Month)
	if err != nil {
		log.Printf("[BackupGate] (%s) Backup check failed for %s: %v", correlationID, p, err)
		ok = false
	}

	if ok {
		if info, err := g.verifier.GetBackupInfo(ctx, p.Year, p.Month); err == nil && info != nil {
			log.Printf("[BackupGate] (%s) Backup verified for %s: %s (%d records, %d bytes)",
				correlationID, p, info.Path, info.RecordCount, info.Size)
		}
		return true
	}

	if g.required {
		log.Printf("[BackupGate] (%s) Backup missing for %s, blocking archival", correlationID, p)
		return false
	}

	log.Printf("[BackupGate] (%s) Warning: backup missing for %s, proceeding anyway (backup not required)", correlationID, p)
	return true
}
