// Package backup implements the verification side of the external backup
// collaborator. Backup files themselves are produced by a separate job;
// this package only checks that a valid manifest exists for a period and
// surfaces its metadata for logging. Content is never inspected beyond
// the manifest header.
package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/diediegodie/tattoo-studio-system/extrato"
)

// manifest is the header of a period backup file.
type manifest struct {
	CreatedAt   time.Time `json:"created_at"`
	RecordCount int       `json:"record_count"`
}

// FileVerifier checks backup manifests on the local filesystem, one file
// per period named backup_YYYY-MM.json.
type FileVerifier struct {
	dir string
}

func NewFileVerifier(dir string) *FileVerifier {
	return &FileVerifier{dir: dir}
}

func (v *FileVerifier) path(year int, month time.Month) string {
	return filepath.Join(v.dir, fmt.Sprintf("backup_%04d-%02d.json", year, int(month)))
}

// VerifyBackupExists reports whether a readable, well-formed backup
// manifest exists for the period. A missing or corrupt file is not an
// error; it simply fails verification.
func (v *FileVerifier) VerifyBackupExists(ctx context.Context, year int, month time.Month) (bool, error) {
	m, _, err := v.read(year, month)
	if err != nil {
		return false, nil
	}
	return m.RecordCount >= 0 && !m.CreatedAt.IsZero(), nil
}

// GetBackupInfo returns diagnostic metadata about the period's backup.
func (v *FileVerifier) GetBackupInfo(ctx context.Context, year int, month time.Month) (*extrato.BackupInfo, error) {
	m, size, err := v.read(year, month)
	if err != nil {
		return nil, err
	}
	return &extrato.BackupInfo{
		Path:        v.path(year, month),
		Size:        size,
		RecordCount: m.RecordCount,
		CreatedAt:   m.CreatedAt,
	}, nil
}

func (v *FileVerifier) read(year int, month time.Month) (*manifest, int64, error) {
	path := v.path(year, month)
	info, err := os.Stat(path)
	if err != nil {
		return nil, 0, fmt.Errorf("stat backup %s: %w", path, err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("read backup %s: %w", path, err)
	}

	var m manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, 0, fmt.Errorf("parse backup %s: %w", path, err)
	}
	return &m, info.Size(), nil
}
