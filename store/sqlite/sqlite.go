/*
Package sqlite provides the SQLite-backed implementation of the archival
storage interfaces.

PURPOSE:
  Implements extrato.Store and extrato.Tx using SQLite. In production the
  same patterns apply to PostgreSQL - only minor SQL dialect differences.

KEY TABLES:
  pagamentos, sessoes, comissoes, gastos:  live operational rows
  clientes, artistas:                      reference data for name lookups
  extratos:                                one immutable snapshot per month,
                                           UNIQUE(mes, ano)
  undo_snapshots:                          pre-overwrite copies
  extrato_runs:                            append-only run ledger

CIRCULAR REFERENCE:
  sessoes.payment_id -> pagamentos.id and pagamentos.sessao_id ->
  sessoes.id may both be populated. There is deliberately no cascade
  configured; the deletion engine breaks the cycle explicitly inside the
  archival transaction.

UNIQUE(mes, ano):
  Two concurrent archival runs for the same period can both pass the
  "no existing snapshot" check; the unique index turns that race into a
  clean insert conflict for the second committer.

WAL MODE:
  SQLite is opened with WAL and foreign keys enforced. A sync.RWMutex
  serializes writers; WithTx holds the write lock for the whole archival
  transaction, matching the single-writer model of the pipeline.

SEE ALSO:
  - extrato/store.go:   interface definitions
  - extrato/archive.go: the orchestrator driving WithTx
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/diediegodie/tattoo-studio-system/extrato"
	_ "github.com/mattn/go-sqlite3"
)

// Store implements extrato.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection keeps ":memory:" databases coherent and matches the
	// single-writer model.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Reference data
	CREATE TABLE IF NOT EXISTS clientes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS artistas (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	-- Live operational rows. sessoes.payment_id and pagamentos.sessao_id
	-- form a cycle; no cascade on purpose.
	CREATE TABLE IF NOT EXISTS pagamentos (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		data TEXT NOT NULL,
		valor TEXT NOT NULL,
		forma_pagamento TEXT NOT NULL,
		cliente_id INTEGER REFERENCES clientes(id),
		artista_id INTEGER NOT NULL REFERENCES artistas(id),
		sessao_id INTEGER REFERENCES sessoes(id),
		observacoes TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_pagamentos_data ON pagamentos(data);

	CREATE TABLE IF NOT EXISTS sessoes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		data TEXT NOT NULL,
		valor TEXT NOT NULL,
		cliente_id INTEGER NOT NULL REFERENCES clientes(id),
		artista_id INTEGER NOT NULL REFERENCES artistas(id),
		status TEXT NOT NULL DEFAULT 'active',
		payment_id INTEGER REFERENCES pagamentos(id),
		google_event_id TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_sessoes_data ON sessoes(data);
	CREATE INDEX IF NOT EXISTS idx_sessoes_payment ON sessoes(payment_id)
		WHERE payment_id IS NOT NULL;

	CREATE TABLE IF NOT EXISTS comissoes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		payment_id INTEGER REFERENCES pagamentos(id),
		artista_id INTEGER NOT NULL REFERENCES artistas(id),
		percentual TEXT NOT NULL,
		valor TEXT NOT NULL,
		observacoes TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_comissoes_payment ON comissoes(payment_id)
		WHERE payment_id IS NOT NULL;

	CREATE TABLE IF NOT EXISTS gastos (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		data TEXT NOT NULL,
		valor TEXT NOT NULL,
		descricao TEXT NOT NULL,
		forma_pagamento TEXT NOT NULL,
		categoria TEXT,
		created_by INTEGER NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_gastos_data ON gastos(data);

	-- Monthly archive. The unique index is what makes a concurrent
	-- duplicate run fail cleanly at insert time.
	CREATE TABLE IF NOT EXISTS extratos (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		mes INTEGER NOT NULL,
		ano INTEGER NOT NULL,
		pagamentos_json TEXT NOT NULL,
		sessoes_json TEXT NOT NULL,
		comissoes_json TEXT NOT NULL,
		gastos_json TEXT NOT NULL,
		totais_json TEXT NOT NULL,
		created_at TEXT NOT NULL,
		UNIQUE(mes, ano)
	);

	CREATE TABLE IF NOT EXISTS undo_snapshots (
		snapshot_id TEXT PRIMARY KEY,
		mes INTEGER NOT NULL,
		ano INTEGER NOT NULL,
		payload_json TEXT NOT NULL,
		correlation_id TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_undo_snapshots_period ON undo_snapshots(ano, mes);
	CREATE INDEX IF NOT EXISTS idx_undo_snapshots_created ON undo_snapshots(created_at);

	-- Run ledger (append-only)
	CREATE TABLE IF NOT EXISTS extrato_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		mes INTEGER NOT NULL,
		ano INTEGER NOT NULL,
		status TEXT NOT NULL,
		message TEXT,
		correlation_id TEXT NOT NULL,
		ran_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_extrato_runs_period ON extrato_runs(ano, mes, status);
	`

	_, err := s.db.Exec(schema)
	return err
}

// querier is satisfied by both *sql.DB and *sql.Tx so the scan helpers can
// serve transactional and plain reads alike.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// =============================================================================
// TRANSACTIONAL STORE (extrato.Store.WithTx)
// =============================================================================

// WithTx executes fn within a database transaction: commit on nil,
// rollback on error. The write lock is held for the duration, matching the
// pipeline's single-writer model.
func (s *Store) WithTx(ctx context.Context, fn func(tx extrato.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&archiveTx{tx: sqlTx}); err != nil {
		return err
	}

	return sqlTx.Commit()
}

// archiveTx implements extrato.Tx on top of one *sql.Tx. It never touches
// the store mutex; the caller already holds the write lock.
type archiveTx struct {
	tx *sql.Tx
}

func (t *archiveTx) GetMonthlySnapshot(ctx context.Context, p extrato.Period) (*extrato.MonthlySnapshot, error) {
	return getMonthlySnapshot(ctx, t.tx, p)
}

func (t *archiveTx) InsertMonthlySnapshot(ctx context.Context, snap *extrato.MonthlySnapshot) error {
	return insertMonthlySnapshot(ctx, t.tx, snap)
}

func (t *archiveTx) DeleteMonthlySnapshot(ctx context.Context, p extrato.Period) error {
	_, err := t.tx.ExecContext(ctx, "DELETE FROM extratos WHERE mes = ? AND ano = ?", int(p.Month), p.Year)
	return err
}

func (t *archiveTx) InsertUndoSnapshot(ctx context.Context, snap extrato.UndoSnapshot) error {
	payload, err := json.Marshal(snap.Payload)
	if err != nil {
		return fmt.Errorf("marshal undo payload: %w", err)
	}

	_, err = t.tx.ExecContext(ctx, `
		INSERT INTO undo_snapshots (snapshot_id, mes, ano, payload_json, correlation_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		snap.SnapshotID, int(snap.Month), snap.Year, string(payload),
		snap.CorrelationID, snap.CreatedAt.UTC().Format(time.RFC3339),
	)
	return err
}

func (t *archiveTx) PaymentsInWindow(ctx context.Context, from, to time.Time) ([]extrato.Payment, error) {
	return queryPayments(ctx, t.tx, from, to)
}

func (t *archiveTx) SessionsInWindow(ctx context.Context, from, to time.Time) ([]extrato.Session, error) {
	return querySessions(ctx, t.tx, from, to)
}

func (t *archiveTx) CommissionsByPaymentWindow(ctx context.Context, from, to time.Time) ([]extrato.Commission, error) {
	return queryCommissions(ctx, t.tx, from, to)
}

func (t *archiveTx) ExpensesInWindow(ctx context.Context, from, to time.Time) ([]extrato.Expense, error) {
	return queryExpenses(ctx, t.tx, from, to)
}

func (t *archiveTx) DeleteCommissions(ctx context.Context, ids []int64) (int64, error) {
	return deleteByIDs(ctx, t.tx, "comissoes", ids)
}

func (t *archiveTx) ClearSessionPaymentRefs(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	query := "UPDATE sessoes SET payment_id = NULL, updated_at = ? WHERE id IN (" + placeholders(len(ids)) + ")"
	args := append([]any{time.Now().UTC().Format(time.RFC3339)}, idArgs(ids)...)
	_, err := t.tx.ExecContext(ctx, query, args...)
	return err
}

func (t *archiveTx) DeletePayments(ctx context.Context, ids []int64) (int64, error) {
	return deleteByIDs(ctx, t.tx, "pagamentos", ids)
}

func (t *archiveTx) DeleteSessions(ctx context.Context, ids []int64) (int64, error) {
	return deleteByIDs(ctx, t.tx, "sessoes", ids)
}

func (t *archiveTx) DeleteExpenses(ctx context.Context, ids []int64) (int64, error) {
	return deleteByIDs(ctx, t.tx, "gastos", ids)
}

func deleteByIDs(ctx context.Context, q querier, table string, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := q.ExecContext(ctx,
		"DELETE FROM "+table+" WHERE id IN ("+placeholders(len(ids))+")", idArgs(ids)...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// =============================================================================
// SOURCE QUERIES - window selection with names resolved
// =============================================================================

func queryPayments(ctx context.Context, q querier, from, to time.Time) ([]extrato.Payment, error) {
	query := `
		SELECT p.id, p.data, p.valor, p.forma_pagamento, p.cliente_id, c.name,
		       p.artista_id, a.name, p.sessao_id, p.observacoes, p.created_at
		FROM pagamentos p
		LEFT JOIN clientes c ON c.id = p.cliente_id
		JOIN artistas a ON a.id = p.artista_id
		WHERE p.data >= ? AND p.data < ?
		ORDER BY p.data ASC, p.id ASC
	`

	rows, err := q.QueryContext(ctx, query, formatTime(from), formatTime(to))
	if err != nil {
		return nil, fmt.Errorf("failed to query payments: %w", err)
	}
	defer rows.Close()

	var payments []extrato.Payment
	for rows.Next() {
		var (
			p           extrato.Payment
			date        string
			valor       string
			clienteID   sql.NullInt64
			clienteName sql.NullString
			sessaoID    sql.NullInt64
			observacoes sql.NullString
			createdAt   string
		)
		if err := rows.Scan(&p.ID, &date, &valor, &p.Method, &clienteID, &clienteName,
			&p.ArtistID, &p.ArtistName, &sessaoID, &observacoes, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		p.Date = parseTime(date)
		p.Amount = parseDecimal(valor)
		if clienteID.Valid {
			p.ClientID = &clienteID.Int64
		}
		if clienteName.Valid {
			p.ClientName = &clienteName.String
		}
		if sessaoID.Valid {
			p.SessionID = &sessaoID.Int64
		}
		p.Notes = observacoes.String
		p.CreatedAt = parseTime(createdAt)
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func querySessions(ctx context.Context, q querier, from, to time.Time) ([]extrato.Session, error) {
	query := `
		SELECT s.id, s.data, s.valor, s.cliente_id, c.name, s.artista_id, a.name,
		       s.status, s.payment_id, s.google_event_id, s.created_at, s.updated_at
		FROM sessoes s
		JOIN clientes c ON c.id = s.cliente_id
		JOIN artistas a ON a.id = s.artista_id
		WHERE s.data >= ? AND s.data < ?
		ORDER BY s.data ASC, s.id ASC
	`

	rows, err := q.QueryContext(ctx, query, formatTime(from), formatTime(to))
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []extrato.Session
	for rows.Next() {
		var (
			sess          extrato.Session
			date          string
			valor         string
			paymentID     sql.NullInt64
			googleEventID sql.NullString
			createdAt     string
			updatedAt     string
		)
		if err := rows.Scan(&sess.ID, &date, &valor, &sess.ClientID, &sess.ClientName,
			&sess.ArtistID, &sess.ArtistName, &sess.Status, &paymentID, &googleEventID,
			&createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sess.Date = parseTime(date)
		sess.Amount = parseDecimal(valor)
		if paymentID.Valid {
			sess.PaymentID = &paymentID.Int64
		}
		sess.GoogleEventID = googleEventID.String
		sess.CreatedAt = parseTime(createdAt)
		sess.UpdatedAt = parseTime(updatedAt)
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// queryCommissions keeps only commissions whose linked payment falls in the
// window. The inner join drops commissions with a NULL payment_id, which is
// the intended behavior: without a payment there is no revenue date.
func queryCommissions(ctx context.Context, q querier, from, to time.Time) ([]extrato.Commission, error) {
	query := `
		SELECT co.id, co.payment_id, co.artista_id, a.name, co.percentual,
		       co.valor, co.observacoes, co.created_at
		FROM comissoes co
		JOIN pagamentos p ON p.id = co.payment_id
		JOIN artistas a ON a.id = co.artista_id
		WHERE p.data >= ? AND p.data < ?
		ORDER BY co.id ASC
	`

	rows, err := q.QueryContext(ctx, query, formatTime(from), formatTime(to))
	if err != nil {
		return nil, fmt.Errorf("failed to query commissions: %w", err)
	}
	defer rows.Close()

	var commissions []extrato.Commission
	for rows.Next() {
		var (
			c           extrato.Commission
			paymentID   sql.NullInt64
			percentual  string
			valor       string
			observacoes sql.NullString
			createdAt   string
		)
		if err := rows.Scan(&c.ID, &paymentID, &c.ArtistID, &c.ArtistName,
			&percentual, &valor, &observacoes, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan commission: %w", err)
		}
		if paymentID.Valid {
			c.PaymentID = &paymentID.Int64
		}
		c.Percentage = parseDecimal(percentual)
		c.Amount = parseDecimal(valor)
		c.Notes = observacoes.String
		c.CreatedAt = parseTime(createdAt)
		commissions = append(commissions, c)
	}
	return commissions, rows.Err()
}

func queryExpenses(ctx context.Context, q querier, from, to time.Time) ([]extrato.Expense, error) {
	query := `
		SELECT id, data, valor, descricao, forma_pagamento, categoria,
		       created_by, created_at, updated_at
		FROM gastos
		WHERE data >= ? AND data < ?
		ORDER BY data ASC, id ASC
	`

	rows, err := q.QueryContext(ctx, query, formatTime(from), formatTime(to))
	if err != nil {
		return nil, fmt.Errorf("failed to query expenses: %w", err)
	}
	defer rows.Close()

	var expenses []extrato.Expense
	for rows.Next() {
		var (
			e         extrato.Expense
			date      string
			valor     string
			categoria sql.NullString
			createdAt string
			updatedAt string
		)
		if err := rows.Scan(&e.ID, &date, &valor, &e.Description, &e.Method,
			&categoria, &e.CreatedBy, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		e.Date = parseTime(date)
		e.Amount = parseDecimal(valor)
		e.Category = categoria.String
		e.CreatedAt = parseTime(createdAt)
		e.UpdatedAt = parseTime(updatedAt)
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

// =============================================================================
// SNAPSHOT STORE (non-transactional reads and the restore path)
// =============================================================================

func (s *Store) GetMonthlySnapshot(ctx context.Context, p extrato.Period) (*extrato.MonthlySnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return getMonthlySnapshot(ctx, s.db, p)
}

func (s *Store) ListMonthlySnapshots(ctx context.Context) ([]extrato.MonthlySnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, mes, ano, pagamentos_json, sessoes_json, comissoes_json,
		       gastos_json, totais_json, created_at
		FROM extratos
		ORDER BY ano DESC, mes DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snapshots []extrato.MonthlySnapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows.Scan)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, *snap)
	}
	return snapshots, rows.Err()
}

// UpsertMonthlySnapshot overwrites the (mes, ano) row or creates it. Used
// by the undo restore path only.
func (s *Store) UpsertMonthlySnapshot(ctx context.Context, snap *extrato.MonthlySnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cols, err := snapshotColumns(snap)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO extratos (mes, ano, pagamentos_json, sessoes_json, comissoes_json, gastos_json, totais_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(mes, ano) DO UPDATE SET
			pagamentos_json = excluded.pagamentos_json,
			sessoes_json = excluded.sessoes_json,
			comissoes_json = excluded.comissoes_json,
			gastos_json = excluded.gastos_json,
			totais_json = excluded.totais_json,
			created_at = excluded.created_at
	`

	_, err = s.db.ExecContext(ctx, query, cols...)
	return err
}

func getMonthlySnapshot(ctx context.Context, q querier, p extrato.Period) (*extrato.MonthlySnapshot, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, mes, ano, pagamentos_json, sessoes_json, comissoes_json,
		       gastos_json, totais_json, created_at
		FROM extratos
		WHERE mes = ? AND ano = ?`,
		int(p.Month), p.Year,
	)

	snap, err := scanSnapshot(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return snap, nil
}

func insertMonthlySnapshot(ctx context.Context, q querier, snap *extrato.MonthlySnapshot) error {
	cols, err := snapshotColumns(snap)
	if err != nil {
		return err
	}

	res, err := q.ExecContext(ctx, `
		INSERT INTO extratos (mes, ano, pagamentos_json, sessoes_json, comissoes_json, gastos_json, totais_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		cols...,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return &extrato.ConflictError{Period: snap.Period()}
		}
		return err
	}

	snap.ID, _ = res.LastInsertId()
	return nil
}

func snapshotColumns(snap *extrato.MonthlySnapshot) ([]any, error) {
	pagamentos, err := json.Marshal(snap.Payments)
	if err != nil {
		return nil, fmt.Errorf("marshal payments: %w", err)
	}
	sessoes, err := json.Marshal(snap.Sessions)
	if err != nil {
		return nil, fmt.Errorf("marshal sessions: %w", err)
	}
	comissoes, err := json.Marshal(snap.Commissions)
	if err != nil {
		return nil, fmt.Errorf("marshal commissions: %w", err)
	}
	gastos, err := json.Marshal(snap.Expenses)
	if err != nil {
		return nil, fmt.Errorf("marshal expenses: %w", err)
	}
	totais, err := json.Marshal(snap.Totals)
	if err != nil {
		return nil, fmt.Errorf("marshal totals: %w", err)
	}

	return []any{
		int(snap.Month), snap.Year,
		string(pagamentos), string(sessoes), string(comissoes), string(gastos), string(totais),
		snap.CreatedAt.UTC().Format(time.RFC3339),
	}, nil
}

func scanSnapshot(scan func(dest ...any) error) (*extrato.MonthlySnapshot, error) {
	var (
		snap      extrato.MonthlySnapshot
		mes       int
		paysJSON  string
		sessJSON  string
		commJSON  string
		expJSON   string
		totJSON   string
		createdAt string
	)

	if err := scan(&snap.ID, &mes, &snap.Year, &paysJSON, &sessJSON, &commJSON,
		&expJSON, &totJSON, &createdAt); err != nil {
		return nil, err
	}

	snap.Month = time.Month(mes)
	if err := json.Unmarshal([]byte(paysJSON), &snap.Payments); err != nil {
		return nil, fmt.Errorf("unmarshal payments: %w", err)
	}
	if err := json.Unmarshal([]byte(sessJSON), &snap.Sessions); err != nil {
		return nil, fmt.Errorf("unmarshal sessions: %w", err)
	}
	if err := json.Unmarshal([]byte(commJSON), &snap.Commissions); err != nil {
		return nil, fmt.Errorf("unmarshal commissions: %w", err)
	}
	if err := json.Unmarshal([]byte(expJSON), &snap.Expenses); err != nil {
		return nil, fmt.Errorf("unmarshal expenses: %w", err)
	}
	if err := json.Unmarshal([]byte(totJSON), &snap.Totals); err != nil {
		return nil, fmt.Errorf("unmarshal totals: %w", err)
	}
	snap.CreatedAt = parseTime(createdAt)
	return &snap, nil
}

// =============================================================================
// UNDO SNAPSHOT STORE
// =============================================================================

func (s *Store) GetUndoSnapshot(ctx context.Context, snapshotID string) (*extrato.UndoSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		snap          extrato.UndoSnapshot
		mes           int
		payloadJSON   string
		createdAt     string
	)

	err := s.db.QueryRowContext(ctx, `
		SELECT snapshot_id, mes, ano, payload_json, correlation_id, created_at
		FROM undo_snapshots WHERE snapshot_id = ?`,
		snapshotID,
	).Scan(&snap.SnapshotID, &mes, &snap.Year, &payloadJSON, &snap.CorrelationID, &createdAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	snap.Month = time.Month(mes)
	if err := json.Unmarshal([]byte(payloadJSON), &snap.Payload); err != nil {
		return nil, fmt.Errorf("unmarshal undo payload: %w", err)
	}
	snap.CreatedAt = parseTime(createdAt)
	return &snap, nil
}

func (s *Store) ListUndoSnapshots(ctx context.Context, month time.Month, year int) ([]extrato.UndoSnapshotInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT snapshot_id, mes, ano, correlation_id, created_at
		FROM undo_snapshots
	`
	var (
		conditions []string
		args       []any
	)
	if month != 0 {
		conditions = append(conditions, "mes = ?")
		args = append(args, int(month))
	}
	if year != 0 {
		conditions = append(conditions, "ano = ?")
		args = append(args, year)
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var infos []extrato.UndoSnapshotInfo
	for rows.Next() {
		var (
			info      extrato.UndoSnapshotInfo
			mes       int
			createdAt string
		)
		if err := rows.Scan(&info.SnapshotID, &mes, &info.Year, &info.CorrelationID, &createdAt); err != nil {
			return nil, err
		}
		info.Month = time.Month(mes)
		info.CreatedAt = parseTime(createdAt)
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

func (s *Store) DeleteUndoSnapshotsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"DELETE FROM undo_snapshots WHERE created_at < ?",
		cutoff.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// =============================================================================
// RUN LEDGER (extrato.RunLedger interface)
// =============================================================================

// AppendRun records one archival invocation. The table is append-only:
// no update or delete statements exist for it.
func (s *Store) AppendRun(ctx context.Context, entry extrato.RunLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO extrato_runs (mes, ano, status, message, correlation_id, ran_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		int(entry.Month), entry.Year, string(entry.Status), entry.Message,
		entry.CorrelationID, entry.RanAt.UTC().Format(time.RFC3339),
	)
	return err
}

func (s *Store) HasSuccessfulRun(ctx context.Context, p extrato.Period) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM extrato_runs WHERE mes = ? AND ano = ? AND status = ?",
		int(p.Month), p.Year, string(extrato.RunSuccess),
	).Scan(&count)
	return count > 0, err
}

func (s *Store) ListRuns(ctx context.Context, limit int) ([]extrato.RunLogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, mes, ano, status, message, correlation_id, ran_at
		FROM extrato_runs
		ORDER BY ran_at DESC, id DESC
		LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []extrato.RunLogEntry
	for rows.Next() {
		var (
			entry   extrato.RunLogEntry
			mes     int
			status  string
			message sql.NullString
			ranAt   string
		)
		if err := rows.Scan(&entry.ID, &mes, &entry.Year, &status, &message, &entry.CorrelationID, &ranAt); err != nil {
			return nil, err
		}
		entry.Month = time.Month(mes)
		entry.Status = extrato.RunStatus(status)
		entry.Message = message.String
		entry.RanAt = parseTime(ranAt)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Helper functions

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// parseTime returns the zero time for a corrupted cell; the corruption is
// logged so a year-1 value in output can be traced to its row.
func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		log.Printf("[Store] Invalid timestamp %q: %v", s, err)
	}
	return t
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func idArgs(ids []int64) []any {
	args := make([]any, 0, len(ids))
	for _, id := range ids {
		args = append(args, id)
	}
	return args
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
