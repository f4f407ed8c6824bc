/*
Package extrato implements the monthly period-close archival pipeline.

PURPOSE:
  Once a month, all financial records (payments, sessions, commissions,
  expenses) belonging to a past calendar month are moved out of the live
  operational tables into a single immutable monthly snapshot ("extrato").
  The move is atomic: a verified backup must exist before any destructive
  step, the whole operation succeeds or fully rolls back, repeated
  invocations are idempotent, and a forced overwrite first persists an
  undo snapshot so a bad run can be reverted.

KEY CONCEPTS IN THIS FILE (types.go):
  - Source records: Payment, Session, Commission, Expense as loaded from
    the live store, already carrying denormalized client/artist names
  - Archived records: plain JSON-safe copies embedded in the snapshot so
    the archive never needs a join against future reference data
  - MonthlySnapshot: the immutable archive for one (month, year)
  - UndoSnapshot:    a saved copy taken before a forced overwrite
  - RunLogEntry:     append-only audit row per archival invocation

DESIGN PRINCIPLES:
  1. Precision: decimal.Decimal for every amount, floats never touch money
  2. Self-containment: archived records embed display names, not ids only
  3. Auditability: every invocation is traced by a correlation id

SEE ALSO:
  - archive.go: the transaction-scoped orchestrator
  - totals.go:  monthly aggregation over archived records
  - store.go:   persistence collaborator interfaces
*/
package extrato

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SOURCE RECORDS - owned by the live store, read and eventually deleted here
// =============================================================================

// Payment is a revenue entry in the live store. ClientName resolves to nil
// when the payment has no client reference.
type Payment struct {
	ID         int64
	Date       time.Time
	Amount     decimal.Decimal
	Method     string
	ClientID   *int64
	ClientName *string
	ArtistID   int64
	ArtistName string
	SessionID  *int64
	Notes      string
	CreatedAt  time.Time
}

// Session is a studio appointment. PaymentID is the back-reference that,
// together with Payment.SessionID, forms the cycle the deletion engine has
// to break before either side can be removed.
type Session struct {
	ID            int64
	Date          time.Time
	Amount        decimal.Decimal
	ClientID      int64
	ClientName    string
	ArtistID      int64
	ArtistName    string
	Status        string
	PaymentID     *int64
	GoogleEventID string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Commission is an artist's cut of a payment. PaymentID is nullable:
// commissions may exist independent of a payment, but only commissions
// whose linked payment falls inside the period window are archived.
type Commission struct {
	ID         int64
	PaymentID  *int64
	ArtistID   int64
	ArtistName string
	Percentage decimal.Decimal
	Amount     decimal.Decimal
	Notes      string
	CreatedAt  time.Time
}

// Expense is an operational cost. Category may be empty; aggregation
// buckets empty categories under "Outros".
type Expense struct {
	ID          int64
	Date        time.Time
	Amount      decimal.Decimal
	Description string
	Method      string
	Category    string
	CreatedBy   int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// =============================================================================
// ARCHIVED RECORDS - plain, JSON-safe copies embedded in the snapshot
// =============================================================================

// Date-only and timestamp layouts used by every archived field.
const (
	dateLayout      = "2006-01-02"
	timestampLayout = time.RFC3339
)

type ArchivedPayment struct {
	ID             int64           `json:"id"`
	Data           string          `json:"data"`
	Valor          decimal.Decimal `json:"valor"`
	FormaPagamento string          `json:"forma_pagamento"`
	ClienteName    *string         `json:"cliente_name"`
	ArtistaName    string          `json:"artista_name"`
	SessaoID       *int64          `json:"sessao_id"`
	Observacoes    string          `json:"observacoes,omitempty"`
	CreatedAt      string          `json:"created_at"`
}

type ArchivedSession struct {
	ID            int64           `json:"id"`
	Data          string          `json:"data"`
	Valor         decimal.Decimal `json:"valor"`
	ClienteName   string          `json:"cliente_name"`
	ArtistaName   string          `json:"artista_name"`
	Status        string          `json:"status"`
	PaymentID     *int64          `json:"payment_id"`
	GoogleEventID string          `json:"google_event_id,omitempty"`
	CreatedAt     string          `json:"created_at"`
}

type ArchivedCommission struct {
	ID          int64           `json:"id"`
	PaymentID   *int64          `json:"payment_id"`
	ArtistaName string          `json:"artista_name"`
	Percentual  decimal.Decimal `json:"percentual"`
	Valor       decimal.Decimal `json:"valor"`
	Observacoes string          `json:"observacoes,omitempty"`
	CreatedAt   string          `json:"created_at"`
}

type ArchivedExpense struct {
	ID             int64           `json:"id"`
	Data           string          `json:"data"`
	Valor          decimal.Decimal `json:"valor"`
	Descricao      string          `json:"descricao"`
	FormaPagamento string          `json:"forma_pagamento"`
	Categoria      string          `json:"categoria,omitempty"`
	CreatedBy      int64           `json:"created_by"`
	CreatedAt      string          `json:"created_at"`
}

// =============================================================================
// AGGREGATED TOTALS
// =============================================================================

// ArtistTotals carries one artist's summed payment revenue and commission.
type ArtistTotals struct {
	Receita  decimal.Decimal `json:"receita"`
	Comissao decimal.Decimal `json:"comissao"`
}

// Totals is the computed monthly summary embedded in the snapshot.
// Saldo is revenue minus expenses; commissions are reported separately and
// intentionally not subtracted.
type Totals struct {
	ReceitaTotal            decimal.Decimal            `json:"receita_total"`
	ComissoesTotal          decimal.Decimal            `json:"comissoes_total"`
	DespesasTotal           decimal.Decimal            `json:"despesas_total"`
	Saldo                   decimal.Decimal            `json:"saldo"`
	PorArtista              map[string]ArtistTotals    `json:"por_artista"`
	PorFormaPagamento       map[string]decimal.Decimal `json:"por_forma_pagamento"`
	GastosPorFormaPagamento map[string]decimal.Decimal `json:"gastos_por_forma_pagamento"`
	GastosPorCategoria      map[string]decimal.Decimal `json:"gastos_por_categoria"`
}

// =============================================================================
// ARCHIVE, UNDO AND AUDIT RECORDS
// =============================================================================

// MonthlySnapshot is the immutable archive for one (month, year). The store
// enforces UNIQUE(month, year), which turns the duplicate-run race into a
// clean insert conflict.
type MonthlySnapshot struct {
	ID          int64                `json:"-"`
	Month       time.Month           `json:"mes"`
	Year        int                  `json:"ano"`
	Payments    []ArchivedPayment    `json:"pagamentos"`
	Sessions    []ArchivedSession    `json:"sessoes"`
	Commissions []ArchivedCommission `json:"comissoes"`
	Expenses    []ArchivedExpense    `json:"despesas"`
	Totals      Totals               `json:"totais"`
	CreatedAt   time.Time            `json:"created_at"`
}

// Period returns the snapshot's (month, year) partition key.
func (s *MonthlySnapshot) Period() Period {
	return Period{Month: s.Month, Year: s.Year}
}

// UndoSnapshot is a full copy of a MonthlySnapshot persisted immediately
// before a forced overwrite deletes the original. Never auto-restored.
type UndoSnapshot struct {
	SnapshotID    string
	Month         time.Month
	Year          int
	Payload       MonthlySnapshot
	CorrelationID string
	CreatedAt     time.Time
}

// UndoSnapshotInfo is the listing view of an undo snapshot, without the
// serialized payload.
type UndoSnapshotInfo struct {
	SnapshotID    string     `json:"snapshot_id"`
	Month         time.Month `json:"mes"`
	Year          int        `json:"ano"`
	CorrelationID string     `json:"correlation_id"`
	CreatedAt     time.Time  `json:"created_at"`
}

// RunStatus is the terminal outcome recorded for one archival invocation.
type RunStatus string

const (
	RunSuccess RunStatus = "success"
	RunError   RunStatus = "error"
)

// RunLogEntry is one append-only audit row per archival invocation. A
// success entry for a period makes the scheduled monthly run skip it; an
// error entry does not block retry.
type RunLogEntry struct {
	ID            int64      `json:"id"`
	Month         time.Month `json:"mes"`
	Year          int        `json:"ano"`
	Status        RunStatus  `json:"status"`
	Message       string     `json:"message"`
	CorrelationID string     `json:"correlation_id"`
	RanAt         time.Time  `json:"ran_at"`
}
