/*
live.go - Write surface for the live operational tables

The archival pipeline never creates source rows; these helpers are the
persistence surface consumed by the day-to-day CRUD layer (out of core
scope) and by tests seeding periods. Update paths beyond the payment
back-reference are deliberately absent here.
*/
package sqlite

import (
	"context"
	"time"

	"github.com/diediegodie/tattoo-studio-system/extrato"
	"github.com/shopspring/decimal"
)

func (s *Store) InsertCliente(ctx context.Context, name string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"INSERT INTO clientes (name, created_at) VALUES (?, ?)",
		name, nowRFC3339(),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *Store) InsertArtista(ctx context.Context, name string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"INSERT INTO artistas (name, created_at) VALUES (?, ?)",
		name, nowRFC3339(),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *Store) InsertPagamento(ctx context.Context, p extrato.Payment) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO pagamentos (data, valor, forma_pagamento, cliente_id, artista_id, sessao_id, observacoes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		formatTime(p.Date), p.Amount.String(), p.Method,
		nullableID(p.ClientID), p.ArtistID, nullableID(p.SessionID),
		p.Notes, nowRFC3339(),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *Store) InsertSessao(ctx context.Context, sess extrato.Session) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := sess.Status
	if status == "" {
		status = "active"
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO sessoes (data, valor, cliente_id, artista_id, status, payment_id, google_event_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		formatTime(sess.Date), sess.Amount.String(), sess.ClientID, sess.ArtistID,
		status, nullableID(sess.PaymentID), sess.GoogleEventID,
		nowRFC3339(), nowRFC3339(),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// SetSessaoPayment closes the session<->payment cycle from the live side:
// the session gains the back-reference after its payment is recorded.
func (s *Store) SetSessaoPayment(ctx context.Context, sessionID, paymentID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"UPDATE sessoes SET payment_id = ?, updated_at = ? WHERE id = ?",
		paymentID, nowRFC3339(), sessionID,
	)
	return err
}

func (s *Store) InsertComissao(ctx context.Context, c extrato.Commission) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	createdAt := c.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO comissoes (payment_id, artista_id, percentual, valor, observacoes, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		nullableID(c.PaymentID), c.ArtistID, c.Percentage.String(), c.Amount.String(),
		c.Notes, formatTime(createdAt),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *Store) InsertGasto(ctx context.Context, e extrato.Expense) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO gastos (data, valor, descricao, forma_pagamento, categoria, created_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		formatTime(e.Date), e.Amount.String(), e.Description, e.Method,
		nullEmpty(e.Category), e.CreatedBy, nowRFC3339(), nowRFC3339(),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// CountSourceRows counts live rows whose period window is [from, to):
// payments, sessions and expenses by their own date, commissions by their
// linked payment's date. Zero for an archived period is the
// partition-disjointness invariant.
func (s *Store) CountSourceRows(ctx context.Context, from, to time.Time) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT
			(SELECT COUNT(*) FROM pagamentos WHERE data >= ?1 AND data < ?2) +
			(SELECT COUNT(*) FROM sessoes WHERE data >= ?1 AND data < ?2) +
			(SELECT COUNT(*) FROM gastos WHERE data >= ?1 AND data < ?2) +
			(SELECT COUNT(*) FROM comissoes co
				JOIN pagamentos p ON p.id = co.payment_id
				WHERE p.data >= ?1 AND p.data < ?2)
	`

	var count int64
	err := s.db.QueryRowContext(ctx, query, formatTime(from), formatTime(to)).Scan(&count)
	return count, err
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func nullableID(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}

func nullEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
