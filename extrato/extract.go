package extrato

import (
	"context"
	"fmt"
	"time"
)

// =============================================================================
// EXTRACTION - Load the four live record types for one period window
// =============================================================================

// periodData holds everything extracted for one period, before
// serialization.
type periodData struct {
	payments    []Payment
	sessions    []Session
	commissions []Commission
	expenses    []Expense
}

func (d *periodData) empty() bool {
	return len(d.payments) == 0 && len(d.sessions) == 0 &&
		len(d.commissions) == 0 && len(d.expenses) == 0
}

// count is the number of source rows the deletion engine must remove.
func (d *periodData) count() int64 {
	return int64(len(d.payments) + len(d.sessions) + len(d.commissions) + len(d.expenses))
}

// queryPeriod loads the four record types for [from, to). Payments,
// sessions and expenses are selected by their own date; commissions follow
// the commission->payment relationship, so a commission created inside the
// window but linked to a payment outside it is excluded. Commissions have
// no date of their own that represents when the revenue occurred.
func queryPeriod(ctx context.Context, tx Tx, from, to time.Time) (*periodData, error) {
	payments, err := tx.PaymentsInWindow(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("query payments: %w", err)
	}
	sessions, err := tx.SessionsInWindow(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	commissions, err := tx.CommissionsByPaymentWindow(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("query commissions: %w", err)
	}
	expenses, err := tx.ExpensesInWindow(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}
	return &periodData{
		payments:    payments,
		sessions:    sessions,
		commissions: commissions,
		expenses:    expenses,
	}, nil
}

// =============================================================================
// SERIALIZATION - Plain records with denormalized display fields
// =============================================================================

func serializePayments(payments []Payment) []ArchivedPayment {
	out := make([]ArchivedPayment, 0, len(payments))
	for _, p := range payments {
		out = append(out, ArchivedPayment{
			ID:             p.ID,
			Data:           p.Date.Format(dateLayout),
			Valor:          p.Amount,
			FormaPagamento: p.Method,
			ClienteName:    p.ClientName,
			ArtistaName:    p.ArtistName,
			SessaoID:       p.SessionID,
			Observacoes:    p.Notes,
			CreatedAt:      p.CreatedAt.UTC().Format(timestampLayout),
		})
	}
	return out
}

func serializeSessions(sessions []Session) []ArchivedSession {
	out := make([]ArchivedSession, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, ArchivedSession{
			ID:            s.ID,
			Data:          s.Date.Format(dateLayout),
			Valor:         s.Amount,
			ClienteName:   s.ClientName,
			ArtistaName:   s.ArtistName,
			Status:        s.Status,
			PaymentID:     s.PaymentID,
			GoogleEventID: s.GoogleEventID,
			CreatedAt:     s.CreatedAt.UTC().Format(timestampLayout),
		})
	}
	return out
}

func serializeCommissions(commissions []Commission) []ArchivedCommission {
	out := make([]ArchivedCommission, 0, len(commissions))
	for _, c := range commissions {
		out = append(out, ArchivedCommission{
			ID:          c.ID,
			PaymentID:   c.PaymentID,
			ArtistaName: c.ArtistName,
			Percentual:  c.Percentage,
			Valor:       c.Amount,
			Observacoes: c.Notes,
			CreatedAt:   c.CreatedAt.UTC().Format(timestampLayout),
		})
	}
	return out
}

func serializeExpenses(expenses []Expense) []ArchivedExpense {
	out := make([]ArchivedExpense, 0, len(expenses))
	for _, e := range expenses {
		out = append(out, ArchivedExpense{
			ID:             e.ID,
			Data:           e.Date.Format(dateLayout),
			Valor:          e.Amount,
			Descricao:      e.Description,
			FormaPagamento: e.Method,
			Categoria:      e.Category,
			CreatedBy:      e.CreatedBy,
			CreatedAt:      e.CreatedAt.UTC().Format(timestampLayout),
		})
	}
	return out
}
