package extrato

import "github.com/shopspring/decimal"

// =============================================================================
// AGGREGATION ENGINE - Monthly totals from serialized data
// =============================================================================

// FallbackCategory buckets expenses with no category.
const FallbackCategory = "Outros"

// CalculateTotals computes the monthly summary from the serialized records,
// never from live queries, so totals and archive are always consistent with
// each other.
//
// Grouping keys are the literal string values present in the data; no
// normalization or casing is applied. por_artista only lists artists with a
// non-zero commission total; their revenue still counts toward
// receita_total either way. Saldo is revenue minus expenses; commissions
// are reported separately and not subtracted (see DESIGN.md).
func CalculateTotals(payments []ArchivedPayment, sessions []ArchivedSession, commissions []ArchivedCommission, expenses []ArchivedExpense) Totals {
	_ = sessions // session amounts do not contribute to revenue; payments do

	totals := Totals{
		ReceitaTotal:            decimal.Zero,
		ComissoesTotal:          decimal.Zero,
		DespesasTotal:           decimal.Zero,
		PorArtista:              map[string]ArtistTotals{},
		PorFormaPagamento:       map[string]decimal.Decimal{},
		GastosPorFormaPagamento: map[string]decimal.Decimal{},
		GastosPorCategoria:      map[string]decimal.Decimal{},
	}

	revenueByArtist := map[string]decimal.Decimal{}
	for _, p := range payments {
		totals.ReceitaTotal = totals.ReceitaTotal.Add(p.Valor)
		totals.PorFormaPagamento[p.FormaPagamento] = totals.PorFormaPagamento[p.FormaPagamento].Add(p.Valor)
		revenueByArtist[p.ArtistaName] = revenueByArtist[p.ArtistaName].Add(p.Valor)
	}

	commissionByArtist := map[string]decimal.Decimal{}
	for _, c := range commissions {
		totals.ComissoesTotal = totals.ComissoesTotal.Add(c.Valor)
		commissionByArtist[c.ArtistaName] = commissionByArtist[c.ArtistaName].Add(c.Valor)
	}
	for artist, commission := range commissionByArtist {
		if commission.IsZero() {
			continue
		}
		totals.PorArtista[artist] = ArtistTotals{
			Receita:  revenueByArtist[artist],
			Comissao: commission,
		}
	}

	for _, e := range expenses {
		totals.DespesasTotal = totals.DespesasTotal.Add(e.Valor)
		totals.GastosPorFormaPagamento[e.FormaPagamento] = totals.GastosPorFormaPagamento[e.FormaPagamento].Add(e.Valor)
		category := e.Categoria
		if category == "" {
			category = FallbackCategory
		}
		totals.GastosPorCategoria[category] = totals.GastosPorCategoria[category].Add(e.Valor)
	}

	totals.Saldo = totals.ReceitaTotal.Sub(totals.DespesasTotal)
	return totals
}
