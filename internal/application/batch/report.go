package batch

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/garyjia/liquidagov/internal/domain/entity"
	"github.com/garyjia/liquidagov/pkg/currency"
)

const subjectPrefix = "Remessa de Pagamento"

// Report is the plain-text rendering of a batch handed to the outbound channel
type Report struct {
	Date       time.Time            `json:"date"`
	Subject    string               `json:"subject"`
	Body       string               `json:"body"`
	Entries    []entity.LedgerEntry `json:"entries"`
	Total      decimal.Decimal      `json:"total"`
	EntryCount int                  `json:"entryCount"`
}

// TotalDisplay returns the total in R$ notation
func (r Report) TotalDisplay() string {
	return currency.FormatBRL(r.Total)
}

// Subject returns the templated subject line for the given day
func Subject(date time.Time) string {
	return fmt.Sprintf("%s - %s", subjectPrefix, date.Format(entity.DisplayDateLayout))
}

// BuildReport formats the entries into the remessa report
func BuildReport(entries []entity.LedgerEntry, total decimal.Decimal, date time.Time) Report {
	day := date.Format(entity.DisplayDateLayout)

	var b strings.Builder
	fmt.Fprintf(&b, "%s - %s\n\n", subjectPrefix, day)
	fmt.Fprintf(&b, "Segue a relação de liquidações processadas em %s:\n\n", day)

	for i, e := range entries {
		r := e.Record
		fmt.Fprintf(&b, "%d. Processo: %s\n", i+1, orDash(r.NumeroProcesso))
		fmt.Fprintf(&b, "   Fornecedor: %s\n", orDash(r.Fornecedor))
		fmt.Fprintf(&b, "   Empenho: %s\n", orDash(r.NumeroEmpenho))
		fmt.Fprintf(&b, "   Valor: %s\n", orDash(currency.NormalizeBRL(r.ValorNota)))
		fmt.Fprintf(&b, "   NP: %s\n", orDash(r.NotaPagamento))
		fmt.Fprintf(&b, "   NS: %s\n", orDash(r.NotaSistema))
		fmt.Fprintf(&b, "   Ordem de Ateste: %s\n", orDash(r.OrdemAteste))
		fmt.Fprintf(&b, "   Vencimento: %s\n\n", r.DataVencimento.Display())
	}

	fmt.Fprintf(&b, "Total da remessa: %s\n", currency.FormatBRL(total))
	fmt.Fprintf(&b, "Quantidade de liquidações: %d\n", len(entries))

	return Report{
		Date:       date,
		Subject:    Subject(date),
		Body:       b.String(),
		Entries:    append([]entity.LedgerEntry(nil), entries...),
		Total:      total,
		EntryCount: len(entries),
	}
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
