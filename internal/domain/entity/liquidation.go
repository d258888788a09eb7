package entity

import (
	"strings"
	"time"
)

// LiquidationRecord is the form state for one payment voucher. It holds only
// value fields, so assigning it produces an independent snapshot.
type LiquidationRecord struct {
	// Budget data, optionally pre-filled by extraction
	Pregao         string `json:"pregao"`
	FonteRecurso   string `json:"fonteRecurso"`
	NumeroProcesso string `json:"numeroProcesso"`
	NumeroEmpenho  string `json:"numeroEmpenho"`
	ValorNota      string `json:"valorNota"`
	Fornecedor     string `json:"fornecedor"`

	// Liquidation data, entered at review
	NotaPagamento  string `json:"notaPagamento"`
	NotaSistema    string `json:"notaSistema"`
	DataLiquidacao Date   `json:"dataLiquidacao"`
	DataVencimento Date   `json:"dataVencimento"`
	OrdemAteste    string `json:"ordemAteste"`
}

// NewLiquidationRecord returns an empty record with the liquidation date set to today's date
func NewLiquidationRecord(now time.Time) LiquidationRecord {
	return LiquidationRecord{
		DataLiquidacao: DateOf(now),
	}
}

// MissingRequiredFields lists the data-entry fields that must be filled before review
func (r LiquidationRecord) MissingRequiredFields() []string {
	var missing []string
	if isBlank(r.NumeroEmpenho) {
		missing = append(missing, FieldNumeroEmpenho)
	}
	if isBlank(r.ValorNota) {
		missing = append(missing, FieldValorNota)
	}
	return missing
}

// MissingLiquidationFields lists the review fields that must be filled before finalization
func (r LiquidationRecord) MissingLiquidationFields() []string {
	var missing []string
	if isBlank(r.NotaPagamento) {
		missing = append(missing, FieldNotaPagamento)
	}
	if isBlank(r.NotaSistema) {
		missing = append(missing, FieldNotaSistema)
	}
	if r.DataLiquidacao.IsZero() {
		missing = append(missing, FieldDataLiquidacao)
	}
	if r.DataVencimento.IsZero() {
		missing = append(missing, FieldDataVencimento)
	}
	if isBlank(r.OrdemAteste) {
		missing = append(missing, FieldOrdemAteste)
	}
	return missing
}

// MergeExtraction copies non-empty extracted values into fields that are still
// empty. Values already present are never overwritten. Returns the names of the
// fields that were filled.
func (r *LiquidationRecord) MergeExtraction(res ExtractionResult) []string {
	var filled []string

	merge := func(dst *string, value, field string) {
		v := strings.TrimSpace(value)
		if v == "" || !isBlank(*dst) {
			return
		}
		*dst = v
		filled = append(filled, field)
	}

	merge(&r.Pregao, res.Pregao, FieldPregao)
	merge(&r.FonteRecurso, res.FonteRecurso, FieldFonteRecurso)
	merge(&r.NumeroProcesso, res.NumeroProcesso, FieldNumeroProcesso)
	merge(&r.NumeroEmpenho, res.NumeroEmpenho, FieldNumeroEmpenho)
	merge(&r.ValorNota, res.ValorNota, FieldValorNota)
	merge(&r.Fornecedor, res.Fornecedor, FieldFornecedor)

	return filled
}

// RecordPatch carries a partial update of a LiquidationRecord. Nil fields are left untouched.
type RecordPatch struct {
	Pregao         *string `json:"pregao,omitempty"`
	FonteRecurso   *string `json:"fonteRecurso,omitempty"`
	NumeroProcesso *string `json:"numeroProcesso,omitempty"`
	NumeroEmpenho  *string `json:"numeroEmpenho,omitempty"`
	ValorNota      *string `json:"valorNota,omitempty"`
	Fornecedor     *string `json:"fornecedor,omitempty"`
	NotaPagamento  *string `json:"notaPagamento,omitempty"`
	NotaSistema    *string `json:"notaSistema,omitempty"`
	DataLiquidacao *Date   `json:"dataLiquidacao,omitempty"`
	DataVencimento *Date   `json:"dataVencimento,omitempty"`
	OrdemAteste    *string `json:"ordemAteste,omitempty"`
}

// IsEmpty reports whether the patch changes nothing
func (p RecordPatch) IsEmpty() bool {
	return p == RecordPatch{}
}

// Apply writes the non-nil patch fields onto the record
func (r *LiquidationRecord) Apply(p RecordPatch) {
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&r.Pregao, p.Pregao)
	set(&r.FonteRecurso, p.FonteRecurso)
	set(&r.NumeroProcesso, p.NumeroProcesso)
	set(&r.NumeroEmpenho, p.NumeroEmpenho)
	set(&r.ValorNota, p.ValorNota)
	set(&r.Fornecedor, p.Fornecedor)
	set(&r.NotaPagamento, p.NotaPagamento)
	set(&r.NotaSistema, p.NotaSistema)
	set(&r.OrdemAteste, p.OrdemAteste)
	if p.DataLiquidacao != nil {
		r.DataLiquidacao = *p.DataLiquidacao
	}
	if p.DataVencimento != nil {
		r.DataVencimento = *p.DataVencimento
	}
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
