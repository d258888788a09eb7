package entity

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completeRecord() LiquidationRecord {
	return LiquidationRecord{
		Pregao:         "PE 15/2024",
		FonteRecurso:   "1500 - Recursos Ordinários",
		NumeroProcesso: "23000.000000/2024-00",
		NumeroEmpenho:  "2024NE000123",
		ValorNota:      "1.234,56",
		Fornecedor:     "Empresa LTDA",
		NotaPagamento:  "2024NP001234",
		NotaSistema:    "2024NS000567",
		DataLiquidacao: Date{Year: 2024, Month: time.May, Day: 10},
		DataVencimento: Date{Year: 2024, Month: time.June, Day: 10},
		OrdemAteste:    "Fls. 15-16",
	}
}

func TestNewLiquidationRecord_DefaultsLiquidationDate(t *testing.T) {
	now := time.Date(2026, time.October, 15, 17, 45, 0, 0, time.UTC)

	rec := NewLiquidationRecord(now)

	assert.Equal(t, Date{Year: 2026, Month: time.October, Day: 15}, rec.DataLiquidacao)
	assert.True(t, rec.DataVencimento.IsZero())
	assert.Empty(t, rec.NumeroEmpenho)
}

func TestLiquidationRecord_MissingRequiredFields(t *testing.T) {
	tests := []struct {
		name      string
		empenho   string
		valor     string
		wantEmpty bool
		want      []string
	}{
		{"both filled", "2024NE1", "10,00", true, nil},
		{"missing empenho", "", "10,00", false, []string{FieldNumeroEmpenho}},
		{"missing valor", "2024NE1", "", false, []string{FieldValorNota}},
		{"blank valor", "2024NE1", "   ", false, []string{FieldValorNota}},
		{"both missing", "", "", false, []string{FieldNumeroEmpenho, FieldValorNota}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := LiquidationRecord{NumeroEmpenho: tt.empenho, ValorNota: tt.valor}
			got := rec.MissingRequiredFields()
			if tt.wantEmpty {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLiquidationRecord_MissingLiquidationFields(t *testing.T) {
	rec := completeRecord()
	assert.Empty(t, rec.MissingLiquidationFields())

	clears := map[string]func(*LiquidationRecord){
		FieldNotaPagamento:  func(r *LiquidationRecord) { r.NotaPagamento = "" },
		FieldNotaSistema:    func(r *LiquidationRecord) { r.NotaSistema = " " },
		FieldDataLiquidacao: func(r *LiquidationRecord) { r.DataLiquidacao = Date{} },
		FieldDataVencimento: func(r *LiquidationRecord) { r.DataVencimento = Date{} },
		FieldOrdemAteste:    func(r *LiquidationRecord) { r.OrdemAteste = "" },
	}

	for field, blank := range clears {
		t.Run(field, func(t *testing.T) {
			r := completeRecord()
			blank(&r)
			assert.Equal(t, []string{field}, r.MissingLiquidationFields())
		})
	}
}

func TestLiquidationRecord_MergeExtraction_FillsOnlyEmptyFields(t *testing.T) {
	rec := LiquidationRecord{
		NumeroEmpenho: "OPERATOR-NE",
		Fornecedor:    "  ",
	}

	filled := rec.MergeExtraction(ExtractionResult{
		Pregao:        "PE 01/2024",
		NumeroEmpenho: "EXTRACTED-NE",
		ValorNota:     " 65,44 ",
		Fornecedor:    "Fornecedor SA",
		FonteRecurso:  "",
	})

	assert.Equal(t, "OPERATOR-NE", rec.NumeroEmpenho, "operator value must survive")
	assert.Equal(t, "PE 01/2024", rec.Pregao)
	assert.Equal(t, "65,44", rec.ValorNota)
	assert.Equal(t, "Fornecedor SA", rec.Fornecedor, "blank counts as unset")
	assert.Empty(t, rec.FonteRecurso)
	assert.ElementsMatch(t, []string{FieldPregao, FieldValorNota, FieldFornecedor}, filled)
}

func TestLiquidationRecord_MergeExtraction_Idempotent(t *testing.T) {
	first := ExtractionResult{NumeroEmpenho: "2024NE000123", ValorNota: "10,00"}
	second := ExtractionResult{NumeroEmpenho: "2024NE999999", ValorNota: "99,00", Pregao: "PE 2"}

	rec := LiquidationRecord{}
	rec.MergeExtraction(first)
	rec.MergeExtraction(second)

	assert.Equal(t, "2024NE000123", rec.NumeroEmpenho)
	assert.Equal(t, "10,00", rec.ValorNota)
	assert.Equal(t, "PE 2", rec.Pregao)

	again := rec
	assert.Empty(t, again.MergeExtraction(first))
	assert.Equal(t, rec, again)
}

func TestLiquidationRecord_Apply(t *testing.T) {
	rec := completeRecord()
	empty := ""
	supplier := "Outra Empresa"
	due := Date{Year: 2025, Month: time.January, Day: 2}

	rec.Apply(RecordPatch{
		Fornecedor:     &supplier,
		OrdemAteste:    &empty,
		DataVencimento: &due,
	})

	assert.Equal(t, "Outra Empresa", rec.Fornecedor)
	assert.Empty(t, rec.OrdemAteste)
	assert.Equal(t, due, rec.DataVencimento)
	assert.Equal(t, "2024NE000123", rec.NumeroEmpenho)

	assert.True(t, RecordPatch{}.IsEmpty())
	assert.False(t, RecordPatch{Fornecedor: &supplier}.IsEmpty())
}

func TestLiquidationRecord_SnapshotIsIndependent(t *testing.T) {
	rec := completeRecord()
	snapshot := rec

	rec.NumeroEmpenho = "changed"
	rec.DataVencimento = Date{}

	assert.Equal(t, "2024NE000123", snapshot.NumeroEmpenho)
	assert.False(t, snapshot.DataVencimento.IsZero())
}

func TestDate_JSON(t *testing.T) {
	rec := LiquidationRecord{DataVencimento: Date{Year: 2024, Month: time.March, Day: 5}}

	data, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"dataVencimento":"2024-03-05"`)
	assert.Contains(t, string(data), `"dataLiquidacao":""`)

	var decoded LiquidationRecord
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, rec, decoded)

	var d Date
	require.NoError(t, json.Unmarshal([]byte("null"), &d))
	assert.True(t, d.IsZero())
	assert.Error(t, json.Unmarshal([]byte(`"10/03/2024"`), &d))
}

func TestDate_Display(t *testing.T) {
	assert.Equal(t, "05/03/2024", Date{Year: 2024, Month: time.March, Day: 5}.Display())
	assert.Equal(t, "-", Date{}.Display())
}

func TestValidationError_IsMatchesReason(t *testing.T) {
	err := fmt.Errorf("advance: %w", NewValidationError(ReasonMissingRequiredFields, FieldValorNota))

	assert.True(t, errors.Is(err, ErrMissingRequiredFields))
	assert.False(t, errors.Is(err, ErrNoDocuments))

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{FieldValorNota}, verr.Fields)
	assert.Contains(t, verr.Error(), "missing required fields")
}

func TestExtractionError_Unwrap(t *testing.T) {
	err := NewExtractionError("validate", ErrNothingToExtract)

	assert.True(t, errors.Is(err, ErrNothingToExtract))
	assert.Equal(t, "extraction: validate failed: no documents provided for extraction", err.Error())
}

func TestDocuments(t *testing.T) {
	assert.True(t, Documents{}.IsEmpty())

	pdf := &Document{Name: "nf.pdf", MimeType: "application/pdf", Content: []byte("%PDF")}
	img := &Document{Name: "ne.png", MimeType: "image/png; charset=binary", Content: []byte{1, 2}}

	assert.False(t, Documents{Commitment: img}.IsEmpty())
	assert.True(t, pdf.IsPDF())
	assert.False(t, pdf.IsImage())
	assert.True(t, img.IsImage())
	assert.Equal(t, int64(2), img.Summary().Size)

	var absent *Document
	assert.Nil(t, absent.Summary())
	assert.Equal(t, int64(0), absent.Size())
}
