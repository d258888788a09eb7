package batch

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/garyjia/liquidagov/internal/domain/entity"
	"github.com/garyjia/liquidagov/pkg/currency"
)

var fixedNow = time.Date(2026, time.October, 15, 14, 30, 0, 0, time.UTC)

func record(empenho, valor string) entity.LiquidationRecord {
	return entity.LiquidationRecord{
		NumeroProcesso: "23000.000000/2024-00",
		NumeroEmpenho:  empenho,
		ValorNota:      valor,
		Fornecedor:     "Empresa LTDA",
		NotaPagamento:  "2024NP001234",
		NotaSistema:    "2024NS000567",
		DataLiquidacao: entity.DateOf(fixedNow),
		DataVencimento: entity.Date{Year: 2026, Month: time.November, Day: 5},
		OrdemAteste:    "Fls. 15-16",
	}
}

func newTestLedger() *Ledger {
	return NewLedger(zap.NewNop(), WithLedgerClock(func() time.Time { return fixedNow }))
}

func TestLedger_TotalFormatsScenario(t *testing.T) {
	l := newTestLedger()
	l.Append(record("2024NE1", "1.234,56"))
	l.Append(record("2024NE2", "65,44"))

	assert.Equal(t, "R$ 1.300,00", currency.FormatBRL(l.Total()))
}

func TestLedger_AppendAssignsSequence(t *testing.T) {
	l := newTestLedger()

	first := l.Append(record("2024NE1", "10,00"))
	second := l.Append(record("2024NE1", "10,00"))

	assert.Equal(t, 1, first.Sequence)
	assert.Equal(t, 2, second.Sequence)
	assert.Equal(t, fixedNow, first.FinalizedAt)
	assert.Equal(t, 2, l.Size(), "identical records are distinct entries")
}

func TestLedger_TotalIsMonotonic(t *testing.T) {
	l := newTestLedger()
	amounts := []string{"1.000,00", "0,01", "R$ 250,50", "99"}

	prev := l.Total()
	for _, raw := range amounts {
		l.Append(record("2024NE1", raw))
		x, err := currency.ParseBRL(raw)
		require.NoError(t, err)

		got := l.Total()
		assert.True(t, got.Equal(prev.Add(x)), "appending %q: total %s, want %s", raw, got, prev.Add(x))
		prev = got
	}
}

func TestLedger_UnparseableAmountContributesZero(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	l := NewLedger(zap.New(core))

	l.Append(record("2024NE1", "100,00"))
	before := l.Total()
	l.Append(record("2024NE2", "cem reais"))

	assert.True(t, l.Total().Equal(before))
	assert.True(t, before.Equal(decimal.NewFromInt(100)))
	require.GreaterOrEqual(t, logs.Len(), 1)
	assert.Equal(t, "cem reais", logs.All()[0].ContextMap()["valor_nota"])
}

func TestLedger_ClearAndSize(t *testing.T) {
	l := newTestLedger()
	for i := 0; i < 5; i++ {
		l.Append(record("2024NE1", "1,00"))
	}
	assert.Equal(t, 5, l.Size())

	l.Clear()
	assert.Equal(t, 0, l.Size())
	assert.True(t, l.Total().IsZero())
	assert.Equal(t, 1, l.Append(record("2024NE1", "1,00")).Sequence)
}

func TestLedger_RemoveThrough(t *testing.T) {
	l := newTestLedger()
	for i := 0; i < 3; i++ {
		l.Append(record("2024NE1", "1,00"))
	}

	assert.Equal(t, 2, l.RemoveThrough(2))
	require.Equal(t, 1, l.Size())
	assert.Equal(t, 3, l.Entries()[0].Sequence)
	assert.Equal(t, 4, l.Append(record("2024NE2", "2,00")).Sequence, "sequence continues while entries remain")

	assert.Equal(t, 0, l.RemoveThrough(0))
	assert.Equal(t, 2, l.RemoveThrough(4))
	assert.Equal(t, 0, l.Size())
	assert.Equal(t, 1, l.Append(record("2024NE3", "3,00")).Sequence)
}

func TestLedger_EntriesAreSnapshots(t *testing.T) {
	l := newTestLedger()
	rec := record("2024NE000123", "10,00")
	l.Append(rec)

	rec.NumeroEmpenho = "changed after finalization"
	entries := l.Entries()
	entries[0].Record.ValorNota = "mutated copy"

	stored := l.Entries()[0].Record
	assert.Equal(t, "2024NE000123", stored.NumeroEmpenho)
	assert.Equal(t, "10,00", stored.ValorNota)
}
