package export

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/garyjia/liquidagov/internal/domain/entity"
	"github.com/garyjia/liquidagov/pkg/currency"
)

// SheetName is the worksheet holding the remessa rows
const SheetName = "Remessa"

var headers = []string{
	"Seq",
	"Finalizado em",
	"Pregão",
	"Fonte de Recurso",
	"N. Processo",
	"Empenho",
	"Fornecedor",
	"Valor",
	"NP",
	"NS",
	"Data Liquidação",
	"Vencimento",
	"Ordem de Ateste",
}

// ExcelExporter renders ledger entries as an xlsx workbook
type ExcelExporter struct {
	logger *zap.Logger
}

// NewExcelExporter creates a new spreadsheet exporter
func NewExcelExporter(logger *zap.Logger) *ExcelExporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExcelExporter{logger: logger}
}

// Export writes one row per entry plus a total row and returns the workbook bytes
func (e *ExcelExporter) Export(entries []entity.LedgerEntry) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		e.setCell(f, cell, h)
	}

	for i, entry := range entries {
		row := i + 2
		r := entry.Record
		values := []interface{}{
			entry.Sequence,
			entry.FinalizedAt.Format(time.DateTime),
			r.Pregao,
			r.FonteRecurso,
			r.NumeroProcesso,
			r.NumeroEmpenho,
			r.Fornecedor,
			amountCell(r.ValorNota),
			r.NotaPagamento,
			r.NotaSistema,
			r.DataLiquidacao.Display(),
			r.DataVencimento.Display(),
			r.OrdemAteste,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			e.setCell(f, cell, v)
		}
	}

	totalRow := len(entries) + 2
	labelCell, _ := excelize.CoordinatesToCellName(7, totalRow)
	sumCell, _ := excelize.CoordinatesToCellName(8, totalRow)
	e.setCell(f, labelCell, "Total")
	if len(entries) > 0 {
		first, _ := excelize.CoordinatesToCellName(8, 2)
		last, _ := excelize.CoordinatesToCellName(8, totalRow-1)
		if err := f.SetCellFormula(SheetName, sumCell, fmt.Sprintf("SUM(%s:%s)", first, last)); err != nil {
			return nil, fmt.Errorf("failed to set total formula: %w", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}

	e.logger.Info("Remessa spreadsheet exported",
		zap.Int("entries", len(entries)),
		zap.Int("bytes", buf.Len()))

	return buf.Bytes(), nil
}

// setCell sets a cell value, logging instead of failing on bad input
func (e *ExcelExporter) setCell(f *excelize.File, cell string, value interface{}) {
	if err := f.SetCellValue(SheetName, cell, value); err != nil {
		e.logger.Warn("Failed to set cell value",
			zap.String("cell", cell),
			zap.Error(err))
	}
}

// amountCell stores parseable amounts as numbers so the sheet can total them;
// anything else is kept as typed.
func amountCell(raw string) interface{} {
	d, err := currency.ParseBRL(raw)
	if err != nil {
		return raw
	}
	v, _ := d.Float64()
	return v
}
