package entity

// Document kinds accepted at the upload stage
const (
	DocumentInvoice    = "invoice"    // Nota Fiscal
	DocumentCommitment = "commitment" // Nota de Empenho
)

// Field names, shared by validation errors and the JSON surface
const (
	FieldPregao         = "pregao"
	FieldFonteRecurso   = "fonteRecurso"
	FieldNumeroProcesso = "numeroProcesso"
	FieldNumeroEmpenho  = "numeroEmpenho"
	FieldValorNota      = "valorNota"
	FieldFornecedor     = "fornecedor"
	FieldNotaPagamento  = "notaPagamento"
	FieldNotaSistema    = "notaSistema"
	FieldDataLiquidacao = "dataLiquidacao"
	FieldDataVencimento = "dataVencimento"
	FieldOrdemAteste    = "ordemAteste"
)

// Date layouts
const (
	DateLayout        = "2006-01-02" // wire format
	DisplayDateLayout = "02/01/2006" // pt-BR display
)
