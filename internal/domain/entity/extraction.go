package entity

// ExtractionResult is the best-effort partial field set returned by the
// extraction gateway. Any field may be empty.
type ExtractionResult struct {
	Pregao         string `json:"pregao"`
	FonteRecurso   string `json:"fonteRecurso"`
	NumeroProcesso string `json:"numeroProcesso"`
	NumeroEmpenho  string `json:"numeroEmpenho"`
	ValorNota      string `json:"valorNota"`
	Fornecedor     string `json:"fornecedor"`
}

// IsEmpty reports whether no field was extracted
func (r ExtractionResult) IsEmpty() bool {
	return r == ExtractionResult{}
}
