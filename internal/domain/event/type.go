package event

// Type identifies the type of domain event
type Type string

const (
	TypeStageChanged         Type = "workflow.stage_changed"
	TypeExtractionCompleted  Type = "extraction.completed"
	TypeExtractionFailed     Type = "extraction.failed"
	TypeLiquidationFinalized Type = "liquidation.finalized"
	TypeBatchDispatched      Type = "batch.dispatched"
	TypeBatchConfirmed       Type = "batch.confirmed"
)

// Payload keys shared by publishers and subscribers
const (
	KeyFrom          = "from"
	KeyTo            = "to"
	KeyTrigger       = "trigger"
	KeyFilledFields  = "filled_fields"
	KeyError         = "error"
	KeyNumeroEmpenho = "numero_empenho"
	KeyValorNota     = "valor_nota"
	KeySequence      = "sequence"
	KeyAddress       = "address"
	KeyRemessa       = "remessa"
	KeyReceipt       = "receipt"
	KeyChannel       = "channel"
	KeyEntryCount    = "entry_count"
	KeyTotal         = "total"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeStageChanged,
		TypeExtractionCompleted,
		TypeExtractionFailed,
		TypeLiquidationFinalized,
		TypeBatchDispatched,
		TypeBatchConfirmed:
		return true
	default:
		return false
	}
}
