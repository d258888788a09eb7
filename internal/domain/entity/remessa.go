package entity

import "time"

// LedgerEntry is one finalized liquidation held in the daily batch
type LedgerEntry struct {
	Sequence    int               `json:"sequence"`
	FinalizedAt time.Time         `json:"finalizedAt"`
	Record      LiquidationRecord `json:"record"`
}

// Remessa is the journal record of a confirmed batch dispatch
type Remessa struct {
	ID            int64     `json:"id"`
	CorrelationID string    `json:"correlationId"`
	Channel       string    `json:"channel"`
	Address       string    `json:"address"`
	Subject       string    `json:"subject"`
	Body          string    `json:"body"`
	Receipt       string    `json:"receipt"`
	EntryCount    int       `json:"entryCount"`
	Total         string    `json:"total"`
	DispatchedAt  time.Time `json:"dispatchedAt"`
	ConfirmedAt   time.Time `json:"confirmedAt"`
}
