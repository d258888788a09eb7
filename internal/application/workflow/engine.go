package workflow

import (
	"context"
	"errors"

	"github.com/garyjia/liquidagov/internal/domain/entity"
	domainwf "github.com/garyjia/liquidagov/internal/domain/workflow"
)

// ErrBusy is returned by mutating calls while extraction or the liquidation commit is pending
var ErrBusy = errors.New("workflow busy: extraction or commit in progress")

// Engine drives one operator session through the liquidation stages
type Engine interface {
	// Advance validates the current stage and moves to the next one.
	// From UPLOAD it runs extraction; from REVIEW it finalizes into the batch ledger.
	Advance(ctx context.Context) error

	// GoBack returns to the previous stage (DATA_ENTRY, REVIEW, BATCH_VIEW only)
	GoBack(ctx context.Context) error

	// Reset discards the in-progress record, attachments and attestation. The ledger is untouched.
	Reset(ctx context.Context) error

	// StartNew begins a fresh liquidation from COMPLETED
	StartNew(ctx context.Context) error

	// ViewBatch opens the batch view from COMPLETED
	ViewBatch(ctx context.Context) error

	// UpdateRecord applies operator edits during UPLOAD, DATA_ENTRY and REVIEW
	UpdateRecord(patch entity.RecordPatch) error

	// AttachInvoice sets or, with nil, removes the invoice document during UPLOAD
	AttachInvoice(doc *entity.Document) error

	// AttachCommitment sets or, with nil, removes the commitment document during UPLOAD
	AttachCommitment(doc *entity.Document) error

	// SetAttested records the SICAF attestation during REVIEW
	SetAttested(attested bool) error

	// Snapshot returns a copy of the session state
	Snapshot() Snapshot
}

// Snapshot is a read-only view of the session
type Snapshot struct {
	Stage             domainwf.State           `json:"stage"`
	Step              int                      `json:"step"`
	Record            entity.LiquidationRecord `json:"record"`
	Invoice           *entity.DocumentSummary  `json:"invoice"`
	Commitment        *entity.DocumentSummary  `json:"commitment"`
	Attested          bool                     `json:"attested"`
	Extracting        bool                     `json:"extracting"`
	Committing        bool                     `json:"committing"`
	PermittedTriggers []domainwf.Trigger       `json:"permittedTriggers"`
	BatchSize         int                      `json:"batchSize"`
}
