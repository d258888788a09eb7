package port

import (
	"context"

	"github.com/garyjia/liquidagov/internal/domain/entity"
)

// Extractor reads budget fields off the uploaded documents.
// Either document may be nil, but not both. Failures are *entity.ExtractionError.
type Extractor interface {
	Extract(ctx context.Context, invoice, commitment *entity.Document) (*entity.ExtractionResult, error)
}

// Rasterizer renders a PDF document to JPEG page images, at most maxPages of them
type Rasterizer interface {
	Rasterize(ctx context.Context, doc *entity.Document, maxPages int) ([][]byte, error)
}

// LiquidationCommitter records a finalized liquidation in the upstream system.
// Implementations may block for a bounded time and are expected to succeed.
type LiquidationCommitter interface {
	Commit(ctx context.Context, record entity.LiquidationRecord) error
}

// OutboundMessage is a formatted batch report addressed to one recipient
type OutboundMessage struct {
	Address string
	Subject string
	Body    string
}

// OutboundChannel hands a batch report off for delivery
type OutboundChannel interface {
	// Name identifies the channel in logs and the journal
	Name() string

	// Send delivers the message and returns a channel-specific receipt
	// (a mailto URL, a message ID)
	Send(ctx context.Context, msg OutboundMessage) (string, error)
}

// SpreadsheetExporter renders the ledger entries as a spreadsheet file
type SpreadsheetExporter interface {
	Export(entries []entity.LedgerEntry) ([]byte, error)
}
