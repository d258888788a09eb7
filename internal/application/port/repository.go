package port

import (
	"context"

	"github.com/garyjia/liquidagov/internal/domain/entity"
)

// BatchJournal keeps the audit trail of confirmed remessas
type BatchJournal interface {
	// Record stores a confirmed remessa and assigns its ID
	Record(ctx context.Context, remessa *entity.Remessa) error

	// List returns the most recent remessas first, at most limit of them
	List(ctx context.Context, limit int) ([]*entity.Remessa, error)
}
