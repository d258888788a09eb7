package sqlite

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/liquidagov/internal/application/eventbus"
	"github.com/garyjia/liquidagov/internal/application/port"
	"github.com/garyjia/liquidagov/internal/domain/entity"
	"github.com/garyjia/liquidagov/internal/domain/event"
	"github.com/garyjia/liquidagov/pkg/database"
)

// Migrations creates the journal schema
var Migrations = []database.Migration{
	{
		Version: 1,
		Name:    "create_remessas",
		SQL: `
			CREATE TABLE IF NOT EXISTS remessas (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				correlation_id TEXT NOT NULL,
				channel TEXT NOT NULL,
				address TEXT NOT NULL,
				subject TEXT NOT NULL,
				body TEXT NOT NULL,
				receipt TEXT NOT NULL DEFAULT '',
				entry_count INTEGER NOT NULL,
				total TEXT NOT NULL,
				dispatched_at DATETIME NOT NULL,
				confirmed_at DATETIME NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_remessas_confirmed_at ON remessas(confirmed_at);
		`,
	},
}

// Journal implements port.BatchJournal on SQLite
type Journal struct {
	db     *database.DB
	logger *zap.Logger
}

// NewJournal creates a new remessa journal
func NewJournal(db *database.DB, logger *zap.Logger) *Journal {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Journal{
		db:     db,
		logger: logger,
	}
}

// Record stores a confirmed remessa and assigns its ID
func (j *Journal) Record(ctx context.Context, remessa *entity.Remessa) error {
	query := `
		INSERT INTO remessas (
			correlation_id, channel, address, subject, body, receipt,
			entry_count, total, dispatched_at, confirmed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := j.db.ExecContext(ctx, query,
		remessa.CorrelationID,
		remessa.Channel,
		remessa.Address,
		remessa.Subject,
		remessa.Body,
		remessa.Receipt,
		remessa.EntryCount,
		remessa.Total,
		remessa.DispatchedAt.UTC(),
		remessa.ConfirmedAt.UTC(),
	)
	if err != nil {
		j.logger.Error("Failed to record remessa", zap.String("subject", remessa.Subject), zap.Error(err))
		return fmt.Errorf("failed to record remessa: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	remessa.ID = id
	return nil
}

// List returns the most recent remessas first
func (j *Journal) List(ctx context.Context, limit int) ([]*entity.Remessa, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, correlation_id, channel, address, subject, body, receipt,
			entry_count, total, dispatched_at, confirmed_at
		FROM remessas
		ORDER BY confirmed_at DESC, id DESC
		LIMIT ?
	`

	rows, err := j.db.QueryContext(ctx, query, limit)
	if err != nil {
		j.logger.Error("Failed to list remessas", zap.Error(err))
		return nil, fmt.Errorf("failed to list remessas: %w", err)
	}
	defer rows.Close()

	var remessas []*entity.Remessa
	for rows.Next() {
		var r entity.Remessa
		err := rows.Scan(
			&r.ID,
			&r.CorrelationID,
			&r.Channel,
			&r.Address,
			&r.Subject,
			&r.Body,
			&r.Receipt,
			&r.EntryCount,
			&r.Total,
			&r.DispatchedAt,
			&r.ConfirmedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan remessa: %w", err)
		}
		remessas = append(remessas, &r)
	}

	return remessas, rows.Err()
}

// Subscribe records every confirmed remessa published on the bus
func (j *Journal) Subscribe(bus eventbus.Bus) {
	bus.SubscribeNamed(event.TypeBatchConfirmed, "remessa-journal", j.handleConfirmed)
}

func (j *Journal) handleConfirmed(ctx context.Context, evt *event.Event) error {
	remessa, ok := evt.Payload[event.KeyRemessa].(*entity.Remessa)
	if !ok || remessa == nil {
		return fmt.Errorf("event %s carries no remessa", evt.ID)
	}
	if err := j.Record(ctx, remessa); err != nil {
		return err
	}
	j.logger.Info("Remessa journaled",
		zap.Int64("id", remessa.ID),
		zap.String("correlation_id", remessa.CorrelationID))
	return nil
}

// Verify interface compliance
var _ port.BatchJournal = (*Journal)(nil)
