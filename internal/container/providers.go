package container

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/garyjia/liquidagov/internal/application/eventbus"
	"github.com/garyjia/liquidagov/internal/application/port"
	"github.com/garyjia/liquidagov/internal/config"
	"github.com/garyjia/liquidagov/internal/domain/event"
	"github.com/garyjia/liquidagov/internal/infrastructure/document"
	"github.com/garyjia/liquidagov/internal/infrastructure/external/lark"
	"github.com/garyjia/liquidagov/internal/infrastructure/external/openai"
	"github.com/garyjia/liquidagov/internal/infrastructure/external/siafi"
	"github.com/garyjia/liquidagov/internal/infrastructure/outbound"
	"github.com/garyjia/liquidagov/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/liquidagov/pkg/database"
)

// JournalBundle holds the journal and the database behind it
type JournalBundle struct {
	DB      *database.DB
	Journal *sqlite.Journal
}

// ProvideJournal opens the journal database and applies its migrations
func ProvideJournal(ctx context.Context, cfg *config.JournalConfig, logger *zap.Logger) (*JournalBundle, error) {
	if dir := filepath.Dir(cfg.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create journal directory: %w", err)
		}
	}

	db, err := database.New(ctx, database.Config{
		Path:            cfg.Path,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, err
	}

	if err := database.NewMigrator(db, logger).Run(ctx, sqlite.Migrations); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate journal: %w", err)
	}

	return &JournalBundle{
		DB:      db,
		Journal: sqlite.NewJournal(db, logger),
	}, nil
}

// ProvideExtractor builds the OpenAI extraction gateway, or a disabled one
// when no API key is configured
func ProvideExtractor(cfg *config.Config, logger *zap.Logger) (port.Extractor, error) {
	if !cfg.ExtractionEnabled() {
		logger.Warn("OpenAI API key not configured, extraction disabled")
		return openai.DisabledExtractor{}, nil
	}

	prompts, err := openai.LoadPrompts(cfg.Extraction.PromptsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load prompts: %w", err)
	}

	rasterizer := document.NewRasterizer(cfg.Extraction.JPEGQuality, cfg.Extraction.DPI, logger)

	return openai.NewExtractor(openai.Config{
		APIKey:   cfg.OpenAI.APIKey,
		BaseURL:  cfg.OpenAI.BaseURL,
		Model:    cfg.OpenAI.Model,
		Timeout:  cfg.OpenAI.Timeout,
		MaxPages: cfg.Extraction.MaxPages,
		Detail:   cfg.OpenAI.Detail,
	}, prompts, rasterizer, logger), nil
}

// ProvideCommitter builds the liquidation commit stub
func ProvideCommitter(cfg *config.LiquidationConfig, logger *zap.Logger) port.LiquidationCommitter {
	return siafi.NewSimulatedCommitter(cfg.CommitDelay, logger)
}

// ProvideOutboundChannel selects the channel remessas are dispatched through
func ProvideOutboundChannel(cfg *config.Config, logger *zap.Logger) (port.OutboundChannel, error) {
	switch cfg.Dispatch.Channel {
	case config.ChannelMailto, "":
		return outbound.NewMailtoChannel(logger), nil
	case config.ChannelLark:
		client := lark.NewClient(lark.Config{
			AppID:     cfg.Lark.AppID,
			AppSecret: cfg.Lark.AppSecret,
			BaseURL:   cfg.Lark.BaseURL,
		}, logger)
		return lark.NewMailChannel(client), nil
	default:
		return nil, fmt.Errorf("unsupported dispatch channel %q", cfg.Dispatch.Channel)
	}
}

// ProvideEventBus creates the event bus and subscribes the activity log
func ProvideEventBus(logger *zap.Logger) eventbus.Bus {
	bus := eventbus.New(eventbus.WithLogger(NewLoggerAdapter(logger)))
	subscribeActivityLog(bus, logger.Named("activity"))
	return bus
}

// subscribeActivityLog writes every domain event to the log
func subscribeActivityLog(bus eventbus.Bus, logger *zap.Logger) {
	types := []event.Type{
		event.TypeStageChanged,
		event.TypeExtractionCompleted,
		event.TypeExtractionFailed,
		event.TypeLiquidationFinalized,
		event.TypeBatchDispatched,
		event.TypeBatchConfirmed,
	}
	for _, t := range types {
		bus.SubscribeNamed(t, "activity-log", func(ctx context.Context, evt *event.Event) error {
			logger.Info("Domain event",
				zap.String("type", string(evt.Type)),
				zap.String("subject", evt.Subject),
				zap.String("event_id", evt.ID),
				zap.String("correlation_id", evt.CorrelationID))
			return nil
		})
	}
}
