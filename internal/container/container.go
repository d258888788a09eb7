// Package container wires the application components together and manages
// their lifecycle.
package container

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/liquidagov/internal/application/batch"
	"github.com/garyjia/liquidagov/internal/application/eventbus"
	"github.com/garyjia/liquidagov/internal/application/port"
	"github.com/garyjia/liquidagov/internal/application/workflow"
	"github.com/garyjia/liquidagov/internal/config"
	"github.com/garyjia/liquidagov/internal/infrastructure/export"
	"github.com/garyjia/liquidagov/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/liquidagov/pkg/database"
)

// Container manages all application dependencies and lifecycle.
// Components are initialized in dependency order and torn down in reverse.
type Container struct {
	config *config.Config
	logger *zap.Logger

	// Infrastructure
	db        *database.DB
	journal   *sqlite.Journal
	extractor port.Extractor
	committer port.LiquidationCommitter
	channel   port.OutboundChannel
	exporter  port.SpreadsheetExporter

	// Application
	bus        eventbus.Bus
	ledger     *batch.Ledger
	engine     workflow.Engine
	dispatcher *batch.Dispatcher

	mu     sync.Mutex
	ready  atomic.Bool
	closed atomic.Bool
}

// HealthStatus represents the health of all components
type HealthStatus struct {
	Overall    bool                       `json:"overall"`
	Components map[string]ComponentHealth `json:"components"`
}

// ComponentHealth represents health of a single component
type ComponentHealth struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// NewContainer creates a new container from configuration.
// It does not initialize components - call Start() to initialize.
func NewContainer(cfg *config.Config, logger *zap.Logger) (*Container, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Container{
		config: cfg,
		logger: logger,
	}, nil
}

// Start initializes all components:
// 1. Journal database
// 2. External gateways (extraction, commit, outbound channel, export)
// 3. Event bus, ledger, dispatcher and workflow engine
func (c *Container) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return errors.New("container has been closed")
	}
	if c.ready.Load() {
		return errors.New("container already started")
	}

	c.logger.Info("Starting container initialization")

	if err := c.initJournal(ctx); err != nil {
		return fmt.Errorf("failed to initialize journal: %w", err)
	}

	if err := c.initExternal(); err != nil {
		c.closeDB()
		return fmt.Errorf("failed to initialize external gateways: %w", err)
	}
	c.logger.Info("External gateways initialized",
		zap.Bool("extraction_enabled", c.config.ExtractionEnabled()),
		zap.String("channel", c.channel.Name()))

	c.initApplication()
	c.logger.Info("Workflow engine and batch dispatcher initialized")

	c.ready.Store(true)
	c.logger.Info("Container started successfully")
	return nil
}

func (c *Container) initJournal(ctx context.Context) error {
	if !c.config.Journal.Enabled {
		c.logger.Info("Remessa journal disabled")
		return nil
	}

	bundle, err := ProvideJournal(ctx, &c.config.Journal, c.logger)
	if err != nil {
		return err
	}
	c.db = bundle.DB
	c.journal = bundle.Journal
	c.logger.Info("Remessa journal initialized", zap.String("path", c.config.Journal.Path))
	return nil
}

func (c *Container) initExternal() error {
	extractor, err := ProvideExtractor(c.config, c.logger)
	if err != nil {
		return err
	}
	c.extractor = extractor

	channel, err := ProvideOutboundChannel(c.config, c.logger)
	if err != nil {
		return err
	}
	c.channel = channel

	c.committer = ProvideCommitter(&c.config.Liquidation, c.logger)
	c.exporter = export.NewExcelExporter(c.logger)
	return nil
}

func (c *Container) initApplication() {
	c.bus = ProvideEventBus(c.logger)
	if c.journal != nil {
		c.journal.Subscribe(c.bus)
	}

	c.ledger = batch.NewLedger(c.logger.Named("ledger"))
	c.dispatcher = batch.NewDispatcher(c.ledger, c.channel, c.logger.Named("dispatch"),
		batch.WithDefaultAddress(c.config.Dispatch.DefaultAddress),
		batch.WithEventBus(c.bus))
	c.engine = workflow.NewEngine(c.ledger, c.extractor,
		workflow.WithEventBus(c.bus),
		workflow.WithCommitter(c.committer),
		workflow.WithLogger(c.logger.Named("workflow")))
}

// Close gracefully shuts down all components in reverse order
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return errors.New("container already closed")
	}

	c.logger.Info("Closing container")

	var errs []error

	// Drain async handlers before the journal goes away
	if c.bus != nil {
		if err := c.bus.Close(); err != nil {
			c.logger.Error("Failed to close event bus", zap.Error(err))
			errs = append(errs, fmt.Errorf("close event bus: %w", err))
		}
	}

	if err := c.closeDB(); err != nil {
		errs = append(errs, err)
	}

	c.closed.Store(true)
	c.ready.Store(false)

	if len(errs) > 0 {
		c.logger.Error("Container closed with errors", zap.Int("error_count", len(errs)))
		return errors.Join(errs...)
	}

	c.logger.Info("Container closed successfully")
	return nil
}

func (c *Container) closeDB() error {
	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	if err != nil {
		c.logger.Error("Failed to close database", zap.Error(err))
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

// Ready returns true when all components are initialized
func (c *Container) Ready() bool {
	return c.ready.Load()
}

// Health returns health status of all components
func (c *Container) Health(ctx context.Context) *HealthStatus {
	status := &HealthStatus{
		Overall:    c.ready.Load(),
		Components: make(map[string]ComponentHealth),
	}

	switch {
	case !c.config.Journal.Enabled:
		status.Components["journal"] = ComponentHealth{Healthy: true, Message: "disabled"}
	case c.db == nil:
		status.Components["journal"] = ComponentHealth{Healthy: false, Message: "not initialized"}
		status.Overall = false
	default:
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := c.db.PingContext(pingCtx); err != nil {
			status.Components["journal"] = ComponentHealth{Healthy: false, Message: fmt.Sprintf("ping failed: %v", err)}
			status.Overall = false
		} else {
			status.Components["journal"] = ComponentHealth{Healthy: true}
		}
	}

	if c.config.ExtractionEnabled() {
		status.Components["extraction"] = ComponentHealth{Healthy: true, Message: c.config.OpenAI.Model}
	} else {
		status.Components["extraction"] = ComponentHealth{Healthy: true, Message: "disabled"}
	}

	if c.channel != nil {
		status.Components["dispatch"] = ComponentHealth{Healthy: true, Message: c.channel.Name()}
	} else {
		status.Components["dispatch"] = ComponentHealth{Healthy: false, Message: "not initialized"}
		status.Overall = false
	}

	return status
}

// Getters for accessing container components

// Engine returns the workflow engine
func (c *Container) Engine() workflow.Engine {
	return c.engine
}

// Ledger returns the batch ledger
func (c *Container) Ledger() *batch.Ledger {
	return c.ledger
}

// Dispatcher returns the batch dispatcher
func (c *Container) Dispatcher() *batch.Dispatcher {
	return c.dispatcher
}

// Exporter returns the remessa spreadsheet exporter
func (c *Container) Exporter() port.SpreadsheetExporter {
	return c.exporter
}

// Journal returns the remessa journal, or nil when disabled
func (c *Container) Journal() port.BatchJournal {
	if c.journal == nil {
		return nil
	}
	return c.journal
}

// EventBus returns the event bus
func (c *Container) EventBus() eventbus.Bus {
	return c.bus
}

// Logger returns the container's logger
func (c *Container) Logger() *zap.Logger {
	return c.logger
}

// Config returns the container's configuration
func (c *Container) Config() *config.Config {
	return c.config
}
