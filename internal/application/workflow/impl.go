package workflow

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/liquidagov/internal/application/batch"
	"github.com/garyjia/liquidagov/internal/application/eventbus"
	"github.com/garyjia/liquidagov/internal/application/port"
	"github.com/garyjia/liquidagov/internal/domain/entity"
	"github.com/garyjia/liquidagov/internal/domain/event"
	domainwf "github.com/garyjia/liquidagov/internal/domain/workflow"
)

// engineImpl is the concrete implementation of Engine. All session state is
// guarded by mu; extraction and the commit run with mu released and busy set.
type engineImpl struct {
	ledger    *batch.Ledger
	extractor port.Extractor
	committer port.LiquidationCommitter
	bus       eventbus.Bus
	logger    *zap.Logger
	now       func() time.Time

	mu         sync.Mutex
	machine    domainwf.StateMachine
	record     entity.LiquidationRecord
	docs       entity.Documents
	attested   bool
	extracting bool
	committing bool
}

// EngineOption configures the workflow engine
type EngineOption func(*engineImpl)

// WithEventBus sets the bus the engine publishes its events on
func WithEventBus(bus eventbus.Bus) EngineOption {
	return func(e *engineImpl) {
		e.bus = bus
	}
}

// WithCommitter sets the upstream liquidation committer called at finalization
func WithCommitter(c port.LiquidationCommitter) EngineOption {
	return func(e *engineImpl) {
		e.committer = c
	}
}

// WithLogger sets the engine logger
func WithLogger(logger *zap.Logger) EngineOption {
	return func(e *engineImpl) {
		e.logger = logger
	}
}

// WithClock overrides the source of "today" for new records
func WithClock(now func() time.Time) EngineOption {
	return func(e *engineImpl) {
		e.now = now
	}
}

// NewEngine creates an engine in UPLOAD with a fresh record. A nil extractor
// skips extraction and goes straight to data entry.
func NewEngine(ledger *batch.Ledger, extractor port.Extractor, opts ...EngineOption) Engine {
	e := &engineImpl{
		ledger:    ledger,
		extractor: extractor,
		logger:    zap.NewNop(),
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(e)
	}

	e.machine = BuildLiquidationStateMachine(domainwf.StateUpload, Guards{
		HasDocuments:      e.guardHasDocuments,
		RequiredFields:    e.guardRequiredFields,
		LiquidationFields: e.guardLiquidationFields,
	})
	e.record = entity.NewLiquidationRecord(e.now())

	return e
}

// Guards run with mu held.

func (e *engineImpl) guardHasDocuments(ctx context.Context) error {
	if e.docs.IsEmpty() {
		return entity.NewValidationError(entity.ReasonNoDocuments, entity.DocumentInvoice, entity.DocumentCommitment)
	}
	return nil
}

func (e *engineImpl) guardRequiredFields(ctx context.Context) error {
	if missing := e.record.MissingRequiredFields(); len(missing) > 0 {
		return entity.NewValidationError(entity.ReasonMissingRequiredFields, missing...)
	}
	return nil
}

func (e *engineImpl) guardLiquidationFields(ctx context.Context) error {
	if !e.attested {
		return entity.NewValidationError(entity.ReasonAttestationRequired)
	}
	if missing := e.record.MissingLiquidationFields(); len(missing) > 0 {
		return entity.NewValidationError(entity.ReasonMissingLiquidationFields, missing...)
	}
	return nil
}

func (e *engineImpl) busy() bool {
	return e.extracting || e.committing
}

// Advance validates the current stage and moves to the next one
func (e *engineImpl) Advance(ctx context.Context) error {
	e.mu.Lock()
	if e.busy() {
		e.mu.Unlock()
		return ErrBusy
	}

	from := e.machine.State()
	if err := e.machine.Evaluate(ctx, domainwf.TriggerAdvance); err != nil {
		e.mu.Unlock()
		e.logger.Info("Advance rejected", zap.String("stage", from.String()), zap.Error(err))
		return err
	}

	var events []*event.Event
	switch from {
	case domainwf.StateUpload:
		events = e.extract(ctx)
	case domainwf.StateReview:
		events = e.finalize(ctx)
	}

	evt, err := e.fire(ctx, domainwf.TriggerAdvance)
	e.mu.Unlock()

	if err != nil {
		return err
	}
	e.publish(ctx, append(events, evt)...)
	return nil
}

// extract releases mu for the duration of the gateway call and returns with it held.
// Failures are logged and never block the transition.
func (e *engineImpl) extract(ctx context.Context) []*event.Event {
	if e.extractor == nil {
		e.logger.Debug("No extractor configured, skipping extraction")
		return nil
	}

	invoice, commitment := e.docs.Invoice, e.docs.Commitment
	e.extracting = true
	e.mu.Unlock()

	start := time.Now()
	result, err := e.extractor.Extract(ctx, invoice, commitment)

	e.mu.Lock()
	e.extracting = false

	if err != nil {
		e.logger.Warn("Extraction failed, continuing with manual entry",
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return []*event.Event{event.NewEvent(event.TypeExtractionFailed, "", map[string]interface{}{
			event.KeyError: err.Error(),
		})}
	}
	if result == nil {
		result = &entity.ExtractionResult{}
	}

	filled := e.record.MergeExtraction(*result)
	e.logger.Info("Extraction merged into record",
		zap.Strings("filled_fields", filled),
		zap.Duration("elapsed", time.Since(start)))

	return []*event.Event{event.NewEvent(event.TypeExtractionCompleted, e.record.NumeroEmpenho, map[string]interface{}{
		event.KeyFilledFields: filled,
	})}
}

// finalize appends the snapshot and waits for the committer with mu released.
// The commit is not cancellable and a committer error does not roll back.
func (e *engineImpl) finalize(ctx context.Context) []*event.Event {
	snapshot := e.record
	entry := e.ledger.Append(snapshot)

	if e.committer != nil {
		e.committing = true
		e.mu.Unlock()

		err := e.committer.Commit(context.WithoutCancel(ctx), snapshot)

		e.mu.Lock()
		e.committing = false
		if err != nil {
			e.logger.Error("Liquidation commit failed, record kept in batch",
				zap.Int("sequence", entry.Sequence),
				zap.String("numero_empenho", snapshot.NumeroEmpenho),
				zap.Error(err))
		}
	}

	e.logger.Info("Liquidation finalized",
		zap.Int("sequence", entry.Sequence),
		zap.String("numero_empenho", snapshot.NumeroEmpenho),
		zap.Int("batch_size", e.ledger.Size()))

	return []*event.Event{event.NewEvent(event.TypeLiquidationFinalized, snapshot.NumeroEmpenho, map[string]interface{}{
		event.KeySequence:      entry.Sequence,
		event.KeyNumeroEmpenho: snapshot.NumeroEmpenho,
		event.KeyValorNota:     snapshot.ValorNota,
	})}
}

// GoBack returns to the previous stage
func (e *engineImpl) GoBack(ctx context.Context) error {
	return e.transition(ctx, domainwf.TriggerBack, nil)
}

// Reset discards the in-progress session. The ledger is untouched.
func (e *engineImpl) Reset(ctx context.Context) error {
	return e.transition(ctx, domainwf.TriggerReset, e.clearSession)
}

// StartNew begins a fresh liquidation from COMPLETED
func (e *engineImpl) StartNew(ctx context.Context) error {
	return e.transition(ctx, domainwf.TriggerStartNew, e.clearSession)
}

// ViewBatch opens the batch view from COMPLETED
func (e *engineImpl) ViewBatch(ctx context.Context) error {
	return e.transition(ctx, domainwf.TriggerViewBatch, nil)
}

func (e *engineImpl) transition(ctx context.Context, trigger domainwf.Trigger, after func()) error {
	e.mu.Lock()
	if e.busy() {
		e.mu.Unlock()
		return ErrBusy
	}

	evt, err := e.fire(ctx, trigger)
	if err == nil && after != nil {
		after()
	}
	e.mu.Unlock()

	if err != nil {
		return err
	}
	e.publish(ctx, evt)
	return nil
}

func (e *engineImpl) clearSession() {
	e.record = entity.NewLiquidationRecord(e.now())
	e.docs = entity.Documents{}
	e.attested = false
}

// fire runs the trigger with mu held and builds the stage-changed event
func (e *engineImpl) fire(ctx context.Context, trigger domainwf.Trigger) (*event.Event, error) {
	from := e.machine.State()
	if err := e.machine.Fire(ctx, trigger); err != nil {
		return nil, err
	}
	to := e.machine.State()

	e.logger.Info("Stage changed",
		zap.String("from", from.String()),
		zap.String("to", to.String()),
		zap.String("trigger", trigger.String()))

	return event.NewEvent(event.TypeStageChanged, "", map[string]interface{}{
		event.KeyFrom:    from.String(),
		event.KeyTo:      to.String(),
		event.KeyTrigger: trigger.String(),
	}), nil
}

// UpdateRecord applies operator edits
func (e *engineImpl) UpdateRecord(patch entity.RecordPatch) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.busy() {
		return ErrBusy
	}
	if !e.machine.State().IsEditable() {
		return entity.NewValidationError(entity.ReasonRecordLocked)
	}

	e.record.Apply(patch)
	return nil
}

// AttachInvoice sets or removes the invoice document
func (e *engineImpl) AttachInvoice(doc *entity.Document) error {
	return e.attach(entity.DocumentInvoice, doc, &e.docs.Invoice)
}

// AttachCommitment sets or removes the commitment document
func (e *engineImpl) AttachCommitment(doc *entity.Document) error {
	return e.attach(entity.DocumentCommitment, doc, &e.docs.Commitment)
}

func (e *engineImpl) attach(kind string, doc *entity.Document, slot **entity.Document) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.busy() {
		return ErrBusy
	}
	if e.machine.State() != domainwf.StateUpload {
		return entity.NewValidationError(entity.ReasonDocumentsLocked, kind)
	}
	if doc != nil && doc.Size() == 0 {
		return entity.NewValidationError(entity.ReasonEmptyDocument, kind)
	}

	if doc != nil {
		cp := *doc
		cp.Content = append([]byte(nil), doc.Content...)
		doc = &cp
	}
	*slot = doc

	e.logger.Debug("Document attachment changed",
		zap.String("kind", kind),
		zap.Bool("attached", doc != nil))
	return nil
}

// SetAttested records the SICAF attestation
func (e *engineImpl) SetAttested(attested bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.busy() {
		return ErrBusy
	}
	if e.machine.State() != domainwf.StateReview {
		return entity.NewValidationError(entity.ReasonAttestationOutOfStage)
	}

	e.attested = attested
	return nil
}

// Snapshot returns a copy of the session state
func (e *engineImpl) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	stage := e.machine.State()
	return Snapshot{
		Stage:             stage,
		Step:              stage.Step(),
		Record:            e.record,
		Invoice:           e.docs.Invoice.Summary(),
		Commitment:        e.docs.Commitment.Summary(),
		Attested:          e.attested,
		Extracting:        e.extracting,
		Committing:        e.committing,
		PermittedTriggers: e.machine.PermittedTriggers(),
		BatchSize:         e.ledger.Size(),
	}
}

func (e *engineImpl) publish(ctx context.Context, events ...*event.Event) {
	if e.bus == nil {
		return
	}
	for _, evt := range events {
		if evt == nil {
			continue
		}
		e.bus.PublishAsync(ctx, evt)
	}
}
