package batch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/liquidagov/internal/application/eventbus"
	"github.com/garyjia/liquidagov/internal/application/port"
	"github.com/garyjia/liquidagov/internal/domain/entity"
	"github.com/garyjia/liquidagov/internal/domain/event"
	"github.com/garyjia/liquidagov/pkg/utils"
)

var (
	// ErrDispatchCancelled is returned when the operator leaves the destination address blank
	ErrDispatchCancelled = errors.New("dispatch cancelled by operator")

	// ErrNoPendingDispatch is returned by Confirm when nothing awaits confirmation
	ErrNoPendingDispatch = errors.New("no dispatch pending confirmation")

	// ErrDispatchPending is returned by Dispatch while an earlier report awaits
	// confirmation or abandonment, or is still being sent
	ErrDispatchPending = errors.New("a batch dispatch is already pending confirmation")
)

// PendingDispatch is a report handed to the channel and awaiting the operator's confirmation
type PendingDispatch struct {
	Report        Report    `json:"report"`
	Address       string    `json:"address"`
	Channel       string    `json:"channel"`
	Receipt       string    `json:"receipt"`
	DispatchedAt  time.Time `json:"dispatchedAt"`
	CorrelationID string    `json:"correlationId"`

	// last ledger sequence covered by the report
	throughSeq int
}

// Dispatcher formats the ledger into a remessa report and hands it to an outbound channel.
// Dispatched entries leave the ledger only after the operator confirms the hand-off.
type Dispatcher struct {
	ledger         *Ledger
	channel        port.OutboundChannel
	bus            eventbus.Bus
	logger         *zap.Logger
	now            func() time.Time
	defaultAddress string

	mu      sync.Mutex
	pending *PendingDispatch
	sending bool
}

// DispatcherOption configures the dispatcher
type DispatcherOption func(*Dispatcher)

// WithDefaultAddress sets the address the operator prompt is pre-filled with
func WithDefaultAddress(address string) DispatcherOption {
	return func(d *Dispatcher) {
		d.defaultAddress = address
	}
}

// WithEventBus publishes batch.dispatched and batch.confirmed events
func WithEventBus(bus eventbus.Bus) DispatcherOption {
	return func(d *Dispatcher) {
		d.bus = bus
	}
}

// WithDispatcherClock overrides the report date source
func WithDispatcherClock(now func() time.Time) DispatcherOption {
	return func(d *Dispatcher) {
		d.now = now
	}
}

// NewDispatcher creates a dispatcher over the ledger and channel
func NewDispatcher(ledger *Ledger, channel port.OutboundChannel, logger *zap.Logger, opts ...DispatcherOption) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Dispatcher{
		ledger:  ledger,
		channel: channel,
		logger:  logger,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DefaultAddress returns the configured destination address
func (d *Dispatcher) DefaultAddress() string {
	return d.defaultAddress
}

// Pending returns the dispatch awaiting confirmation, or nil
func (d *Dispatcher) Pending() *PendingDispatch {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pending == nil {
		return nil
	}
	p := *d.pending
	return &p
}

// Dispatch formats the ledger and sends it to address. An empty ledger fails with
// *entity.EmptyBatchError before any formatting; a blank address means the operator
// cancelled and nothing happens. The ledger is left untouched either way. Only one
// report may await confirmation at a time; further calls fail with ErrDispatchPending.
func (d *Dispatcher) Dispatch(ctx context.Context, address string) (*PendingDispatch, error) {
	entries := d.ledger.Entries()
	if len(entries) == 0 {
		return nil, &entity.EmptyBatchError{}
	}

	address = strings.TrimSpace(address)
	if address == "" {
		d.logger.Info("Batch dispatch cancelled by operator")
		return nil, ErrDispatchCancelled
	}
	if err := utils.ValidateEmail(address); err != nil {
		return nil, entity.NewValidationError(entity.ReasonInvalidAddress, "address")
	}

	d.mu.Lock()
	if d.pending != nil || d.sending {
		d.mu.Unlock()
		d.logger.Warn("Batch dispatch rejected, an earlier report awaits confirmation")
		return nil, ErrDispatchPending
	}
	d.sending = true
	d.mu.Unlock()
	defer func() {
		d.mu.Lock()
		d.sending = false
		d.mu.Unlock()
	}()

	report := BuildReport(entries, sumAmounts(entries, d.logger), d.now())

	receipt, err := d.channel.Send(ctx, port.OutboundMessage{
		Address: address,
		Subject: report.Subject,
		Body:    report.Body,
	})
	if err != nil {
		d.logger.Error("Batch dispatch failed",
			zap.String("channel", d.channel.Name()),
			zap.String("address", address),
			zap.Error(err))
		return nil, fmt.Errorf("send batch report via %s: %w", d.channel.Name(), err)
	}

	evt := event.NewEvent(event.TypeBatchDispatched, report.Subject, map[string]interface{}{
		event.KeyAddress:    address,
		event.KeyChannel:    d.channel.Name(),
		event.KeyReceipt:    receipt,
		event.KeyEntryCount: report.EntryCount,
		event.KeyTotal:      report.TotalDisplay(),
	})

	pending := &PendingDispatch{
		Report:        report,
		Address:       address,
		Channel:       d.channel.Name(),
		Receipt:       receipt,
		DispatchedAt:  d.now(),
		CorrelationID: evt.CorrelationID,
		throughSeq:    entries[len(entries)-1].Sequence,
	}

	d.mu.Lock()
	d.pending = pending
	d.mu.Unlock()

	d.logger.Info("Batch report dispatched, awaiting confirmation",
		zap.String("channel", pending.Channel),
		zap.String("address", address),
		zap.Int("entries", report.EntryCount),
		zap.String("total", report.TotalDisplay()))

	if d.bus != nil {
		d.bus.PublishAsync(ctx, evt)
	}

	out := *pending
	return &out, nil
}

// Confirm records that the hand-off happened: the entries in the sent report leave
// the ledger and a batch.confirmed event carries the remessa to its subscribers
// (the journal). Liquidations finalized after the dispatch stay for the next remessa.
func (d *Dispatcher) Confirm(ctx context.Context) (*entity.Remessa, error) {
	d.mu.Lock()
	pending := d.pending
	d.pending = nil
	d.mu.Unlock()

	if pending == nil {
		return nil, ErrNoPendingDispatch
	}

	d.ledger.RemoveThrough(pending.throughSeq)

	remessa := &entity.Remessa{
		CorrelationID: pending.CorrelationID,
		Channel:       pending.Channel,
		Address:       pending.Address,
		Subject:       pending.Report.Subject,
		Body:          pending.Report.Body,
		Receipt:       pending.Receipt,
		EntryCount:    pending.Report.EntryCount,
		Total:         pending.Report.TotalDisplay(),
		DispatchedAt:  pending.DispatchedAt,
		ConfirmedAt:   d.now(),
	}

	d.logger.Info("Batch dispatch confirmed",
		zap.String("subject", remessa.Subject),
		zap.Int("entries", remessa.EntryCount),
		zap.Int("carried_over", d.ledger.Size()))

	if d.bus != nil {
		evt := event.NewEventWithCorrelation(event.TypeBatchConfirmed, remessa.Subject, map[string]interface{}{
			event.KeyRemessa:    remessa,
			event.KeyChannel:    remessa.Channel,
			event.KeyEntryCount: remessa.EntryCount,
			event.KeyTotal:      remessa.Total,
		}, remessa.CorrelationID)
		if err := d.bus.Publish(ctx, evt); err != nil {
			// The hand-off already happened; a journal failure must not resurrect the batch.
			d.logger.Error("Failed to publish batch confirmation", zap.Error(err))
		}
	}

	return remessa, nil
}

// Abandon drops the pending dispatch without touching the ledger
func (d *Dispatcher) Abandon() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.pending == nil {
		return false
	}
	d.pending = nil
	d.logger.Info("Pending batch dispatch abandoned")
	return true
}
