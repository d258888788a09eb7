package batch

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/garyjia/liquidagov/internal/domain/entity"
	"github.com/garyjia/liquidagov/pkg/currency"
)

// Ledger accumulates the day's finalized liquidations in finalization order.
// Entries hold record values, so later edits to the caller's record never reach the ledger.
type Ledger struct {
	mu      sync.RWMutex
	entries []entity.LedgerEntry
	seq     int
	now     func() time.Time
	logger  *zap.Logger
}

// LedgerOption configures the ledger
type LedgerOption func(*Ledger)

// WithLedgerClock overrides the finalization timestamp source
func WithLedgerClock(now func() time.Time) LedgerOption {
	return func(l *Ledger) {
		l.now = now
	}
}

// NewLedger creates an empty ledger
func NewLedger(logger *zap.Logger, opts ...LedgerOption) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	l := &Ledger{
		now:    time.Now,
		logger: logger,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Append stores a snapshot of record and returns the new entry
func (l *Ledger) Append(record entity.LiquidationRecord) entity.LedgerEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.seq++
	entry := entity.LedgerEntry{
		Sequence:    l.seq,
		FinalizedAt: l.now(),
		Record:      record,
	}
	l.entries = append(l.entries, entry)

	l.logger.Info("Liquidation appended to batch",
		zap.Int("sequence", entry.Sequence),
		zap.String("numero_empenho", record.NumeroEmpenho),
		zap.String("valor_nota", record.ValorNota))

	return entry
}

// Total sums the invoice amounts. Amounts that cannot be parsed contribute
// zero and are logged at warn level.
func (l *Ledger) Total() decimal.Decimal {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return sumAmounts(l.entries, l.logger)
}

// Clear empties the ledger and restarts the sequence
func (l *Ledger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()

	cleared := len(l.entries)
	l.entries = nil
	l.seq = 0

	l.logger.Info("Batch ledger cleared", zap.Int("entries", cleared))
}

// RemoveThrough drops the entries with a sequence up to and including seq and
// returns how many were removed. Later appends are kept. The sequence restarts
// only when the ledger ends up empty.
func (l *Ledger) RemoveThrough(seq int) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	kept := l.entries[:0:0]
	for _, e := range l.entries {
		if e.Sequence > seq {
			kept = append(kept, e)
		}
	}
	removed := len(l.entries) - len(kept)
	l.entries = kept
	if len(l.entries) == 0 {
		l.entries = nil
		l.seq = 0
	}

	l.logger.Info("Dispatched entries removed from batch ledger",
		zap.Int("through_sequence", seq),
		zap.Int("removed", removed),
		zap.Int("remaining", len(l.entries)))
	return removed
}

// Size returns the number of entries
func (l *Ledger) Size() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Entries returns a copy of the entries in finalization order
func (l *Ledger) Entries() []entity.LedgerEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]entity.LedgerEntry(nil), l.entries...)
}

func sumAmounts(entries []entity.LedgerEntry, logger *zap.Logger) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		amount, err := currency.ParseBRL(e.Record.ValorNota)
		if err != nil {
			logger.Warn("Unparseable amount excluded from batch total",
				zap.Int("sequence", e.Sequence),
				zap.String("valor_nota", e.Record.ValorNota),
				zap.Error(err))
			continue
		}
		total = total.Add(amount)
	}
	return total
}
