// Package siafi stands in for the federal financial system that registers
// liquidations. Nothing is transmitted; the commit settles after a fixed delay.
package siafi

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/liquidagov/internal/domain/entity"
)

// SimulatedCommitter implements port.LiquidationCommitter with a fixed settling delay.
// It always succeeds and does not observe cancellation.
type SimulatedCommitter struct {
	delay  time.Duration
	sleep  func(time.Duration)
	logger *zap.Logger
}

// NewSimulatedCommitter creates a committer that blocks for delay on every commit
func NewSimulatedCommitter(delay time.Duration, logger *zap.Logger) *SimulatedCommitter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SimulatedCommitter{
		delay:  delay,
		sleep:  time.Sleep,
		logger: logger,
	}
}

// Commit waits for the configured delay and reports success
func (c *SimulatedCommitter) Commit(_ context.Context, record entity.LiquidationRecord) error {
	if c.delay > 0 {
		c.sleep(c.delay)
	}

	c.logger.Info("Liquidation committed (simulated)",
		zap.String("numero_empenho", record.NumeroEmpenho),
		zap.String("nota_pagamento", record.NotaPagamento),
		zap.String("nota_sistema", record.NotaSistema),
		zap.Duration("delay", c.delay))

	return nil
}
