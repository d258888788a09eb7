package container

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"go.uber.org/zap/zapcore"

	"github.com/garyjia/liquidagov/internal/config"
	"github.com/garyjia/liquidagov/internal/domain/entity"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Server:      config.ServerConfig{Port: 8080, ReadTimeout: time.Second, WriteTimeout: time.Second},
		OpenAI:      config.OpenAIConfig{Model: "gpt-4o", Timeout: time.Second},
		Extraction:  config.ExtractionConfig{MaxPages: 2, JPEGQuality: 85, DPI: 150},
		Liquidation: config.LiquidationConfig{CommitDelay: 0},
		Dispatch:    config.DispatchConfig{Channel: config.ChannelMailto, DefaultAddress: "financeiro@orgao.gov.br"},
		Journal:     config.JournalConfig{Enabled: true, Path: filepath.Join(t.TempDir(), "data", "journal.db")},
	}
}

func TestNewContainer_Validation(t *testing.T) {
	_, err := NewContainer(nil, zap.NewNop())
	assert.Error(t, err)

	_, err = NewContainer(testConfig(t), nil)
	assert.Error(t, err)

	cfg := testConfig(t)
	cfg.Dispatch.Channel = "fax"
	_, err = NewContainer(cfg, zap.NewNop())
	assert.Error(t, err)
}

func TestContainer_Lifecycle(t *testing.T) {
	ctx := context.Background()
	c, err := NewContainer(testConfig(t), zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, c.Start(ctx))
	assert.True(t, c.Ready())
	assert.Error(t, c.Start(ctx), "second start")

	require.NotNil(t, c.Engine())
	require.NotNil(t, c.Ledger())
	require.NotNil(t, c.Dispatcher())
	require.NotNil(t, c.Exporter())
	require.NotNil(t, c.Journal())

	health := c.Health(ctx)
	assert.True(t, health.Overall)
	assert.Equal(t, "mailto", health.Components["dispatch"].Message)
	assert.Equal(t, "disabled", health.Components["extraction"].Message)

	require.NoError(t, c.Close())
	assert.False(t, c.Ready())
	assert.Error(t, c.Close())
	assert.Error(t, c.Start(ctx))
}

func TestContainer_ConfirmedBatchIsJournaled(t *testing.T) {
	ctx := context.Background()
	c, err := NewContainer(testConfig(t), zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, c.Start(ctx))
	defer c.Close()

	c.Ledger().Append(entity.LiquidationRecord{NumeroEmpenho: "2026NE1", ValorNota: "1.234,56"})
	c.Ledger().Append(entity.LiquidationRecord{NumeroEmpenho: "2026NE2", ValorNota: "65,44"})

	_, err = c.Dispatcher().Dispatch(ctx, c.Dispatcher().DefaultAddress())
	require.NoError(t, err)

	remessa, err := c.Dispatcher().Confirm(ctx)
	require.NoError(t, err)
	assert.Equal(t, "R$ 1.300,00", remessa.Total)
	assert.NotZero(t, remessa.ID, "journal assigns the ID synchronously")

	history, err := c.Journal().List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, 2, history[0].EntryCount)
	assert.Equal(t, 0, c.Ledger().Size())
}

func TestContainer_JournalDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Journal = config.JournalConfig{}

	c, err := NewContainer(cfg, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, c.Start(context.Background()))
	defer c.Close()

	assert.Nil(t, c.Journal())
	assert.Equal(t, "disabled", c.Health(context.Background()).Components["journal"].Message)
}

func TestLoggerAdapter(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	adapter := NewLoggerAdapter(zap.New(core))

	adapter.Info("handled", "event_type", "batch.confirmed", "count", 2, 42, "ignored")
	adapter.Error("failed", "error", assert.AnError)

	require.Equal(t, 2, logs.Len())
	first := logs.All()[0].ContextMap()
	assert.Equal(t, "batch.confirmed", first["event_type"])
	assert.EqualValues(t, 2, first["count"])
	assert.Len(t, first, 2)
	assert.Equal(t, assert.AnError.Error(), logs.All()[1].ContextMap()["error"])
}
