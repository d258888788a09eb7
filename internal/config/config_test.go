package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("DISPATCH_DEFAULT_ADDRESS", "")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, ChannelMailto, cfg.Dispatch.Channel)
	assert.Equal(t, 1500*time.Millisecond, cfg.Liquidation.CommitDelay)
	assert.Equal(t, 2, cfg.Extraction.MaxPages)
	assert.Equal(t, "gpt-4o", cfg.OpenAI.Model)
	assert.True(t, cfg.Journal.Enabled)
	assert.False(t, cfg.ExtractionEnabled())
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
openai:
  model: gpt-4o-mini
liquidation:
  commit_delay: 250ms
dispatch:
  default_address: arquivo@orgao.gov.br
logger:
  level: debug
`)
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("DISPATCH_DEFAULT_ADDRESS", "financeiro@orgao.gov.br")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAI.Model)
	assert.Equal(t, 250*time.Millisecond, cfg.Liquidation.CommitDelay)
	assert.Equal(t, "financeiro@orgao.gov.br", cfg.Dispatch.DefaultAddress, "env wins over file")
	assert.True(t, cfg.ExtractionEnabled())
	assert.Equal(t, "debug", cfg.LoggerSettings().Level)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:   ServerConfig{Port: 8080, ReadTimeout: time.Second, WriteTimeout: time.Second},
			OpenAI:   OpenAIConfig{Timeout: time.Second},
			Dispatch: DispatchConfig{Channel: ChannelMailto},
			Journal:  JournalConfig{Enabled: true, Path: "x.db"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"zero timeout", func(c *Config) { c.OpenAI.Timeout = 0 }, "openai.timeout"},
		{"unknown channel", func(c *Config) { c.Dispatch.Channel = "fax" }, "not supported"},
		{"lark without credentials", func(c *Config) { c.Dispatch.Channel = ChannelLark }, "lark.app_id"},
		{"lark with credentials", func(c *Config) {
			c.Dispatch.Channel = ChannelLark
			c.Lark = LarkConfig{AppID: "cli", AppSecret: "s"}
		}, ""},
		{"bad address", func(c *Config) { c.Dispatch.DefaultAddress = "not-an-email" }, "default_address"},
		{"journal without path", func(c *Config) { c.Journal.Path = "" }, "journal.path"},
		{"journal disabled", func(c *Config) { c.Journal = JournalConfig{} }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
