package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/garyjia/liquidagov/pkg/utils"
)

// Outbound channel names
const (
	ChannelMailto = "mailto"
	ChannelLark   = "lark"
)

// Config holds all application configuration
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	OpenAI      OpenAIConfig      `mapstructure:"openai"`
	Extraction  ExtractionConfig  `mapstructure:"extraction"`
	Liquidation LiquidationConfig `mapstructure:"liquidation"`
	Dispatch    DispatchConfig    `mapstructure:"dispatch"`
	Lark        LarkConfig        `mapstructure:"lark"`
	Journal     JournalConfig     `mapstructure:"journal"`
	Logger      LoggerConfig      `mapstructure:"logger"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // gin mode: debug, release, test
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxUploadBytes  int64         `mapstructure:"max_upload_bytes"`
}

// OpenAIConfig holds OpenAI API configuration
type OpenAIConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	Model   string        `mapstructure:"model"`
	Detail  string        `mapstructure:"detail"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// ExtractionConfig controls document pre-processing and prompts
type ExtractionConfig struct {
	PromptsPath string  `mapstructure:"prompts_path"`
	MaxPages    int     `mapstructure:"max_pages"`
	JPEGQuality int     `mapstructure:"jpeg_quality"`
	DPI         float64 `mapstructure:"dpi"`
}

// LiquidationConfig holds settings of the simulated liquidation commit
type LiquidationConfig struct {
	CommitDelay time.Duration `mapstructure:"commit_delay"`
}

// DispatchConfig selects how a remessa leaves the system
type DispatchConfig struct {
	Channel        string `mapstructure:"channel"`
	DefaultAddress string `mapstructure:"default_address"`
}

// LarkConfig holds Lark API configuration
type LarkConfig struct {
	AppID     string `mapstructure:"app_id"`
	AppSecret string `mapstructure:"app_secret"`
	BaseURL   string `mapstructure:"base_url"`
}

// JournalConfig holds the remessa journal database configuration
type JournalConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// Load loads configuration from file and environment variables.
// An empty configPath runs on defaults and environment only.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := bindEnvVars(v); err != nil {
		return nil, fmt.Errorf("failed to bind environment: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 120*time.Second)
	v.SetDefault("server.shutdown_timeout", 15*time.Second)
	v.SetDefault("server.max_upload_bytes", 20<<20)

	// OpenAI defaults
	v.SetDefault("openai.model", "gpt-4o")
	v.SetDefault("openai.detail", "high")
	v.SetDefault("openai.timeout", 90*time.Second)

	// Extraction defaults
	v.SetDefault("extraction.max_pages", 2)
	v.SetDefault("extraction.jpeg_quality", 85)
	v.SetDefault("extraction.dpi", 150.0)

	// Liquidation defaults
	v.SetDefault("liquidation.commit_delay", 1500*time.Millisecond)

	// Dispatch defaults
	v.SetDefault("dispatch.channel", ChannelMailto)

	// Journal defaults
	v.SetDefault("journal.enabled", true)
	v.SetDefault("journal.path", "data/liquidagov.db")
	v.SetDefault("journal.max_open_conns", 4)
	v.SetDefault("journal.max_idle_conns", 2)
	v.SetDefault("journal.conn_max_lifetime", 30*time.Minute)

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.format", "json")
}

// bindEnvVars binds the well-known environment variables
func bindEnvVars(v *viper.Viper) error {
	bindings := map[string]string{
		"openai.api_key":           "OPENAI_API_KEY",
		"openai.base_url":          "OPENAI_BASE_URL",
		"lark.app_id":              "LARK_APP_ID",
		"lark.app_secret":          "LARK_APP_SECRET",
		"dispatch.default_address": "DISPATCH_DEFAULT_ADDRESS",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return err
		}
	}
	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 {
		errs = append(errs, errors.New("server timeouts must be positive"))
	}
	if c.OpenAI.Timeout <= 0 {
		errs = append(errs, errors.New("openai.timeout must be positive"))
	}
	if c.Liquidation.CommitDelay < 0 {
		errs = append(errs, errors.New("liquidation.commit_delay must not be negative"))
	}

	switch c.Dispatch.Channel {
	case ChannelMailto:
	case ChannelLark:
		if c.Lark.AppID == "" || c.Lark.AppSecret == "" {
			errs = append(errs, errors.New("lark.app_id and lark.app_secret are required for the lark channel"))
		}
	default:
		errs = append(errs, fmt.Errorf("dispatch.channel %q is not supported", c.Dispatch.Channel))
	}

	if c.Dispatch.DefaultAddress != "" {
		if err := utils.ValidateEmail(c.Dispatch.DefaultAddress); err != nil {
			errs = append(errs, fmt.Errorf("dispatch.default_address: %w", err))
		}
	}

	if c.Journal.Enabled && c.Journal.Path == "" {
		errs = append(errs, errors.New("journal.path is required when the journal is enabled"))
	}

	return errors.Join(errs...)
}

// ExtractionEnabled reports whether an OpenAI key is configured
func (c *Config) ExtractionEnabled() bool {
	return c.OpenAI.APIKey != ""
}

// LoggerSettings converts the logger section for utils.NewLogger
func (c *Config) LoggerSettings() utils.LoggerConfig {
	return utils.LoggerConfig{
		Level:      c.Logger.Level,
		OutputPath: c.Logger.OutputPath,
		Format:     c.Logger.Format,
	}
}
