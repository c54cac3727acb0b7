// File: internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Interface defines the contract for accessing application configuration.
// This allows for dependency injection and mocking in tests.
type Interface interface {
	Logger() LoggerConfig
	Browser() BrowserConfig
	Wait() WaitConfig
	Events() EventsConfig
	Tracing() TracingConfig

	// Browser Setters
	SetBrowserHeadless(bool)
	SetBrowserExecPath(string)

	// Wait Setters
	SetWaitTimeout(time.Duration)

	// Events Setters
	SetEventsRecordFile(string)
}

// Config holds the entire application configuration. Sections are reached
// through the Interface getters.
type Config struct {
	LoggerCfg  LoggerConfig  `mapstructure:"logger" yaml:"logger"`
	BrowserCfg BrowserConfig `mapstructure:"browser" yaml:"browser"`
	WaitCfg    WaitConfig    `mapstructure:"wait" yaml:"wait"`
	EventsCfg  EventsConfig  `mapstructure:"events" yaml:"events"`
	TracingCfg TracingConfig `mapstructure:"tracing" yaml:"tracing"`
}

// --- Interface Method Implementations (Getters) ---

func (c *Config) Logger() LoggerConfig   { return c.LoggerCfg }
func (c *Config) Browser() BrowserConfig { return c.BrowserCfg }
func (c *Config) Wait() WaitConfig       { return c.WaitCfg }
func (c *Config) Events() EventsConfig   { return c.EventsCfg }
func (c *Config) Tracing() TracingConfig { return c.TracingCfg }

// --- Interface Method Implementations (Setters) ---

func (c *Config) SetBrowserHeadless(b bool)       { c.BrowserCfg.Headless = b }
func (c *Config) SetBrowserExecPath(p string)     { c.BrowserCfg.ExecPath = p }
func (c *Config) SetWaitTimeout(d time.Duration)  { c.WaitCfg.Timeout = d }
func (c *Config) SetEventsRecordFile(path string) { c.EventsCfg.RecordFile = path }

type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// BrowserConfig controls the Chrome instance the page objects drive.
type BrowserConfig struct {
	Headless        bool           `mapstructure:"headless" yaml:"headless"`
	ExecPath        string         `mapstructure:"exec_path" yaml:"exec_path"`
	IgnoreTLSErrors bool           `mapstructure:"ignore_tls_errors" yaml:"ignore_tls_errors"`
	DisableGPU      bool           `mapstructure:"disable_gpu" yaml:"disable_gpu"`
	Args            []string       `mapstructure:"args" yaml:"args"`
	Viewport        map[string]int `mapstructure:"viewport" yaml:"viewport"`
	LaunchTimeout   time.Duration  `mapstructure:"launch_timeout" yaml:"launch_timeout"`
	ActionTimeout   time.Duration  `mapstructure:"action_timeout" yaml:"action_timeout"`
}

// WaitConfig is the ambient wait policy used while recovering stale elements.
type WaitConfig struct {
	Timeout      time.Duration `mapstructure:"timeout" yaml:"timeout"`
	PollInterval time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
}

// EventsConfig controls event dispatch and recording.
type EventsConfig struct {
	BufferSize int    `mapstructure:"buffer_size" yaml:"buffer_size"`
	RecordFile string `mapstructure:"record_file" yaml:"record_file"`
	LogEvents  bool   `mapstructure:"log_events" yaml:"log_events"`
}

// TracingConfig enables OTLP trace export. Tracing stays a no-op unless both
// Enabled and Endpoint are set.
type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled" yaml:"enabled"`
	Endpoint    string  `mapstructure:"endpoint" yaml:"endpoint"`
	ServiceName string  `mapstructure:"service_name" yaml:"service_name"`
	SampleRatio float64 `mapstructure:"sample_ratio" yaml:"sample_ratio"`
}

// NewDefaultConfig returns a configuration populated purely from defaults.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults registers every default value on v.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "webtester")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.dpanic", "magenta")
	v.SetDefault("logger.colors.panic", "magenta")
	v.SetDefault("logger.colors.fatal", "magenta")

	// -- Browser --
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.ignore_tls_errors", false)
	v.SetDefault("browser.disable_gpu", true)
	v.SetDefault("browser.launch_timeout", "30s")
	v.SetDefault("browser.action_timeout", "15s")

	// -- Wait --
	v.SetDefault("wait.timeout", "5s")
	v.SetDefault("wait.poll_interval", "100ms")

	// -- Events --
	v.SetDefault("events.buffer_size", 64)
	v.SetDefault("events.log_events", true)

	// -- Tracing --
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", "webtester")
	v.SetDefault("tracing.sample_ratio", 1.0)
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config

	// Bind environment variables for values commonly injected by CI.
	_ = v.BindEnv("browser.exec_path", "WEBTESTER_CHROME_PATH")
	_ = v.BindEnv("tracing.endpoint", "WEBTESTER_OTEL_ENDPOINT")

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if c.WaitCfg.Timeout <= 0 {
		return fmt.Errorf("wait.timeout must be a positive duration")
	}
	if c.WaitCfg.PollInterval <= 0 {
		return fmt.Errorf("wait.poll_interval must be a positive duration")
	}
	if c.WaitCfg.PollInterval > c.WaitCfg.Timeout {
		return fmt.Errorf("wait.poll_interval (%v) must not exceed wait.timeout (%v)", c.WaitCfg.PollInterval, c.WaitCfg.Timeout)
	}
	if c.EventsCfg.BufferSize < 0 {
		return fmt.Errorf("events.buffer_size must not be negative")
	}
	if err := c.BrowserCfg.Validate(); err != nil {
		return fmt.Errorf("browser configuration invalid: %w", err)
	}
	if err := c.TracingCfg.Validate(); err != nil {
		return fmt.Errorf("tracing configuration invalid: %w", err)
	}
	return nil
}

// Validate checks the browser settings.
func (b *BrowserConfig) Validate() error {
	if b.LaunchTimeout <= 0 {
		return fmt.Errorf("launch_timeout must be a positive duration")
	}
	if b.ActionTimeout <= 0 {
		return fmt.Errorf("action_timeout must be a positive duration")
	}
	for _, key := range []string{"width", "height"} {
		if v, ok := b.Viewport[key]; ok && v <= 0 {
			return fmt.Errorf("viewport.%s must be positive", key)
		}
	}
	return nil
}

// Validate checks the tracing settings.
func (t *TracingConfig) Validate() error {
	if !t.Enabled {
		return nil
	}
	if t.SampleRatio < 0.0 || t.SampleRatio > 1.0 {
		return fmt.Errorf("sample_ratio must be between 0.0 and 1.0")
	}
	return nil
}
