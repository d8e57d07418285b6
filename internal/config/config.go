package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Fan-out modes accepted by Relay.FanoutMode.
const (
	FanoutSequential = "sequential"
	FanoutConcurrent = "concurrent"
)

// Config holds all duplicator configuration.
type Config struct {
	Source  SourceConfig
	Relay   RelayConfig
	Ops     OpsConfig
	Logging LogConfig
}

// SourceConfig holds upstream connection settings.
type SourceConfig struct {
	// DialTimeout bounds the source and destination connect calls.
	DialTimeout time.Duration `envconfig:"DUP_DIAL_TIMEOUT" default:"5s"`
	// ReadPollInterval bounds each blocking source read so cancellation
	// is observed promptly even on an idle stream.
	ReadPollInterval time.Duration `envconfig:"DUP_READ_POLL_INTERVAL" default:"500ms"`
}

// RelayConfig holds fan-out loop settings.
type RelayConfig struct {
	BufferSize     int           `envconfig:"DUP_BUFFER_SIZE" default:"8192"`
	ReportInterval time.Duration `envconfig:"DUP_REPORT_INTERVAL" default:"5s"`
	// FanoutMode selects the broadcast strategy: "sequential" (baseline,
	// synchronous in-order writes) or "concurrent" (per-destination writers).
	FanoutMode string `envconfig:"DUP_FANOUT_MODE" default:"sequential"`
	// FanoutQueue is the per-destination chunk queue depth in concurrent mode.
	FanoutQueue int `envconfig:"DUP_FANOUT_QUEUE" default:"16"`
}

// OpsConfig holds the optional observability HTTP server settings.
// An empty Addr disables the server entirely.
type OpsConfig struct {
	Addr              string `envconfig:"DUP_OPS_ADDR" default:""`
	RequestsPerSecond int    `envconfig:"DUP_OPS_RPS" default:"50"`
	Burst             int    `envconfig:"DUP_OPS_BURST" default:"100"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"DUP_LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"DUP_LOG_DEV" default:"false"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Source: SourceConfig{
			DialTimeout:      5 * time.Second,
			ReadPollInterval: 500 * time.Millisecond,
		},
		Relay: RelayConfig{
			BufferSize:     8192,
			ReportInterval: 5 * time.Second,
			FanoutMode:     FanoutSequential,
			FanoutQueue:    16,
		},
		Ops: OpsConfig{
			Addr:              "",
			RequestsPerSecond: 50,
			Burst:             100,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
	}
}

// Validate checks configuration invariants before the session starts.
func (c *Config) Validate() error {
	if c.Relay.BufferSize <= 0 {
		return fmt.Errorf("relay buffer size must be positive, got %d", c.Relay.BufferSize)
	}
	if c.Relay.ReportInterval <= 0 {
		return fmt.Errorf("report interval must be positive, got %s", c.Relay.ReportInterval)
	}
	if c.Source.DialTimeout <= 0 {
		return fmt.Errorf("dial timeout must be positive, got %s", c.Source.DialTimeout)
	}
	if c.Source.ReadPollInterval <= 0 {
		return fmt.Errorf("read poll interval must be positive, got %s", c.Source.ReadPollInterval)
	}
	switch c.Relay.FanoutMode {
	case FanoutSequential, FanoutConcurrent:
	default:
		return fmt.Errorf("unknown fanout mode %q", c.Relay.FanoutMode)
	}
	if c.Relay.FanoutMode == FanoutConcurrent && c.Relay.FanoutQueue <= 0 {
		return fmt.Errorf("fanout queue must be positive in concurrent mode, got %d", c.Relay.FanoutQueue)
	}
	return nil
}
