package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	// Source config
	assert.Equal(t, 5*time.Second, cfg.Source.DialTimeout)
	assert.Equal(t, 500*time.Millisecond, cfg.Source.ReadPollInterval)

	// Relay config
	assert.Equal(t, 8192, cfg.Relay.BufferSize)
	assert.Equal(t, 5*time.Second, cfg.Relay.ReportInterval)
	assert.Equal(t, FanoutSequential, cfg.Relay.FanoutMode)
	assert.Equal(t, 16, cfg.Relay.FanoutQueue)

	// Ops config
	assert.Empty(t, cfg.Ops.Addr)
	assert.Equal(t, 50, cfg.Ops.RequestsPerSecond)
	assert.Equal(t, 100, cfg.Ops.Burst)

	// Logging config
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Logging.Development)
}

func TestLoadOrDefault(t *testing.T) {
	// Should return default when no env vars set
	cfg := LoadOrDefault()

	assert.NotNil(t, cfg)
	assert.Equal(t, 8192, cfg.Relay.BufferSize)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadWithEnvironmentVariables(t *testing.T) {
	envVars := map[string]string{
		"DUP_DIAL_TIMEOUT":       "2s",
		"DUP_READ_POLL_INTERVAL": "250ms",
		"DUP_BUFFER_SIZE":        "16384",
		"DUP_REPORT_INTERVAL":    "10s",
		"DUP_FANOUT_MODE":        "concurrent",
		"DUP_FANOUT_QUEUE":       "32",
		"DUP_OPS_ADDR":           ":9090",
		"DUP_OPS_RPS":            "10",
		"DUP_OPS_BURST":          "20",
		"DUP_LOG_LEVEL":          "debug",
		"DUP_LOG_DEV":            "true",
	}

	for key, value := range envVars {
		t.Setenv(key, value)
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 2*time.Second, cfg.Source.DialTimeout)
	assert.Equal(t, 250*time.Millisecond, cfg.Source.ReadPollInterval)
	assert.Equal(t, 16384, cfg.Relay.BufferSize)
	assert.Equal(t, 10*time.Second, cfg.Relay.ReportInterval)
	assert.Equal(t, FanoutConcurrent, cfg.Relay.FanoutMode)
	assert.Equal(t, 32, cfg.Relay.FanoutQueue)
	assert.Equal(t, ":9090", cfg.Ops.Addr)
	assert.Equal(t, 10, cfg.Ops.RequestsPerSecond)
	assert.Equal(t, 20, cfg.Ops.Burst)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Development)
}

func TestLoadWithPartialEnvironmentVariables(t *testing.T) {
	t.Setenv("DUP_BUFFER_SIZE", "4096")
	t.Setenv("DUP_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Verify overridden values
	assert.Equal(t, 4096, cfg.Relay.BufferSize)
	assert.Equal(t, "warn", cfg.Logging.Level)

	// Verify default values still apply
	assert.Equal(t, 5*time.Second, cfg.Source.DialTimeout)
	assert.Equal(t, FanoutSequential, cfg.Relay.FanoutMode)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "zero buffer size",
			mutate:  func(c *Config) { c.Relay.BufferSize = 0 },
			wantErr: "buffer size",
		},
		{
			name:    "negative report interval",
			mutate:  func(c *Config) { c.Relay.ReportInterval = -time.Second },
			wantErr: "report interval",
		},
		{
			name:    "zero dial timeout",
			mutate:  func(c *Config) { c.Source.DialTimeout = 0 },
			wantErr: "dial timeout",
		},
		{
			name:    "zero poll interval",
			mutate:  func(c *Config) { c.Source.ReadPollInterval = 0 },
			wantErr: "poll interval",
		},
		{
			name:    "unknown fanout mode",
			mutate:  func(c *Config) { c.Relay.FanoutMode = "parallel" },
			wantErr: "fanout mode",
		},
		{
			name: "concurrent mode needs a queue",
			mutate: func(c *Config) {
				c.Relay.FanoutMode = FanoutConcurrent
				c.Relay.FanoutQueue = 0
			},
			wantErr: "fanout queue",
		},
		{
			name: "concurrent mode with queue is valid",
			mutate: func(c *Config) {
				c.Relay.FanoutMode = FanoutConcurrent
				c.Relay.FanoutQueue = 8
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestLoadRejectsMalformedEnvironment(t *testing.T) {
	t.Setenv("DUP_BUFFER_SIZE", "not-a-number")

	_, err := Load()
	require.Error(t, err)

	// LoadOrDefault falls back instead of failing
	cfg := LoadOrDefault()
	assert.Equal(t, 8192, cfg.Relay.BufferSize)
}
