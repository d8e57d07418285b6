// Package config provides 12-factor configuration management for the duplicator.
//
// Configuration is loaded from environment variables with sensible defaults.
// An optional YAML plan file can supply the relay target (source and
// destination ports) plus option overrides, and CLI flags override both.
//
// Configuration Sections:
//   - Source: dial timeout and read poll interval for the upstream connection
//   - Relay: chunk buffer size, report interval, fan-out mode
//   - Ops: optional observability HTTP listener (health, metrics, live stats)
//   - Logging: log level and output format
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("reading in %d byte chunks\n", cfg.Relay.BufferSize)
//
// Environment Variables:
//   - DUP_DIAL_TIMEOUT, DUP_READ_POLL_INTERVAL
//   - DUP_BUFFER_SIZE, DUP_REPORT_INTERVAL, DUP_FANOUT_MODE, DUP_FANOUT_QUEUE
//   - DUP_OPS_ADDR, DUP_OPS_RPS, DUP_OPS_BURST
//   - DUP_LOG_LEVEL, DUP_LOG_DEV
package config
