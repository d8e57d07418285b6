// Package logging provides structured logging using uber/zap.
//
// This package offers production-ready logging with two modes:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// The duplicator's console contract rides on this logger: destination
// connect attempts, the periodic throughput line, and the final summary
// are all structured log events.
//
// Example Usage:
//
//	logger := logging.NewDefault()
//	logger.Info("Connected to source", zap.String("addr", "127.0.0.1:8085"))
//	logger.Warn("Destination write failed", zap.Int("port", 8086), zap.Error(err))
package logging
