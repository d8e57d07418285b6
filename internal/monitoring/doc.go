/*
Package monitoring provides performance monitoring and metrics collection.

# Overview

This package implements Prometheus-based metrics collection for the
duplicator, tracking source reads, destination writes, session state
transitions, and the ops HTTP surface.

# Features

- Source throughput metrics (bytes, chunks, chunk size distribution)
- Per-destination write metrics (bytes, latency, failures)
- Session state transition counters
- Ops HTTP request metrics (latency, status)
- WebSocket connection metrics
- System metrics (uptime)

# Usage

	// Create metrics collector
	metrics := monitoring.NewMetrics()

	// Add middleware to Gin router
	router.Use(monitoring.Middleware(metrics))

	// Record relay activity
	metrics.RecordChunk(8192)
	metrics.SetDestsActive(3)

	// Time destination writes
	timer := monitoring.NewWriteTimer(metrics, "9001")
	// ... perform write ...
	timer.Stop(8192)

# Metrics Endpoint

Expose metrics via the standard Prometheus endpoint:

	router.GET("/metrics", gin.WrapH(metrics.Handler()))
*/
package monitoring
