// Package ops provides the optional diagnostics HTTP server that runs
// alongside a relay session.
//
// The server is read-only: every endpoint reports on the session via its
// lock-free snapshot and never influences the relay loop. It is disabled
// unless an ops address is configured.
//
// Endpoints:
//   - GET /        service info
//   - GET /health  session state and live destination count
//   - GET /stats   full session snapshot (bytes, chunks, Mbps)
//   - GET /metrics Prometheus exposition
//   - GET /stream  websocket pushing one snapshot per second
//
// Stream Message Types (Server → Client):
//   - hello:   connection accepted, carries client and session IDs
//   - stats:   periodic snapshot
//   - stopped: final snapshot, sent once when the session ends
//
// Example Usage:
//
//	srv := ops.NewServer(cfg, session, log, metrics)
//	srv.Start()
//	defer srv.Shutdown(ctx)
package ops
