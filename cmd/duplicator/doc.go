// Package main is the entry point for the duplicator relay.
//
// The duplicator connects to one TCP source and relays every byte it
// reads, in order, to a set of destination ports on the loopback
// interface. It is a debugging tool for feeding one live stream to
// several local consumers at once.
//
// Data flow:
//
//	Source (TCP) → duplicator → 127.0.0.1:<dest_port_1>
//	                          → 127.0.0.1:<dest_port_2>
//	                          → ...
//
// The relay provides:
//   - Ordered, complete delivery per surviving destination
//   - Failure isolation: a dead destination is dropped, the rest continue
//   - Periodic and final throughput reporting
//   - An optional ops HTTP server (health, stats, Prometheus, websocket)
//
// Configuration:
//   - Environment variables (DUP_* prefix)
//   - YAML plan file (-config or DUP_CONFIG)
//   - CLI flags (override both)
//
// Usage:
//
//	# Relay port 8192 on a capture host to three local analyzers
//	./duplicator 192.168.1.50 8192 9001 9002 9003
//
//	# Same targets from a plan file, with the ops server enabled
//	./duplicator -config plan.yaml -ops :9090
//
// Signals:
//   - SIGINT, SIGTERM: drain and exit 0
//
// Exit codes:
//   - 0: source closed, every destination gone, or operator cancellation
//   - 1: fatal startup failure (source unreachable, zero destinations)
//   - 2: usage or configuration error
package main
