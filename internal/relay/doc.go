/*
Package relay implements the stream duplication engine: one upstream TCP
connection fanned out to a pool of downstream connections.

# Overview

A Session owns the source connection and the destination pool for exactly
one run. It moves through a fixed lifecycle:

	init → connecting → streaming → draining → stopped

The connecting phase dials the source (fatal on failure) and every
destination port (individual failures are logged and skipped; an empty
pool is fatal). The streaming phase is a single control goroutine running
a blocking read / sequential broadcast loop. Draining closes every handle
exactly once and emits the final throughput report.

# Failure semantics

Source-side failures are always fatal to the session. Destination-side
failures are isolated: the failed destination is marked dead, closed, and
removed while the broadcast continues to the rest. Nothing is ever
retried; operators restart the process to reconnect.

# Ordering guarantee

A destination that stays alive for the whole session receives the exact
ordered concatenation of every chunk read from the source. No guarantee
is made about relative delivery timing across destinations: in the
sequential baseline a slow destination delays those after it in insertion
order. The opt-in concurrent fan-out (FanoutMode "concurrent") lifts that
serialization with per-destination writers joined per chunk.

# Cancellation

Source reads are bounded by a poll deadline so context cancellation is
observed within one poll interval even while blocked on a quiet source.

# Usage

	sess := relay.NewSession(cfg, relay.Target{
		SourceHost: "10.0.0.5",
		SourcePort: 9000,
		DestPorts:  []int{9001, 9002},
	}, log, metrics)

	if err := sess.Run(ctx); err != nil {
		// fatal connection-phase failure
	}
*/
package relay
