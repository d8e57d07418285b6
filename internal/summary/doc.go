// Package summary parses and compares per-run summary text files.
//
// A summary carries three totals, per-chip rate lines in either the
// current two-rate form or the legacy single-rate form, and an optional
// mid-stream attachment marker:
//
//	Total bytes processed: 1,234,567
//	Total hits: 8910
//	Total TDC events: 456
//	Chip 0: 100.50 Hz instant, 99.75 Hz cumulative (total: 4000)
//	Chip 1: 200.00 Hz (total: 8000)
//	⚠ Detected data before first chunk header
//
// Compare builds per-metric deltas between a baseline run and a
// candidate run; Render writes the human-readable report consumed by
// the sumdiff tool.
package summary
