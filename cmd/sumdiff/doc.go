// Package main is the entry point for sumdiff, the summary comparator.
//
// sumdiff validates a duplicator deployment offline: run the analyzer
// once against the source directly and once behind the duplicator, save
// both summary outputs, and compare them. Matching totals mean the relay
// delivered the stream byte-for-byte.
//
// Usage:
//
//	./sumdiff -baseline direct.txt -candidate relayed.txt
//
// Exit codes:
//   - 0: comparison rendered (differences do not affect the exit code)
//   - 2: missing arguments or unreadable input
package main
