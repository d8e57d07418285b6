//go:build load
// +build load

// Relay load harness: streams a synthetic TCP byte stream through the
// duplicator into N discard sinks and reports aggregate throughput.
//
// Run with: go run -tags load ./tests/load -size 512 -dests 4
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"sync/atomic"
	"time"

	"github.com/GriffinCanCode/streamdup/internal/config"
	"github.com/GriffinCanCode/streamdup/internal/logging"
	"github.com/GriffinCanCode/streamdup/internal/monitoring"
	"github.com/GriffinCanCode/streamdup/internal/relay"
)

var (
	dests  = flag.Int("dests", 3, "Number of destination sinks")
	sizeMB = flag.Int("size", 256, "Stream size in MiB")
	buffer = flag.Int("buffer", 65536, "Relay read buffer in bytes")
	fanout = flag.String("fanout", config.FanoutSequential, "Fanout mode: sequential or concurrent")
)

type sink struct {
	port  int
	bytes atomic.Int64
	done  chan struct{}
}

func main() {
	flag.Parse()

	total := int64(*sizeMB) * 1024 * 1024

	log.Printf("Starting relay load test")
	log.Printf("Stream: %d MiB", *sizeMB)
	log.Printf("Destinations: %d", *dests)
	log.Printf("Fanout: %s", *fanout)

	sourcePort, err := startSource(total)
	if err != nil {
		log.Fatalf("Failed to start source: %v", err)
	}

	sinks := make([]*sink, *dests)
	ports := make([]int, *dests)
	for i := range sinks {
		s, err := startSink()
		if err != nil {
			log.Fatalf("Failed to start sink: %v", err)
		}
		sinks[i] = s
		ports[i] = s.port
	}

	cfg := config.Default()
	cfg.Relay.BufferSize = *buffer
	cfg.Relay.FanoutMode = *fanout

	logger := logging.NewDefault()
	metrics := monitoring.NewMetrics()
	session := relay.NewSession(cfg, relay.Target{
		SourceHost: "127.0.0.1",
		SourcePort: sourcePort,
		DestPorts:  ports,
	}, logger, metrics)

	start := time.Now()
	if err := session.Run(context.Background()); err != nil {
		log.Fatalf("Relay failed: %v", err)
	}
	elapsed := time.Since(start)

	for _, s := range sinks {
		<-s.done
	}

	analyzeResults(total, elapsed, sinks)
}

// startSource serves one connection with total bytes of a repeating
// pattern, then closes it.
func startSource(total int64) (int, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, err
	}

	block := make([]byte, 1024*1024)
	for i := range block {
		block[i] = byte(i % 251)
	}

	go func() {
		defer ln.Close()
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		var sent int64
		for sent < total {
			n := int64(len(block))
			if total-sent < n {
				n = total - sent
			}
			if _, err := conn.Write(block[:n]); err != nil {
				return
			}
			sent += n
		}
	}()

	return ln.Addr().(*net.TCPAddr).Port, nil
}

// startSink accepts one connection and discards everything it receives,
// counting bytes.
func startSink() (*sink, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, err
	}

	s := &sink{
		port: ln.Addr().(*net.TCPAddr).Port,
		done: make(chan struct{}),
	}

	go func() {
		defer close(s.done)
		defer ln.Close()
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		buf := make([]byte, 256*1024)
		for {
			n, err := conn.Read(buf)
			s.bytes.Add(int64(n))
			if err != nil {
				return
			}
		}
	}()

	return s, nil
}

func analyzeResults(total int64, elapsed time.Duration, sinks []*sink) {
	mbps := float64(total) * 8 / elapsed.Seconds() / 1e6

	fmt.Println("\n========================================")
	fmt.Println("Relay Load Test Results")
	fmt.Println("========================================")
	fmt.Printf("Stream Size:       %d bytes\n", total)
	fmt.Printf("Elapsed:           %v\n", elapsed)
	fmt.Printf("Throughput:        %.2f Mbps\n", mbps)
	fmt.Println("----------------------------------------")
	for i, s := range sinks {
		got := s.bytes.Load()
		fmt.Printf("Destination %d:     %d bytes (%.2f%%)\n",
			i+1, got, float64(got)/float64(total)*100)
	}
	fmt.Println("========================================")
}
