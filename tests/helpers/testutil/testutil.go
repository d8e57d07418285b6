// Package testutil provides TCP fixtures for relay integration tests.
package testutil

import (
	"net"
	"sync"
	"testing"
	"time"

	"github.com/GriffinCanCode/streamdup/internal/config"
)

// NewConfig returns a configuration tuned for fast tests: short poll
// interval and a report interval long enough to keep logs quiet.
func NewConfig() *config.Config {
	cfg := config.Default()
	cfg.Source.DialTimeout = 2 * time.Second
	cfg.Source.ReadPollInterval = 20 * time.Millisecond
	cfg.Relay.ReportInterval = time.Hour
	return cfg
}

// Source is a one-shot TCP listener feeding a scripted byte stream.
type Source struct {
	Port int

	ln   net.Listener
	done chan struct{}
}

// StartSource starts a listener that serves its first connection with fn
// and then closes it. The listener is torn down on test cleanup.
func StartSource(t *testing.T, fn func(conn net.Conn)) *Source {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("source listen: %v", err)
	}

	s := &Source{
		Port: ln.Addr().(*net.TCPAddr).Port,
		ln:   ln,
		done: make(chan struct{}),
	}

	go func() {
		defer close(s.done)
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		fn(conn)
	}()

	t.Cleanup(func() {
		ln.Close()
		<-s.done
	})
	return s
}

// Capture is a one-shot TCP listener recording everything written to it.
type Capture struct {
	Port int

	ln   net.Listener
	done chan struct{}

	mu   sync.Mutex
	data []byte
}

// StartCapture starts a listener that records all bytes from its first
// connection until the sender closes it.
func StartCapture(t *testing.T) *Capture {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("capture listen: %v", err)
	}

	c := &Capture{
		Port: ln.Addr().(*net.TCPAddr).Port,
		ln:   ln,
		done: make(chan struct{}),
	}

	go func() {
		defer close(c.done)
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		buf := make([]byte, 32*1024)
		for {
			n, err := conn.Read(buf)
			if n > 0 {
				c.mu.Lock()
				c.data = append(c.data, buf[:n]...)
				c.mu.Unlock()
			}
			if err != nil {
				return
			}
		}
	}()

	t.Cleanup(func() {
		ln.Close()
		<-c.done
	})
	return c
}

// Bytes returns a copy of everything received so far.
func (c *Capture) Bytes() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]byte, len(c.data))
	copy(out, c.data)
	return out
}

// Wait blocks until the sender closes the connection, then returns the
// full capture.
func (c *Capture) Wait(t *testing.T, timeout time.Duration) []byte {
	t.Helper()

	select {
	case <-c.done:
		return c.Bytes()
	case <-time.After(timeout):
		t.Fatalf("capture on port %d: sender still connected after %v", c.Port, timeout)
		return nil
	}
}

// FreePort reserves an ephemeral port and releases it for reuse. The
// port can be taken by another process in between, which is acceptable
// for integration tests.
func FreePort(t *testing.T) int {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("free port: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()
	return port
}

// Pattern returns n deterministic bytes for stream comparison. The
// period is prime so repeats never align with buffer sizes.
func Pattern(n int) []byte {
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = byte(i % 251)
	}
	return buf
}
