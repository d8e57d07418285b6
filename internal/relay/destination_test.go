package relay

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/GriffinCanCode/streamdup/internal/logging"
	"github.com/GriffinCanCode/streamdup/internal/monitoring"
)

// scriptConn is an in-memory net.Conn whose write behavior can be
// scripted: it records everything written and can be told to start
// failing after a number of successful writes.
type scriptConn struct {
	mu        sync.Mutex
	wrote     bytes.Buffer
	writes    int
	failAfter int // writes beyond this count fail; 0 means never
	closes    int
	closeErr  error
}

func (c *scriptConn) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.writes++
	if c.failAfter > 0 && c.writes > c.failAfter {
		return 0, errors.New("connection reset by peer")
	}
	c.wrote.Write(p)
	return len(p), nil
}

func (c *scriptConn) Read(p []byte) (int, error) { return 0, io.EOF }

func (c *scriptConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closes++
	return c.closeErr
}

func (c *scriptConn) LocalAddr() net.Addr                { return &net.TCPAddr{} }
func (c *scriptConn) RemoteAddr() net.Addr               { return &net.TCPAddr{} }
func (c *scriptConn) SetDeadline(t time.Time) error      { return nil }
func (c *scriptConn) SetReadDeadline(t time.Time) error  { return nil }
func (c *scriptConn) SetWriteDeadline(t time.Time) error { return nil }

func (c *scriptConn) written() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.wrote.String()
}

func (c *scriptConn) writeCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.writes
}

func (c *scriptConn) closeCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closes
}

func testMetrics() *monitoring.Metrics {
	return monitoring.NewMetricsWith(prometheus.NewRegistry())
}

// poolWith builds a pool directly around the given conns, bypassing the
// dial phase.
func poolWith(conns ...net.Conn) *Pool {
	p := NewPool(logging.NewNop(), testMetrics())
	for i, c := range conns {
		port := 9001 + i
		p.dests = append(p.dests, &Destination{
			Host:  "127.0.0.1",
			Port:  port,
			conn:  c,
			addr:  fmt.Sprintf("127.0.0.1:%d", port),
			alive: true,
		})
	}
	p.alive.Store(int32(len(conns)))
	return p
}

func TestPoolBroadcastDeliversInOrder(t *testing.T) {
	d1 := &scriptConn{}
	d2 := &scriptConn{}
	p := poolWith(d1, d2)

	assert.Zero(t, p.Broadcast([]byte("AAAA")))
	assert.Zero(t, p.Broadcast([]byte("BBBB")))

	assert.Equal(t, "AAAABBBB", d1.written())
	assert.Equal(t, "AAAABBBB", d2.written())
	assert.Equal(t, 2, p.AliveCount())
}

func TestPoolWriteFailureIsolation(t *testing.T) {
	d1 := &scriptConn{}
	d2 := &scriptConn{failAfter: 1}
	p := poolWith(d1, d2)

	// First chunk lands on both.
	assert.Zero(t, p.Broadcast([]byte("AAAA")))

	// Second chunk: D2 fails, D1 still gets the bytes, the session
	// continues.
	assert.Equal(t, 1, p.Broadcast([]byte("BBBB")))

	assert.Equal(t, "AAAABBBB", d1.written())
	assert.Equal(t, "AAAA", d2.written())
	assert.Equal(t, 1, p.AliveCount())
	assert.Equal(t, 1, d2.closeCount())

	// D2 receives no further writes.
	writesBefore := d2.writeCount()
	assert.Zero(t, p.Broadcast([]byte("CC")))
	assert.Equal(t, writesBefore, d2.writeCount())
	assert.Equal(t, "AAAABBBBCC", d1.written())

	// Teardown never double-closes the dead handle.
	require.NoError(t, p.CloseAll())
	assert.Equal(t, 1, d2.closeCount())
	assert.Equal(t, 1, d1.closeCount())
}

func TestPoolCompactPreservesOrder(t *testing.T) {
	d1 := &scriptConn{}
	d2 := &scriptConn{failAfter: 1}
	d3 := &scriptConn{}
	p := poolWith(d1, d2, d3)

	p.Broadcast([]byte("one"))
	assert.Equal(t, 1, p.Broadcast([]byte("two")))

	p.Broadcast([]byte("three"))
	assert.Equal(t, "onetwothree", d1.written())
	assert.Equal(t, "one", d2.written())
	assert.Equal(t, "onetwothree", d3.written())
}

func TestPoolAllDestinationsFail(t *testing.T) {
	d1 := &scriptConn{failAfter: 1}
	d2 := &scriptConn{failAfter: 1}
	p := poolWith(d1, d2)

	p.Broadcast([]byte("AAAA"))
	assert.Equal(t, 2, p.Broadcast([]byte("BBBB")))
	assert.Zero(t, p.AliveCount())
}

func TestPoolConnectAll(t *testing.T) {
	ln1, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln1.Close()
	ln2, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln2.Close()

	ports := []int{
		ln1.Addr().(*net.TCPAddr).Port,
		ln2.Addr().(*net.TCPAddr).Port,
	}

	p := NewPool(logging.NewNop(), testMetrics())
	require.NoError(t, p.ConnectAll(context.Background(), "127.0.0.1", ports, time.Second))
	assert.Equal(t, 2, p.AliveCount())

	require.NoError(t, p.CloseAll())
	assert.Zero(t, p.AliveCount())
}

func TestPoolConnectAllPartialFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	live := ln.Addr().(*net.TCPAddr).Port

	dead, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	deadPort := dead.Addr().(*net.TCPAddr).Port
	require.NoError(t, dead.Close())

	p := NewPool(logging.NewNop(), testMetrics())
	require.NoError(t, p.ConnectAll(context.Background(), "127.0.0.1", []int{deadPort, live}, time.Second))
	assert.Equal(t, 1, p.AliveCount())

	p.CloseAll()
}

func TestPoolConnectAllEmpty(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	p := NewPool(logging.NewNop(), testMetrics())
	err = p.ConnectAll(context.Background(), "127.0.0.1", []int{port}, time.Second)
	assert.ErrorIs(t, err, ErrNoDestinations)
	assert.Zero(t, p.AliveCount())
}

func TestPoolCloseAllAggregatesErrors(t *testing.T) {
	d1 := &scriptConn{closeErr: errors.New("close d1")}
	d2 := &scriptConn{closeErr: errors.New("close d2")}
	p := poolWith(d1, d2)

	err := p.CloseAll()
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 2)
}
