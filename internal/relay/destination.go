package relay

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/streamdup/internal/logging"
	"github.com/GriffinCanCode/streamdup/internal/monitoring"
)

// Destination is one downstream connection receiving a copy of the
// source stream. Once dead it is closed exactly once, removed from the
// pool, and never reinstated.
type Destination struct {
	Host string
	Port int

	conn  net.Conn
	addr  string
	alive bool

	closeOnce sync.Once
}

// Addr returns the destination's host:port.
func (d *Destination) Addr() string {
	return d.addr
}

// Alive reports whether the destination is still in the pool.
func (d *Destination) Alive() bool {
	return d.alive
}

// write performs one full blocking write of the chunk.
func (d *Destination) write(chunk []byte) (int, error) {
	n, err := d.conn.Write(chunk)
	if err != nil {
		return n, fmt.Errorf("%w: %s: %v", ErrDestinationWrite, d.addr, err)
	}
	return n, nil
}

// close closes the connection exactly once. Later calls return nil.
func (d *Destination) close() error {
	var err error
	d.closeOnce.Do(func() {
		err = d.conn.Close()
	})
	return err
}

// Pool establishes, tracks, and broadcasts to the set of downstream
// connections, isolating per-destination failures.
//
// The destination slice is owned by the session's control goroutine in
// steady state; only the alive counter is read across goroutines.
type Pool struct {
	dests   []*Destination
	alive   atomic.Int32
	log     *logging.Logger
	metrics *monitoring.Metrics
}

// NewPool creates an empty destination pool.
func NewPool(log *logging.Logger, metrics *monitoring.Metrics) *Pool {
	return &Pool{log: log, metrics: metrics}
}

// ConnectAll dials every requested port independently. Each failure is
// logged and that port is omitted from the pool; an empty resulting pool
// returns ErrNoDestinations, which the session treats as fatal.
func (p *Pool) ConnectAll(ctx context.Context, host string, ports []int, timeout time.Duration) error {
	dialer := net.Dialer{Timeout: timeout}

	for _, port := range ports {
		addr := net.JoinHostPort(host, strconv.Itoa(port))

		conn, err := dialer.DialContext(ctx, "tcp", addr)
		if err != nil {
			p.log.Warn("destination connect failed",
				zap.Int("port", port),
				zap.Error(fmt.Errorf("%w: %v", ErrDestinationConnect, err)))
			p.metrics.RecordDestFailure(addr, "connect")
			continue
		}

		p.dests = append(p.dests, &Destination{
			Host:  host,
			Port:  port,
			conn:  conn,
			addr:  addr,
			alive: true,
		})
		p.log.Info("destination connected", zap.Int("port", port))
	}

	if len(p.dests) == 0 {
		return fmt.Errorf("%w: tried %d ports", ErrNoDestinations, len(ports))
	}

	p.alive.Store(int32(len(p.dests)))
	p.metrics.SetDestsActive(len(p.dests))
	return nil
}

// Broadcast writes the chunk to every alive destination in insertion
// order, one full blocking write each. A failed write marks that
// destination dead and closes it, but the broadcast continues to the
// rest. The pool is compacted after the iteration, never during it.
// Returns the number of destinations that failed during this call.
func (p *Pool) Broadcast(chunk []byte) int {
	failed := 0

	for _, d := range p.dests {
		if !d.alive {
			continue
		}

		timer := monitoring.NewWriteTimer(p.metrics, d.addr)
		n, err := d.write(chunk)
		if err != nil {
			d.alive = false
			d.close()
			failed++
			p.log.Warn("destination dropped", zap.Int("port", d.Port), zap.Error(err))
			p.metrics.RecordDestFailure(d.addr, "write")
			continue
		}
		timer.Stop(n)
	}

	if failed > 0 {
		p.compact()
	}
	return failed
}

// compact removes dead destinations, preserving insertion order.
func (p *Pool) compact() {
	kept := p.dests[:0]
	for _, d := range p.dests {
		if d.alive {
			kept = append(kept, d)
		}
	}
	p.dests = kept

	p.alive.Store(int32(len(p.dests)))
	p.metrics.SetDestsActive(len(p.dests))
}

// AliveCount returns the current pool size. Safe to call from the ops
// goroutine while the session is streaming.
func (p *Pool) AliveCount() int {
	return int(p.alive.Load())
}

// CloseAll closes every remaining destination during teardown. Handles
// already closed by a failed write are not closed again.
func (p *Pool) CloseAll() error {
	var errs error
	for _, d := range p.dests {
		d.alive = false
		if err := d.close(); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	p.dests = nil
	p.alive.Store(0)
	p.metrics.SetDestsActive(0)
	return errs
}
