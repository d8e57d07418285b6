package relay

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/streamdup/internal/config"
	"github.com/GriffinCanCode/streamdup/internal/logging"
	"github.com/GriffinCanCode/streamdup/internal/monitoring"
	"github.com/GriffinCanCode/streamdup/internal/shared/id"
)

// broadcaster fans one chunk out to the destination set. The pool is the
// sequential baseline; the fanout wraps it with per-destination writers.
type broadcaster interface {
	Broadcast(chunk []byte) int
	AliveCount() int
	CloseAll() error
}

// Target identifies the source endpoint and the destination ports.
// Destinations are reached on the loopback interface unless DestHost
// says otherwise.
type Target struct {
	SourceHost string
	SourcePort int
	DestHost   string
	DestPorts  []int
}

// Session owns the source connection and the destination pool for one
// run. It is created once, runs exactly once, and is then discarded; no
// restart or reuse is supported.
type Session struct {
	id      id.SessionID
	cfg     *config.Config
	target  Target
	log     *logging.Logger
	metrics *monitoring.Metrics

	connector *SourceConnector
	pool      *Pool
	caster    broadcaster
	reporter  *Reporter
	src       *Source

	mu            sync.Mutex
	state         State
	onStateChange func(from, to State)

	bytes  atomic.Int64
	chunks atomic.Int64
}

// NewSession creates a session for the given target.
func NewSession(cfg *config.Config, target Target, log *logging.Logger, metrics *monitoring.Metrics) *Session {
	if target.DestHost == "" {
		target.DestHost = "127.0.0.1"
	}

	return &Session{
		id:        id.NewSessionID(),
		cfg:       cfg,
		target:    target,
		log:       log,
		metrics:   metrics,
		connector: NewSourceConnector(cfg.Source.DialTimeout, cfg.Source.ReadPollInterval),
		pool:      NewPool(log, metrics),
		reporter:  NewReporter(log, cfg.Relay.ReportInterval),
		state:     StateInit,
	}
}

// ID returns the session identifier.
func (s *Session) ID() id.SessionID {
	return s.id
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// OnStateChange registers a hook observing state transitions. Set it
// before Run.
func (s *Session) OnStateChange(fn func(from, to State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onStateChange = fn
}

// Run drives the session through its state machine: connect the source,
// connect the destinations, stream until a terminating event, then drain
// and close everything.
//
// Run returns nil on clean shutdown (source closed, pool emptied, or
// cancellation) and the fatal error when the connection phase fails.
func (s *Session) Run(ctx context.Context) error {
	if !s.transition(StateInit, StateConnecting) {
		return ErrSessionDone
	}

	s.log.Info("session starting",
		zap.String("session_id", s.id.String()),
		zap.String("source_host", s.target.SourceHost),
		zap.Int("source_port", s.target.SourcePort),
		zap.Ints("destination_ports", s.target.DestPorts))

	src, err := s.connector.Connect(ctx, s.target.SourceHost, s.target.SourcePort)
	if err != nil {
		return s.fail(err)
	}
	s.src = src
	s.log.Info("source connected", zap.String("addr", src.RemoteAddr()))

	if err := s.pool.ConnectAll(ctx, s.target.DestHost, s.target.DestPorts, s.cfg.Source.DialTimeout); err != nil {
		s.src.Close()
		return s.fail(err)
	}

	s.caster = s.newBroadcaster()
	s.transition(StateConnecting, StateStreaming)
	s.reporter.Start()

	reason := s.stream(ctx)
	s.drainAndStop(reason)
	return nil
}

// stream runs the steady-state loop: one blocking poll-bounded read, one
// broadcast, repeat. Returns the reason streaming ended.
func (s *Session) stream(ctx context.Context) string {
	buf := make([]byte, s.cfg.Relay.BufferSize)

	for {
		select {
		case <-ctx.Done():
			return "cancelled"
		default:
		}

		n, err := s.src.Read(buf)
		if n > 0 {
			s.bytes.Add(int64(n))
			s.chunks.Add(1)
			s.metrics.RecordChunk(n)

			s.caster.Broadcast(buf[:n])
			if s.caster.AliveCount() == 0 {
				return "all destinations lost"
			}

			s.reporter.MaybeReport(s.bytes.Load())
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return "source closed"
			}
			s.log.Warn("source read error", zap.Error(err))
			return "source read error"
		}
	}
}

// drainAndStop closes the source and any remaining destinations, emits
// the final report, and parks the session in StateStopped. Every handle
// is closed exactly once.
func (s *Session) drainAndStop(reason string) {
	s.transition(StateStreaming, StateDraining)
	s.log.Info("draining", zap.String("reason", reason))

	if err := s.src.Close(); err != nil {
		s.log.Debug("source close", zap.Error(err))
	}
	if err := s.caster.CloseAll(); err != nil {
		s.log.Warn("destination close", zap.Error(err))
	}

	s.reporter.Final(s.bytes.Load())
	s.transition(StateDraining, StateStopped)
}

// fail records a fatal connection-phase error and stops the session.
func (s *Session) fail(err error) error {
	s.log.Error("session failed", zap.Error(err))
	s.transition(StateConnecting, StateStopped)
	return err
}

// transition moves the session from one state to another, firing the
// metrics counter and the optional hook. Returns false when the session
// is not in the expected state.
func (s *Session) transition(from, to State) bool {
	s.mu.Lock()
	if s.state != from {
		s.mu.Unlock()
		return false
	}
	s.state = to
	fn := s.onStateChange
	s.mu.Unlock()

	s.log.Debug("state transition",
		zap.String("from", from.String()),
		zap.String("to", to.String()))
	s.metrics.RecordStateTransition(from.String(), to.String())
	if fn != nil {
		fn(from, to)
	}
	return true
}

// newBroadcaster selects the fan-out strategy. Sequential is the
// baseline contract; the concurrent variant is opt-in through config.
func (s *Session) newBroadcaster() broadcaster {
	if s.cfg.Relay.FanoutMode == config.FanoutConcurrent {
		return newFanout(s.pool, s.cfg.Relay.FanoutQueue, s.log)
	}
	return s.pool
}

// BytesTransferred returns the total bytes read from the source so far.
func (s *Session) BytesTransferred() int64 {
	return s.bytes.Load()
}

// Snapshot is a point-in-time view of session counters for the ops
// surface.
type Snapshot struct {
	SessionID      string  `json:"session_id"`
	State          string  `json:"state"`
	Bytes          int64   `json:"bytes"`
	Chunks         int64   `json:"chunks"`
	ElapsedSeconds float64 `json:"elapsed_seconds"`
	Mbps           float64 `json:"mbps"`
	Destinations   int     `json:"destinations"`
}

// Snapshot captures the current counters. Safe to call from other
// goroutines while the session streams.
func (s *Session) Snapshot() Snapshot {
	elapsed := s.reporter.Elapsed()
	bytes := s.bytes.Load()

	return Snapshot{
		SessionID:      s.id.String(),
		State:          s.State().String(),
		Bytes:          bytes,
		Chunks:         s.chunks.Load(),
		ElapsedSeconds: elapsed.Seconds(),
		Mbps:           Throughput(bytes, elapsed),
		Destinations:   s.pool.AliveCount(),
	}
}
