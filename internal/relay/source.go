package relay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"
)

// SourceConnector establishes the single upstream connection.
type SourceConnector struct {
	dialTimeout  time.Duration
	pollInterval time.Duration
}

// NewSourceConnector creates a connector with the given dial timeout and
// read poll interval.
func NewSourceConnector(dialTimeout, pollInterval time.Duration) *SourceConnector {
	return &SourceConnector{
		dialTimeout:  dialTimeout,
		pollInterval: pollInterval,
	}
}

// Connect dials the source. Failure is fatal to the session: no source
// means no duplication is possible.
func (c *SourceConnector) Connect(ctx context.Context, host string, port int) (*Source, error) {
	dialer := net.Dialer{Timeout: c.dialTimeout}
	addr := net.JoinHostPort(host, strconv.Itoa(port))

	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSourceConnect, addr, err)
	}

	return &Source{conn: conn, poll: c.pollInterval}, nil
}

// Source is the open upstream connection. Reads are bounded by a poll
// deadline so cancellation is observable while blocked.
type Source struct {
	conn net.Conn
	poll time.Duration
}

// Read produces the next chunk of up to len(buf) bytes.
//
// A deadline expiry is an empty poll, not an error: Read returns (n, nil)
// and the caller loops, re-checking cancellation. Clean peer close returns
// io.EOF; any other I/O error returns ErrSourceRead. The caller treats
// both the same way: stop streaming.
func (s *Source) Read(buf []byte) (int, error) {
	if err := s.conn.SetReadDeadline(time.Now().Add(s.poll)); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrSourceRead, err)
	}

	n, err := s.conn.Read(buf)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return n, nil
		}
		if errors.Is(err, io.EOF) {
			return n, io.EOF
		}
		return n, fmt.Errorf("%w: %v", ErrSourceRead, err)
	}

	return n, nil
}

// Close closes the source connection.
func (s *Source) Close() error {
	return s.conn.Close()
}

// RemoteAddr returns the source's remote address for logging.
func (s *Source) RemoteAddr() string {
	return s.conn.RemoteAddr().String()
}
