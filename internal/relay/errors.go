package relay

import "errors"

var (
	// ErrSourceConnect indicates the upstream connection could not be
	// established. Fatal: no source means no duplication is possible.
	ErrSourceConnect = errors.New("source connect failed")

	// ErrSourceRead indicates an I/O error on the source connection.
	// Treated like end-of-stream: streaming stops, the session drains.
	ErrSourceRead = errors.New("source read failed")

	// ErrNoDestinations indicates zero destination connections succeeded.
	// Fatal at startup.
	ErrNoDestinations = errors.New("no destinations available")

	// ErrDestinationConnect indicates a single destination dial failed.
	// Non-fatal: that port never joins the pool.
	ErrDestinationConnect = errors.New("destination connect failed")

	// ErrDestinationWrite indicates a destination write failed. Non-fatal:
	// the destination is closed and removed, the session continues.
	ErrDestinationWrite = errors.New("destination write failed")

	// ErrSessionDone indicates Run was called on a session that already ran.
	ErrSessionDone = errors.New("session already ran")
)
