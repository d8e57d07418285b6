package relay

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/streamdup/internal/logging"
)

// Reporter emits periodic and final throughput lines for one session.
// Throughput is the session-lifetime average, not a sliding window. The
// clock is injectable so tests can drive elapsed time deterministically.
type Reporter struct {
	clk      clock.Clock
	log      *logging.Logger
	interval time.Duration

	mu           sync.Mutex
	start        time.Time
	lastInterval int64
}

// NewReporter creates a reporter on the wall clock.
func NewReporter(log *logging.Logger, interval time.Duration) *Reporter {
	return NewReporterWithClock(log, interval, clock.New())
}

// NewReporterWithClock creates a reporter on the provided clock.
func NewReporterWithClock(log *logging.Logger, interval time.Duration, clk clock.Clock) *Reporter {
	return &Reporter{
		clk:      clk,
		log:      log,
		interval: interval,
	}
}

// Start marks the beginning of streaming. Elapsed time is measured from
// this point.
func (r *Reporter) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.start = r.clk.Now()
}

// MaybeReport emits one throughput line when elapsed time has crossed a
// new whole multiple of the interval. Each multiple is reported at most
// once; quiet periods are skipped, not backfilled.
func (r *Reporter) MaybeReport(bytes int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.start.IsZero() {
		return
	}

	elapsed := r.clk.Since(r.start)
	n := int64(elapsed / r.interval)
	if n <= r.lastInterval {
		return
	}
	r.lastInterval = n

	r.log.Info("throughput",
		zap.Int64("elapsed_s", int64(elapsed.Seconds())),
		zap.Int64("bytes", bytes),
		zap.Float64("mbps", Throughput(bytes, elapsed)))
}

// Final emits exactly one summary line with total bytes, elapsed seconds,
// and average throughput. Zero elapsed reports zero throughput.
func (r *Reporter) Final(bytes int64) {
	elapsed := r.Elapsed()

	r.log.Info("final throughput",
		zap.Float64("elapsed_s", elapsed.Seconds()),
		zap.Int64("bytes", bytes),
		zap.Float64("mbps", Throughput(bytes, elapsed)))
}

// Elapsed returns the time since streaming began, or zero if it never did.
func (r *Reporter) Elapsed() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.start.IsZero() {
		return 0
	}
	return r.clk.Since(r.start)
}

// Throughput computes megabits per second for the given byte count and
// elapsed time. Zero or negative elapsed yields zero rather than a
// division by zero.
func Throughput(bytes int64, elapsed time.Duration) float64 {
	if elapsed <= 0 {
		return 0
	}
	return float64(bytes) * 8 / elapsed.Seconds() / 1e6
}
