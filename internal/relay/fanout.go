package relay

import (
	"sync"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/streamdup/internal/logging"
	"github.com/GriffinCanCode/streamdup/internal/monitoring"
)

// fanout is the opt-in concurrent broadcast strategy: one writer
// goroutine per destination, fed by a bounded channel and joined per
// chunk. A slow destination bounds broadcast completion but no longer
// serializes delivery to the others. Delivery and failure-isolation
// semantics are identical to the sequential pool.
type fanout struct {
	pool    *Pool
	log     *logging.Logger
	writers []*destWriter
	wg      sync.WaitGroup
}

type destWriter struct {
	dest *Destination
	ch   chan []byte
}

// newFanout starts one writer per destination currently in the pool.
// Call after ConnectAll, before streaming begins.
func newFanout(pool *Pool, queue int, log *logging.Logger) *fanout {
	f := &fanout{pool: pool, log: log}

	for _, d := range pool.dests {
		w := &destWriter{dest: d, ch: make(chan []byte, queue)}
		f.writers = append(f.writers, w)
		go f.runWriter(w)
	}
	return f
}

// runWriter drains one destination's channel. A failed write marks the
// destination dead and closes it; the writer keeps consuming so joins
// never stall.
func (f *fanout) runWriter(w *destWriter) {
	for chunk := range w.ch {
		if w.dest.alive {
			timer := monitoring.NewWriteTimer(f.pool.metrics, w.dest.addr)
			n, err := w.dest.write(chunk)
			if err != nil {
				w.dest.alive = false
				w.dest.close()
				f.log.Warn("destination dropped", zap.Int("port", w.dest.Port), zap.Error(err))
				f.pool.metrics.RecordDestFailure(w.dest.addr, "write")
			} else {
				timer.Stop(n)
			}
		}
		f.wg.Done()
	}
}

// Broadcast dispatches the chunk to every alive writer and waits for all
// of them to finish before returning, so the caller may reuse the chunk
// buffer. The pool is compacted at the join point.
func (f *fanout) Broadcast(chunk []byte) int {
	for _, w := range f.writers {
		if !w.dest.alive {
			continue
		}
		f.wg.Add(1)
		w.ch <- chunk
	}
	f.wg.Wait()

	failed := 0
	for _, d := range f.pool.dests {
		if !d.alive {
			failed++
		}
	}
	if failed > 0 {
		f.pool.compact()
	}
	return failed
}

// AliveCount returns the current pool size.
func (f *fanout) AliveCount() int {
	return f.pool.AliveCount()
}

// CloseAll stops the writers and closes the remaining destinations.
// Broadcast must not be called afterwards.
func (f *fanout) CloseAll() error {
	for _, w := range f.writers {
		close(w.ch)
	}
	return f.pool.CloseAll()
}
