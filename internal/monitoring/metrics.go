package monitoring

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics (ops surface)
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Source metrics
	SourceBytes  prometheus.Counter
	SourceChunks prometheus.Counter
	ChunkSize    prometheus.Histogram

	// Destination metrics
	DestBytes         *prometheus.CounterVec
	DestWriteDuration *prometheus.HistogramVec
	DestFailures      *prometheus.CounterVec
	DestsActive       prometheus.Gauge

	// Session metrics
	StateTransitions *prometheus.CounterVec

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec

	// System metrics
	Uptime    prometheus.Gauge
	startTime time.Time

	gatherer prometheus.Gatherer

	// Snapshot for JSON API - track current values
	snapshot Snapshot

	mu sync.RWMutex
}

// Snapshot holds current metric values for JSON API
type Snapshot struct {
	TotalRequests int64   `json:"total_requests"`
	TotalErrors   int64   `json:"total_errors"`
	TotalDuration float64 `json:"-"` // sum of all request durations
	RequestCount  int64   `json:"-"` // count for averaging
}

// NewMetrics creates a metrics collector on the default registry
func NewMetrics() *Metrics {
	return newMetrics(prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
}

// NewMetricsWith creates a metrics collector on a private registry.
// Tests use this to avoid duplicate registration on the default registry.
func NewMetricsWith(reg *prometheus.Registry) *Metrics {
	return newMetrics(reg, reg)
}

func newMetrics(reg prometheus.Registerer, gatherer prometheus.Gatherer) *Metrics {
	factory := promauto.With(reg)

	m := &Metrics{
		startTime: time.Now(),
		gatherer:  gatherer,

		// HTTP metrics
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "duplicator_http_requests_total",
				Help: "Total number of ops HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "duplicator_http_request_duration_seconds",
				Help:    "Ops HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),

		// Source metrics
		SourceBytes: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "duplicator_source_bytes_total",
				Help: "Total bytes read from the source connection",
			},
		),
		SourceChunks: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "duplicator_source_chunks_total",
				Help: "Total chunks read from the source connection",
			},
		),
		ChunkSize: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "duplicator_chunk_size_bytes",
				Help:    "Size of chunks read from the source",
				Buckets: []float64{256, 1024, 2048, 4096, 8192, 16384, 65536},
			},
		),

		// Destination metrics
		DestBytes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "duplicator_destination_bytes_total",
				Help: "Total bytes written per destination",
			},
			[]string{"destination"},
		),
		DestWriteDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "duplicator_destination_write_duration_seconds",
				Help:    "Destination write duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"destination"},
		),
		DestFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "duplicator_destination_failures_total",
				Help: "Total destination failures by reason",
			},
			[]string{"destination", "reason"},
		),
		DestsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "duplicator_destinations_active",
				Help: "Number of live destination connections",
			},
		),

		// Session metrics
		StateTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "duplicator_state_transitions_total",
				Help: "Total relay session state transitions",
			},
			[]string{"from", "to"},
		),

		// WebSocket metrics
		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "duplicator_ws_connections",
				Help: "Number of active WebSocket connections",
			},
		),
		WSMessages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "duplicator_ws_messages_total",
				Help: "Total number of WebSocket messages",
			},
			[]string{"direction", "type"},
		),

		// System metrics
		Uptime: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "duplicator_uptime_seconds",
				Help: "Process uptime in seconds",
			},
		),
	}

	// Start uptime updater
	go m.updateUptime()

	return m
}

// updateUptime continuously updates the uptime metric
func (m *Metrics) updateUptime() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for range ticker.C {
		m.Uptime.Set(time.Since(m.startTime).Seconds())
	}
}

// Handler returns the Prometheus exposition handler for this collector
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// RecordHTTPRequest records an ops HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())

	// Update snapshot
	m.mu.Lock()
	m.snapshot.TotalRequests++
	m.snapshot.TotalDuration += duration.Seconds()
	m.snapshot.RequestCount++
	if len(status) > 0 && (status[0] == '4' || status[0] == '5') {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// RecordChunk records one chunk read from the source
func (m *Metrics) RecordChunk(n int) {
	m.SourceBytes.Add(float64(n))
	m.SourceChunks.Inc()
	m.ChunkSize.Observe(float64(n))
}

// RecordDestWrite records one completed destination write
func (m *Metrics) RecordDestWrite(destination string, n int, duration time.Duration) {
	m.DestBytes.WithLabelValues(destination).Add(float64(n))
	m.DestWriteDuration.WithLabelValues(destination).Observe(duration.Seconds())
}

// RecordDestFailure records a destination being marked dead
func (m *Metrics) RecordDestFailure(destination, reason string) {
	m.DestFailures.WithLabelValues(destination, reason).Inc()
}

// SetDestsActive sets the number of live destinations
func (m *Metrics) SetDestsActive(count int) {
	m.DestsActive.Set(float64(count))
}

// RecordStateTransition records a relay session state change
func (m *Metrics) RecordStateTransition(from, to string) {
	m.StateTransitions.WithLabelValues(from, to).Inc()
}

// RecordWSMessage records a WebSocket message
func (m *Metrics) RecordWSMessage(direction, msgType string) {
	m.WSMessages.WithLabelValues(direction, msgType).Inc()
}

// IncWSConnections increments WebSocket connections
func (m *Metrics) IncWSConnections() {
	m.WSConnections.Inc()
}

// DecWSConnections decrements WebSocket connections
func (m *Metrics) DecWSConnections() {
	m.WSConnections.Dec()
}

// SnapshotView returns a copy of the current snapshot values
func (m *Metrics) SnapshotView() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot
}
