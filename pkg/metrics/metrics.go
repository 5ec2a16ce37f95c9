package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Set bundles every collector the batch engine, paginated iterators, scan
// coordinator, and façade emit telemetry through. Callers construct one
// via NewSet against whatever registry they scrape from; Default returns
// a process-wide Set registered against prometheus.DefaultRegisterer for
// callers that don't care to manage their own registry.
type Set struct {
	// BatchRPCsTotal counts dispatched RPCs, labeled by operation
	// (batch_get, batch_write, query, scan, get_item, put_item, delete_item,
	// update_item) and table.
	BatchRPCsTotal *prometheus.CounterVec

	// BatchItemsTotal counts items carried by those RPCs, labeled by
	// table and outcome (processed, unprocessed).
	BatchItemsTotal *prometheus.CounterVec

	// BackoffFactor mirrors each table's live BatchState.backoffFactor.
	BackoffFactor *prometheus.GaugeVec

	// ConsumedCapacityTotal accumulates a Client's reported
	// ConsumedCapacity, labeled by table and operation.
	ConsumedCapacityTotal *prometheus.CounterVec

	// ScanSegmentsActive is the number of parallel scan segments
	// currently in flight across all coordinators sharing this Set.
	ScanSegmentsActive prometheus.Gauge

	// MarshalErrorsTotal counts marshal/unmarshal failures, labeled by
	// kind (invalid_value, invalid_schema).
	MarshalErrorsTotal *prometheus.CounterVec
}

// NewSet constructs a Set and registers its collectors against reg. reg is
// typically a fresh prometheus.NewRegistry() in tests or
// prometheus.DefaultRegisterer in a long-running process.
func NewSet(reg prometheus.Registerer) *Set {
	s := &Set{
		BatchRPCsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tablemapper_batch_rpcs_total",
				Help: "Total number of store RPCs dispatched by operation and table",
			},
			[]string{"operation", "table"},
		),
		BatchItemsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tablemapper_batch_items_total",
				Help: "Total number of items carried by batch RPCs by table and outcome",
			},
			[]string{"table", "outcome"},
		),
		BackoffFactor: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "tablemapper_backoff_factor",
				Help: "Current exponential backoff factor per table",
			},
			[]string{"table"},
		),
		ConsumedCapacityTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tablemapper_consumed_capacity_total",
				Help: "Total reported consumed capacity units by table and operation",
			},
			[]string{"table", "operation"},
		),
		ScanSegmentsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "tablemapper_scan_segments_active",
				Help: "Number of parallel scan segments currently in flight",
			},
		),
		MarshalErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tablemapper_marshal_errors_total",
				Help: "Total number of marshal/unmarshal failures by kind",
			},
			[]string{"kind"},
		),
	}

	reg.MustRegister(
		s.BatchRPCsTotal,
		s.BatchItemsTotal,
		s.BackoffFactor,
		s.ConsumedCapacityTotal,
		s.ScanSegmentsActive,
		s.MarshalErrorsTotal,
	)
	return s
}

var (
	defaultOnce sync.Once
	defaultSet  *Set
)

// Default returns the process-wide Set registered against
// prometheus.DefaultRegisterer, lazily constructed on first use.
func Default() *Set {
	defaultOnce.Do(func() {
		defaultSet = NewSet(prometheus.DefaultRegisterer)
	})
	return defaultSet
}

// Handler returns the Prometheus HTTP handler for the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	duration := time.Since(t.start).Seconds()
	histogram.Observe(duration)
}

// ObserveDurationVec records the duration to a histogram vec with labels.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	duration := time.Since(t.start).Seconds()
	histogram.WithLabelValues(labels...).Observe(duration)
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
