/*
Package metrics defines and registers the mapper's Prometheus collectors:
batch RPC throughput, per-table backoff state, consumed capacity, active
scan segments, and marshal error counts. It also carries the generic
component-health checker and a small Timer helper, unrelated to any one
collector, used throughout the mapper to time operations.

# Architecture

	┌──────────────────── METRICS SET ──────────────────────┐
	│                                                         │
	│  metrics.NewSet(registry) registers:                   │
	│    BatchRPCsTotal        CounterVec{operation, table}  │
	│    BatchItemsTotal       CounterVec{table, outcome}    │
	│    BackoffFactor         GaugeVec{table}               │
	│    ConsumedCapacityTotal CounterVec{table, operation}  │
	│    ScanSegmentsActive    Gauge                         │
	│    MarshalErrorsTotal    CounterVec{kind}               │
	│                                                         │
	│  metrics.Default() lazily builds one process-wide Set  │
	│  against prometheus.DefaultRegisterer for callers that  │
	│  don't supply their own mapper.Config.Metrics.          │
	│                                                         │
	│  metrics.Collector subscribes to a pkg/events.Broker    │
	│  and keeps BackoffFactor/ScanSegmentsActive in sync     │
	│  with the batch engine and scan coordinator's own       │
	│  lifecycle events, rather than polling.                 │
	└─────────────────────────────────────────────────────────┘

# Usage

	reg := prometheus.NewRegistry()
	set := metrics.NewSet(reg)
	cfg := mapper.Config{Client: store, Metrics: set}

	collector := metrics.NewCollector(set, broker)
	collector.Start()
	defer collector.Stop()

	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	http.Handle("/healthz", metrics.HealthHandler())
*/
package metrics
