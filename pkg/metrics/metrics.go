// Package metrics provides Prometheus instrumentation for flightsync sync
// cycles and upstream requests.
//
// # Basic Usage
//
//	collector := metrics.NewCollector("opensky")
//	timer := metrics.NewTimer("cycle")
//	// ... run a cycle ...
//	collector.ObserveCycle(metrics.OutcomeSuccess, timer.Stop())
//	collector.RecordsUpserted(300)
//
// Each Collector owns its registry, so tests and multiple connectors in one
// process do not collide on metric registration. Handler exposes it.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels the terminal result of a cycle
type Outcome string

const (
	// OutcomeSuccess is a cycle that emitted records and checkpointed
	OutcomeSuccess Outcome = "success"
	// OutcomeEmpty is a cycle whose fetch returned no records
	OutcomeEmpty Outcome = "empty"
	// OutcomeFetchFailed is a cycle abandoned on a transport failure
	OutcomeFetchFailed Outcome = "fetch_failed"
	// OutcomeFailed is a cycle that returned an error (sink or checkpoint)
	OutcomeFailed Outcome = "failed"
)

// Collector groups the metrics of one connector
type Collector struct {
	name     string
	registry *prometheus.Registry

	cycles          *prometheus.CounterVec
	cycleDuration   prometheus.Histogram
	recordsFetched  prometheus.Counter
	recordsUpserted prometheus.Counter
	recordsSkipped  prometheus.Counter
	lastSuccess     prometheus.Gauge

	requests        *prometheus.CounterVec
	requestDuration prometheus.Histogram
}

// NewCollector creates a collector whose metrics carry a connector label
func NewCollector(name string) *Collector {
	labels := prometheus.Labels{"connector": name}
	reg := prometheus.NewRegistry()

	c := &Collector{
		name:     name,
		registry: reg,
		cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "flightsync_cycles_total",
			Help:        "Sync cycles by terminal outcome",
			ConstLabels: labels,
		}, []string{"outcome"}),
		cycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:        "flightsync_cycle_duration_seconds",
			Help:        "Wall time of a sync cycle",
			ConstLabels: labels,
			Buckets:     []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15, 30, 60},
		}),
		recordsFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "flightsync_records_fetched_total",
			Help:        "Records returned by the source before bounding",
			ConstLabels: labels,
		}),
		recordsUpserted: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "flightsync_records_upserted_total",
			Help:        "Records handed to the destination",
			ConstLabels: labels,
		}),
		recordsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "flightsync_records_skipped_total",
			Help:        "Records not emitted (null primary key or not newer than the cursor)",
			ConstLabels: labels,
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "flightsync_last_success_timestamp_seconds",
			Help:        "Unix time of the last cycle that checkpointed",
			ConstLabels: labels,
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "flightsync_http_requests_total",
			Help:        "Upstream requests by status class",
			ConstLabels: labels,
		}, []string{"code"}),
		requestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:        "flightsync_http_request_duration_seconds",
			Help:        "Upstream request latency",
			ConstLabels: labels,
			Buckets:     prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.cycles, c.cycleDuration, c.recordsFetched, c.recordsUpserted,
		c.recordsSkipped, c.lastSuccess, c.requests, c.requestDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return c
}

// Name returns the connector name the collector labels with
func (c *Collector) Name() string {
	return c.name
}

// Registry exposes the underlying registry, mainly for tests
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the collector's metrics in the Prometheus exposition format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// ObserveCycle records the outcome and duration of one cycle
func (c *Collector) ObserveCycle(outcome Outcome, d time.Duration) {
	c.cycles.WithLabelValues(string(outcome)).Inc()
	c.cycleDuration.Observe(d.Seconds())
	if outcome != OutcomeFailed {
		c.lastSuccess.SetToCurrentTime()
	}
}

// RecordsFetched adds n fetched records
func (c *Collector) RecordsFetched(n int) {
	c.recordsFetched.Add(float64(n))
}

// RecordsUpserted adds n emitted records
func (c *Collector) RecordsUpserted(n int) {
	c.recordsUpserted.Add(float64(n))
}

// RecordsSkipped adds n skipped records
func (c *Collector) RecordsSkipped(n int) {
	c.recordsSkipped.Add(float64(n))
}

// ObserveRequest records one upstream request. code is the status class
// ("2xx", "5xx") or "error" when no response was received.
func (c *Collector) ObserveRequest(code string, d time.Duration) {
	c.requests.WithLabelValues(code).Inc()
	c.requestDuration.Observe(d.Seconds())
}

// Timer provides a simple timing mechanism for measuring operation durations.
type Timer struct {
	start time.Time
	name  string
}

// NewTimer creates a new timer and starts timing immediately.
func NewTimer(name string) *Timer {
	return &Timer{
		start: time.Now(),
		name:  name,
	}
}

// Name returns the timer name
func (t *Timer) Name() string {
	return t.name
}

// Stop returns the elapsed duration since creation. It can be called repeatedly.
func (t *Timer) Stop() time.Duration {
	return time.Since(t.start)
}
