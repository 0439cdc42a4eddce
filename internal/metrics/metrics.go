// Package metrics exposes Prometheus collectors for the shortener.
//
// All recording methods are safe to call on a nil *Metrics, which is how
// metrics are disabled.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "shortener"

type Metrics struct {
	registry *prometheus.Registry

	requests         *prometheus.HistogramVec
	linksCreated     *prometheus.CounterVec
	redirects        *prometheus.CounterVec
	clickFailures    prometheus.Counter
	cacheLookups     *prometheus.CounterVec
	allocationRounds prometheus.Histogram
}

// New registers every collector on a fresh registry together with the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		requests: registerHistogram(reg, "http_request_duration_seconds",
			"HTTP request latency by route and status.",
			[]string{"method", "route", "status"}, prometheus.DefBuckets),
		linksCreated: registerCounter(reg, "links_created_total",
			"Links created, by code source.", []string{"source"}),
		redirects: registerCounter(reg, "redirects_total",
			"Redirect lookups, by result.", []string{"result"}),
		cacheLookups: registerCounter(reg, "cache_lookups_total",
			"Resolve cache lookups, by result.", []string{"result"}),
	}

	m.clickFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "click_tracking_failures_total",
		Help:      "Click increments that failed after a successful lookup.",
	})
	reg.MustRegister(m.clickFailures)

	m.allocationRounds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "code_allocation_attempts",
		Help:      "Attempts needed to allocate a random short code.",
		Buckets:   []float64{1, 2, 3, 5, 10},
	})
	reg.MustRegister(m.allocationRounds)

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

func registerCounter(reg *prometheus.Registry, name, help string, labels []string) *prometheus.CounterVec {
	counter := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
	}, labels)
	reg.MustRegister(counter)
	return counter
}

func registerHistogram(reg *prometheus.Registry, name, help string, labels []string, buckets []float64) *prometheus.HistogramVec {
	histogram := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
		Buckets:   buckets,
	}, labels)
	reg.MustRegister(histogram)
	return histogram
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}

func (m *Metrics) LinkCreated(custom bool) {
	if m == nil {
		return
	}
	source := "generated"
	if custom {
		source = "custom"
	}
	m.linksCreated.WithLabelValues(source).Inc()
}

func (m *Metrics) AllocationAttempts(n int) {
	if m == nil {
		return
	}
	m.allocationRounds.Observe(float64(n))
}

func (m *Metrics) Redirect(found bool) {
	if m == nil {
		return
	}
	result := "not_found"
	if found {
		result = "found"
	}
	m.redirects.WithLabelValues(result).Inc()
}

func (m *Metrics) ClickTrackingFailed() {
	if m == nil {
		return
	}
	m.clickFailures.Inc()
}

func (m *Metrics) CacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}
