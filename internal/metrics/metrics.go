// Package metrics exposes Prometheus collectors for the converter.
//
// Each Metrics value owns its own registry so tests and multiple servers in
// one process do not collide on the default registerer. All methods are safe
// on a nil *Metrics, which records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tagconvert"

// Metrics holds the converter's collectors.
type Metrics struct {
	registry *prometheus.Registry

	conversions *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	tags        *prometheus.HistogramVec
	inputBytes  *prometheus.CounterVec
	cacheHits   prometheus.Counter
	cacheMisses prometheus.Counter
	active      prometheus.Gauge
}

// New creates and registers all collectors, plus the Go runtime and process
// collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		conversions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "conversions_total",
			Help:      "Conversions by input format and outcome.",
		}, []string{"format", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "conversion_duration_seconds",
			Help:      "Time spent converting one document.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}, []string{"format"}),
		tags: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "conversion_tags",
			Help:      "Tags emitted per successful conversion.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}, []string{"format"}),
		inputBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "input_bytes_total",
			Help:      "Bytes of input accepted for conversion.",
		}, []string{"format"}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Conversions served from the result cache.",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Conversions not found in the result cache.",
		}),
		active: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_conversions",
			Help:      "Conversions currently holding a limiter slot.",
		}),
	}

	m.registry.MustRegister(
		m.conversions,
		m.duration,
		m.tags,
		m.inputBytes,
		m.cacheHits,
		m.cacheMisses,
		m.active,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveConversion records one finished conversion. outcome is a short
// label such as "success" or an error code.
func (m *Metrics) ObserveConversion(format, outcome string, d time.Duration, tagCount int, inputBytes int) {
	if m == nil {
		return
	}
	m.conversions.WithLabelValues(format, outcome).Inc()
	m.duration.WithLabelValues(format).Observe(d.Seconds())
	m.inputBytes.WithLabelValues(format).Add(float64(inputBytes))
	if outcome == "success" {
		m.tags.WithLabelValues(format).Observe(float64(tagCount))
	}
}

// CacheHit counts a cache hit.
func (m *Metrics) CacheHit() {
	if m == nil {
		return
	}
	m.cacheHits.Inc()
}

// CacheMiss counts a cache miss.
func (m *Metrics) CacheMiss() {
	if m == nil {
		return
	}
	m.cacheMisses.Inc()
}

// SetActive reports the number of running conversions.
func (m *Metrics) SetActive(n int) {
	if m == nil {
		return
	}
	m.active.Set(float64(n))
}

// Registry returns the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
