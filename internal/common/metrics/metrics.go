package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ============================================================
// Converter metrics
// ============================================================

// Metrics holds the Prometheus collectors of the converter service. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	conversionsTotal   *prometheus.CounterVec
	conversionDuration prometheus.Histogram
	commandsParsed     prometheus.Counter
	objectsExported    *prometheus.CounterVec
	libraryLookups     *prometheus.CounterVec
}

// New creates the collectors on a private registry with Go runtime metrics.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		conversionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bdl",
			Subsystem: "converter",
			Name:      "conversions_total",
			Help:      "Documents converted, by outcome.",
		}, []string{"status"}),
		conversionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "bdl",
			Subsystem: "converter",
			Name:      "conversion_duration_seconds",
			Help:      "Time to convert one document.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		}),
		commandsParsed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bdl",
			Subsystem: "parser",
			Name:      "commands_total",
			Help:      "Commands read from documents.",
		}),
		objectsExported: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bdl",
			Subsystem: "exporter",
			Name:      "objects_total",
			Help:      "Exported building objects, by kind.",
		}, []string{"kind"}),
		libraryLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bdl",
			Subsystem: "library",
			Name:      "lookups_total",
			Help:      "Library lookups, by entity kind and result.",
		}, []string{"kind", "result"}),
	}

	m.registry.MustRegister(
		m.conversionsTotal,
		m.conversionDuration,
		m.commandsParsed,
		m.objectsExported,
		m.libraryLookups,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// ObserveConversion records one finished conversion.
func (m *Metrics) ObserveConversion(status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.conversionsTotal.WithLabelValues(status).Inc()
	m.conversionDuration.Observe(elapsed.Seconds())
}

// AddCommands counts parsed commands.
func (m *Metrics) AddCommands(n int) {
	if m == nil {
		return
	}
	m.commandsParsed.Add(float64(n))
}

// AddExported counts exported objects of one kind.
func (m *Metrics) AddExported(kind string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.objectsExported.WithLabelValues(kind).Add(float64(n))
}

// LibraryLookup counts one library lookup.
func (m *Metrics) LibraryLookup(kind string, found bool) {
	if m == nil {
		return
	}
	result := "miss"
	if found {
		result = "hit"
	}
	m.libraryLookups.WithLabelValues(kind, result).Inc()
}
