package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "medtracker"

// Metrics owns its own registry so tests can create as many as they like.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry      *prometheus.Registry
	alertsEmitted *prometheus.CounterVec
	alertsFailed  *prometheus.CounterVec
	tickDuration  prometheus.Histogram
	reloadErrors  prometheus.Counter
	medications   prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		alertsEmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_emitted_total",
			Help:      "Notifications delivered to the sink, by category.",
		}, []string{"category"}),
		alertsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_failed_total",
			Help:      "Notifications the sink rejected, by category.",
		}, []string{"category"}),
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tick_duration_seconds",
			Help:      "Duration of one reminder tick.",
			Buckets:   prometheus.DefBuckets,
		}),
		reloadErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reload_errors_total",
			Help:      "Failed reloads of the medication collection.",
		}),
		medications: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "medications",
			Help:      "Medications in the current collection.",
		}),
	}
	m.registry.MustRegister(m.alertsEmitted, m.alertsFailed, m.tickDuration, m.reloadErrors, m.medications)
	return m
}

func (m *Metrics) AlertEmitted(category string) {
	if m == nil {
		return
	}
	m.alertsEmitted.WithLabelValues(category).Inc()
}

func (m *Metrics) AlertFailed(category string) {
	if m == nil {
		return
	}
	m.alertsFailed.WithLabelValues(category).Inc()
}

func (m *Metrics) ObserveTick(d time.Duration) {
	if m == nil {
		return
	}
	m.tickDuration.Observe(d.Seconds())
}

func (m *Metrics) ReloadFailed() {
	if m == nil {
		return
	}
	m.reloadErrors.Inc()
}

func (m *Metrics) SetMedications(n int) {
	if m == nil {
		return
	}
	m.medications.Set(float64(n))
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
