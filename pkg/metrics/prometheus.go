package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "stalkpull"

// Recorder publishes service-level Prometheus metrics.
type Recorder struct {
	forecasts    *prometheus.CounterVec
	forecastTime *prometheus.HistogramVec
	reports      *prometheus.CounterVec
	cacheLookups *prometheus.CounterVec
	errorsTotal  *prometheus.CounterVec
	liveClients  prometheus.Gauge
}

// NewRecorder registers all collectors on reg. Pass nil to register on the
// default registerer.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Recorder{
		forecasts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "forecast",
			Name:      "computed_total",
			Help:      "Forecasts computed, by request source and winning pattern",
		}, []string{"source", "pattern"}),
		forecastTime: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "forecast",
			Name:      "duration_seconds",
			Help:      "Posterior computation latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"source"}),
		reports: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reports",
			Name:      "received_total",
			Help:      "Price reports accepted, by half-day slot",
		}, []string{"slot"}),
		cacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Prediction cache lookups",
		}, []string{"result"}),
		errorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Errors by kind",
		}, []string{"kind"}),
		liveClients: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "live",
			Name:      "clients",
			Help:      "Connected live subscribers",
		}),
	}
}

// RecordForecast counts one computed forecast and observes its latency.
func (r *Recorder) RecordForecast(source, top string, seconds float64) {
	r.forecasts.WithLabelValues(source, top).Inc()
	r.forecastTime.WithLabelValues(source).Observe(seconds)
}

// RecordReport counts one accepted price report.
func (r *Recorder) RecordReport(slot string) {
	r.reports.WithLabelValues(slot).Inc()
}

// RecordCacheLookup counts a prediction cache hit or miss.
func (r *Recorder) RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	r.cacheLookups.WithLabelValues(result).Inc()
}

// RecordError counts an error by kind.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// SetLiveClients publishes the current number of live subscribers.
func (r *Recorder) SetLiveClients(n int) {
	r.liveClients.Set(float64(n))
}
