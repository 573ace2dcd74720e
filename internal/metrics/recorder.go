// Package metrics records merge submission outcomes with Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for merge_submissions_total.
const (
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
	OutcomeRejected  = "rejected"
	OutcomeCancelled = "cancelled"
)

// Path is where the recorder's registry is exposed.
const Path = "/metrics"

// Recorder implements merge instrumentation on a private registry.
type Recorder struct {
	registry        *prometheus.Registry
	submissions     *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	resultBytes     prometheus.Counter
	inFlight        prometheus.Gauge
}

// NewRecorder creates a recorder with its own registry.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		submissions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "merge_submissions_total",
				Help: "Merge submissions by outcome",
			},
			[]string{"outcome"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "merge_request_duration_seconds",
				Help:    "Duration of merge service requests in seconds",
				Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
			},
			[]string{"outcome"},
		),
		resultBytes: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "merge_result_bytes_total",
				Help: "Bytes of merged video received from the merge service",
			},
		),
		inFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "merge_in_flight",
				Help: "Merge requests currently awaiting the merge service",
			},
		),
	}
}

// Begin marks one request in flight and returns a func that ends it.
func (r *Recorder) Begin() func() {
	r.inFlight.Inc()
	return r.inFlight.Dec
}

// ObserveRequest records one settled merge request.
func (r *Recorder) ObserveRequest(outcome string, duration time.Duration, bytes int64) {
	r.submissions.WithLabelValues(outcome).Inc()
	r.requestDuration.WithLabelValues(outcome).Observe(duration.Seconds())
	if bytes > 0 {
		r.resultBytes.Add(float64(bytes))
	}
}

// ObserveRejected records a submission refused before any network call.
func (r *Recorder) ObserveRejected() {
	r.submissions.WithLabelValues(OutcomeRejected).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
