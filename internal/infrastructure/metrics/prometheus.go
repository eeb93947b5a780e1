// Package metrics records verification and generation outcomes in Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vistoria/vistoria-core/internal/domain/entities"
	"github.com/vistoria/vistoria-core/internal/domain/ports"
)

const namespace = "vistoria"

// Recorder implements ports.Metrics on a private registry.
type Recorder struct {
	registry *prometheus.Registry

	verifications       *prometheus.CounterVec
	unavailable         prometheus.Counter
	generations         *prometheus.CounterVec
	generationDurations prometheus.Histogram
}

var _ ports.Metrics = (*Recorder)(nil)

// NewRecorder creates a Recorder with Go runtime and process collectors registered.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verifications_total",
			Help:      "Public verification requests by verdict.",
		}, []string{"verdict"}),
		unavailable: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verification_unavailable_total",
			Help:      "Verification requests that failed because a dependency was unavailable.",
		}),
		generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generations_total",
			Help:      "Report generations by outcome.",
		}, []string{"outcome"}),
		generationDurations: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_duration_seconds",
			Help:      "Time spent generating and binding a report.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
	}

	r.registry.MustRegister(
		r.verifications,
		r.unavailable,
		r.generations,
		r.generationDurations,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// expose every verdict from the start so rates work before the first hit
	for _, v := range []entities.Verdict{entities.VerdictVerified, entities.VerdictTampered, entities.VerdictExpired, entities.VerdictInvalid} {
		r.verifications.WithLabelValues(string(v))
	}
	return r
}

// RecordVerification counts one verdict.
func (r *Recorder) RecordVerification(verdict entities.Verdict) {
	r.verifications.WithLabelValues(string(verdict)).Inc()
}

// RecordVerificationUnavailable counts one verification that could not be answered.
func (r *Recorder) RecordVerificationUnavailable() {
	r.unavailable.Inc()
}

// RecordGeneration counts one generation and observes its duration.
func (r *Recorder) RecordGeneration(outcome string, duration time.Duration) {
	r.generations.WithLabelValues(outcome).Inc()
	r.generationDurations.Observe(duration.Seconds())
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
