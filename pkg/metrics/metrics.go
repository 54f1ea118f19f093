// Package metrics provides Prometheus instrumentation for the dashboard.
package metrics

import (
	"errors"
	"net/http"

	"github.com/lujainmohamed8/SpotifyChurnPrediction/pkg/features"
	"github.com/lujainmohamed8/SpotifyChurnPrediction/pkg/model"
	"github.com/lujainmohamed8/SpotifyChurnPrediction/pkg/predict"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	namespace = "churnctl"

	failureModelUnavailable = "model_unavailable"
	failureSchemaMismatch   = "schema_mismatch"
	failureInvalidScore     = "invalid_score"
	failureScorerPanic      = "scorer_panic"
	failureInvalidInput     = "invalid_input"
	failureOther            = "other"
)

// Metrics holds the dashboard collectors on their own registry.
type Metrics struct {
	registry *prometheus.Registry

	// Predictions counts successful calculations by band.
	Predictions *prometheus.CounterVec
	// Failures counts failed calculations by kind.
	Failures *prometheus.CounterVec
	// ModelLoaded is 1 when the artifact loaded at startup.
	ModelLoaded prometheus.Gauge
}

// New creates and registers the collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Predictions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "predictions_total",
				Help:      "Successful churn calculations by risk band.",
			},
			[]string{"band"},
		),
		Failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "prediction_failures_total",
				Help:      "Failed churn calculations by failure kind.",
			},
			[]string{"kind"},
		),
		ModelLoaded: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "model_loaded",
				Help:      "Whether the model artifact loaded at startup (1) or not (0).",
			},
		),
	}

	m.registry.MustRegister(
		m.Predictions,
		m.Failures,
		m.ModelLoaded,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveResult records a successful calculation.
func (m *Metrics) ObserveResult(r *predict.Result) {
	m.Predictions.WithLabelValues(string(r.Band)).Inc()
}

// ObserveFailure records a failed calculation.
func (m *Metrics) ObserveFailure(err error) {
	m.Failures.WithLabelValues(FailureKind(err)).Inc()
}

// SetModelLoaded sets the model gauge.
func (m *Metrics) SetModelLoaded(loaded bool) {
	if loaded {
		m.ModelLoaded.Set(1)
		return
	}
	m.ModelLoaded.Set(0)
}

// Handler serves the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// FailureKind maps an error to its failure label.
func FailureKind(err error) string {
	switch {
	case errors.Is(err, predict.ErrModelUnavailable):
		return failureModelUnavailable
	case errors.Is(err, model.ErrSchemaMismatch):
		return failureSchemaMismatch
	case errors.Is(err, predict.ErrInvalidScore):
		return failureInvalidScore
	case errors.Is(err, predict.ErrScorerPanic):
		return failureScorerPanic
	case errors.Is(err, features.ErrInvalidRequest):
		return failureInvalidInput
	default:
		return failureOther
	}
}
