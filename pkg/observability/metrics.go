package observability

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/loanflow/pkg/domain"
)

const namespace = "loanflow"

// Metrics counts engine activity per step and action.
type Metrics struct {
	gatherer prometheus.Gatherer

	StepEntries        *prometheus.CounterVec
	StepSkips          *prometheus.CounterVec
	ValidationFailures *prometheus.CounterVec
	ActionCalls        *prometheus.CounterVec
	ActionDuration     *prometheus.HistogramVec
}

// NewMetrics registers the collectors on reg. reg is usually a fresh
// prometheus.NewRegistry(); registering twice on the same registry panics.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		gatherer: reg,
		StepEntries: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "step_entries_total",
			Help:      "Steps entered, by step id.",
		}, []string{"step"}),
		StepSkips: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "step_skips_total",
			Help:      "Steps bypassed by their skip rule, by step id.",
		}, []string{"step"}),
		ValidationFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validation_failures_total",
			Help:      "Answers rejected by a validator, by step id.",
		}, []string{"step"}),
		ActionCalls: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "action_calls_total",
			Help:      "Action executions, by action and result (ok or error).",
		}, []string{"action", "result"}),
		ActionDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "action_duration_seconds",
			Help:      "Action execution time in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"action"}),
	}
}

// Hooks returns lifecycle hooks feeding the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStepEnter: func(_ context.Context, e *domain.StepEvent) {
			m.StepEntries.WithLabelValues(e.StepID).Inc()
		},
		OnStepSkip: func(_ context.Context, e *domain.StepEvent) {
			m.StepSkips.WithLabelValues(e.StepID).Inc()
		},
		OnValidationError: func(_ context.Context, e *domain.ValidationEvent) {
			m.ValidationFailures.WithLabelValues(e.StepID).Inc()
		},
		OnActionReturn: func(_ context.Context, e *domain.ActionEvent) {
			result := "ok"
			if e.Err != nil {
				result = "error"
			}
			m.ActionCalls.WithLabelValues(e.Action, result).Inc()
			m.ActionDuration.WithLabelValues(e.Action).Observe(e.Duration.Seconds())
		},
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
