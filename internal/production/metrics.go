package production

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/comalice/loginflow/internal/core"
	"github.com/comalice/loginflow/internal/primitives"
)

// Metrics holds the Prometheus collectors for a store and its login effect.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	actions  *prometheus.CounterVec
	results  *prometheus.CounterVec
	duration prometheus.Histogram
}

// NewMetrics creates the collectors and registers them on reg. Collectors
// already registered by an earlier call are reused.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "loginflow",
			Name:      "actions_total",
			Help:      "Actions reduced by the store, by action type.",
		}, []string{"type"}),
		results: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "loginflow",
			Name:      "login_results_total",
			Help:      "Login attempts by outcome.",
		}, []string{"result"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "loginflow",
			Name:      "login_duration_seconds",
			Help:      "Time from login start to its outcome.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
	}
	var err error
	if m.actions, err = register(reg, m.actions); err != nil {
		return nil, err
	}
	if m.results, err = register(reg, m.results); err != nil {
		return nil, err
	}
	if m.duration, err = register(reg, m.duration); err != nil {
		return nil, err
	}
	return m, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// ObserveAction counts one reduced action.
func (m *Metrics) ObserveAction(actionType string) {
	if m == nil {
		return
	}
	m.actions.WithLabelValues(actionType).Inc()
}

// ObserveLogin records the outcome and duration of one login attempt.
func (m *Metrics) ObserveLogin(result string, d time.Duration) {
	if m == nil {
		return
	}
	m.results.WithLabelValues(result).Inc()
	m.duration.Observe(d.Seconds())
}

// ActionCounter returns a middleware counting every action the store reduces.
func ActionCounter[S any](m *Metrics) core.Middleware[S] {
	return func(next primitives.Reducer[S]) primitives.Reducer[S] {
		return func(state S, a primitives.Action) S {
			m.ObserveAction(a.Type)
			return next(state, a)
		}
	}
}
