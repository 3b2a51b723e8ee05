package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "reservation"

// Reserve outcomes.
const (
	OutcomeSuccess     = "success"
	OutcomeUnavailable = "unavailable"
	OutcomeError       = "error"
)

// Metrics holds the reservation counters. A nil *Metrics is valid and records nothing.
type Metrics struct {
	reserve          *prometheus.CounterVec
	transitions      *prometheus.CounterVec
	cleanupRuns      *prometheus.CounterVec
	cleanupReclaimed prometheus.Counter
	orphanedConsumes prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		reserve: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reserve_total",
			Help:      "Reserve attempts by outcome.",
		}, []string{"outcome"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transitions_total",
			Help:      "Reservations moved out of ACTIVE, by target status.",
		}, []string{"to"}),
		cleanupRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cleanup_runs_total",
			Help:      "Cleanup runs by result.",
		}, []string{"result"}),
		cleanupReclaimed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cleanup_reclaimed_total",
			Help:      "Reservations marked EXPIRED by cleanup.",
		}),
		orphanedConsumes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orphaned_consumes_total",
			Help:      "Holds left CONSUMED after their booking transaction failed to commit.",
		}),
	}
	reg.MustRegister(m.reserve, m.transitions, m.cleanupRuns, m.cleanupReclaimed, m.orphanedConsumes)
	return m
}

func (m *Metrics) ObserveReserve(outcome string) {
	if m == nil {
		return
	}
	m.reserve.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveTransition(to string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(to).Inc()
}

func (m *Metrics) ObserveCleanup(reclaimed int, err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "error"
	}
	m.cleanupRuns.WithLabelValues(result).Inc()
	m.cleanupReclaimed.Add(float64(reclaimed))
}

func (m *Metrics) ObserveOrphanedConsume() {
	if m == nil {
		return
	}
	m.orphanedConsumes.Inc()
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
