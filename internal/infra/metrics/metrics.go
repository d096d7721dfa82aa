package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the service counters. A nil *Metrics records nothing.
type Metrics struct {
	transitions  *prometheus.CounterVec
	movements    *prometheus.CounterVec
	insufficient prometheus.Counter
	undo         *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "labsched_booking_transitions_total",
			Help: "Booking status transitions committed.",
		}, []string{"from", "to"}),
		movements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "labsched_stock_movements_total",
			Help: "Stock log entries written.",
		}, []string{"direction"}),
		insufficient: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "labsched_insufficient_stock_total",
			Help: "Confirmations refused for lack of stock.",
		}),
		undo: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "labsched_undo_total",
			Help: "Undo attempts by outcome.",
		}, []string{"outcome"}),
	}
	reg.MustRegister(m.transitions, m.movements, m.insufficient, m.undo)
	return m
}

func (m *Metrics) Transition(from, to string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(from, to).Inc()
}

func (m *Metrics) Movement(direction string) {
	if m == nil {
		return
	}
	m.movements.WithLabelValues(direction).Inc()
}

func (m *Metrics) InsufficientStock() {
	if m == nil {
		return
	}
	m.insufficient.Inc()
}

// Undo outcomes: "reverted", "removed", "conflict", "empty", "error".
func (m *Metrics) Undo(outcome string) {
	if m == nil {
		return
	}
	m.undo.WithLabelValues(outcome).Inc()
}
