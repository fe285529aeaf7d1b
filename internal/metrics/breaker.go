// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// breakerStates is the label order; the gauge holds the index of the active one.
var breakerStates = map[string]float64{"closed": 0, "half-open": 1, "open": 2}

var (
	breakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "hdrkit_upstream_breaker_state",
		Help: "Upstream circuit breaker state (0=closed, 1=half-open, 2=open)",
	}, []string{"breaker"})

	breakerTrips = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hdrkit_upstream_breaker_trips_total",
		Help: "Transitions of the upstream circuit breaker to open",
	}, []string{"breaker", "reason"})

	breakerRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hdrkit_upstream_breaker_rejected_total",
		Help: "Upstream requests short-circuited by an open breaker",
	}, []string{"breaker"})
)

// SetCircuitBreakerState publishes the breaker's current state. Unknown
// states are ignored.
func SetCircuitBreakerState(name, state string) {
	if v, ok := breakerStates[state]; ok {
		breakerState.WithLabelValues(name).Set(v)
	}
}

// RecordCircuitBreakerTrip counts a transition to open.
func RecordCircuitBreakerTrip(name, reason string) {
	breakerTrips.WithLabelValues(name, reason).Inc()
}

// RecordCircuitBreakerRejected counts a call refused while open.
func RecordCircuitBreakerRejected(name string) {
	breakerRejected.WithLabelValues(name).Inc()
}
