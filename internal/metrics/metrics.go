package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	apiRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "garagedesk",
			Name:      "api_requests_total",
			Help:      "Outbound mechanic API calls by endpoint and outcome.",
		},
		[]string{"endpoint", "outcome"},
	)

	transitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "garagedesk",
			Name:      "booking_transitions_total",
			Help:      "Booking status transitions applied by the desk.",
		},
		[]string{"status"},
	)

	refreshCycles = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "garagedesk",
			Name:      "refresh_cycles_total",
			Help:      "Background collection refresh cycles by result.",
		},
		[]string{"result"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(apiRequests, transitions, refreshCycles)
	})
}

// IncAPIRequest counts one outbound API call.
func IncAPIRequest(endpoint, outcome string) {
	apiRequests.WithLabelValues(endpoint, outcome).Inc()
}

// IncTransition counts one applied status transition.
func IncTransition(status string) {
	transitions.WithLabelValues(status).Inc()
}

// IncRefresh counts one refresh cycle.
func IncRefresh(result string) {
	refreshCycles.WithLabelValues(result).Inc()
}
