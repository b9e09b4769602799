package metrics

import "github.com/prometheus/client_golang/prometheus"

// Ledger Prometheus metrics.
var (
	DeductAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vibercizing",
			Name:      "deduct_attempts_total",
			Help:      "Total request deduction attempts",
		},
		[]string{"outcome"}, // "ok" / "blocked"
	)

	RequestsEarnedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "vibercizing",
			Name:      "requests_earned_total",
			Help:      "Total requests credited from exercise completions",
		},
	)

	WebsocketClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "vibercizing",
			Name:      "websocket_clients",
			Help:      "Currently connected websocket subscribers",
		},
	)
)

var ledgerMetricsRegistered bool

// RegisterLedgerMetrics registers Prometheus ledger metrics. Must be called once from main.
func RegisterLedgerMetrics() {
	if ledgerMetricsRegistered {
		return
	}
	prometheus.MustRegister(DeductAttemptsTotal)
	prometheus.MustRegister(RequestsEarnedTotal)
	prometheus.MustRegister(WebsocketClients)
	ledgerMetricsRegistered = true
}
