package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Consumer delivery outcomes. Each delivery is counted under exactly one.
const (
	OutcomeAcked        = "acked"
	OutcomeDeadLettered = "dead_lettered"
	OutcomeDiscarded    = "discarded"
	OutcomeAbandoned    = "abandoned"
)

var (
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "users_api_http_requests_total",
			Help: "Total number of HTTP requests handled by the users API",
		},
		[]string{"method", "route", "status"},
	)

	PartsRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parts_gateway_requests_total",
			Help: "Outbound Parts service requests by outcome",
		},
		[]string{"outcome"},
	)

	PartsRequestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "parts_gateway_request_duration_seconds",
			Help:    "Duration of outbound Parts service requests",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2, 3, 5},
		},
	)

	ConsumerDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "event_consumer_deliveries_total",
			Help: "Deliveries resolved by event consumers",
		},
		[]string{"queue", "outcome"},
	)

	// ConsumerDuplicates counts acked deliveries whose message id was
	// already processed; they are also counted as acked in ConsumerDeliveries.
	ConsumerDuplicates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "event_consumer_duplicates_total",
			Help: "Redelivered messages skipped because they were already processed",
		},
		[]string{"queue"},
	)

	ConsumerReconnects = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "event_consumer_reconnects_total",
			Help: "Broker reconnect attempts by consumer queue",
		},
		[]string{"queue"},
	)

	ConsumerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "event_consumer_state",
			Help: "Current consumer state as its numeric code",
		},
		[]string{"queue"},
	)
)
