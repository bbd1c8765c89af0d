package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// WebhookRequestsTotal counts Stripe webhook requests by event type and status.
	WebhookRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quitcoach",
		Subsystem: "billing",
		Name:      "webhook_requests_total",
		Help:      "Total Stripe webhook requests by event type and HTTP status.",
	}, []string{"event_type", "status"})

	// WebhookDuration tracks Stripe webhook processing latency.
	WebhookDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "quitcoach",
		Subsystem: "billing",
		Name:      "webhook_duration_seconds",
		Help:      "Stripe webhook processing duration in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"event_type"})

	// EntitlementDecisions counts access checks by outcome reason.
	EntitlementDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quitcoach",
		Subsystem: "billing",
		Name:      "entitlement_decisions_total",
		Help:      "Access checks by decision reason (granted when access was given).",
	}, []string{"reason"})

	// RPCRequestsTotal counts procedure calls by path, transport and status code.
	RPCRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quitcoach",
		Subsystem: "rpc",
		Name:      "requests_total",
		Help:      "Procedure calls by path, transport and gRPC status code.",
	}, []string{"path", "transport", "code"})

	// RateLimitedTotal counts requests rejected by the rate limiter.
	RateLimitedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "quitcoach",
		Subsystem: "http",
		Name:      "rate_limited_total",
		Help:      "Requests rejected with 429.",
	})
)

// Handler exposes the default registry.
func Handler() http.Handler { return promhttp.Handler() }
