// Package observability exposes Prometheus metrics for the application.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP-level latency and throughput are recorded by the fiberprometheus
// middleware; the metrics here cover the domain events it cannot see.
var (
	// PostTransitions counts post lifecycle transitions by event and resulting status.
	PostTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_post_transitions_total",
		Help: "Total number of post lifecycle transitions",
	}, []string{"event", "to"})

	// BotAuthFailures counts failed bot credential validations by reason.
	BotAuthFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_bot_auth_failures_total",
		Help: "Total number of failed bot API key validations",
	}, []string{"reason"})

	// AuthzDenials counts authorization matrix denials by action.
	AuthzDenials = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_authz_denials_total",
		Help: "Total number of authorization denials",
	}, []string{"action"})

	// RedisErrors counts Redis errors by operation type.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_redis_errors_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})
)
