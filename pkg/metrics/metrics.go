package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "arogya", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "arogya", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
	// ChatRequests counts POST /chat outcomes: ok, invalid, unauthenticated, upstream_error.
	ChatRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "arogya", Name: "chat_requests_total", Help: "Chat relay requests by outcome."},
		[]string{"outcome"},
	)
	// Provisioning counts session logins: created, existing, rejected, error.
	Provisioning = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "arogya", Name: "provisioning_total", Help: "Session logins by provisioning result."},
		[]string{"result"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
	reg.MustRegister(ChatRequests)
	reg.MustRegister(Provisioning)
}
