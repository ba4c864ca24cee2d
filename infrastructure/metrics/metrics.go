package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values.
const (
	OutcomeSuccess     = "success"
	OutcomeFailure     = "failure"
	OutcomeMock        = "mock"
	OutcomeUnsupported = "unsupported"
	OutcomeConflict    = "conflict"
)

// HTTP Metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "socialhub_http_requests_total",
			Help: "HTTP requests by method, route and status.",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "socialhub_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// Linking Metrics
var (
	LinkTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "socialhub_link_total",
			Help: "Account link attempts by platform and outcome.",
		},
		[]string{"platform", "outcome"},
	)

	TokenRefreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "socialhub_token_refresh_total",
			Help: "Access token refreshes by platform and outcome.",
		},
		[]string{"platform", "outcome"},
	)

	RevokeTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "socialhub_revoke_total",
			Help: "Token revocations by platform and outcome.",
		},
		[]string{"platform", "outcome"},
	)

	UnlinkTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "socialhub_unlink_total",
			Help: "Confirmed disconnects by platform and outcome.",
		},
		[]string{"platform", "outcome"},
	)
)

// Event Metrics
var (
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "socialhub_events_published_total",
			Help: "Account events delivered per sink and outcome.",
		},
		[]string{"sink", "outcome"},
	)
)
