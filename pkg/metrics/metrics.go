package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthAttempts records authentication attempts by result (success|failure).
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "northpole_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"result"},
	)

	// MatchCommits counts match-commit attempts and their outcome
	// (success|already_matched|forbidden|invalid|error).
	MatchCommits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "northpole_match_commits_total",
			Help: "Total number of match commit attempts",
		},
		[]string{"result"},
	)

	// GameJoins counts join-by-invite attempts by outcome
	// (success|not_found|already_matched|error).
	GameJoins = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "northpole_game_joins_total",
			Help: "Total number of invite join attempts",
		},
		[]string{"result"},
	)

	// ActiveSessions tracks active sessions (not expired/revoked).
	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "northpole_active_sessions",
			Help: "Number of active sessions",
		},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "northpole_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
