// Package metrics holds the process-wide Prometheus collectors exposed
// on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OutcomeOK          = "ok"
	OutcomeInvalid     = "invalid"
	OutcomeConflict    = "conflict"
	OutcomeNotFound    = "not_found"
	OutcomeUnavailable = "unavailable"
	OutcomeError       = "error"
)

var (
	secretOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "podsec_secret_ops_total",
		Help: "Secret gateway operations by operation and outcome.",
	}, []string{"op", "outcome"})

	authFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "podsec_auth_failures_total",
		Help: "Failed authentication attempts (bad credentials or tokens).",
	})
)

// SecretOp records one gateway operation (list, create, inspect, delete).
func SecretOp(op, outcome string) {
	secretOps.WithLabelValues(op, outcome).Inc()
}

// AuthFailure records one rejected credential or token.
func AuthFailure() {
	authFailures.Inc()
}
