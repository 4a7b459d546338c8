// Package metrics defines and registers the custom Prometheus metrics for the
// secretkeeper web application. It is the single source of truth for metric
// names, labels, and help strings.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "secretkeeper"

// RegistrationsTotal counts local account registrations.
// Label:
//   - outcome: "success", "duplicate", or "error"
var RegistrationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Total number of local registration attempts, by outcome.",
	},
	[]string{"outcome"},
)

// LoginsTotal counts authentication attempts across all strategies.
// Labels:
//   - method: "local", "google", or "facebook"
//   - outcome: "success", "rejected", or "error"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by method and outcome.",
	},
	[]string{"method", "outcome"},
)

// SessionsTerminatedTotal counts explicit logouts.
var SessionsTerminatedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_terminated_total",
		Help:      "Total number of sessions ended via logout.",
	},
)

// SecretsSubmittedTotal counts secret submissions that were persisted.
var SecretsSubmittedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "secrets_submitted_total",
		Help:      "Total number of secrets submitted by authenticated users.",
	},
)
