package billing

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Webhook processing outcomes.
const (
	outcomeApplied      = "applied"
	outcomeUncorrelated = "uncorrelated"
	outcomeIgnored      = "ignored"
	outcomeInvalid      = "invalid"
	outcomeFailed       = "failed"
)

var eventsTotal = promauto.NewCounterVec( //nolint:gochecknoglobals
	prometheus.CounterOpts{
		Name: "entitlement_events_total",
		Help: "Number of payment provider events processed, by type and outcome.",
	},
	[]string{"type", "outcome"},
)

var checkoutsTotal = promauto.NewCounterVec( //nolint:gochecknoglobals
	prometheus.CounterOpts{
		Name: "entitlement_checkouts_total",
		Help: "Number of checkout initiations, by outcome code.",
	},
	[]string{"outcome"},
)
