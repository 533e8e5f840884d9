// Package services – metrics
//
// Prometheus counters for domain outcomes and the request-scoped logger
// helper shared by the services.
package services

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	// routingDecisions counts assistant-request answers by outcome:
	// matched, fallback_not_found, fallback_ambiguous, fallback_error.
	routingDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "receptionist_routing_decisions_total",
			Help: "Assistant-request routing decisions by outcome.",
		},
		[]string{"outcome"},
	)

	// callLogs counts end-of-call reports by outcome: recorded, dropped, failed.
	callLogs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "receptionist_call_logs_total",
			Help: "End-of-call reports by outcome.",
		},
		[]string{"outcome"},
	)

	// provisioning counts number provisioning attempts by the step that
	// finished them (ok, search, purchase, import, store).
	provisioning = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "receptionist_provisioning_total",
			Help: "Phone number provisioning attempts by result.",
		},
		[]string{"result"},
	)

	// billingEvents counts verified billing webhooks by type and whether a
	// profile was updated.
	billingEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "receptionist_billing_events_total",
			Help: "Verified billing events by type and result.",
		},
		[]string{"type", "result"},
	)
)

func init() {
	prometheus.MustRegister(routingDecisions, callLogs, provisioning, billingEvents)
}

// logger returns the request logger carried by ctx, or the global logger.
func logger(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &log.Logger
}
