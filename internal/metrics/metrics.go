package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	QuestClaims = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tapquest_quest_claims_total",
		Help: "Successfully settled quest claims by nature.",
	}, []string{"nature"})

	ClaimCompensations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tapquest_claim_compensations_total",
		Help: "Pending social claims reverted by the compensating transaction.",
	})

	CompensationFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tapquest_claim_compensation_failures_total",
		Help: "Compensating transactions that failed and were left for retry.",
	})

	SweepRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tapquest_maintenance_sweep_runs_total",
		Help: "Completed maintenance sweeps by kind.",
	}, []string{"sweep"})

	SweepErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tapquest_maintenance_sweep_errors_total",
		Help: "Failed maintenance sweeps by kind.",
	}, []string{"sweep"})
)
