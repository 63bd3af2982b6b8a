package businessflow

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Assignments created, partitioned by how they were granted
	assignmentsCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campaign_assignments_created_total",
			Help: "Total number of campaign assignments created",
		},
		[]string{"source"},
	)

	// Redemption tokens minted, including idempotent re-reads of a valid token
	tokensIssuedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campaign_tokens_issued_total",
			Help: "Total number of redemption token issuance requests served",
		},
		[]string{"reissued"},
	)

	// Tokens consumed successfully
	tokensConsumedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "campaign_tokens_consumed_total",
			Help: "Total number of redemption tokens consumed",
		},
	)

	// Rule engine sweep executions
	sweepRunsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "campaign_sweep_runs_total",
			Help: "Total number of rule engine sweeps executed",
		},
	)
)
