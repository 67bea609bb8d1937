package worker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	deliveryOutcomeDelivered = "delivered"
	deliveryOutcomeFailed    = "failed"
)

//nolint:gochecknoglobals // skip
var (
	deliveriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dealvoy_deliveries_total",
		Help: "Webhook delivery attempts by outcome.",
	}, []string{"outcome"})

	scoutRunsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dealvoy_scout_runs_total",
		Help: "Completed scout scan cycles.",
	})

	scoutOpportunitiesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dealvoy_scout_opportunities_total",
		Help: "Arbitrage opportunities dispatched by the scout.",
	})
)
