package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	dispatchRequestsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "call_dispatch",
			Name:      "requests_total",
			Help:      "Total dispatch requests by target kind and result.",
		},
		[]string{"target_kind", "result"}, // result: accepted, not_found, render_failed
	)

	callsPlacedCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "call_dispatch",
			Name:      "calls_total",
			Help:      "Total calls submitted to the telephony provider.",
		},
		[]string{"provider_name", "status"}, // status: succeeded, failed
	)

	providerRequestDurationHist = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "call_dispatch",
			Name:      "provider_request_duration_seconds",
			Help:      "Duration of call submissions to the telephony provider.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"provider_name"},
	)
)
