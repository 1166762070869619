package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	routeRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "saferoute_route_requests_total",
		Help: "Routing queries served, by outcome.",
	}, []string{"status"})

	routeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "saferoute_route_duration_seconds",
		Help:    "Wall time of routing queries.",
		Buckets: prometheus.DefBuckets,
	})
)
