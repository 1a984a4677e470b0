package services

import "github.com/prometheus/client_golang/prometheus"

// upstreamCalls counts real outbound calls per upstream, which is what the
// cache exists to minimize. Cache hits do not increment it, so the hit ratio
// falls out of this counter and http_requests_total directly.
var upstreamCalls = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "upstream_requests_total",
		Help: "Total number of outbound calls per upstream API.",
	},
	[]string{"upstream"},
)

func init() {
	prometheus.MustRegister(upstreamCalls)
}
