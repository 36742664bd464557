package rate

import "github.com/prometheus/client_golang/prometheus"

var (
	requestsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gohome_rate_limit_requests_total",
			Help: "Vendor requests by outcome (ok, throttled, error)",
		},
		[]string{"provider", "outcome"},
	)
	throttledCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gohome_rate_limit_throttled_total",
			Help: "Vendor responses signalling throttling (429 or 503)",
		},
		[]string{"provider", "status"},
	)
	retryAfterGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gohome_rate_limit_retry_after_seconds",
			Help: "Retry-After advertised by the last throttled response",
		},
		[]string{"provider"},
	)
	lastStatusGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gohome_rate_limit_last_status_code",
			Help: "Last HTTP status code observed by the rate-limit wrapper",
		},
		[]string{"provider"},
	)
)

// MetricsCollectors exposes shared rate-limit collectors.
func MetricsCollectors() []prometheus.Collector {
	return []prometheus.Collector{
		requestsCounter,
		throttledCounter,
		retryAfterGauge,
		lastStatusGauge,
	}
}
