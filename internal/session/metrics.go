package session

import "github.com/prometheus/client_golang/prometheus"

var (
	loginSuccess = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gohome_session_login_success_total",
			Help: "Successful vendor logins",
		},
		[]string{"provider"},
	)
	loginFailure = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gohome_session_login_failure_total",
			Help: "Failed vendor logins",
		},
		[]string{"provider"},
	)
	tokenValid = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gohome_session_token_valid",
			Help: "Whether a usable session token is held (1=yes, 0=no)",
		},
		[]string{"provider"},
	)
	remotePersistOK = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gohome_session_remote_persist_ok",
			Help: "Whether the last session mirror to blob storage succeeded",
		},
		[]string{"provider"},
	)
)

// MetricsCollectors exposes shared session collectors.
func MetricsCollectors() []prometheus.Collector {
	return []prometheus.Collector{
		loginSuccess,
		loginFailure,
		tokenValid,
		remotePersistOK,
	}
}
