package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// MetricsHandler exposes the Prometheus registry. A failing collector is
// logged and skipped instead of failing the whole scrape.
func MetricsHandler(registry *prometheus.Registry) http.Handler {
	return promhttp.InstrumentMetricHandler(registry, promhttp.HandlerFor(registry, promhttp.HandlerOpts{
		ErrorLog:      promLogger{},
		ErrorHandling: promhttp.ContinueOnError,
		Registry:      registry,
	}))
}

type promLogger struct{}

func (promLogger) Println(v ...interface{}) {
	log.Warn().Msgf("metrics: %v", v)
}
