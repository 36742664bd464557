package router

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc"

	"github.com/joshp123/gohome-floureon/internal/core"
	"github.com/joshp123/gohome-floureon/internal/server"
)

// RegisterPlugins registers plugin services and core services on the gRPC server.
func RegisterPlugins(grpcServer *grpc.Server, plugins []core.Plugin) error {
	if err := core.RegisterRegistryServer(grpcServer, core.NewRegistryService(plugins)); err != nil {
		return fmt.Errorf("register registry: %w", err)
	}

	for _, p := range plugins {
		p.RegisterGRPC(grpcServer)
	}
	return nil
}

// HTTPMux builds the HTTP surface: health, readiness, metrics, dashboards and
// any plugin routes.
func HTTPMux(plugins []core.Plugin, registry *prometheus.Registry) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", server.HealthHandler)
	mux.Handle("/readyz", server.ReadyHandler(plugins))
	mux.Handle("/metrics", server.MetricsHandler(registry))
	mux.Handle("/dashboards/", server.DashboardsHandler("/dashboards/", core.DashboardsMap(plugins)))

	for _, p := range plugins {
		if registrant, ok := p.(core.HTTPRegistrant); ok {
			registrant.RegisterHTTP(mux)
		}
	}
	return mux
}
