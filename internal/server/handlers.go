package server

import (
	"encoding/json"
	"net/http"

	"github.com/joshp123/gohome-floureon/internal/core"
)

// HealthHandler returns a simple OK for liveness checks.
func HealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// ReadyHandler reports plugin health; any plugin in error makes it 503.
func ReadyHandler(plugins []core.Plugin) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		code := http.StatusOK
		out := make(map[string]map[string]string, len(plugins))
		for _, p := range plugins {
			if p.Health() == core.HealthError {
				code = http.StatusServiceUnavailable
			}
			entry := map[string]string{"status": string(p.Health())}
			if msg := p.HealthMessage(); msg != "" {
				entry["message"] = msg
			}
			out[p.ID()] = entry
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(out)
	})
}
