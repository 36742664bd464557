package server

import (
	"encoding/json"
	"net/http"
	"sort"
)

// DashboardsHandler serves dashboard JSON from an in-memory map. The prefix
// itself returns the sorted list of available dashboard paths.
func DashboardsHandler(prefix string, dashboards map[string][]byte) http.Handler {
	index := make([]string, 0, len(dashboards))
	for path := range dashboards {
		index = append(index, path)
	}
	sort.Strings(index)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == prefix {
			_ = json.NewEncoder(w).Encode(map[string]any{"dashboards": index})
			return
		}
		if data, ok := dashboards[r.URL.Path]; ok {
			_, _ = w.Write(data)
			return
		}

		http.NotFound(w, r)
	})
}
