package core

import (
	"fmt"
	"os"
	"path/filepath"
)

const dashboardsPrefix = "/dashboards/"

// DashboardPath is the HTTP path a plugin dashboard is served under.
func DashboardPath(pluginID, name string) string {
	return dashboardsPrefix + pluginID + "/" + name + ".json"
}

// DashboardsMap indexes every plugin dashboard by its HTTP path.
func DashboardsMap(plugins []Plugin) map[string][]byte {
	result := make(map[string][]byte)
	for _, plugin := range plugins {
		id := plugin.Manifest().PluginID
		for _, dash := range plugin.Dashboards() {
			result[DashboardPath(id, dash.Name)] = dash.JSON
		}
	}
	return result
}

// WriteDashboards writes dashboards under dir/<plugin>/<name>.json for
// Grafana file provisioning. Files are replaced via rename so Grafana never
// reads a partial document.
func WriteDashboards(dir string, plugins []Plugin) error {
	if dir == "" {
		return nil
	}

	for _, plugin := range plugins {
		pluginDir := filepath.Join(dir, plugin.Manifest().PluginID)
		for _, dash := range plugin.Dashboards() {
			if err := os.MkdirAll(pluginDir, 0o755); err != nil {
				return fmt.Errorf("create dashboard dir: %w", err)
			}
			path := filepath.Join(pluginDir, dash.Name+".json")
			tmp := path + ".tmp"
			if err := os.WriteFile(tmp, dash.JSON, 0o644); err != nil {
				return fmt.Errorf("write dashboard %s: %w", path, err)
			}
			if err := os.Rename(tmp, path); err != nil {
				return fmt.Errorf("replace dashboard %s: %w", path, err)
			}
		}
	}

	return nil
}
