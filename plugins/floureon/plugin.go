package floureon

import (
	_ "embed"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"google.golang.org/grpc"

	"github.com/joshp123/gohome-floureon/internal/config"
	"github.com/joshp123/gohome-floureon/internal/core"
	"github.com/joshp123/gohome-floureon/internal/rate"
	"github.com/joshp123/gohome-floureon/internal/session"
	"github.com/joshp123/gohome-floureon/internal/weback"
)

//go:embed AGENTS.md
var agentsMD string

//go:embed dashboard.json
var dashboardJSON []byte

const pluginID = "floureon"

// Plugin implements the GoHome plugin contract.
type Plugin struct {
	thermostat    *Thermostat
	client        *weback.Client
	health        core.HealthStatus
	healthMessage string
}

var (
	_ core.Plugin         = Plugin{}
	_ core.EntityProvider = Plugin{}
)

// NewPlugin constructs the thermostat plugin from config. The bool reports
// whether the plugin is configured at all.
func NewPlugin(cfg *config.Config) (Plugin, bool) {
	if cfg == nil || cfg.Floureon == nil {
		return Plugin{}, false
	}

	runtimeCfg, err := ConfigFromYAML(cfg.Floureon)
	if err != nil {
		log.Error().Err(err).Str("plugin", pluginID).Msg("invalid config")
		return Plugin{health: core.HealthError, healthMessage: err.Error()}, true
	}

	client, err := newClient(runtimeCfg, cfg.Session)
	if err != nil {
		log.Error().Err(err).Str("plugin", pluginID).Msg("init weback client")
		return Plugin{health: core.HealthError, healthMessage: err.Error()}, true
	}

	device := NewDevice(client, runtimeCfg.Device)
	return Plugin{
		thermostat: NewThermostat(runtimeCfg.Name, device),
		client:     client,
		health:     core.HealthHealthy,
	}, true
}

// NewPluginWithClient builds a plugin around an existing shadow client.
func NewPluginWithClient(name, deviceName string, client ShadowClient) Plugin {
	if name == "" {
		name = DefaultName
	}
	return Plugin{
		thermostat: NewThermostat(name, NewDevice(client, deviceName)),
		health:     core.HealthHealthy,
	}
}

func newClient(cfg Config, sessionCfg *config.SessionConfig) (*weback.Client, error) {
	httpClient := rate.WrapHTTP(rate.Provider(pluginID), &http.Client{Timeout: 15 * time.Second})
	login := &weback.LoginSource{
		URL:        cfg.LoginURL,
		Login:      cfg.Login,
		Password:   cfg.Password,
		HTTPClient: httpClient,
	}

	stateDir := config.DefaultSessionStateDir
	if sessionCfg != nil && sessionCfg.StateDir != "" {
		stateDir = sessionCfg.StateDir
	}
	blobStore, err := session.NewBlobStore(sessionCfg)
	if err != nil {
		return nil, fmt.Errorf("session blob store: %w", err)
	}
	manager, err := session.NewManager(session.Declaration{
		Provider:  pluginID,
		StatePath: session.StatePathFor(stateDir, pluginID),
		ExtraKeys: []string{weback.ExtraIdentityID, weback.ExtraRegion, weback.ExtraEndpoint},
	}, login, blobStore)
	if err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}

	return weback.New(weback.Options{
		Session:    manager,
		Transport:  cfg.Transport,
		Endpoint:   cfg.Endpoint,
		HTTPClient: httpClient,
	})
}

func (p Plugin) ID() string {
	return pluginID
}

func (p Plugin) Manifest() core.Manifest {
	return core.Manifest{
		PluginID:    pluginID,
		DisplayName: "Floureon Thermostat",
		Version:     "0.1.0",
		Services:    []string{ServiceName},
	}
}

func (p Plugin) AgentsMD() string {
	return agentsMD
}

func (p Plugin) Dashboards() []core.Dashboard {
	return []core.Dashboard{{Name: "floureon-overview", JSON: dashboardJSON}}
}

func (p Plugin) RegisterGRPC(server *grpc.Server) {
	if err := RegisterFloureonService(server, p.thermostat); err != nil {
		log.Error().Err(err).Str("plugin", pluginID).Msg("register grpc service")
	}
}

func (p Plugin) Collectors() []prometheus.Collector {
	collectors := append(session.MetricsCollectors(), rate.MetricsCollectors()...)
	if p.thermostat == nil {
		return collectors
	}
	return append(collectors, NewMetricsCollector(p.thermostat), shadowFetches, commandPublishes)
}

func (p Plugin) Entities() []core.ClimateEntity {
	if p.thermostat == nil {
		return nil
	}
	return []core.ClimateEntity{p.thermostat}
}

// Thermostat returns the configured entity, or nil when the plugin is unhealthy.
func (p Plugin) Thermostat() *Thermostat {
	return p.thermostat
}

func (p Plugin) Health() core.HealthStatus {
	return p.health
}

func (p Plugin) HealthMessage() string {
	return p.healthMessage
}

func (p Plugin) Close() error {
	if p.client == nil {
		return nil
	}
	return p.client.Close()
}
