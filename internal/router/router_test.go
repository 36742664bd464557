package router

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"

	"github.com/joshp123/gohome-floureon/internal/config"
	"github.com/joshp123/gohome-floureon/internal/core"
	"github.com/joshp123/gohome-floureon/plugins/floureon"
)

type nopShadowClient struct{}

func (nopShadowClient) GetThingShadow(context.Context, string) ([]byte, error) {
	return []byte(`{"state":{"reported":{"air_tem":200,"set_tem":40,"working_status":"off"}}}`), nil
}

func (nopShadowClient) Publish(context.Context, string, int32, []byte) (int, error) {
	return http.StatusOK, nil
}

func testPlugins() []core.Plugin {
	return []core.Plugin{floureon.NewPluginWithClient("Hall", "dev", nopShadowClient{})}
}

func TestRegisterPluginsServesRegistryAndPlugin(t *testing.T) {
	listener := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	if err := RegisterPlugins(srv, testPlugins()); err != nil {
		t.Fatalf("RegisterPlugins: %v", err)
	}
	go func() { _ = srv.Serve(listener) }()
	defer srv.Stop()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return listener.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	list, err := core.NewRegistryClient(conn).ListPlugins(context.Background())
	if err != nil {
		t.Fatalf("ListPlugins: %v", err)
	}
	if n := len(list.Fields["plugins"].GetListValue().GetValues()); n != 1 {
		t.Fatalf("expected one plugin, got %d", n)
	}

	state, err := floureon.NewServiceClient(conn).Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if state.Fields["current_temperature"].GetNumberValue() != 20 {
		t.Fatalf("unexpected state: %v", state)
	}
}

func TestHTTPMuxRoutes(t *testing.T) {
	plugins := testPlugins()
	mux := HTTPMux(plugins, core.MetricsRegistry(plugins))

	cases := map[string]int{
		"/healthz":                                    http.StatusOK,
		"/readyz":                                     http.StatusOK,
		"/metrics":                                    http.StatusOK,
		"/dashboards/":                                http.StatusOK,
		"/dashboards/floureon/floureon-overview.json": http.StatusOK,
		"/dashboards/floureon/missing":                http.StatusNotFound,
		"/plugins/floureon/state":                     http.StatusOK,
	}
	for path, want := range cases {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != want {
			t.Fatalf("%s: expected %d, got %d", path, want, rec.Code)
		}
	}
}

func TestReadyzReportsPluginErrors(t *testing.T) {
	broken, _ := floureon.NewPlugin(&config.Config{Floureon: &config.FloureonConfig{Login: "user"}})
	mux := HTTPMux([]core.Plugin{broken}, prometheus.NewRegistry())

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	var body map[string]map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode readyz: %v", err)
	}
	if body["floureon"]["status"] != string(core.HealthError) || body["floureon"]["message"] == "" {
		t.Fatalf("unexpected readyz body: %v", body)
	}
}
