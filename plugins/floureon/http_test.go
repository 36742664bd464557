package floureon

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func serveHTTP(t *testing.T, p Plugin, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	mux := http.NewServeMux()
	p.RegisterHTTP(mux)

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestHTTPStateAndRefresh(t *testing.T) {
	client := newFakeShadowClient()
	p := NewPluginWithClient("", "by-t03-00-11-22", client)

	rec := serveHTTP(t, p, http.MethodPost, "/plugins/floureon/refresh", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh: unexpected status %d: %s", rec.Code, rec.Body.String())
	}

	rec = serveHTTP(t, p, http.MethodGet, "/plugins/floureon/state", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("state: unexpected status %d", rec.Code)
	}
	var state map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &state); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if state["name"] != DefaultName || state["current_temperature"] != 21.5 || state["hvac_mode"] != "heat" {
		t.Fatalf("unexpected state: %v", state)
	}
}

func TestHTTPCommands(t *testing.T) {
	client := newFakeShadowClient()
	p := NewPluginWithClient("Hall", "dev", client)

	rec := serveHTTP(t, p, http.MethodPut, "/plugins/floureon/temperature", `{"temperature":21.5}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("temperature: unexpected status %d: %s", rec.Code, rec.Body.String())
	}
	rec = serveHTTP(t, p, http.MethodPut, "/plugins/floureon/hvac_mode", `{"hvac_mode":"off"}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("hvac_mode: unexpected status %d: %s", rec.Code, rec.Body.String())
	}
	if cmds := client.commands(); len(cmds) != 3 || cmds[0].value != float64(43) || cmds[2].value != "off" {
		t.Fatalf("unexpected commands: %+v", cmds)
	}

	client.status = http.StatusForbidden
	rec = serveHTTP(t, p, http.MethodPut, "/plugins/floureon/temperature", `{"temperature":20}`)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502 for rejected command, got %d", rec.Code)
	}
}

func TestHTTPValidation(t *testing.T) {
	client := newFakeShadowClient()
	p := NewPluginWithClient("Hall", "dev", client)

	cases := []struct {
		path string
		body string
	}{
		{"/plugins/floureon/temperature", `{}`},
		{"/plugins/floureon/temperature", `{"temperature":"warm"}`},
		{"/plugins/floureon/temperature", `{"temperature":14.5}`},
		{"/plugins/floureon/temperature", `{"temperature":30.5}`},
		{"/plugins/floureon/hvac_mode", `{"hvac_mode":"cool"}`},
		{"/plugins/floureon/hvac_mode", `not json`},
	}
	for _, tc := range cases {
		rec := serveHTTP(t, p, http.MethodPut, tc.path, tc.body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s %s: expected 400, got %d", tc.path, tc.body, rec.Code)
		}
	}
	if len(client.commands()) != 0 {
		t.Fatalf("invalid requests must not publish")
	}
}

func TestHTTPUnconfigured(t *testing.T) {
	rec := serveHTTP(t, Plugin{}, http.MethodGet, "/plugins/floureon/state", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}
