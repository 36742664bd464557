package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseAppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
schema_version: 1
floureon:
  login: "+49-1234"
  password: secret
  device: by-t03-00-11-22
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Core.GRPCAddr != DefaultGRPCAddr || cfg.Core.HTTPAddr != DefaultHTTPAddr {
		t.Fatalf("unexpected listen defaults: %+v", cfg.Core)
	}
	if cfg.Core.PollIntervalSeconds != DefaultPollIntervalSeconds {
		t.Fatalf("unexpected poll interval: %d", cfg.Core.PollIntervalSeconds)
	}
	if cfg.Session.StateDir != DefaultSessionStateDir {
		t.Fatalf("unexpected state dir: %s", cfg.Session.StateDir)
	}
	if cfg.Session.BlobEnabled() {
		t.Fatalf("blob mirroring should be off without endpoint")
	}
	if cfg.Floureon.Transport != "https" {
		t.Fatalf("unexpected transport default: %s", cfg.Floureon.Transport)
	}
	if cfg.Floureon.Device != "by-t03-00-11-22" {
		t.Fatalf("unexpected device: %s", cfg.Floureon.Device)
	}
	if !EnabledPlugins(cfg)["floureon"] {
		t.Fatalf("expected floureon enabled")
	}
}

func TestParseRejectsBadConfig(t *testing.T) {
	cases := map[string]string{
		"schema":    "schema_version: 2\n",
		"transport": "schema_version: 1\nfloureon:\n  transport: carrier-pigeon\n",
		"blob keys": "schema_version: 1\nsession:\n  blob_endpoint: https://s3.local\n  blob_bucket: gohome\n",
		"relative":  "schema_version: 1\nsession:\n  state_dir: sessions\n",
	}
	for name, doc := range cases {
		if _, err := Parse([]byte(doc)); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}

func TestParseDoesNotRequireFloureonCredentials(t *testing.T) {
	cfg, err := Parse([]byte("schema_version: 1\nfloureon:\n  name: Hall\n"))
	if err != nil {
		t.Fatalf("credentials are checked by the plugin, got %v", err)
	}
	if cfg.Floureon.Login != "" {
		t.Fatalf("unexpected login: %q", cfg.Floureon.Login)
	}
}

func TestLoadAndReadSecretFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("schema_version: 1\ncore:\n  grpc_addr: 127.0.0.1:9100\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Core.GRPCAddr != "127.0.0.1:9100" {
		t.Fatalf("unexpected grpc addr: %s", cfg.Core.GRPCAddr)
	}
	if len(EnabledPlugins(cfg)) != 0 {
		t.Fatalf("expected no plugins enabled")
	}

	secret := filepath.Join(dir, "password")
	if err := os.WriteFile(secret, []byte("hunter2\n"), 0o600); err != nil {
		t.Fatalf("write secret: %v", err)
	}
	value, err := ReadSecretFile(secret)
	if err != nil || value != "hunter2" {
		t.Fatalf("unexpected secret %q err=%v", value, err)
	}

	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil || !strings.Contains(err.Error(), "read config") {
		t.Fatalf("expected read error, got %v", err)
	}
}
