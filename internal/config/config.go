package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	SchemaVersion              = 1
	DefaultPath                = "/etc/gohome/config.yaml"
	DefaultGRPCAddr            = "0.0.0.0:9000"
	DefaultHTTPAddr            = "0.0.0.0:8080"
	DefaultDashboardDir        = "/var/lib/gohome/dashboards"
	DefaultPollIntervalSeconds = 30
	DefaultSessionStateDir     = "/var/lib/gohome/sessions"
	DefaultSessionPrefix       = "gohome/sessions"
	DefaultFloureonTransport   = "https"
)

// Config is the root of config.yaml.
type Config struct {
	SchemaVersion int             `yaml:"schema_version"`
	Core          *CoreConfig     `yaml:"core"`
	Session       *SessionConfig  `yaml:"session"`
	Floureon      *FloureonConfig `yaml:"floureon"`
}

// CoreConfig holds listener and host loop settings.
type CoreConfig struct {
	GRPCAddr            string `yaml:"grpc_addr"`
	HTTPAddr            string `yaml:"http_addr"`
	DashboardDir        string `yaml:"dashboard_dir"`
	PollIntervalSeconds int    `yaml:"poll_interval_seconds"`
	LogLevel            string `yaml:"log_level"`
}

// SessionConfig controls where vendor login sessions are cached.
// The blob fields are optional; without them sessions stay local.
type SessionConfig struct {
	StateDir          string `yaml:"state_dir"`
	BlobEndpoint      string `yaml:"blob_endpoint"`
	BlobBucket        string `yaml:"blob_bucket"`
	BlobPrefix        string `yaml:"blob_prefix"`
	BlobAccessKeyFile string `yaml:"blob_access_key_file"`
	BlobSecretKeyFile string `yaml:"blob_secret_key_file"`
	BlobRegion        string `yaml:"blob_region"`
}

// BlobEnabled reports whether remote session mirroring is configured.
func (s *SessionConfig) BlobEnabled() bool {
	return s != nil && s.BlobEndpoint != "" && s.BlobBucket != ""
}

// FloureonConfig configures the Weback-cloud thermostat.
//
// Credentials are checked by the plugin, not by Validate, so a bad block
// disables only the thermostat.
type FloureonConfig struct {
	Login        string `yaml:"login"`
	Password     string `yaml:"password"`
	PasswordFile string `yaml:"password_file"`
	Device       string `yaml:"device"`
	Name         string `yaml:"name"`
	Transport    string `yaml:"transport"`
	Endpoint     string `yaml:"endpoint"`
	LoginURL     string `yaml:"login_url"`
}

// Load parses the YAML config file, applies defaults, and validates.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes config bytes, applies defaults, and validates.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Core == nil {
		cfg.Core = &CoreConfig{}
	}
	if cfg.Core.GRPCAddr == "" {
		cfg.Core.GRPCAddr = DefaultGRPCAddr
	}
	if cfg.Core.HTTPAddr == "" {
		cfg.Core.HTTPAddr = DefaultHTTPAddr
	}
	if cfg.Core.DashboardDir == "" {
		cfg.Core.DashboardDir = DefaultDashboardDir
	}
	if cfg.Core.PollIntervalSeconds == 0 {
		cfg.Core.PollIntervalSeconds = DefaultPollIntervalSeconds
	}
	if cfg.Core.LogLevel == "" {
		cfg.Core.LogLevel = "info"
	}

	if cfg.Session == nil {
		cfg.Session = &SessionConfig{}
	}
	if cfg.Session.StateDir == "" {
		cfg.Session.StateDir = DefaultSessionStateDir
	}
	if cfg.Session.BlobPrefix == "" {
		cfg.Session.BlobPrefix = DefaultSessionPrefix
	}

	if cfg.Floureon != nil && cfg.Floureon.Transport == "" {
		cfg.Floureon.Transport = DefaultFloureonTransport
	}
}

// Validate enforces required invariants beyond YAML typing.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if cfg.SchemaVersion != SchemaVersion {
		return fmt.Errorf("schema_version must be %d", SchemaVersion)
	}

	if cfg.Core == nil {
		return fmt.Errorf("core config is required")
	}
	if cfg.Core.GRPCAddr == "" {
		return fmt.Errorf("core.grpc_addr is required")
	}
	if cfg.Core.HTTPAddr == "" {
		return fmt.Errorf("core.http_addr is required")
	}
	if cfg.Core.PollIntervalSeconds < 0 {
		return fmt.Errorf("core.poll_interval_seconds must not be negative")
	}

	if cfg.Session == nil || cfg.Session.StateDir == "" {
		return fmt.Errorf("session.state_dir is required")
	}
	if !strings.HasPrefix(cfg.Session.StateDir, "/") {
		return fmt.Errorf("session.state_dir must be absolute")
	}
	if cfg.Session.BlobEnabled() {
		if cfg.Session.BlobAccessKeyFile == "" {
			return fmt.Errorf("session.blob_access_key_file is required")
		}
		if cfg.Session.BlobSecretKeyFile == "" {
			return fmt.Errorf("session.blob_secret_key_file is required")
		}
	}

	if cfg.Floureon != nil {
		switch cfg.Floureon.Transport {
		case "https", "mqtt":
		default:
			return fmt.Errorf("floureon.transport must be https or mqtt, got %q", cfg.Floureon.Transport)
		}
	}

	return nil
}

// EnabledPlugins maps enabled plugin IDs based on config presence.
func EnabledPlugins(cfg *Config) map[string]bool {
	enabled := make(map[string]bool)
	if cfg == nil {
		return enabled
	}
	if cfg.Floureon != nil {
		enabled["floureon"] = true
	}
	return enabled
}

// ReadSecretFile returns the trimmed contents of a secret file.
func ReadSecretFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
