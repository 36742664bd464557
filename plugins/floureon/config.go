package floureon

import (
	"fmt"
	"strings"

	"github.com/joshp123/gohome-floureon/internal/config"
	"github.com/joshp123/gohome-floureon/internal/weback"
)

const DefaultName = "Floureon Thermostat"

// Config defines runtime configuration for one thermostat.
type Config struct {
	Login     string
	Password  string
	Device    string
	Name      string
	Transport string
	Endpoint  string
	LoginURL  string
}

func ConfigFromYAML(cfg *config.FloureonConfig) (Config, error) {
	if cfg == nil {
		return Config{}, fmt.Errorf("floureon config is required")
	}

	login := strings.TrimSpace(cfg.Login)
	if login == "" {
		return Config{}, fmt.Errorf("invalid login")
	}

	password := cfg.Password
	if password == "" && cfg.PasswordFile != "" {
		value, err := config.ReadSecretFile(cfg.PasswordFile)
		if err != nil {
			return Config{}, fmt.Errorf("read password_file: %w", err)
		}
		password = value
	}
	if password == "" {
		return Config{}, fmt.Errorf("invalid password")
	}

	device := strings.TrimSpace(cfg.Device)
	if device == "" {
		return Config{}, fmt.Errorf("invalid device")
	}

	name := strings.TrimSpace(cfg.Name)
	if name == "" {
		name = DefaultName
	}

	transport := cfg.Transport
	if transport == "" {
		transport = weback.TransportHTTPS
	}

	loginURL := strings.TrimSpace(cfg.LoginURL)
	if loginURL == "" {
		loginURL = weback.DefaultLoginURL
	}

	return Config{
		Login:     login,
		Password:  password,
		Device:    device,
		Name:      name,
		Transport: transport,
		Endpoint:  strings.TrimSpace(cfg.Endpoint),
		LoginURL:  loginURL,
	}, nil
}
