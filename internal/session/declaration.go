package session

import (
	"fmt"
	"path/filepath"
)

// Declaration describes how a provider's login session is cached.
type Declaration struct {
	Provider  string
	StatePath string
	// ExtraKeys lists the token extra fields that must survive a restart.
	ExtraKeys []string
}

// StatePathFor returns the state file for a provider inside dir.
func StatePathFor(dir, provider string) string {
	return filepath.Join(dir, provider+"-session.json")
}

func (d Declaration) validate() error {
	if d.Provider == "" {
		return fmt.Errorf("provider is required")
	}
	if d.StatePath == "" {
		return fmt.Errorf("statePath is required")
	}
	if !filepath.IsAbs(d.StatePath) {
		return fmt.Errorf("statePath must be absolute")
	}
	return nil
}
