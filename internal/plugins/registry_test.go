package plugins

import (
	"testing"

	"github.com/joshp123/gohome-floureon/internal/config"
)

func TestCompiledSkipsUnconfigured(t *testing.T) {
	if got := Compiled(nil); got != nil {
		t.Fatalf("expected nil without config, got %v", got)
	}
	if got := Compiled(&config.Config{}); len(got) != 0 {
		t.Fatalf("expected no plugins without sections, got %d", len(got))
	}
}

func TestCompiledBuildsFloureon(t *testing.T) {
	cfg := &config.Config{Floureon: &config.FloureonConfig{Name: "Hall"}}
	got := Compiled(cfg)
	if len(got) != 1 || got[0].ID() != "floureon" {
		t.Fatalf("expected floureon plugin, got %v", got)
	}
}
