package plugins

import (
	"github.com/joshp123/gohome-floureon/internal/config"
	"github.com/joshp123/gohome-floureon/internal/core"
	"github.com/joshp123/gohome-floureon/plugins/floureon"
)

func init() {
	Register(func(cfg *config.Config) (core.Plugin, bool) {
		return floureon.NewPlugin(cfg)
	})
}
