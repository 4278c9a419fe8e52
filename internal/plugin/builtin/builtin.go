// Package builtin assembles the capabilities shipped with the assistant.
package builtin

import (
	"fmt"

	"github.com/soyeahso/assistant/internal/config"
	"github.com/soyeahso/assistant/internal/mail"
	"github.com/soyeahso/assistant/internal/plugin"
	"github.com/soyeahso/assistant/internal/plugin/alarm"
	"github.com/soyeahso/assistant/internal/plugin/clock"
	"github.com/soyeahso/assistant/internal/plugin/email"
	"github.com/soyeahso/assistant/internal/plugin/light"
	"github.com/soyeahso/assistant/internal/plugin/template"
)

// Deps are the collaborators some capabilities need.
type Deps struct {
	Mail mail.Sender
}

// New returns the capability with the given id.
func New(id string, cfg *config.Config, deps Deps) (plugin.Plugin, error) {
	switch id {
	case "email":
		if deps.Mail == nil {
			return nil, fmt.Errorf("plugin email: no mail sender")
		}
		return email.New(deps.Mail, cfg.Mail.From), nil
	case "alarm":
		return alarm.New(cfg.Plugins.Alarm.Time, cfg.Plugins.Alarm.Ring), nil
	case "light":
		return light.New(false), nil
	case "clock":
		return clock.New(nil), nil
	case "template":
		return template.New(), nil
	default:
		return nil, fmt.Errorf("unknown plugin %q", id)
	}
}

// Register adds every enabled capability to reg, in configuration order.
func Register(reg *plugin.Registry, cfg *config.Config, deps Deps) error {
	for _, id := range cfg.Plugins.Enabled {
		p, err := New(id, cfg, deps)
		if err != nil {
			return err
		}
		if err := reg.Register(p); err != nil {
			return err
		}
	}
	return nil
}
