// Package light exposes a switchable light bulb.
package light

import (
	"context"
	"sync"

	"github.com/soyeahso/assistant/internal/plugin"
	"github.com/soyeahso/assistant/internal/tool"
)

// State is returned by the switching tools.
type State struct {
	TurnedOn bool `json:"turnedOn"`
}

// Plugin is a single light bulb.
type Plugin struct {
	mu sync.Mutex
	on bool
}

// New creates the light in the given state.
func New(turnedOn bool) *Plugin {
	return &Plugin{on: turnedOn}
}

func (p *Plugin) ID() string                             { return "light" }
func (p *Plugin) Name() string                           { return "Light" }
func (p *Plugin) Description() string                    { return "Represents a light bulb" }
func (p *Plugin) Init(context.Context, plugin.API) error { return nil }
func (p *Plugin) Close() error                           { return nil }

func (p *Plugin) Tools() []tool.Tool {
	return []tool.Tool{
		tool.Define("is_turned_on", "Returns whether this light is on").
			Returns("true when the light is on").
			Handle(func(context.Context, tool.Arguments) (any, error) {
				return p.IsOn(), nil
			}),
		tool.Define("turn_on", "Turn on this light").
			Returns("the new state of the light").
			Handle(func(context.Context, tool.Arguments) (any, error) {
				return p.set(true), nil
			}),
		tool.Define("turn_off", "Turn off this light").
			Returns("the new state of the light").
			Handle(func(context.Context, tool.Arguments) (any, error) {
				return p.set(false), nil
			}),
	}
}

// IsOn reports the current state.
func (p *Plugin) IsOn() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.on
}

func (p *Plugin) set(on bool) State {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.on = on
	return State{TurnedOn: on}
}
