// Package clock exposes the current time.
package clock

import (
	"context"
	"time"

	"github.com/soyeahso/assistant/internal/plugin"
	"github.com/soyeahso/assistant/internal/tool"
)

// Plugin answers with the current time.
type Plugin struct {
	now func() time.Time
}

// New creates the clock. A nil now uses time.Now.
func New(now func() time.Time) *Plugin {
	if now == nil {
		now = time.Now
	}
	return &Plugin{now: now}
}

func (p *Plugin) ID() string                             { return "clock" }
func (p *Plugin) Name() string                           { return "Clock" }
func (p *Plugin) Description() string                    { return "Tells the current time" }
func (p *Plugin) Init(context.Context, plugin.API) error { return nil }
func (p *Plugin) Close() error                           { return nil }

func (p *Plugin) Tools() []tool.Tool {
	return []tool.Tool{
		tool.Define("time", "Gets the current date and time").
			Returns("the current local time in RFC 3339 format").
			Handle(func(context.Context, tool.Arguments) (any, error) {
				return p.now().Format(time.RFC3339), nil
			}),
	}
}
