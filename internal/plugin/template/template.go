// Package template is a starting point for new capabilities.
package template

import (
	"context"

	"github.com/soyeahso/assistant/internal/plugin"
	"github.com/soyeahso/assistant/internal/tool"
)

// Plugin returns fixed strings.
type Plugin struct{}

// New creates the template plugin.
func New() *Plugin { return &Plugin{} }

func (p *Plugin) ID() string                             { return "template" }
func (p *Plugin) Name() string                           { return "Template" }
func (p *Plugin) Description() string                    { return "Enter a description of your plugin here." }
func (p *Plugin) Init(context.Context, plugin.API) error { return nil }
func (p *Plugin) Close() error                           { return nil }

func (p *Plugin) Tools() []tool.Tool {
	return []tool.Tool{
		tool.Define("do_something", "Enter a description for this function here").
			Handle(func(context.Context, tool.Arguments) (any, error) {
				return "just a string", nil
			}),
		tool.Define("do_something_else", "Enter a description for this function here").
			Handle(func(context.Context, tool.Arguments) (any, error) {
				return "another string", nil
			}),
	}
}
