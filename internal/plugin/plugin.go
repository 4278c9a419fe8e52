// Package plugin groups related tools into capabilities and manages their lifecycle.
package plugin

import (
	"context"

	"github.com/soyeahso/assistant/internal/hooks"
	"github.com/soyeahso/assistant/internal/logging"
	"github.com/soyeahso/assistant/internal/tool"
)

// Plugin is a capability exposing one or more tools to the model.
type Plugin interface {
	// ID returns a unique identifier for the plugin (e.g., "email").
	ID() string

	// Name returns a human-readable name.
	Name() string

	// Description says what the capability represents.
	Description() string

	// Tools returns the tools the plugin contributes.
	Tools() []tool.Tool

	// Init starts background work such as schedules.
	Init(ctx context.Context, api API) error

	// Close shuts down the plugin and releases resources.
	Close() error
}

// API is what a plugin receives during Init.
type API struct {
	Hooks *hooks.Manager
	Log   *logging.Logger
}
