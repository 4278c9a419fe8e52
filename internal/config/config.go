package config

import (
	"fmt"
	"time"
)

// ConfigError represents a configuration error.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s", e.Message)
}

const (
	DefaultGatewayPort = 18789
	DefaultMaxHops     = 8
	DefaultToolTimeout = 30 * time.Second
	DefaultProvider    = "openai"
	DefaultModel       = "gpt-4o-mini"
)

// DefaultPlugins is the capability set enabled when none is configured.
var DefaultPlugins = []string{"email", "clock"}

// KnownPlugins lists every capability the assistant ships with.
var KnownPlugins = []string{"email", "alarm", "light", "clock", "template"}

// Defaults returns a Config with sensible defaults applied.
func Defaults() Config {
	cfg := Config{}
	applyDefaults(&cfg)
	return cfg
}

// applyDefaults fills zero-value fields with sensible defaults.
func applyDefaults(cfg *Config) {
	if cfg.Gateway.Port == 0 {
		cfg.Gateway.Port = DefaultGatewayPort
	}
	if cfg.Gateway.Bind == "" {
		cfg.Gateway.Bind = "loopback"
	}
	if cfg.Gateway.Auth.Mode == "" {
		cfg.Gateway.Auth.Mode = "token"
	}

	if len(cfg.Models.Providers) == 0 {
		cfg.Models.Providers = map[string]ModelProviderEntry{
			DefaultProvider: {
				API:    "openai",
				APIKey: "${OPENAI_API_KEY}",
				Model:  DefaultModel,
			},
		}
	}
	if cfg.Models.Default == "" && len(cfg.Models.Providers) == 1 {
		for name := range cfg.Models.Providers {
			cfg.Models.Default = name
		}
	}

	if cfg.Agent.Model == "" {
		cfg.Agent.Model = cfg.Models.Default
	}
	if cfg.Agent.MaxHops == 0 {
		cfg.Agent.MaxHops = DefaultMaxHops
	}
	if cfg.Agent.ToolTimeout == 0 {
		cfg.Agent.ToolTimeout = DefaultToolTimeout
	}

	if cfg.Mail.Provider == "" {
		cfg.Mail.Provider = "log"
	}
	if cfg.Plugins.Enabled == nil {
		cfg.Plugins.Enabled = append([]string(nil), DefaultPlugins...)
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.ConsoleStyle == "" {
		cfg.Logging.ConsoleStyle = "pretty"
	}
}

// PluginEnabled reports whether the named capability is enabled.
func (c *Config) PluginEnabled(name string) bool {
	for _, p := range c.Plugins.Enabled {
		if p == name {
			return true
		}
	}
	return false
}
