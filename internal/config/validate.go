package config

import (
	"fmt"
	"slices"
	"sort"
	"strings"
)

// ValidationIssue describes a problem with a config value.
type ValidationIssue struct {
	Path    string
	Message string
}

func (v ValidationIssue) String() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// Validate checks a Config for issues. Returns nil if valid.
func Validate(cfg *Config) []ValidationIssue {
	var issues []ValidationIssue
	add := func(path, format string, args ...any) {
		issues = append(issues, ValidationIssue{Path: path, Message: fmt.Sprintf(format, args...)})
	}

	// Gateway
	if cfg.Gateway.Port < 0 || cfg.Gateway.Port > 65535 {
		add("gateway.port", "port must be 0-65535, got %d", cfg.Gateway.Port)
	}
	validBinds := []string{"loopback", "lan", "custom"}
	if cfg.Gateway.Bind != "" && !slices.Contains(validBinds, cfg.Gateway.Bind) {
		add("gateway.bind", "must be one of %v, got %q", validBinds, cfg.Gateway.Bind)
	}
	if cfg.Gateway.Bind == "custom" && cfg.Gateway.CustomBindHost == "" {
		add("gateway.customBindHost", "required when bind is custom")
	}
	validAuthModes := []string{"token", "password", "none"}
	if cfg.Gateway.Auth.Mode != "" && !slices.Contains(validAuthModes, cfg.Gateway.Auth.Mode) {
		add("gateway.auth.mode", "must be one of %v, got %q", validAuthModes, cfg.Gateway.Auth.Mode)
	}

	// Models
	names := make([]string, 0, len(cfg.Models.Providers))
	for name := range cfg.Models.Providers {
		names = append(names, name)
	}
	sort.Strings(names)
	validAPIs := []string{"openai", "azure", "ollama"}
	validAuth := []string{"", "api-key", "entra", "none"}
	for _, name := range names {
		p := cfg.Models.Providers[name]
		path := "models.providers." + name
		if !slices.Contains(validAPIs, p.API) {
			add(path+".api", "must be one of %v, got %q", validAPIs, p.API)
		}
		if !slices.Contains(validAuth, p.Auth) {
			add(path+".auth", "must be one of %v, got %q", validAuth[1:], p.Auth)
		}
		switch p.API {
		case "azure":
			if p.BaseURL == "" {
				add(path+".baseUrl", "required for azure")
			}
			if p.Deployment == "" {
				add(path+".deployment", "required for azure")
			}
		case "openai":
			if p.Model == "" {
				add(path+".model", "required")
			}
		case "ollama":
			if p.Model == "" {
				add(path+".model", "required")
			}
		}
		if p.Auth != "none" && p.Auth != "entra" && p.API != "ollama" && unresolved(p.APIKey) {
			add(path+".apiKey", "required for %s", p.API)
		}
	}
	if cfg.Models.Default != "" {
		if _, ok := cfg.Models.Providers[cfg.Models.Default]; !ok {
			add("models.default", "unknown provider %q", cfg.Models.Default)
		}
	}

	// Agent
	if cfg.Agent.MaxHops < 0 {
		add("agent.maxHops", "must be positive, got %d", cfg.Agent.MaxHops)
	}
	if cfg.Agent.ToolTimeout < 0 {
		add("agent.toolTimeout", "must be positive, got %s", cfg.Agent.ToolTimeout)
	}
	if cfg.Agent.Temperature != nil && (*cfg.Agent.Temperature < 0 || *cfg.Agent.Temperature > 2) {
		add("agent.temperature", "must be 0-2, got %g", *cfg.Agent.Temperature)
	}
	if cfg.Agent.MaxTokens < 0 {
		add("agent.maxTokens", "must be positive, got %d", cfg.Agent.MaxTokens)
	}

	// Mail
	validMail := []string{"log", "gmail"}
	if cfg.Mail.Provider != "" && !slices.Contains(validMail, cfg.Mail.Provider) {
		add("mail.provider", "must be one of %v, got %q", validMail, cfg.Mail.Provider)
	}
	if cfg.Mail.Provider == "gmail" && cfg.Mail.CredentialsFile == "" {
		add("mail.credentialsFile", "required when provider is gmail")
	}

	// Plugins
	seen := map[string]bool{}
	for _, p := range cfg.Plugins.Enabled {
		if !slices.Contains(KnownPlugins, p) {
			add("plugins.enabled", "unknown plugin %q (known: %s)", p, strings.Join(KnownPlugins, ", "))
		}
		if seen[p] {
			add("plugins.enabled", "plugin %q listed twice", p)
		}
		seen[p] = true
	}

	// Logging
	validLogLevels := []string{"silent", "fatal", "error", "warn", "info", "debug", "trace"}
	if cfg.Logging.Level != "" && !slices.Contains(validLogLevels, cfg.Logging.Level) {
		add("logging.level", "must be one of %v, got %q", validLogLevels, cfg.Logging.Level)
	}
	validConsoleStyles := []string{"pretty", "compact", "json"}
	if cfg.Logging.ConsoleStyle != "" && !slices.Contains(validConsoleStyles, cfg.Logging.ConsoleStyle) {
		add("logging.consoleStyle", "must be one of %v, got %q", validConsoleStyles, cfg.Logging.ConsoleStyle)
	}

	return issues
}

// unresolved reports whether a secret is empty or still an unexpanded ${VAR}.
func unresolved(s string) bool {
	return s == "" || envVarPattern.MatchString(s)
}
