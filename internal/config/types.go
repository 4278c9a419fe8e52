package config

import "time"

// Config is the root configuration for the assistant.
type Config struct {
	Gateway GatewayConfig `yaml:"gateway,omitempty"`
	Models  ModelsConfig  `yaml:"models,omitempty"`
	Agent   AgentConfig   `yaml:"agent,omitempty"`
	Mail    MailConfig    `yaml:"mail,omitempty"`
	Plugins PluginsConfig `yaml:"plugins,omitempty"`
	Store   StoreConfig   `yaml:"store,omitempty"`
	Logging LoggingConfig `yaml:"logging,omitempty"`
}

// GatewayConfig controls the WebSocket gateway server.
type GatewayConfig struct {
	Port           int         `yaml:"port,omitempty"`
	Bind           string      `yaml:"bind,omitempty"` // "loopback" | "lan" | "custom"
	CustomBindHost string      `yaml:"customBindHost,omitempty"`
	AllowedOrigins []string    `yaml:"allowedOrigins,omitempty"` // browser origins allowed to open /ws
	Auth           GatewayAuth `yaml:"auth,omitempty"`
}

// GatewayAuth configures gateway authentication.
type GatewayAuth struct {
	Mode     string `yaml:"mode,omitempty"` // "token" | "password" | "none"
	Token    string `yaml:"token,omitempty"`
	Password string `yaml:"password,omitempty"`
}

// ModelsConfig declares the model providers the assistant may talk to.
type ModelsConfig struct {
	Default   string                        `yaml:"default,omitempty"` // provider used when a model reference matches nothing
	Providers map[string]ModelProviderEntry `yaml:"providers,omitempty"`
}

// ModelProviderEntry describes one OpenAI-compatible endpoint.
type ModelProviderEntry struct {
	API        string            `yaml:"api"` // "openai" | "azure" | "ollama"
	BaseURL    string            `yaml:"baseUrl,omitempty"`
	APIKey     string            `yaml:"apiKey,omitempty"`
	Auth       string            `yaml:"auth,omitempty"` // "api-key" | "entra" | "none"
	Model      string            `yaml:"model,omitempty"`
	Deployment string            `yaml:"deployment,omitempty"` // azure only
	APIVersion string            `yaml:"apiVersion,omitempty"` // azure only
	Headers    map[string]string `yaml:"headers,omitempty"`
	Aliases    []string          `yaml:"aliases,omitempty"`
}

// AgentConfig tunes the orchestration loop.
type AgentConfig struct {
	Model         string        `yaml:"model,omitempty"`
	SystemPrompt  string        `yaml:"systemPrompt,omitempty"`
	MaxHops       int           `yaml:"maxHops,omitempty"`
	ToolTimeout   time.Duration `yaml:"toolTimeout,omitempty"`
	ParallelTools bool          `yaml:"parallelTools,omitempty"`
	MaxTokens     int           `yaml:"maxTokens,omitempty"`
	Temperature   *float64      `yaml:"temperature,omitempty"`
}

// MailConfig selects how outgoing email is delivered.
type MailConfig struct {
	Provider        string `yaml:"provider,omitempty"` // "log" | "gmail"
	From            string `yaml:"from,omitempty"`
	CredentialsFile string `yaml:"credentialsFile,omitempty"`
	TokenFile       string `yaml:"tokenFile,omitempty"`
}

// PluginsConfig selects the capabilities exposed to the model.
type PluginsConfig struct {
	Enabled []string    `yaml:"enabled,omitempty"`
	Alarm   AlarmConfig `yaml:"alarm,omitempty"`
}

// AlarmConfig configures the alarm capability.
type AlarmConfig struct {
	Time string `yaml:"time,omitempty"` // initial alarm, e.g. "07:00"
	Ring bool   `yaml:"ring,omitempty"` // schedule a daily ring at the alarm time
}

// StoreConfig controls the transcript store.
type StoreConfig struct {
	Disabled bool   `yaml:"disabled,omitempty"`
	Path     string `yaml:"path,omitempty"` // sqlite file; ":memory:" keeps transcripts in process
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level        string `yaml:"level,omitempty"`        // "silent" | "fatal" | "error" | "warn" | "info" | "debug" | "trace"
	ConsoleStyle string `yaml:"consoleStyle,omitempty"` // "pretty" | "compact" | "json"
}
