package config

import (
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// envVarPattern matches ${VAR_NAME} patterns in strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnvVars replaces ${VAR} patterns with environment variable values.
// Unset variables are left unchanged.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val, ok := os.LookupEnv(varName); ok {
			return val
		}
		return match
	})
}

// expandSensitiveFields resolves ${ENV_VAR} references in credential fields.
func expandSensitiveFields(cfg *Config) {
	cfg.Gateway.Auth.Token = expandEnvVars(cfg.Gateway.Auth.Token)
	cfg.Gateway.Auth.Password = expandEnvVars(cfg.Gateway.Auth.Password)
	for name, provider := range cfg.Models.Providers {
		provider.APIKey = expandEnvVars(provider.APIKey)
		provider.BaseURL = expandEnvVars(provider.BaseURL)
		for k, v := range provider.Headers {
			provider.Headers[k] = expandEnvVars(v)
		}
		cfg.Models.Providers[name] = provider
	}
	cfg.Mail.From = expandEnvVars(cfg.Mail.From)
	cfg.Mail.CredentialsFile = expandEnvVars(cfg.Mail.CredentialsFile)
	cfg.Mail.TokenFile = expandEnvVars(cfg.Mail.TokenFile)
}

// LoadDotEnv loads .env files from the working directory and from dir.
// Variables already present in the environment win. Missing files are
// skipped.
func LoadDotEnv(dir string) error {
	candidates := []string{".env"}
	if dir != "" {
		candidates = append(candidates, filepath.Join(dir, ".env"))
	}
	for _, f := range candidates {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return &ConfigError{Message: "failed to load " + f + ": " + err.Error()}
		}
	}
	return nil
}

// Load reads the config file, applies .env secrets and environment
// overrides, and returns a merged Config. A missing file produces defaults.
func Load(path string) (Config, error) {
	if err := LoadDotEnv(filepath.Dir(path)); err != nil {
		return Defaults(), err
	}

	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return Defaults(), err
	}
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Defaults(), &ConfigError{Message: "failed to parse config: " + err.Error()}
		}
	}

	applyEnvOverrides(&cfg)
	applyDefaults(&cfg)
	expandSensitiveFields(&cfg)
	return cfg, nil
}

// LoadRaw reads the config file into a generic map for path-based access.
func LoadRaw(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]any{}, nil
		}
		return nil, err
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &ConfigError{Message: "failed to parse config: " + err.Error()}
	}
	if raw == nil {
		raw = map[string]any{}
	}
	return raw, nil
}

// SaveRaw writes a generic map back to a YAML config file.
func SaveRaw(path string, raw map[string]any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	data, err := yaml.Marshal(raw)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// Marshal renders cfg as YAML with secrets redacted.
func Marshal(cfg Config) ([]byte, error) {
	redacted := cfg
	redacted.Gateway.Auth.Token = redact(cfg.Gateway.Auth.Token)
	redacted.Gateway.Auth.Password = redact(cfg.Gateway.Auth.Password)
	redacted.Models.Providers = make(map[string]ModelProviderEntry, len(cfg.Models.Providers))
	for name, p := range cfg.Models.Providers {
		p.APIKey = redact(p.APIKey)
		redacted.Models.Providers[name] = p
	}
	return yaml.Marshal(redacted)
}

func redact(s string) string {
	if s == "" || envVarPattern.MatchString(s) {
		return s
	}
	return "********"
}

// applyEnvOverrides reads ASSISTANT_* environment variables and overrides config values.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("ASSISTANT_GATEWAY_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Gateway.Port = port
		}
	}
	if v := os.Getenv("ASSISTANT_GATEWAY_BIND"); v != "" {
		cfg.Gateway.Bind = v
	}
	if v := os.Getenv("ASSISTANT_GATEWAY_TOKEN"); v != "" {
		cfg.Gateway.Auth.Token = v
	}
	if v := os.Getenv("ASSISTANT_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv("ASSISTANT_MODEL"); v != "" {
		cfg.Agent.Model = v
	}
	if v := os.Getenv("ASSISTANT_MAX_HOPS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Agent.MaxHops = n
		}
	}
	if v := os.Getenv("ASSISTANT_TOOL_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Agent.ToolTimeout = d
		}
	}
	if v := os.Getenv("ASSISTANT_MAIL_PROVIDER"); v != "" {
		cfg.Mail.Provider = strings.ToLower(v)
	}
}
