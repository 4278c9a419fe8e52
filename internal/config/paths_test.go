package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfigPath(t *testing.T) {
	tests := []struct {
		raw     string
		want    []string
		wantErr bool
	}{
		{raw: "agent.maxHops", want: []string{"agent", "maxHops"}},
		{raw: "mail", want: []string{"mail"}},
		{raw: "models.providers.openai.apiKey", want: []string{"models", "providers", "openai", "apiKey"}},
		{raw: "", wantErr: true},
		{raw: "agent..maxHops", wantErr: true},
		{raw: ".agent", wantErr: true},
		{raw: "gateway.allowed-origins", want: []string{"gateway", "allowed-origins"}},
		{raw: "agent.max hops", wantErr: true},
		{raw: "agent.1st", wantErr: true},
		{raw: "a/b", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseConfigPath(tt.raw)
			if tt.wantErr {
				var cfgErr *ConfigError
				assert.ErrorAs(t, err, &cfgErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetValueAtPath(t *testing.T) {
	root := map[string]any{
		"agent": map[string]any{"maxHops": 4},
		"mail":  "log",
	}

	v, ok := GetValueAtPath(root, []string{"agent", "maxHops"})
	assert.True(t, ok)
	assert.Equal(t, 4, v)

	_, ok = GetValueAtPath(root, []string{"agent", "missing"})
	assert.False(t, ok)

	_, ok = GetValueAtPath(root, []string{"mail", "provider"})
	assert.False(t, ok, "cannot descend into a scalar")
}

func TestSetValueAtPath(t *testing.T) {
	root := map[string]any{"mail": "scalar"}

	SetValueAtPath(root, []string{"agent", "model"}, "local")
	SetValueAtPath(root, []string{"mail", "provider"}, "gmail")
	SetValueAtPath(root, []string{"top"}, true)

	assert.Equal(t, "local", root["agent"].(map[string]any)["model"])
	assert.Equal(t, "gmail", root["mail"].(map[string]any)["provider"])
	assert.Equal(t, true, root["top"])
}

func TestUnsetValueAtPath(t *testing.T) {
	root := map[string]any{
		"agent": map[string]any{"model": "x", "maxHops": 2},
		"flag":  true,
	}

	assert.True(t, UnsetValueAtPath(root, []string{"agent", "model"}))
	assert.Equal(t, map[string]any{"maxHops": 2}, root["agent"])
	assert.False(t, UnsetValueAtPath(root, []string{"agent", "model"}))
	assert.False(t, UnsetValueAtPath(root, []string{"nope", "x"}))
	assert.False(t, UnsetValueAtPath(root, []string{"flag", "x"}))
}

func TestResolvePaths(t *testing.T) {
	t.Setenv("ASSISTANT_HOME", "")
	p, err := ResolvePaths()
	require.NoError(t, err)

	home, _ := os.UserHomeDir()
	assert.Equal(t, filepath.Join(home, ".assistant"), p.Base)
	assert.Equal(t, filepath.Join(home, ".assistant", "config.yaml"), p.Config)
}

func TestResolvePathsCustomHome(t *testing.T) {
	base := t.TempDir()
	t.Setenv("ASSISTANT_HOME", base)

	p, err := ResolvePaths()
	require.NoError(t, err)
	assert.Equal(t, base, p.Base)
	assert.Equal(t, filepath.Join(base, "config.yaml"), p.Config)
	assert.Equal(t, filepath.Join(base, "credentials"), p.Credentials)
	assert.Equal(t, filepath.Join(base, "data"), p.Data)
	assert.Equal(t, filepath.Join(base, "data", "transcripts.db"), p.Transcripts)
	assert.Equal(t, filepath.Join(base, "credentials", "gmail-token.json"), p.GmailToken)
}

func TestEnsureDirs(t *testing.T) {
	p := PathsAt(filepath.Join(t.TempDir(), "home"))
	require.NoError(t, p.EnsureDirs())
	require.NoError(t, p.EnsureDirs(), "idempotent")

	for _, d := range []string{p.Base, p.Credentials, p.Data} {
		info, err := os.Stat(d)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}
