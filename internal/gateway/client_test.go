package gateway

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soyeahso/assistant/internal/config"
	"github.com/soyeahso/assistant/internal/logging"
)

func testLog() *logging.Logger {
	return logging.New(nil, "silent")
}

func TestClientRegistry(t *testing.T) {
	reg := NewClientRegistry(testLog())
	require.NotNil(t, reg)
	assert.Equal(t, 0, reg.Count())

	reg.Add(&Client{ConnID: "conn-1", Info: ClientInfo{ID: "client-1"}})
	reg.Add(&Client{ConnID: "conn-2", Info: ClientInfo{ID: "client-2"}})
	assert.Equal(t, 2, reg.Count())

	got, ok := reg.Get("conn-1")
	require.True(t, ok)
	assert.Equal(t, "client-1", got.Info.ID)

	_, ok = reg.Get("nonexistent")
	assert.False(t, ok)

	reg.Remove("conn-1")
	reg.Remove("nonexistent")
	assert.Equal(t, 1, reg.Count())
	_, ok = reg.Get("conn-1")
	assert.False(t, ok)
}

func TestClientInflight(t *testing.T) {
	c := NewClient(nil, ClientInfo{ID: "cli"}, AuthResult{OK: true}, testLog())
	assert.NotEmpty(t, c.ConnID)

	ctx, cancel := context.WithCancel(c.Context())
	require.True(t, c.track("r1", cancel))
	assert.False(t, c.track("r1", func() {}), "duplicate id")

	assert.False(t, c.Cancel("other"))
	assert.True(t, c.Cancel("r1"))
	assert.ErrorIs(t, ctx.Err(), context.Canceled)

	c.untrack("r1")
	assert.False(t, c.Cancel("r1"), "untracked request is gone")
	c.untrack("r1")
}

func TestClientSessions(t *testing.T) {
	h := newHarness(t, nil)
	c := NewClient(nil, ClientInfo{ID: "cli"}, AuthResult{OK: true}, testLog())

	a := h.runner.StartSession(context.Background(), "")
	b := h.runner.StartSession(context.Background(), "")
	c.AddSession(a)
	c.AddSession(b)

	assert.Equal(t, 2, c.SessionCount())
	got, ok := c.Session(b.ID)
	require.True(t, ok)
	assert.Same(t, b, got)
	_, ok = c.Session("missing")
	assert.False(t, ok)

	sums := c.Sessions()
	require.Len(t, sums, 2)
	assert.Equal(t, a.ID, sums[0].ID)
	assert.Equal(t, b.ID, sums[1].ID)
}

func TestResolveBindAddr(t *testing.T) {
	tests := []struct {
		bind string
		host string
		want string
	}{
		{"loopback", "", "127.0.0.1:18789"},
		{"", "", "127.0.0.1:18789"},
		{"lan", "", "0.0.0.0:18789"},
		{"custom", "192.168.1.10", "192.168.1.10:18789"},
		{"custom", "", "0.0.0.0:18789"},
		{"custom", "::1", "[::1]:18789"},
	}
	for _, tt := range tests {
		t.Run(tt.bind+"/"+tt.host, func(t *testing.T) {
			got := resolveBindAddr(config.GatewayConfig{Bind: tt.bind, CustomBindHost: tt.host, Port: 18789})
			assert.Equal(t, tt.want, got)
		})
	}
}
