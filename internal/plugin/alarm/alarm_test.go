package alarm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soyeahso/assistant/internal/hooks"
	"github.com/soyeahso/assistant/internal/logging"
	"github.com/soyeahso/assistant/internal/plugin"
	"github.com/soyeahso/assistant/internal/tool"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		in     string
		hour   int
		minute int
		ok     bool
	}{
		{"07:30", 7, 30, true},
		{"7:05", 7, 5, true},
		{"11", 11, 0, true},
		{"7pm", 19, 0, true},
		{"7:45 PM", 19, 45, true},
		{" 23:59 ", 23, 59, true},
		{"tomorrow", 0, 0, false},
		{"25:00", 0, 0, false},
		{"", 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			h, m, ok := ParseClock(tt.in)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.hour, h)
				assert.Equal(t, tt.minute, m)
			}
		})
	}
}

func TestTools(t *testing.T) {
	p := New("", false)
	reg := tool.NewRegistry()
	reg.MustRegister(p.Tools()...)
	eng := tool.NewEngine(reg, 0, logging.Nop())
	ctx := context.Background()

	res := eng.Invoke(ctx, tool.CallRequest{ID: "1", Name: "get_current_alarm"})
	require.True(t, res.OK())
	assert.Equal(t, "Alarm set for 11", res.Content)

	req, err := tool.NewCallRequest("2", "set_alarm", map[string]any{"time": "06:45"})
	require.NoError(t, err)
	res = eng.Invoke(ctx, req)
	assert.Equal(t, "Alarm set for 06:45", res.Content)

	res = eng.Invoke(ctx, tool.CallRequest{ID: "3", Name: "get_current_alarm", Input: "{}"})
	assert.Equal(t, "Alarm set for 06:45", res.Content)
}

func TestSetAlarm_RequiresTime(t *testing.T) {
	reg := tool.NewRegistry()
	reg.MustRegister(New("7", false).Tools()...)
	eng := tool.NewEngine(reg, 0, logging.Nop())

	res := eng.Invoke(context.Background(), tool.CallRequest{ID: "1", Name: "set_alarm", Input: `{"time":""}`})
	assert.Equal(t, tool.ReasonInvalidArguments, res.Reason)
}

func TestRingSchedule(t *testing.T) {
	log := logging.Nop()
	p := New("07:30", true)
	require.NoError(t, p.Init(context.Background(), plugin.API{Hooks: hooks.NewManager(log), Log: log}))
	t.Cleanup(func() { _ = p.Close() })

	next, ok := p.Next()
	require.True(t, ok)
	assert.Equal(t, 7, next.Hour())
	assert.Equal(t, 30, next.Minute())
	assert.True(t, next.After(time.Now()))

	p.Set("21:15")
	next, ok = p.Next()
	require.True(t, ok)
	assert.Equal(t, 21, next.Hour())
	assert.Equal(t, 15, next.Minute())

	p.Set("whenever")
	_, ok = p.Next()
	assert.False(t, ok)
}

func TestRingDisabled(t *testing.T) {
	p := New("07:30", false)
	require.NoError(t, p.Init(context.Background(), plugin.API{Log: logging.Nop()}))
	require.NoError(t, p.Close())

	_, ok := p.Next()
	assert.False(t, ok)
}

func TestFireEmitsHook(t *testing.T) {
	log := logging.Nop()
	hm := hooks.NewManager(log)
	var got []string
	hm.On(hooks.EventAlarmRing, "test", func(_ context.Context, pl hooks.Payload) error {
		got = append(got, pl.String(hooks.KeyTime))
		return nil
	})

	p := New("06:00", false)
	require.NoError(t, p.Init(context.Background(), plugin.API{Hooks: hm, Log: log}))
	p.fire()

	assert.Equal(t, []string{"06:00"}, got)
}
