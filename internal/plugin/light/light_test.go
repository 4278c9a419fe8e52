package light

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soyeahso/assistant/internal/logging"
	"github.com/soyeahso/assistant/internal/tool"
)

func invoke(t *testing.T, eng *tool.Engine, name string) string {
	t.Helper()
	res := eng.Invoke(context.Background(), tool.CallRequest{ID: name, Name: name})
	require.True(t, res.OK(), res.Content)
	return res.Content
}

func TestSwitching(t *testing.T) {
	reg := tool.NewRegistry()
	reg.MustRegister(New(false).Tools()...)
	eng := tool.NewEngine(reg, 0, logging.Nop())

	assert.Equal(t, "false", invoke(t, eng, "is_turned_on"))
	assert.JSONEq(t, `{"turnedOn":true}`, invoke(t, eng, "turn_on"))
	assert.Equal(t, "true", invoke(t, eng, "is_turned_on"))
	assert.JSONEq(t, `{"turnedOn":true}`, invoke(t, eng, "turn_on"))
	assert.JSONEq(t, `{"turnedOn":false}`, invoke(t, eng, "turn_off"))
	assert.Equal(t, "false", invoke(t, eng, "is_turned_on"))
}

func TestInitialState(t *testing.T) {
	assert.True(t, New(true).IsOn())
	assert.False(t, New(false).IsOn())
}

func TestConcurrentSwitching(t *testing.T) {
	p := New(false)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() { defer wg.Done(); p.set(true) }()
		go func() { defer wg.Done(); _ = p.IsOn() }()
	}
	wg.Wait()
	assert.True(t, p.IsOn())
}
