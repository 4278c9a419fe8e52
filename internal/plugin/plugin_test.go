package plugin

import (
	"context"
	"testing"

	"github.com/soyeahso/assistant/internal/hooks"
	"github.com/soyeahso/assistant/internal/logging"
	"github.com/soyeahso/assistant/internal/tool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testPlugin struct {
	id         string
	tools      []string
	initErr    error
	closeErr   error
	initCalls  int
	closeCalls int
	closed     *[]string
}

func (p *testPlugin) ID() string          { return p.id }
func (p *testPlugin) Name() string        { return "Plugin " + p.id }
func (p *testPlugin) Description() string { return "test plugin" }
func (p *testPlugin) Tools() []tool.Tool {
	var out []tool.Tool
	for _, name := range p.tools {
		out = append(out, tool.Define(name, "test tool").Handle(func(context.Context, tool.Arguments) (any, error) {
			return "ok", nil
		}))
	}
	return out
}
func (p *testPlugin) Init(_ context.Context, _ API) error {
	p.initCalls++
	return p.initErr
}
func (p *testPlugin) Close() error {
	p.closeCalls++
	if p.closed != nil {
		*p.closed = append(*p.closed, p.id)
	}
	return p.closeErr
}

func testRegistry() *Registry {
	log := logging.New(nil, "silent")
	return NewRegistry(hooks.NewManager(log), log)
}

func TestRegistry_Register(t *testing.T) {
	reg := testRegistry()
	require.NoError(t, reg.Register(&testPlugin{id: "test"}))
	assert.Equal(t, 1, reg.Count())
}

func TestRegistry_Register_Duplicate(t *testing.T) {
	reg := testRegistry()
	p := &testPlugin{id: "test"}

	require.NoError(t, reg.Register(p))
	err := reg.Register(p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
}

func TestRegistry_List(t *testing.T) {
	reg := testRegistry()
	require.NoError(t, reg.Register(&testPlugin{id: "b"}))
	require.NoError(t, reg.Register(&testPlugin{id: "a"}))

	assert.Equal(t, []string{"b", "a"}, reg.List())
}

func TestRegistry_Install(t *testing.T) {
	reg := testRegistry()
	require.NoError(t, reg.Register(&testPlugin{id: "light", tools: []string{"turn_on", "turn_off"}}))
	require.NoError(t, reg.Register(&testPlugin{id: "clock", tools: []string{"time"}}))

	tools := tool.NewRegistry()
	require.NoError(t, reg.Install(tools))
	assert.Equal(t, []string{"turn_on", "turn_off", "time"}, tools.Names())
}

func TestRegistry_Install_Conflict(t *testing.T) {
	reg := testRegistry()
	require.NoError(t, reg.Register(&testPlugin{id: "a", tools: []string{"time"}}))
	require.NoError(t, reg.Register(&testPlugin{id: "b", tools: []string{"time"}}))

	err := reg.Install(tool.NewRegistry())
	require.Error(t, err)

	var dup *tool.DuplicateNameError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "time", dup.Name)
	assert.Contains(t, err.Error(), "plugin b")
}

func TestRegistry_InitAll(t *testing.T) {
	reg := testRegistry()
	p1 := &testPlugin{id: "a"}
	p2 := &testPlugin{id: "b"}
	require.NoError(t, reg.Register(p1))
	require.NoError(t, reg.Register(p2))

	require.NoError(t, reg.InitAll(context.Background()))
	assert.Equal(t, 1, p1.initCalls)
	assert.Equal(t, 1, p2.initCalls)
}

func TestRegistry_InitAll_Error(t *testing.T) {
	reg := testRegistry()
	require.NoError(t, reg.Register(&testPlugin{id: "bad", initErr: assert.AnError}))

	err := reg.InitAll(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Contains(t, err.Error(), "bad")
}

func TestRegistry_CloseAll_ReverseOrder(t *testing.T) {
	reg := testRegistry()
	var closed []string
	require.NoError(t, reg.Register(&testPlugin{id: "a", closed: &closed}))
	require.NoError(t, reg.Register(&testPlugin{id: "b", closed: &closed, closeErr: assert.AnError}))
	require.NoError(t, reg.Register(&testPlugin{id: "c", closed: &closed}))

	reg.CloseAll()
	assert.Equal(t, []string{"c", "b", "a"}, closed)
}

func TestRegistry_Info(t *testing.T) {
	reg := testRegistry()
	require.NoError(t, reg.Register(&testPlugin{id: "x", tools: []string{"one", "two"}}))

	infos := reg.Info()
	require.Len(t, infos, 1)
	assert.Equal(t, "x", infos[0].ID)
	assert.Equal(t, "Plugin x", infos[0].Name)
	assert.Equal(t, "test plugin", infos[0].Description)
	assert.Equal(t, []string{"one", "two"}, infos[0].Tools)
}
