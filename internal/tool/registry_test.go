package tool

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoTool(name string) Tool {
	return Define(name, "echoes its input").
		Required("text", String, "text to echo").
		Returns("the text").
		Handle(func(_ context.Context, args Arguments) (any, error) {
			return args.String("text"), nil
		})
}

func TestRegistryRegisterAndResolve(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(echoTool("echo")))

	got, err := reg.Resolve("echo")
	require.NoError(t, err)
	assert.Equal(t, "echo", got.Name)
	assert.Equal(t, "echoes its input", got.Description)
	assert.Equal(t, 1, reg.Len())
}

func TestRegistryDuplicateName(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(echoTool("echo")))

	err := reg.Register(echoTool("echo"))
	var dup *DuplicateNameError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, "echo", dup.Name)
	assert.Equal(t, 1, reg.Len())
}

func TestRegistryRejectsEmptyNameAndNilHandler(t *testing.T) {
	reg := NewRegistry()
	assert.Error(t, reg.Register(Tool{Descriptor: Descriptor{Name: ""}, Handler: echoTool("x").Handler}))
	assert.Error(t, reg.Register(Tool{Descriptor: Descriptor{Name: "x"}}))
	assert.Equal(t, 0, reg.Len())
}

func TestRegistryResolveUnknown(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Resolve("nope")
	var unk *UnknownToolError
	require.True(t, errors.As(err, &unk))
	assert.Equal(t, "nope", unk.Name)
}

func TestRegistryDescriptorsOrdered(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(echoTool("b"), echoTool("a"), echoTool("c"))

	descs := reg.Descriptors()
	require.Len(t, descs, 3)
	assert.Equal(t, "b", descs[0].Name)
	assert.Equal(t, "a", descs[1].Name)
	assert.Equal(t, "c", descs[2].Name)
	assert.Equal(t, []string{"b", "a", "c"}, reg.Names())

	// Mutating the copy leaves the registry intact.
	descs[0].Parameters[0].Name = "mutated"
	again := reg.Descriptors()
	assert.Equal(t, "text", again[0].Parameters[0].Name)
}

func TestMustRegisterPanicsOnDuplicate(t *testing.T) {
	reg := NewRegistry()
	assert.Panics(t, func() { reg.MustRegister(echoTool("x"), echoTool("x")) })
}

func TestDescriptorSchema(t *testing.T) {
	tl := Define("send_email", "Sends an email").
		Required("recipientEmails", String, "semicolon separated").
		Optional("priority", Integer, "").
		Handle(func(context.Context, Arguments) (any, error) { return nil, nil })

	data, err := json.Marshal(tl.Schema())
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "object", got["type"])
	assert.Equal(t, false, got["additionalProperties"])
	assert.Equal(t, []any{"recipientEmails"}, got["required"])

	props := got["properties"].(map[string]any)
	assert.Equal(t, "string", props["recipientEmails"].(map[string]any)["type"])
	assert.Equal(t, "integer", props["priority"].(map[string]any)["type"])
}

func TestSchemaWithoutParamsHasEmptyRequired(t *testing.T) {
	tl := Define("time", "now").Handle(func(context.Context, Arguments) (any, error) { return "t", nil })
	data, err := json.Marshal(tl.Schema())
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"object","properties":{},"required":[],"additionalProperties":false}`, string(data))
}

func TestBuilderCopiesParameters(t *testing.T) {
	b := Define("x", "").Required("a", String, "")
	first := b.Handle(func(context.Context, Arguments) (any, error) { return nil, nil })
	b.Optional("b", Boolean, "")
	assert.Len(t, first.Parameters, 1)
}
