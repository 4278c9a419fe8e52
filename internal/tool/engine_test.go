package tool

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soyeahso/assistant/internal/domain"
	"github.com/soyeahso/assistant/internal/logging"
)

func newTestEngine(t *testing.T, timeout time.Duration, tools ...Tool) *Engine {
	t.Helper()
	reg := NewRegistry()
	reg.MustRegister(tools...)
	return NewEngine(reg, timeout, logging.Nop())
}

func decode(t *testing.T, content string) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(content), &m))
	return m
}

func TestInvokeSuccessString(t *testing.T) {
	e := newTestEngine(t, 0, echoTool("echo"))
	res := e.Invoke(context.Background(), CallRequest{ID: "c1", Name: "echo", Input: `{"text":"hello"}`})

	assert.True(t, res.OK())
	assert.Equal(t, "c1", res.CallID)
	assert.Equal(t, "echo", res.Name)
	assert.Equal(t, "hello", res.Content)
	assert.False(t, res.Rejected)
	assert.NoError(t, res.Err)
}

func TestInvokeStructPayloadIsJSON(t *testing.T) {
	light := Define("turn_on", "").Handle(func(context.Context, Arguments) (any, error) {
		return map[string]bool{"turnedOn": true}, nil
	})
	e := newTestEngine(t, 0, light)
	res := e.Invoke(context.Background(), CallRequest{ID: "c", Name: "turn_on", Input: "{}"})
	require.True(t, res.OK())
	assert.JSONEq(t, `{"turnedOn":true}`, res.Content)
}

func TestInvokeNilPayload(t *testing.T) {
	noop := Define("noop", "").Handle(func(context.Context, Arguments) (any, error) { return nil, nil })
	e := newTestEngine(t, 0, noop)
	res := e.Invoke(context.Background(), CallRequest{ID: "c", Name: "noop"})
	require.True(t, res.OK())
	assert.JSONEq(t, `{"status":"success"}`, res.Content)
}

func TestInvokeRejection(t *testing.T) {
	rej := Define("send", "").Handle(func(context.Context, Arguments) (any, error) {
		return Rejection("Please provide a recipient."), nil
	})
	e := newTestEngine(t, 0, rej)
	res := e.Invoke(context.Background(), CallRequest{ID: "c", Name: "send", Input: "{}"})
	assert.True(t, res.OK())
	assert.True(t, res.Rejected)
	assert.Equal(t, "Please provide a recipient.", res.Content)
}

func TestInvokeUnknownTool(t *testing.T) {
	e := newTestEngine(t, 0, echoTool("echo"))
	res := e.Invoke(context.Background(), CallRequest{ID: "c9", Name: "launch_rocket", Input: "{}"})

	assert.False(t, res.OK())
	assert.Equal(t, ReasonUnknownTool, res.Reason)
	var unk *UnknownToolError
	assert.True(t, errors.As(res.Err, &unk))

	body := decode(t, res.Content)
	assert.Equal(t, "error", body["status"])
	assert.Equal(t, "unknown_tool", body["reason"])
	assert.Equal(t, "launch_rocket", body["tool"])
}

func TestInvokeInvalidArgumentsSkipsHandler(t *testing.T) {
	var calls atomic.Int32
	tl := Define("count", "").Required("n", Integer, "").Handle(func(context.Context, Arguments) (any, error) {
		calls.Add(1)
		return "ok", nil
	})
	e := newTestEngine(t, 0, tl)
	res := e.Invoke(context.Background(), CallRequest{ID: "c", Name: "count", Input: `{"n":"three"}`})

	assert.Equal(t, ReasonInvalidArguments, res.Reason)
	assert.Equal(t, int32(0), calls.Load())
	body := decode(t, res.Content)
	assert.Equal(t, "invalid_arguments", body["reason"])
	assert.Contains(t, body["detail"], `"n" must be of type integer`)
}

func TestInvokeHandlerError(t *testing.T) {
	tl := Define("boom", "").Handle(func(context.Context, Arguments) (any, error) {
		return nil, errors.New("smtp unreachable")
	})
	e := newTestEngine(t, 0, tl)
	res := e.Invoke(context.Background(), CallRequest{ID: "c", Name: "boom"})

	assert.Equal(t, ReasonHandlerFault, res.Reason)
	var fault *HandlerFault
	require.True(t, errors.As(res.Err, &fault))
	assert.Equal(t, "boom", fault.Tool)

	body := decode(t, res.Content)
	assert.Equal(t, "error", body["status"])
	assert.Equal(t, "smtp unreachable", body["message"])
}

func TestInvokeHandlerPanic(t *testing.T) {
	tl := Define("panic", "").Handle(func(context.Context, Arguments) (any, error) {
		panic("nil map")
	})
	e := newTestEngine(t, 0, tl)
	res := e.Invoke(context.Background(), CallRequest{ID: "c", Name: "panic"})

	assert.Equal(t, ReasonHandlerFault, res.Reason)
	assert.Contains(t, decode(t, res.Content)["message"], "panic: nil map")
}

func TestInvokeHandlerTimeout(t *testing.T) {
	tl := Define("slow", "").Handle(func(ctx context.Context, _ Arguments) (any, error) {
		select {
		case <-time.After(5 * time.Second):
			return "late", nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	})
	e := newTestEngine(t, 20*time.Millisecond, tl)
	res := e.Invoke(context.Background(), CallRequest{ID: "c", Name: "slow"})

	assert.Equal(t, ReasonHandlerFault, res.Reason)
	assert.Contains(t, decode(t, res.Content)["message"], "timed out")
	assert.Less(t, res.Duration, 2*time.Second)
}

func TestInvokeCallerCancellation(t *testing.T) {
	started := make(chan struct{})
	tl := Define("block", "").Handle(func(ctx context.Context, _ Arguments) (any, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	})
	e := newTestEngine(t, time.Minute, tl)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()
	res := e.Invoke(ctx, CallRequest{ID: "c", Name: "block"})
	assert.Equal(t, ReasonHandlerFault, res.Reason)
	assert.ErrorIs(t, res.Err, context.Canceled)
}

func TestResultTurn(t *testing.T) {
	e := newTestEngine(t, 0, echoTool("echo"))
	res := e.Invoke(context.Background(), CallRequest{ID: "c1", Name: "echo", Input: `{"text":"x"}`})
	turn := res.Turn()
	assert.Equal(t, domain.RoleTool, turn.Role)
	assert.Equal(t, "c1", turn.CallID)
	assert.Equal(t, "echo", turn.ToolName)
	assert.Equal(t, "x", turn.Content)
}

func TestNewCallRequest(t *testing.T) {
	req, err := NewCallRequest("", "echo", map[string]any{"text": "hi"})
	require.NoError(t, err)
	assert.NotEmpty(t, req.ID)
	assert.JSONEq(t, `{"text":"hi"}`, req.Input)

	req, err = NewCallRequest("id1", "time", nil)
	require.NoError(t, err)
	assert.Equal(t, "id1", req.ID)
	assert.Equal(t, "{}", req.Input)

	_, err = NewCallRequest("x", "bad", map[string]any{"ch": make(chan int)})
	assert.Error(t, err)
}

func TestFromToolCall(t *testing.T) {
	req := FromToolCall(domain.ToolCall{ID: "a", Name: "b", Input: "{}"})
	assert.Equal(t, CallRequest{ID: "a", Name: "b", Input: "{}"}, req)
}
