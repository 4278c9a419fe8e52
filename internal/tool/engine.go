package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"github.com/soyeahso/assistant/internal/domain"
	"github.com/soyeahso/assistant/internal/logging"
)

// DefaultTimeout bounds a single handler run.
const DefaultTimeout = 30 * time.Second

// Status is the outcome class of an invocation.
type Status string

const (
	StatusOK    Status = "ok"
	StatusError Status = "error"
)

// Reason classifies a failed invocation.
type Reason string

const (
	ReasonUnknownTool      Reason = "unknown_tool"
	ReasonInvalidArguments Reason = "invalid_arguments"
	ReasonHandlerFault     Reason = "handler_fault"
)

// CallRequest is a function call issued by the model.
type CallRequest struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Input string `json:"input"` // JSON object
}

// NewCallRequest builds a request from an argument map. A blank id is
// replaced by a generated one.
func NewCallRequest(id, name string, args map[string]any) (CallRequest, error) {
	if id == "" {
		id = "call_" + uuid.NewString()
	}
	if args == nil {
		args = map[string]any{}
	}
	data, err := json.Marshal(args)
	if err != nil {
		return CallRequest{}, fmt.Errorf("encoding arguments: %w", err)
	}
	return CallRequest{ID: id, Name: name, Input: string(data)}, nil
}

// FromToolCall converts a history tool call into a request.
func FromToolCall(tc domain.ToolCall) CallRequest {
	return CallRequest{ID: tc.ID, Name: tc.Name, Input: tc.Input}
}

// Result is the outcome of one invocation. Content is what the model sees.
type Result struct {
	CallID   string        `json:"callId"`
	Name     string        `json:"name"`
	Status   Status        `json:"status"`
	Reason   Reason        `json:"reason,omitempty"`
	Content  string        `json:"content"`
	Rejected bool          `json:"rejected,omitempty"`
	Duration time.Duration `json:"duration"`
	Err      error         `json:"-"`
}

// OK reports whether the handler ran and returned a payload.
func (r Result) OK() bool { return r.Status == StatusOK }

// Turn renders the result as a tool turn for the history.
func (r Result) Turn() domain.Turn {
	return domain.ToolResultTurn(r.CallID, r.Name, r.Content)
}

type errorContent struct {
	Status  string `json:"status"`
	Reason  string `json:"reason,omitempty"`
	Tool    string `json:"tool,omitempty"`
	Detail  string `json:"detail,omitempty"`
	Message string `json:"message,omitempty"`
}

// Engine validates and runs tool calls against a Registry.
type Engine struct {
	registry *Registry
	timeout  time.Duration
	log      *logging.Logger
}

// NewEngine creates an engine. A non-positive timeout selects DefaultTimeout.
func NewEngine(registry *Registry, timeout time.Duration, log *logging.Logger) *Engine {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Engine{registry: registry, timeout: timeout, log: log.Sub("tools")}
}

// Registry returns the registry the engine resolves against.
func (e *Engine) Registry() *Registry { return e.registry }

// Invoke resolves, validates and runs a call. Every failure is converted
// into an error Result so the conversation can continue.
func (e *Engine) Invoke(ctx context.Context, req CallRequest) Result {
	start := time.Now()
	res := Result{CallID: req.ID, Name: req.Name}

	t, err := e.registry.Resolve(req.Name)
	if err != nil {
		e.log.Warn().Str("tool", req.Name).Str("callId", req.ID).Msg("unknown tool requested")
		return e.fail(res, start, ReasonUnknownTool, err, errorContent{
			Status: "error", Reason: string(ReasonUnknownTool), Tool: req.Name,
		})
	}

	args, err := ParseArguments(t.Descriptor, req.Input)
	if err != nil {
		var ie *InvalidArgumentsError
		detail := err.Error()
		if errors.As(err, &ie) {
			detail = ie.Detail
		}
		e.log.Warn().Str("tool", req.Name).Str("detail", detail).Msg("invalid tool arguments")
		return e.fail(res, start, ReasonInvalidArguments, err, errorContent{
			Status: "error", Reason: string(ReasonInvalidArguments), Tool: req.Name, Detail: detail,
		})
	}

	payload, err := e.run(ctx, t, args)
	if err != nil {
		fault := &HandlerFault{Tool: req.Name, Err: err}
		e.log.Warn().Err(err).Str("tool", req.Name).Str("callId", req.ID).Msg("tool handler failed")
		return e.fail(res, start, ReasonHandlerFault, fault, errorContent{
			Status: "error", Message: err.Error(),
		})
	}

	content, rejected, err := render(payload)
	if err != nil {
		fault := &HandlerFault{Tool: req.Name, Err: err}
		return e.fail(res, start, ReasonHandlerFault, fault, errorContent{
			Status: "error", Message: err.Error(),
		})
	}

	res.Status = StatusOK
	res.Content = content
	res.Rejected = rejected
	res.Duration = time.Since(start)
	e.log.Debug().
		Str("tool", req.Name).
		Bool("rejected", rejected).
		Dur("duration", res.Duration).
		Msg("tool invoked")
	return res
}

type outcome struct {
	payload any
	err     error
}

func (e *Engine) run(ctx context.Context, t Tool, args Arguments) (any, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				e.log.Error().Str("tool", t.Name).Str("stack", string(debug.Stack())).Msg("tool handler panicked")
				done <- outcome{err: fmt.Errorf("panic: %v", p)}
			}
		}()
		payload, err := t.Handler(ctx, args)
		done <- outcome{payload: payload, err: err}
	}()

	select {
	case o := <-done:
		if o.err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("timed out after %s", e.timeout)
		}
		return o.payload, o.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("timed out after %s", e.timeout)
		}
		return nil, ctx.Err()
	}
}

func (e *Engine) fail(res Result, start time.Time, reason Reason, err error, body errorContent) Result {
	data, _ := json.Marshal(body)
	res.Status = StatusError
	res.Reason = reason
	res.Content = string(data)
	res.Err = err
	res.Duration = time.Since(start)
	return res
}

func render(payload any) (string, bool, error) {
	switch v := payload.(type) {
	case Rejection:
		return string(v), true, nil
	case string:
		return v, false, nil
	case nil:
		return `{"status":"success"}`, false, nil
	case json.RawMessage:
		return string(v), false, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", false, fmt.Errorf("encoding result: %w", err)
	}
	return string(data), false, nil
}
