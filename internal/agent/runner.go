// Package agent runs the tool-calling conversation loop between the user, the
// model and the registered tools.
package agent

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/soyeahso/assistant/internal/domain"
	"github.com/soyeahso/assistant/internal/hooks"
	"github.com/soyeahso/assistant/internal/llm"
	"github.com/soyeahso/assistant/internal/logging"
	"github.com/soyeahso/assistant/internal/tool"
)

// DefaultMaxHops bounds model round trips per user turn.
const DefaultMaxHops = 8

// Config configures the runner.
type Config struct {
	Model         string
	Instructions  string // system prompt used when a session supplies none
	MaxHops       int
	ToolTimeout   time.Duration
	ParallelTools bool
	MaxTokens     int
	Temperature   *float64
}

// RunResult is the outcome of one user turn.
type RunResult struct {
	Response  string        `json:"response"`
	SessionID string        `json:"sessionId"`
	Model     string        `json:"model,omitempty"`
	Hops      int           `json:"hops"`
	ToolCalls int           `json:"toolCalls"`
	Usage     llm.Usage     `json:"usage"`
	Duration  time.Duration `json:"duration"`
}

// EventType discriminates Event.
type EventType string

const (
	EventDelta      EventType = "delta"
	EventToolStart  EventType = "tool_start"
	EventToolResult EventType = "tool_result"
	EventDone       EventType = "done"
	EventError      EventType = "error"
)

// Event is one increment of a running turn.
//   - delta: Content holds streamed text
//   - tool_start: Tool and CallID name the call about to run
//   - tool_result: Status, Reason and Content describe what the model will see
//   - done: Result holds the finished turn
//   - error: Err holds the failure
type Event struct {
	Type    EventType   `json:"type"`
	Content string      `json:"content,omitempty"`
	Tool    string      `json:"tool,omitempty"`
	CallID  string      `json:"callId,omitempty"`
	Status  tool.Status `json:"status,omitempty"`
	Reason  tool.Reason `json:"reason,omitempty"`
	Result  *RunResult  `json:"result,omitempty"`
	Err     error       `json:"-"`
}

// StreamCallback receives events in order. It is never called concurrently.
type StreamCallback func(Event)

// Runner is the agent orchestration loop.
type Runner struct {
	cfg    Config
	models *llm.Registry
	engine *tool.Engine
	hooks  *hooks.Manager
	log    *logging.Logger
}

// NewRunner creates a runner. hm may be nil.
func NewRunner(cfg Config, models *llm.Registry, tools *tool.Registry, hm *hooks.Manager, log *logging.Logger) *Runner {
	if cfg.MaxHops <= 0 {
		cfg.MaxHops = DefaultMaxHops
	}
	return &Runner{
		cfg:    cfg,
		models: models,
		engine: tool.NewEngine(tools, cfg.ToolTimeout, log),
		hooks:  hm,
		log:    log.Sub("agent"),
	}
}

// Config returns the effective configuration.
func (r *Runner) Config() Config { return r.cfg }

// Tools returns the descriptors advertised to the model.
func (r *Runner) Tools() []tool.Descriptor { return r.engine.Registry().Descriptors() }

// StartSession creates a session seeded with a system turn. Blank
// instructions fall back to the configured ones.
func (r *Runner) StartSession(ctx context.Context, instructions string) *Session {
	if instructions == "" {
		instructions = r.cfg.Instructions
	}
	s := newSession(r.cfg.Model, BuildSystemPrompt(PromptConfig{Instructions: instructions}))

	r.log.Info().Str("sessionId", s.ID).Str("model", s.Model).Msg("session started")
	r.emit(ctx, hooks.EventSessionStart, map[string]any{
		hooks.KeySessionID: s.ID,
		hooks.KeyModel:     s.Model,
	})
	r.emitAppended(ctx, s, 0, s.History.Turns())
	return s
}

// RunStream appends text as a user turn and drives the model until it
// produces a final answer. Events are delivered to cb as they happen.
//
// On cancellation the partial answer is dropped, in-flight tools are
// abandoned and ctx.Err() is returned; the history keeps every turn appended
// before the cancellation.
func (r *Runner) RunStream(ctx context.Context, s *Session, text string, cb StreamCallback) (*RunResult, error) {
	if !s.begin() {
		return nil, ErrTurnInProgress
	}
	defer s.end()
	if cb == nil {
		cb = func(Event) {}
	}

	start := time.Now()
	res, err := r.run(ctx, s, text, cb)
	if err != nil {
		r.log.Warn().Err(err).Str("sessionId", s.ID).Msg("turn failed")
		r.emit(ctx, hooks.EventTurnFailed, map[string]any{
			hooks.KeySessionID: s.ID,
			hooks.KeyError:     err.Error(),
		})
		return nil, err
	}
	res.Duration = time.Since(start)

	r.log.Info().
		Str("sessionId", s.ID).
		Int("hops", res.Hops).
		Int("toolCalls", res.ToolCalls).
		Int("inputTokens", res.Usage.InputTokens).
		Int("outputTokens", res.Usage.OutputTokens).
		Dur("duration", res.Duration).
		Msg("turn completed")
	r.emit(ctx, hooks.EventTurnCompleted, map[string]any{
		hooks.KeySessionID: s.ID,
		hooks.KeyHops:      res.Hops,
		hooks.KeyDuration:  res.Duration,
	})
	return res, nil
}

// Submit runs a turn in the background and returns its events. The sequence
// ends with exactly one done or error event unless ctx is cancelled first,
// in which case forwarding stops and the channel is closed. Callers must
// drain the channel or cancel ctx.
func (r *Runner) Submit(ctx context.Context, s *Session, text string) <-chan Event {
	out := make(chan Event)
	go func() {
		defer close(out)
		forward := func(ev Event) {
			select {
			case out <- ev:
			case <-ctx.Done():
			}
		}
		res, err := r.RunStream(ctx, s, text, func(ev Event) {
			if ctx.Err() == nil {
				forward(ev)
			}
		})
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			forward(Event{Type: EventError, Err: err})
			return
		}
		forward(Event{Type: EventDone, Content: res.Response, Result: res})
	}()
	return out
}

func (r *Runner) run(ctx context.Context, s *Session, text string, cb StreamCallback) (*RunResult, error) {
	r.appendTurns(ctx, s, domain.UserTurn(text))

	model := s.Model
	client, err := r.models.Resolve(model)
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	defs := llm.ToolDefinitions(r.engine.Registry().Descriptors())
	res := &RunResult{SessionID: s.ID, Model: model}

	for hop := 1; hop <= r.cfg.MaxHops; hop++ {
		res.Hops = hop
		req := llm.CompletionRequest{
			Model:       model,
			Messages:    llm.MessagesFromTurns(s.History.Turns()),
			Tools:       defs,
			MaxTokens:   r.cfg.MaxTokens,
			Temperature: r.cfg.Temperature,
			Stream:      true,
		}
		if len(defs) > 0 {
			req.ToolChoice = "auto"
		}

		resp, err := r.roundTrip(ctx, client, req, cb)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, &TransportError{Provider: client.Name(), Err: err}
		}
		addUsage(&res.Usage, resp.Usage)
		if resp.Model != "" {
			res.Model = resp.Model
		}

		if len(resp.ToolCalls) == 0 {
			r.appendTurns(ctx, s, domain.AssistantTurn(resp.Content, nil))
			res.Response = resp.Content
			return res, nil
		}

		// Calls requested on the final round trip are never run.
		if hop == r.cfg.MaxHops {
			r.log.Warn().Str("sessionId", s.ID).Int("toolCalls", len(resp.ToolCalls)).Msg("hop limit reached, tool calls dropped")
			break
		}

		calls := llm.DomainToolCalls(resp.ToolCalls)
		for i := range calls {
			if calls[i].ID == "" {
				calls[i].ID = "call_" + uuid.NewString()
			}
		}
		r.log.Debug().Str("sessionId", s.ID).Int("hop", hop).Int("toolCalls", len(calls)).Msg("dispatching tool calls")

		results, err := r.dispatch(ctx, s, calls, cb)
		if err != nil {
			return nil, err
		}
		res.ToolCalls += len(results)

		batch := make([]domain.Turn, 0, len(results)+1)
		batch = append(batch, domain.AssistantTurn(resp.Content, calls))
		for _, tr := range results {
			batch = append(batch, tr.Turn())
		}
		r.appendTurns(ctx, s, batch...)
	}

	return nil, &LoopExceededError{Hops: r.cfg.MaxHops}
}

func (r *Runner) roundTrip(ctx context.Context, client llm.Client, req llm.CompletionRequest, cb StreamCallback) (*llm.CompletionResponse, error) {
	events, err := client.Stream(ctx, req)
	if err != nil {
		return nil, err
	}
	return llm.Collect(ctx, events, func(delta string) {
		cb(Event{Type: EventDelta, Content: delta})
	})
}

// dispatch runs calls through the engine and returns results in request
// order. Callback events are emitted from the calling goroutine only.
func (r *Runner) dispatch(ctx context.Context, s *Session, calls []domain.ToolCall, cb StreamCallback) ([]tool.Result, error) {
	results := make([]tool.Result, len(calls))

	if !r.cfg.ParallelTools || len(calls) == 1 {
		for i, c := range calls {
			cb(Event{Type: EventToolStart, Tool: c.Name, CallID: c.ID})
			results[i] = r.engine.Invoke(ctx, tool.FromToolCall(c))
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			r.reportResult(ctx, s, results[i], cb)
		}
		return results, nil
	}

	for _, c := range calls {
		cb(Event{Type: EventToolStart, Tool: c.Name, CallID: c.ID})
	}
	g, gctx := errgroup.WithContext(ctx)
	for i, c := range calls {
		i, c := i, c
		g.Go(func() error {
			results[i] = r.engine.Invoke(gctx, tool.FromToolCall(c))
			if errors.Is(results[i].Err, context.Canceled) {
				return results[i].Err
			}
			return nil
		})
	}
	waitErr := g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if waitErr != nil {
		return nil, waitErr
	}
	for _, res := range results {
		r.reportResult(ctx, s, res, cb)
	}
	return results, nil
}

func (r *Runner) reportResult(ctx context.Context, s *Session, res tool.Result, cb StreamCallback) {
	cb(Event{
		Type:    EventToolResult,
		Tool:    res.Name,
		CallID:  res.CallID,
		Status:  res.Status,
		Reason:  res.Reason,
		Content: res.Content,
	})
	r.emit(ctx, hooks.EventToolInvoked, map[string]any{
		hooks.KeySessionID: s.ID,
		hooks.KeyTool:      res.Name,
		hooks.KeyCallID:    res.CallID,
		hooks.KeyStatus:    string(res.Status),
		hooks.KeyReason:    string(res.Reason),
		hooks.KeyDuration:  res.Duration,
	})
}

func (r *Runner) appendTurns(ctx context.Context, s *Session, turns ...domain.Turn) {
	start := s.History.Append(turns...)
	s.touch()
	r.emitAppended(ctx, s, start, turns)
}

func (r *Runner) emitAppended(ctx context.Context, s *Session, start int, turns []domain.Turn) {
	for i, t := range turns {
		r.emit(ctx, hooks.EventTurnAppended, map[string]any{
			hooks.KeySessionID: s.ID,
			hooks.KeyModel:     s.Model,
			hooks.KeyTurn:      t,
			hooks.KeyIndex:     start + i,
		})
	}
}

func (r *Runner) emit(ctx context.Context, event string, data map[string]any) {
	if r.hooks == nil {
		return
	}
	r.hooks.Emit(context.WithoutCancel(ctx), event, data)
}

func addUsage(total *llm.Usage, u llm.Usage) {
	total.InputTokens += u.InputTokens
	total.OutputTokens += u.OutputTokens
	total.TotalTokens += u.TotalTokens
}
