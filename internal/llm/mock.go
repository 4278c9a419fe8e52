package llm

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// MockClient is a test double for Client. It records every request.
type MockClient struct {
	ProviderName string
	StreamFunc   func(ctx context.Context, req CompletionRequest) (<-chan StreamEvent, error)

	mu       sync.Mutex
	requests []CompletionRequest
}

func (m *MockClient) Name() string { return m.ProviderName }

func (m *MockClient) Stream(ctx context.Context, req CompletionRequest) (<-chan StreamEvent, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.StreamFunc != nil {
		return m.StreamFunc(ctx, req)
	}
	ch := make(chan StreamEvent, 2)
	ch <- StreamEvent{Type: EventDelta, Content: "mock "}
	ch <- StreamEvent{
		Type:     EventDone,
		Response: &CompletionResponse{Content: "mock stream response"},
	}
	close(ch)
	return ch, nil
}

// Requests returns a copy of every request received so far.
func (m *MockClient) Requests() []CompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]CompletionRequest(nil), m.requests...)
}

// Calls returns how many round trips the mock has served.
func (m *MockClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// ErrScriptExhausted is returned when a scripted client runs out of replies.
var ErrScriptExhausted = errors.New("mock script exhausted")

// Reply is one scripted model round trip.
type Reply struct {
	Text      string
	ToolCalls []ToolCall
	Err       error  // returned from Stream
	StreamErr string // delivered as an "error" event after Text
	Hang      bool   // emit Text then block until ctx ends
}

// TextReply is a final answer.
func TextReply(text string) Reply { return Reply{Text: text} }

// ToolCallReply asks for the given tool calls.
func ToolCallReply(calls ...ToolCall) Reply { return Reply{ToolCalls: calls} }

// FailReply fails the round trip with err.
func FailReply(err error) Reply { return Reply{Err: err} }

// Script returns a StreamFunc that serves replies in order.
func Script(replies ...Reply) func(ctx context.Context, req CompletionRequest) (<-chan StreamEvent, error) {
	var (
		mu   sync.Mutex
		next int
	)
	return func(ctx context.Context, _ CompletionRequest) (<-chan StreamEvent, error) {
		mu.Lock()
		if next >= len(replies) {
			mu.Unlock()
			return nil, ErrScriptExhausted
		}
		r := replies[next]
		next++
		mu.Unlock()

		if r.Err != nil {
			return nil, r.Err
		}
		ch := make(chan StreamEvent)
		go func() {
			defer close(ch)
			for _, part := range strings.SplitAfter(r.Text, " ") {
				if part == "" {
					continue
				}
				if !sendEvent(ctx, ch, StreamEvent{Type: EventDelta, Content: part}) {
					return
				}
			}
			if r.Hang {
				<-ctx.Done()
				return
			}
			if r.StreamErr != "" {
				sendEvent(ctx, ch, StreamEvent{Type: EventError, Error: r.StreamErr})
				return
			}
			finish := "stop"
			if len(r.ToolCalls) > 0 {
				finish = "tool_calls"
			}
			sendEvent(ctx, ch, StreamEvent{Type: EventDone, Response: &CompletionResponse{
				Content:      r.Text,
				ToolCalls:    r.ToolCalls,
				FinishReason: finish,
			}})
		}()
		return ch, nil
	}
}

// NewScriptedClient returns a MockClient serving replies in order.
func NewScriptedClient(name string, replies ...Reply) *MockClient {
	return &MockClient{ProviderName: name, StreamFunc: Script(replies...)}
}
