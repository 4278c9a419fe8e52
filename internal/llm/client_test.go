package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soyeahso/assistant/internal/domain"
	"github.com/soyeahso/assistant/internal/logging"
	"github.com/soyeahso/assistant/internal/tool"
)

func silentLog() *logging.Logger {
	return logging.New(nil, "silent")
}

func TestMockClientDefaultStream(t *testing.T) {
	m := &MockClient{ProviderName: "mock"}
	ch, err := m.Stream(context.Background(), CompletionRequest{})
	require.NoError(t, err)

	var deltas string
	resp, err := Collect(context.Background(), ch, func(s string) { deltas += s })
	require.NoError(t, err)
	assert.Equal(t, "mock ", deltas)
	assert.Equal(t, "mock stream response", resp.Content)
	assert.Equal(t, 1, m.Calls())
}

func TestMockClientRecordsRequests(t *testing.T) {
	m := NewScriptedClient("mock", TextReply("a"), TextReply("b"))
	for _, text := range []string{"first", "second"} {
		ch, err := m.Stream(context.Background(), CompletionRequest{Messages: []Message{{Role: RoleUser, Content: text}}})
		require.NoError(t, err)
		_, err = Collect(context.Background(), ch, nil)
		require.NoError(t, err)
	}
	reqs := m.Requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, "second", reqs[1].Messages[0].Content)
}

func TestScriptRepliesInOrder(t *testing.T) {
	call := ToolCall{ID: "c1", Name: "time", Input: "{}"}
	m := NewScriptedClient("mock", ToolCallReply(call), TextReply("It is late now."))

	ch, err := m.Stream(context.Background(), CompletionRequest{})
	require.NoError(t, err)
	resp, err := Collect(context.Background(), ch, nil)
	require.NoError(t, err)
	assert.Equal(t, []ToolCall{call}, resp.ToolCalls)
	assert.Equal(t, "tool_calls", resp.FinishReason)

	ch, err = m.Stream(context.Background(), CompletionRequest{})
	require.NoError(t, err)
	var deltas []string
	resp, err = Collect(context.Background(), ch, func(s string) { deltas = append(deltas, s) })
	require.NoError(t, err)
	assert.Equal(t, []string{"It ", "is ", "late ", "now."}, deltas)
	assert.Equal(t, "It is late now.", resp.Content)

	_, err = m.Stream(context.Background(), CompletionRequest{})
	assert.ErrorIs(t, err, ErrScriptExhausted)
}

func TestScriptFailures(t *testing.T) {
	boom := errors.New("connection refused")
	m := NewScriptedClient("mock", FailReply(boom), Reply{Text: "partial", StreamErr: "stream reset"})

	_, err := m.Stream(context.Background(), CompletionRequest{})
	assert.ErrorIs(t, err, boom)

	ch, err := m.Stream(context.Background(), CompletionRequest{})
	require.NoError(t, err)
	_, err = Collect(context.Background(), ch, nil)
	require.Error(t, err)
	assert.Equal(t, "stream reset", err.Error())
}

func TestCollectStopsOnCancel(t *testing.T) {
	m := NewScriptedClient("mock", Reply{Text: "thinking", Hang: true})
	ctx, cancel := context.WithCancel(context.Background())

	ch, err := m.Stream(ctx, CompletionRequest{})
	require.NoError(t, err)

	got := make(chan error, 1)
	go func() {
		_, err := Collect(ctx, ch, func(string) { cancel() })
		got <- err
	}()

	select {
	case err := <-got:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Collect did not return after cancel")
	}
}

func TestCollectIncompleteStream(t *testing.T) {
	ch := make(chan StreamEvent, 1)
	ch <- StreamEvent{Type: EventDelta, Content: "x"}
	close(ch)
	_, err := Collect(context.Background(), ch, nil)
	assert.ErrorIs(t, err, ErrIncompleteStream)
}

func TestCollectFillsContentFromDeltas(t *testing.T) {
	ch := make(chan StreamEvent, 3)
	ch <- StreamEvent{Type: EventDelta, Content: "Hello "}
	ch <- StreamEvent{Type: EventDelta, Content: "there"}
	ch <- StreamEvent{Type: EventDone}
	close(ch)
	resp, err := Collect(context.Background(), ch, nil)
	require.NoError(t, err)
	assert.Equal(t, "Hello there", resp.Content)
}

func TestProviderErrorFormat(t *testing.T) {
	assert.Equal(t, "openai: 429 slow down", (&ProviderError{Provider: "openai", Code: 429, Message: "slow down"}).Error())
	assert.Equal(t, "ollama: dial tcp", (&ProviderError{Provider: "ollama", Message: "dial tcp"}).Error())
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{context.Canceled, false},
		{&ProviderError{Provider: "p", Code: 401}, true},
		{&ProviderError{Provider: "p", Code: 429}, true},
		{&ProviderError{Provider: "p", Code: 503}, true},
		{&ProviderError{Provider: "p", Code: 400, Message: "request timeout in body"}, false},
		{&ProviderError{Provider: "p", Code: 404}, false},
		{fmt.Errorf("wrapped: %w", &ProviderError{Provider: "p", Code: 502}), true},
		{errors.New("server overloaded"), true},
		{errors.New("Rate limit reached"), true},
		{errors.New("bad schema"), false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsRetryable(tt.err), "%v", tt.err)
	}
}

func TestMessagesFromTurns(t *testing.T) {
	turns := []domain.Turn{
		domain.SystemTurn("sys"),
		domain.UserTurn("send it"),
		domain.AssistantTurn("", []domain.ToolCall{{ID: "c1", Name: "send_email", Input: `{"subject":"hi"}`}}),
		domain.ToolResultTurn("c1", "send_email", `{"status":"success"}`),
	}
	msgs := MessagesFromTurns(turns)
	require.Len(t, msgs, 4)
	assert.Equal(t, RoleSystem, msgs[0].Role)
	assert.Equal(t, RoleUser, msgs[1].Role)
	assert.Equal(t, []ToolCall{{ID: "c1", Name: "send_email", Input: `{"subject":"hi"}`}}, msgs[2].ToolCalls)
	assert.Equal(t, RoleTool, msgs[3].Role)
	assert.Equal(t, "c1", msgs[3].ToolCallID)
	assert.Equal(t, "send_email", msgs[3].Name)
}

func TestToolDefinitions(t *testing.T) {
	descs := []tool.Descriptor{{
		Name:        "set_alarm",
		Description: "Sets the alarm.",
		Parameters:  []tool.Parameter{{Name: "time", Type: tool.String, Required: true}},
		Returns:     "a confirmation",
	}}
	defs := ToolDefinitions(descs)
	require.Len(t, defs, 1)
	assert.Equal(t, "set_alarm", defs[0].Name)
	assert.Equal(t, "Sets the alarm. Returns: a confirmation", defs[0].Description)

	var schema map[string]any
	require.NoError(t, json.Unmarshal(defs[0].Parameters, &schema))
	assert.Equal(t, []any{"time"}, schema["required"])
}

func TestDomainToolCalls(t *testing.T) {
	assert.Nil(t, DomainToolCalls(nil))
	got := DomainToolCalls([]ToolCall{{ID: "a", Name: "b", Input: "{}"}})
	assert.Equal(t, []domain.ToolCall{{ID: "a", Name: "b", Input: "{}"}}, got)
}

func TestStreamEventJSON(t *testing.T) {
	data, err := json.Marshal(StreamEvent{Type: EventDelta, Content: "hi"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"delta","content":"hi"}`, string(data))
}
