package domain

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoleValid(t *testing.T) {
	for _, r := range []Role{RoleSystem, RoleUser, RoleAssistant, RoleTool} {
		assert.True(t, r.Valid(), r)
	}
	assert.False(t, Role("robot").Valid())
	assert.False(t, Role("").Valid())
}

func TestNewHistorySeedsSystemTurn(t *testing.T) {
	h := NewHistory("be brief")
	require.Equal(t, 1, h.Len())

	first := h.Last()
	assert.Equal(t, RoleSystem, first.Role)
	assert.Equal(t, "be brief", first.Content)
	assert.False(t, first.Timestamp.IsZero())
}

func TestHistoryAppendPreservesOrder(t *testing.T) {
	h := NewHistory("sys")
	h.Append(UserTurn("what time is it?"))
	h.Append(
		AssistantTurn("", []ToolCall{{ID: "c1", Name: "time", Input: "{}"}}),
		ToolResultTurn("c1", "time", "2026-01-01T10:00:00Z"),
	)
	h.Append(AssistantTurn("It is 10am.", nil))

	turns := h.Turns()
	require.Len(t, turns, 5)
	roles := make([]Role, len(turns))
	for i, turn := range turns {
		roles[i] = turn.Role
	}
	assert.Equal(t, []Role{RoleSystem, RoleUser, RoleAssistant, RoleTool, RoleAssistant}, roles)
	assert.True(t, turns[2].HasToolCalls())
	assert.Equal(t, "c1", turns[3].CallID)
	assert.Equal(t, "time", turns[3].ToolName)
	assert.False(t, turns[4].HasToolCalls())
}

func TestHistoryAppendEmptyBatch(t *testing.T) {
	h := NewHistory("sys")
	assert.Equal(t, 1, h.Append())
	assert.Equal(t, 1, h.Len())
}

func TestHistoryAppendReturnsStartIndex(t *testing.T) {
	h := NewHistory("sys")
	assert.Equal(t, 1, h.Append(UserTurn("a")))
	assert.Equal(t, 2, h.Append(AssistantTurn("b", nil), UserTurn("c")))
	assert.Equal(t, 4, h.Len())
}

func TestHistoryTurnsIsCopy(t *testing.T) {
	h := NewHistory("sys")
	h.Append(UserTurn("hi"))

	turns := h.Turns()
	turns[1].Content = "changed"
	assert.Equal(t, "hi", h.Last().Content)
}

func TestHistorySince(t *testing.T) {
	h := NewHistory("sys")
	h.Append(UserTurn("a"), UserTurn("b"))

	assert.Len(t, h.Since(1), 2)
	assert.Len(t, h.Since(-3), 3)
	assert.Nil(t, h.Since(3))
	assert.Equal(t, "b", h.Since(2)[0].Content)
}

func TestHistoryConcurrentBatchesStayContiguous(t *testing.T) {
	h := NewHistory("sys")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.Append(
				AssistantTurn("", []ToolCall{{ID: "x", Name: "time"}}),
				ToolResultTurn("x", "time", "now"),
			)
		}()
	}
	wg.Wait()

	turns := h.Turns()
	require.Len(t, turns, 101)
	for i := 1; i < len(turns); i += 2 {
		assert.Equal(t, RoleAssistant, turns[i].Role)
		assert.Equal(t, RoleTool, turns[i+1].Role)
	}
}

func TestTurnJSON(t *testing.T) {
	turn := ToolResultTurn("call_1", "send_email", `{"status":"success"}`)
	data, err := json.Marshal(turn)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "tool", raw["role"])
	assert.Equal(t, "call_1", raw["callId"])
	assert.Equal(t, "send_email", raw["toolName"])
	assert.NotContains(t, raw, "toolCalls")
}
