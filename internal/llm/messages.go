package llm

import (
	"encoding/json"

	"github.com/soyeahso/assistant/internal/domain"
	"github.com/soyeahso/assistant/internal/tool"
)

// MessagesFromTurns converts history turns into model messages.
func MessagesFromTurns(turns []domain.Turn) []Message {
	out := make([]Message, 0, len(turns))
	for _, t := range turns {
		m := Message{Role: string(t.Role), Content: t.Content}
		switch t.Role {
		case domain.RoleAssistant:
			for _, tc := range t.ToolCalls {
				m.ToolCalls = append(m.ToolCalls, ToolCall{ID: tc.ID, Name: tc.Name, Input: tc.Input})
			}
		case domain.RoleTool:
			m.ToolCallID = t.CallID
			m.Name = t.ToolName
		}
		out = append(out, m)
	}
	return out
}

// ToolDefinitions converts descriptors into model tool definitions.
func ToolDefinitions(descs []tool.Descriptor) []ToolDefinition {
	out := make([]ToolDefinition, 0, len(descs))
	for _, d := range descs {
		schema, _ := json.Marshal(d.Schema())
		desc := d.Description
		if d.Returns != "" {
			desc += " Returns: " + d.Returns
		}
		out = append(out, ToolDefinition{Name: d.Name, Description: desc, Parameters: schema})
	}
	return out
}

// DomainToolCalls converts model tool calls into history tool calls.
func DomainToolCalls(calls []ToolCall) []domain.ToolCall {
	if len(calls) == 0 {
		return nil
	}
	out := make([]domain.ToolCall, len(calls))
	for i, c := range calls {
		out[i] = domain.ToolCall{ID: c.ID, Name: c.Name, Input: c.Input}
	}
	return out
}
