package domain

import "time"

// Role identifies who produced a turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant, RoleTool:
		return true
	}
	return false
}

// ToolCall is a single function call request issued by the model.
type ToolCall struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Input string `json:"input"` // JSON object
}

// Turn is a single entry in a conversation history.
type Turn struct {
	Role      Role       `json:"role"`
	Content   string     `json:"content"`
	ToolCalls []ToolCall `json:"toolCalls,omitempty"`
	CallID    string     `json:"callId,omitempty"`   // tool turns only
	ToolName  string     `json:"toolName,omitempty"` // tool turns only
	Timestamp time.Time  `json:"timestamp"`
}

// SystemTurn returns a system turn carrying instructions.
func SystemTurn(instructions string) Turn {
	return Turn{Role: RoleSystem, Content: instructions, Timestamp: time.Now()}
}

// UserTurn returns a user turn carrying text.
func UserTurn(text string) Turn {
	return Turn{Role: RoleUser, Content: text, Timestamp: time.Now()}
}

// AssistantTurn returns an assistant turn. calls may be nil for a final answer.
func AssistantTurn(text string, calls []ToolCall) Turn {
	return Turn{Role: RoleAssistant, Content: text, ToolCalls: calls, Timestamp: time.Now()}
}

// ToolResultTurn returns the tool turn answering the call identified by callID.
func ToolResultTurn(callID, toolName, content string) Turn {
	return Turn{Role: RoleTool, Content: content, CallID: callID, ToolName: toolName, Timestamp: time.Now()}
}

// HasToolCalls reports whether the turn asks for capability invocations.
func (t Turn) HasToolCalls() bool {
	return len(t.ToolCalls) > 0
}
