package gateway

import (
	"encoding/json"

	"github.com/soyeahso/assistant/internal/domain"
	"github.com/soyeahso/assistant/internal/llm"
	"github.com/soyeahso/assistant/internal/tool"
)

// Frame types for the WebSocket protocol.
const (
	FrameTypeRequest  = "req"
	FrameTypeResponse = "res"
	FrameTypeEvent    = "event"
)

// RPC methods.
const (
	MethodConnect      = "connect"
	MethodHealth       = "health"
	MethodToolsList    = "tools.list"
	MethodSessionStart = "session.start"
	MethodSessionList  = "session.list"
	MethodChatSend     = "chat.send"
	MethodChatCancel   = "chat.cancel"
	MethodConfigGet    = "config.get"
	MethodConfigSet    = "config.set"
)

// Server-pushed events.
const (
	EventConnectChallenge = "connect.challenge"
	EventChatDelta        = "chat.delta"
	EventChatTool         = "chat.tool"
)

// Error codes carried in ErrorShape.Code.
const (
	CodeProtocolError  = "protocol_error"
	CodeInvalidParams  = "invalid_params"
	CodeUnauthorized   = "unauthorized"
	CodeMethodNotFound = "method_not_found"
	CodeNotFound       = "not_found"
	CodeForbidden      = "forbidden"
	CodeUnavailable    = "unavailable"
	CodeTransport      = "transport_error"
	CodeLoopExceeded   = "loop_exceeded"
	CodeTurnInProgress = "turn_in_progress"
	CodeCancelled      = "cancelled"
	CodeTimeout        = "timeout"
	CodeAgentError     = "agent_error"
)

// Frame is the base envelope for all WebSocket messages.
// The Type field discriminates between request, response, and event frames.
type Frame struct {
	Type string `json:"type"`

	// Request fields
	ID     string          `json:"id,omitempty"`
	Method string          `json:"method,omitempty"`
	Params json.RawMessage `json:"params,omitempty"`

	// Response fields
	OK      *bool           `json:"ok,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`

	// Event fields
	Event string `json:"event,omitempty"`
	Seq   int64  `json:"seq,omitempty"`

	// Error (response only)
	Error *ErrorShape `json:"error,omitempty"`
}

// ErrorShape is the standard error format in response frames.
type ErrorShape struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Details   any    `json:"details,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}

// ConnectParams are sent by the client in the initial "connect" request.
type ConnectParams struct {
	MinProtocol int          `json:"minProtocol"`
	MaxProtocol int          `json:"maxProtocol"`
	Client      ClientInfo   `json:"client"`
	Auth        *ConnectAuth `json:"auth,omitempty"`
	UserAgent   string       `json:"userAgent,omitempty"`
}

// ClientInfo identifies the connecting client.
type ClientInfo struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName,omitempty"`
	Version     string `json:"version"`
	Platform    string `json:"platform,omitempty"`
}

// ConnectAuth carries credentials in the connect request.
type ConnectAuth struct {
	Token    string `json:"token,omitempty"`
	Password string `json:"password,omitempty"`
}

// HelloOK is the server's response payload after successful authentication.
type HelloOK struct {
	Protocol int          `json:"protocol"`
	Server   ServerInfo   `json:"server"`
	Features Features     `json:"features"`
	Policy   ServerPolicy `json:"policy"`
}

// ServerInfo identifies the gateway server.
type ServerInfo struct {
	Version string `json:"version"`
	Commit  string `json:"commit,omitempty"`
	ConnID  string `json:"connId"`
}

// Features advertises available RPC methods and events.
type Features struct {
	Methods []string `json:"methods"`
	Events  []string `json:"events"`
}

// ServerPolicy communicates protocol limits to the client.
type ServerPolicy struct {
	MaxPayload    int `json:"maxPayload"`
	TurnTimeoutMs int `json:"turnTimeoutMs"`
	MaxSessions   int `json:"maxSessions"`
}

// SessionStartParams opens a conversation on the connection.
type SessionStartParams struct {
	Instructions string `json:"instructions,omitempty"`
}

// SessionStartResult identifies the new conversation.
type SessionStartResult struct {
	SessionID string `json:"sessionId"`
	Model     string `json:"model,omitempty"`
}

// SessionListResult lists the conversations owned by the connection.
type SessionListResult struct {
	Sessions []domain.SessionSummary `json:"sessions"`
}

// ChatSendParams submits one user message. A blank SessionID starts a new
// session with the configured instructions.
type ChatSendParams struct {
	SessionID string `json:"sessionId,omitempty"`
	Message   string `json:"message"`
}

// ChatSendResult is the final answer of a turn.
type ChatSendResult struct {
	Response   string    `json:"response"`
	SessionID  string    `json:"sessionId"`
	Hops       int       `json:"hops"`
	ToolCalls  int       `json:"toolCalls"`
	Usage      llm.Usage `json:"usage"`
	DurationMs int64     `json:"durationMs"`
}

// ChatCancelParams names the chat.send request to abort.
type ChatCancelParams struct {
	RequestID string `json:"requestId"`
}

// ChatDelta is the payload of a chat.delta event.
type ChatDelta struct {
	RequestID string `json:"requestId"`
	SessionID string `json:"sessionId"`
	Content   string `json:"content"`
}

// ChatTool is the payload of a chat.tool event. Phase is "start" or "result".
type ChatTool struct {
	RequestID string      `json:"requestId"`
	SessionID string      `json:"sessionId"`
	Phase     string      `json:"phase"`
	Tool      string      `json:"tool"`
	CallID    string      `json:"callId"`
	Status    tool.Status `json:"status,omitempty"`
	Reason    tool.Reason `json:"reason,omitempty"`
}

// ToolInfo describes one capability function in tools.list.
type ToolInfo struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Parameters  tool.InputSchema `json:"parameters"`
	Returns     string           `json:"returns,omitempty"`
}

// NewRequest creates a request frame.
func NewRequest(id, method string, params any) (Frame, error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return Frame{}, err
	}
	return Frame{
		Type:   FrameTypeRequest,
		ID:     id,
		Method: method,
		Params: raw,
	}, nil
}

// NewResponse creates a success response frame.
func NewResponse(id string, payload any) (Frame, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Frame{}, err
	}
	ok := true
	return Frame{
		Type:    FrameTypeResponse,
		ID:      id,
		OK:      &ok,
		Payload: raw,
	}, nil
}

// NewErrorResponse creates an error response frame.
func NewErrorResponse(id string, errShape ErrorShape) Frame {
	ok := false
	return Frame{
		Type:  FrameTypeResponse,
		ID:    id,
		OK:    &ok,
		Error: &errShape,
	}
}

// NewEvent creates an event frame.
func NewEvent(event string, payload any, seq int64) (Frame, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Frame{}, err
	}
	return Frame{
		Type:    FrameTypeEvent,
		Event:   event,
		Payload: raw,
		Seq:     seq,
	}, nil
}

// Protocol version supported by this server.
const ProtocolVersion = 1
