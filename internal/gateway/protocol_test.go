package gateway

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequest(t *testing.T) {
	f, err := NewRequest("r1", MethodChatSend, ChatSendParams{SessionID: "s1", Message: "hi"})
	require.NoError(t, err)
	assert.Equal(t, FrameTypeRequest, f.Type)
	assert.Equal(t, "r1", f.ID)
	assert.Equal(t, MethodChatSend, f.Method)
	assert.JSONEq(t, `{"sessionId":"s1","message":"hi"}`, string(f.Params))
}

func TestNewResponse(t *testing.T) {
	f, err := NewResponse("r1", SessionStartResult{SessionID: "s1"})
	require.NoError(t, err)
	assert.Equal(t, FrameTypeResponse, f.Type)
	require.NotNil(t, f.OK)
	assert.True(t, *f.OK)
	assert.Nil(t, f.Error)
	assert.JSONEq(t, `{"sessionId":"s1"}`, string(f.Payload))
}

func TestNewErrorResponse(t *testing.T) {
	f := NewErrorResponse("r1", ErrorShape{Code: CodeTransport, Message: "down", Retryable: true})

	data, err := json.Marshal(f)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"type": "res",
		"id": "r1",
		"ok": false,
		"error": {"code": "transport_error", "message": "down", "retryable": true}
	}`, string(data))
}

func TestNewEvent(t *testing.T) {
	f, err := NewEvent(EventChatDelta, ChatDelta{RequestID: "r1", SessionID: "s1", Content: "Hel"}, 7)
	require.NoError(t, err)

	data, err := json.Marshal(f)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"type": "event",
		"event": "chat.delta",
		"seq": 7,
		"payload": {"requestId": "r1", "sessionId": "s1", "content": "Hel"}
	}`, string(data))
}

func TestChatTool_OmitsEmptyOutcome(t *testing.T) {
	data, err := json.Marshal(ChatTool{RequestID: "r", SessionID: "s", Phase: "start", Tool: "time", CallID: "c"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"requestId":"r","sessionId":"s","phase":"start","tool":"time","callId":"c"}`, string(data))
}

func TestConnectParams_OmitsNilAuth(t *testing.T) {
	data, err := json.Marshal(ConnectParams{MinProtocol: 1, MaxProtocol: 1, Client: ClientInfo{ID: "cli", Version: "1"}})
	require.NoError(t, err)
	assert.NotContains(t, string(data), "auth")
}
