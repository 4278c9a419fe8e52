package gateway

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/soyeahso/assistant/internal/agent"
	"github.com/soyeahso/assistant/internal/config"
	"github.com/soyeahso/assistant/internal/llm"
)

// safeConfigPrefixes lists config paths that config.get and config.set may
// touch. Everything else, credentials included, is denied.
var safeConfigPrefixes = []string{
	"gateway.port",
	"gateway.bind",
	"gateway.customBindHost",
	"gateway.allowedOrigins",
	"agent.maxHops",
	"agent.toolTimeout",
	"agent.parallelTools",
	"plugins.enabled",
	"plugins.alarm",
	"logging",
}

func isAllowedConfigPath(key string) bool {
	for _, prefix := range safeConfigPrefixes {
		if key == prefix || strings.HasPrefix(key, prefix+".") {
			return true
		}
	}
	return false
}

func (s *Server) registerHTTPRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /ws", s.handleWebSocket)
	mux.HandleFunc("/", handleNotFound)
}

func (s *Server) registerRPCHandlers() {
	s.Handle(MethodHealth, s.rpcHealth)
	s.Handle(MethodToolsList, s.rpcToolsList)
	s.Handle(MethodSessionStart, s.rpcSessionStart)
	s.Handle(MethodSessionList, s.rpcSessionList)
	s.Handle(MethodChatSend, s.rpcChatSend)
	s.Handle(MethodChatCancel, s.rpcChatCancel)
	s.Handle(MethodConfigGet, s.rpcConfigGet)
	s.Handle(MethodConfigSet, s.rpcConfigSet)
}

func (s *Server) rpcHealth(rc *RequestContext) {
	h := HealthResponse{
		Status:   "ok",
		Version:  s.version,
		Clients:  s.clients.Count(),
		UptimeMs: time.Since(s.startedAt).Milliseconds(),
	}
	if s.runner != nil {
		h.Tools = len(s.runner.Tools())
	}
	rc.Respond(h)
}

func (s *Server) rpcToolsList(rc *RequestContext) {
	tools := []ToolInfo{}
	if s.runner != nil {
		for _, d := range s.runner.Tools() {
			tools = append(tools, ToolInfo{
				Name:        d.Name,
				Description: d.Description,
				Parameters:  d.Schema(),
				Returns:     d.Returns,
			})
		}
	}
	rc.Respond(map[string]any{"tools": tools})
}

func (s *Server) rpcSessionStart(rc *RequestContext) {
	if s.runner == nil {
		rc.RespondError(CodeUnavailable, "no model provider configured")
		return
	}
	var p SessionStartParams
	if err := rc.Params(&p); err != nil {
		rc.RespondError(CodeInvalidParams, err.Error())
		return
	}
	if rc.Client.SessionCount() >= s.maxSessions {
		rc.RespondError(CodeUnavailable, "session limit reached for this connection")
		return
	}

	sess := s.runner.StartSession(rc.Client.Context(), p.Instructions)
	rc.Client.AddSession(sess)
	rc.Respond(SessionStartResult{SessionID: sess.ID, Model: sess.Model})
}

func (s *Server) rpcSessionList(rc *RequestContext) {
	rc.Respond(SessionListResult{Sessions: rc.Client.Sessions()})
}

// rpcChatSend validates the request and runs the turn on its own goroutine
// so chat.cancel can be read while it streams.
func (s *Server) rpcChatSend(rc *RequestContext) {
	if s.runner == nil {
		rc.RespondError(CodeUnavailable, "no model provider configured")
		return
	}

	var p ChatSendParams
	if err := rc.Params(&p); err != nil {
		rc.RespondError(CodeInvalidParams, err.Error())
		return
	}
	if strings.TrimSpace(p.Message) == "" {
		rc.RespondError(CodeInvalidParams, "message is required")
		return
	}
	if rc.Frame.ID == "" {
		rc.RespondError(CodeInvalidParams, "request id is required")
		return
	}

	var sess *agent.Session
	if p.SessionID == "" {
		if rc.Client.SessionCount() >= s.maxSessions {
			rc.RespondError(CodeUnavailable, "session limit reached for this connection")
			return
		}
		sess = s.runner.StartSession(rc.Client.Context(), "")
		rc.Client.AddSession(sess)
	} else {
		var ok bool
		if sess, ok = rc.Client.Session(p.SessionID); !ok {
			rc.RespondError(CodeNotFound, "unknown session: "+p.SessionID)
			return
		}
	}

	ctx, cancel := context.WithTimeout(rc.Client.Context(), s.turnTimeout)
	if !rc.Client.track(rc.Frame.ID, cancel) {
		cancel()
		rc.RespondError(CodeInvalidParams, "request id already in flight: "+rc.Frame.ID)
		return
	}

	go func() {
		result, err := s.runChat(ctx, rc, sess, p.Message)
		// Untrack before answering so a chat.cancel sent after the answer
		// finds nothing to cancel.
		rc.Client.untrack(rc.Frame.ID)
		if err != nil {
			rc.Fail(errorShape(err))
			return
		}
		rc.Respond(result)
	}()
}

func (s *Server) runChat(ctx context.Context, rc *RequestContext, sess *agent.Session, text string) (ChatSendResult, error) {
	reqID := rc.Frame.ID
	res, err := s.runner.RunStream(ctx, sess, text, func(ev agent.Event) {
		switch ev.Type {
		case agent.EventDelta:
			rc.Event(EventChatDelta, ChatDelta{RequestID: reqID, SessionID: sess.ID, Content: ev.Content})
		case agent.EventToolStart:
			rc.Event(EventChatTool, ChatTool{
				RequestID: reqID, SessionID: sess.ID, Phase: "start",
				Tool: ev.Tool, CallID: ev.CallID,
			})
		case agent.EventToolResult:
			rc.Event(EventChatTool, ChatTool{
				RequestID: reqID, SessionID: sess.ID, Phase: "result",
				Tool: ev.Tool, CallID: ev.CallID, Status: ev.Status, Reason: ev.Reason,
			})
		}
	})
	if err != nil {
		return ChatSendResult{}, err
	}
	return ChatSendResult{
		Response:   res.Response,
		SessionID:  sess.ID,
		Hops:       res.Hops,
		ToolCalls:  res.ToolCalls,
		Usage:      res.Usage,
		DurationMs: res.Duration.Milliseconds(),
	}, nil
}

// errorShape classifies a failed turn for the caller.
func errorShape(err error) ErrorShape {
	var te *agent.TransportError
	var le *agent.LoopExceededError
	switch {
	case errors.Is(err, agent.ErrTurnInProgress):
		return ErrorShape{Code: CodeTurnInProgress, Message: err.Error(), Retryable: true}
	case errors.As(err, &te):
		return ErrorShape{Code: CodeTransport, Message: err.Error(), Retryable: llm.IsRetryable(err)}
	case errors.As(err, &le):
		return ErrorShape{Code: CodeLoopExceeded, Message: err.Error(), Details: map[string]int{"hops": le.Hops}}
	case errors.Is(err, context.Canceled):
		return ErrorShape{Code: CodeCancelled, Message: "turn cancelled"}
	case errors.Is(err, context.DeadlineExceeded):
		return ErrorShape{Code: CodeTimeout, Message: "turn timed out", Retryable: true}
	default:
		return ErrorShape{Code: CodeAgentError, Message: err.Error()}
	}
}

func (s *Server) rpcChatCancel(rc *RequestContext) {
	var p ChatCancelParams
	if err := rc.Params(&p); err != nil {
		rc.RespondError(CodeInvalidParams, err.Error())
		return
	}
	if p.RequestID == "" {
		rc.RespondError(CodeInvalidParams, "requestId is required")
		return
	}
	cancelled := rc.Client.Cancel(p.RequestID)
	rc.Respond(map[string]any{"requestId": p.RequestID, "cancelled": cancelled})
}

type configGetParams struct {
	Key string `json:"key"`
}

func (s *Server) rpcConfigGet(rc *RequestContext) {
	var p configGetParams
	if err := rc.Params(&p); err != nil {
		rc.RespondError(CodeInvalidParams, err.Error())
		return
	}
	path, ok := s.configPath(rc, p.Key, "access denied for config path: ")
	if !ok {
		return
	}

	s.mu.RLock()
	val, found := config.GetValueAtPath(s.configRaw, path)
	s.mu.RUnlock()

	if !found {
		rc.RespondError(CodeNotFound, "key not found: "+p.Key)
		return
	}
	rc.Respond(map[string]any{"key": p.Key, "value": val})
}

type configSetParams struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

// rpcConfigSet edits the in-memory copy only; nothing is written to disk.
func (s *Server) rpcConfigSet(rc *RequestContext) {
	var p configSetParams
	if err := rc.Params(&p); err != nil {
		rc.RespondError(CodeInvalidParams, err.Error())
		return
	}
	path, ok := s.configPath(rc, p.Key, "cannot modify config path: ")
	if !ok {
		return
	}

	s.mu.Lock()
	config.SetValueAtPath(s.configRaw, path, p.Value)
	s.mu.Unlock()

	rc.Respond(map[string]any{"key": p.Key, "value": p.Value})
}

func (s *Server) configPath(rc *RequestContext, key, deny string) ([]string, bool) {
	if key == "" {
		rc.RespondError(CodeInvalidParams, "key is required")
		return nil, false
	}
	if !isAllowedConfigPath(key) {
		rc.RespondError(CodeForbidden, deny+key)
		return nil, false
	}
	path, err := config.ParseConfigPath(key)
	if err != nil {
		rc.RespondError(CodeInvalidParams, err.Error())
		return nil, false
	}
	return path, true
}
