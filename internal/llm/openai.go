package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"

	"github.com/soyeahso/assistant/internal/logging"
	"github.com/soyeahso/assistant/internal/version"
)

// Supported OpenAI-compatible API flavours.
const (
	APIOpenAI = "openai"
	APIAzure  = "azure"
	APIOllama = "ollama"
)

const (
	defaultOpenAIBaseURL   = "https://api.openai.com/v1"
	defaultOllamaBaseURL   = "http://localhost:11434/v1"
	defaultAzureAPIVersion = "2024-10-21"
	defaultHeaderTimeout   = 120 * time.Second
	cognitiveServicesScope = "https://cognitiveservices.azure.com/.default"
)

// OpenAIConfig configures an OpenAIClient.
type OpenAIConfig struct {
	Name       string // provider name reported by Name()
	API        string // APIOpenAI | APIAzure | APIOllama
	BaseURL    string
	APIKey     string
	Model      string
	Deployment string // azure only
	APIVersion string // azure only
	Headers    map[string]string

	// Credential authenticates Azure requests with Entra ID when no API key
	// is configured.
	Credential azcore.TokenCredential

	// HeaderTimeout bounds the wait for response headers when HTTPClient is
	// nil. The streamed body is bounded only by the request context.
	HeaderTimeout time.Duration

	HTTPClient *http.Client
}

// OpenAIClient streams chat completions from an OpenAI-compatible endpoint.
type OpenAIClient struct {
	cfg    OpenAIConfig
	client *http.Client
	log    *logging.Logger
}

// NewOpenAIClient creates a client. Empty fields take per-API defaults.
func NewOpenAIClient(cfg OpenAIConfig, log *logging.Logger) *OpenAIClient {
	if cfg.API == "" {
		cfg.API = APIOpenAI
	}
	if cfg.Name == "" {
		cfg.Name = cfg.API
	}
	if cfg.BaseURL == "" {
		switch cfg.API {
		case APIOllama:
			cfg.BaseURL = defaultOllamaBaseURL
		case APIOpenAI:
			cfg.BaseURL = defaultOpenAIBaseURL
		}
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	if cfg.API == APIAzure && cfg.APIVersion == "" {
		cfg.APIVersion = defaultAzureAPIVersion
	}

	client := cfg.HTTPClient
	if client == nil {
		client = streamingHTTPClient(cfg.HeaderTimeout)
	}
	return &OpenAIClient{cfg: cfg, client: client, log: log.Sub("llm." + cfg.Name)}
}

func streamingHTTPClient(headerTimeout time.Duration) *http.Client {
	if headerTimeout <= 0 {
		headerTimeout = defaultHeaderTimeout
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = headerTimeout
	return &http.Client{Transport: transport}
}

// Name returns the provider name.
func (c *OpenAIClient) Name() string { return c.cfg.Name }

// Endpoint returns the chat completions URL.
func (c *OpenAIClient) Endpoint() string {
	if c.cfg.API == APIAzure {
		return fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s",
			c.cfg.BaseURL, url.PathEscape(c.cfg.Deployment), url.QueryEscape(c.cfg.APIVersion))
	}
	return c.cfg.BaseURL + "/chat/completions"
}

// Stream sends a streaming completion request. Transport and HTTP status
// failures are returned directly; failures after the response starts are
// delivered as an "error" event.
func (c *OpenAIClient) Stream(ctx context.Context, req CompletionRequest) (<-chan StreamEvent, error) {
	payload, err := json.Marshal(c.buildRequest(req))
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint(), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("User-Agent", version.UserAgent())
	if err := c.authorize(ctx, httpReq); err != nil {
		return nil, err
	}
	for k, v := range c.cfg.Headers {
		httpReq.Header.Set(k, v)
	}

	c.log.Debug().
		Str("model", c.model(req)).
		Int("messages", len(req.Messages)).
		Int("tools", len(req.Tools)).
		Msg("sending completion request")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, &ProviderError{Provider: c.cfg.Name, Message: err.Error()}
	}
	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		return nil, c.parseErrorResponse(resp)
	}

	events := make(chan StreamEvent, 16)
	go func() {
		defer close(events)
		defer resp.Body.Close()
		c.readStream(ctx, resp.Body, events)
	}()
	return events, nil
}

func (c *OpenAIClient) authorize(ctx context.Context, req *http.Request) error {
	switch {
	case c.cfg.API == APIAzure && c.cfg.APIKey != "":
		req.Header.Set("api-key", c.cfg.APIKey)
	case c.cfg.Credential != nil:
		token, err := c.cfg.Credential.GetToken(ctx, policy.TokenRequestOptions{
			Scopes: []string{cognitiveServicesScope},
		})
		if err != nil {
			return &ProviderError{Provider: c.cfg.Name, Code: http.StatusUnauthorized, Message: "get azure token: " + err.Error()}
		}
		c.log.Debug().Time("expiresOn", token.ExpiresOn).Msg("using Entra ID token")
		req.Header.Set("Authorization", "Bearer "+token.Token)
	case c.cfg.APIKey != "":
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}
	return nil
}

func (c *OpenAIClient) model(req CompletionRequest) string {
	if c.cfg.Model != "" {
		return c.cfg.Model
	}
	if c.cfg.Deployment != "" {
		return c.cfg.Deployment
	}
	return req.Model
}

// Wire types for the chat completions API.

type chatRequest struct {
	Model         string         `json:"model,omitempty"`
	Messages      []chatMessage  `json:"messages"`
	Tools         []toolSpec     `json:"tools,omitempty"`
	ToolChoice    string         `json:"tool_choice,omitempty"`
	MaxTokens     int            `json:"max_tokens,omitempty"`
	Temperature   *float64       `json:"temperature,omitempty"`
	Stream        bool           `json:"stream"`
	StreamOptions *streamOptions `json:"stream_options,omitempty"`
}

type streamOptions struct {
	IncludeUsage bool `json:"include_usage"`
}

type chatMessage struct {
	Role       string         `json:"role"`
	Content    *string        `json:"content"`
	ToolCalls  []wireToolCall `json:"tool_calls,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
	Name       string         `json:"name,omitempty"`
}

type wireToolCall struct {
	Index    *int         `json:"index,omitempty"`
	ID       string       `json:"id,omitempty"`
	Type     string       `json:"type,omitempty"`
	Function functionCall `json:"function"`
}

type functionCall struct {
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments"`
}

type toolSpec struct {
	Type     string       `json:"type"`
	Function functionSpec `json:"function"`
}

type functionSpec struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

type chatCompletionChunk struct {
	ID      string        `json:"id"`
	Model   string        `json:"model"`
	Choices []chunkChoice `json:"choices"`
	Usage   *wireUsage    `json:"usage,omitempty"`
}

type chunkChoice struct {
	Index        int        `json:"index"`
	Delta        chunkDelta `json:"delta"`
	FinishReason *string    `json:"finish_reason"`
}

type chunkDelta struct {
	Role      string         `json:"role,omitempty"`
	Content   *string        `json:"content,omitempty"`
	ToolCalls []wireToolCall `json:"tool_calls,omitempty"`
}

type wireUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

func (c *OpenAIClient) buildRequest(req CompletionRequest) chatRequest {
	out := chatRequest{
		Model:       c.model(req),
		Messages:    make([]chatMessage, 0, len(req.Messages)),
		ToolChoice:  req.ToolChoice,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		Stream:      true,
	}
	if c.cfg.API == APIOpenAI {
		out.StreamOptions = &streamOptions{IncludeUsage: true}
	}

	for _, m := range req.Messages {
		wm := chatMessage{Role: m.Role, ToolCallID: m.ToolCallID}
		if m.Role == RoleTool {
			wm.Name = m.Name
		}
		if m.Content != "" || len(m.ToolCalls) == 0 {
			content := m.Content
			wm.Content = &content
		}
		for _, tc := range m.ToolCalls {
			args := tc.Input
			if args == "" {
				args = "{}"
			}
			wm.ToolCalls = append(wm.ToolCalls, wireToolCall{
				ID:       tc.ID,
				Type:     "function",
				Function: functionCall{Name: tc.Name, Arguments: args},
			})
		}
		out.Messages = append(out.Messages, wm)
	}

	for _, t := range req.Tools {
		out.Tools = append(out.Tools, toolSpec{
			Type:     "function",
			Function: functionSpec{Name: t.Name, Description: t.Description, Parameters: t.Parameters},
		})
	}
	if len(out.Tools) == 0 {
		out.ToolChoice = ""
	}
	return out
}

// toolCallAccumulator assembles a tool call streamed in fragments.
type toolCallAccumulator struct {
	id   string
	name string
	args strings.Builder
}

// readStream parses server-sent events from r into events. It always ends
// with a "done" or "error" event unless ctx is cancelled. A body that ends
// before [DONE] or a finish_reason is reported as an error.
func (c *OpenAIClient) readStream(ctx context.Context, r io.Reader, events chan<- StreamEvent) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var (
		content strings.Builder
		calls   = map[int]*toolCallAccumulator{}
		final   = &CompletionResponse{Model: c.model(CompletionRequest{})}
		ended   bool
	)

	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "[DONE]" {
			ended = true
			break
		}

		var chunk chatCompletionChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			c.log.Debug().Err(err).Msg("skipping malformed chunk")
			continue
		}
		if chunk.Model != "" {
			final.Model = chunk.Model
		}
		if chunk.Usage != nil {
			final.Usage = Usage{
				InputTokens:  chunk.Usage.PromptTokens,
				OutputTokens: chunk.Usage.CompletionTokens,
				TotalTokens:  chunk.Usage.TotalTokens,
			}
		}
		if len(chunk.Choices) == 0 {
			continue
		}

		choice := chunk.Choices[0]
		if choice.FinishReason != nil && *choice.FinishReason != "" {
			final.FinishReason = *choice.FinishReason
			ended = true
		}
		if choice.Delta.Content != nil && *choice.Delta.Content != "" {
			content.WriteString(*choice.Delta.Content)
			if !sendEvent(ctx, events, StreamEvent{Type: EventDelta, Content: *choice.Delta.Content}) {
				return
			}
		}
		for i, tc := range choice.Delta.ToolCalls {
			idx := i
			if tc.Index != nil {
				idx = *tc.Index
			}
			acc, ok := calls[idx]
			if !ok {
				acc = &toolCallAccumulator{}
				calls[idx] = acc
			}
			if tc.ID != "" {
				acc.id = tc.ID
			}
			if tc.Function.Name != "" {
				acc.name += tc.Function.Name
			}
			acc.args.WriteString(tc.Function.Arguments)
		}
	}

	if err := scanner.Err(); err != nil {
		if ctx.Err() != nil {
			return
		}
		sendEvent(ctx, events, StreamEvent{Type: EventError, Error: fmt.Sprintf("%s: read stream: %v", c.cfg.Name, err)})
		return
	}
	if !ended {
		if ctx.Err() != nil {
			return
		}
		sendEvent(ctx, events, StreamEvent{Type: EventError, Error: c.cfg.Name + ": stream ended before completion"})
		return
	}

	final.Content = content.String()
	final.ToolCalls = assembleToolCalls(calls)
	sendEvent(ctx, events, StreamEvent{Type: EventDone, Response: final})
}

func assembleToolCalls(calls map[int]*toolCallAccumulator) []ToolCall {
	if len(calls) == 0 {
		return nil
	}
	idx := make([]int, 0, len(calls))
	for i := range calls {
		idx = append(idx, i)
	}
	sort.Ints(idx)

	out := make([]ToolCall, 0, len(idx))
	for _, i := range idx {
		acc := calls[i]
		args := acc.args.String()
		if strings.TrimSpace(args) == "" {
			args = "{}"
		}
		out = append(out, ToolCall{ID: acc.id, Name: acc.name, Input: args})
	}
	return out
}

func (c *OpenAIClient) parseErrorResponse(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))

	var apiErr struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
			Code    any    `json:"code"`
		} `json:"error"`
	}
	_ = json.Unmarshal(body, &apiErr)

	msg := apiErr.Error.Message
	if msg == "" {
		msg = strings.TrimSpace(string(body))
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	code := apiErr.Error.Type
	if s, ok := apiErr.Error.Code.(string); ok && s != "" {
		code = s
	}
	return &ProviderError{Provider: c.cfg.Name, Code: resp.StatusCode, Message: msg, Type: code}
}
