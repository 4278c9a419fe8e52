package gateway

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/soyeahso/assistant/internal/agent"
	"github.com/soyeahso/assistant/internal/domain"
	"github.com/soyeahso/assistant/internal/logging"
)

// Client represents an authenticated WebSocket connection. It owns the
// sessions started over it and the chat turns it has in flight; both go
// away when the connection closes.
type Client struct {
	ConnID      string
	Info        ClientInfo
	Socket      *websocket.Conn
	AuthResult  AuthResult
	ConnectedAt time.Time

	ctx    context.Context
	cancel context.CancelFunc
	turns  sync.WaitGroup

	mu       sync.Mutex
	closed   bool
	sessions map[string]*agent.Session
	order    []string
	inflight map[string]context.CancelFunc // request id → cancel
	log      *logging.Logger
}

// NewClient creates a Client for a newly authenticated WebSocket connection.
func NewClient(conn *websocket.Conn, info ClientInfo, authResult AuthResult, log *logging.Logger) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		ConnID:      uuid.New().String(),
		Info:        info,
		Socket:      conn,
		AuthResult:  authResult,
		ConnectedAt: time.Now(),
		ctx:         ctx,
		cancel:      cancel,
		sessions:    make(map[string]*agent.Session),
		inflight:    make(map[string]context.CancelFunc),
		log:         log,
	}
}

// Context is cancelled when the connection closes.
func (c *Client) Context() context.Context { return c.ctx }

// Send sends a frame to the client. Thread-safe.
func (c *Client) Send(frame Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClientClosed
	}
	return c.Socket.WriteJSON(frame)
}

// SendEvent sends a named event with payload.
func (c *Client) SendEvent(event string, payload any, seq int64) error {
	f, err := NewEvent(event, payload, seq)
	if err != nil {
		return err
	}
	return c.Send(f)
}

// Respond sends a success response for the given request ID.
func (c *Client) Respond(reqID string, payload any) error {
	f, err := NewResponse(reqID, payload)
	if err != nil {
		return err
	}
	return c.Send(f)
}

// RespondError sends an error response for the given request ID.
func (c *Client) RespondError(reqID string, errShape ErrorShape) error {
	return c.Send(NewErrorResponse(reqID, errShape))
}

// ReadFrame reads the next frame from the WebSocket.
func (c *Client) ReadFrame() (Frame, error) {
	_, msg, err := c.Socket.ReadMessage()
	if err != nil {
		return Frame{}, err
	}
	var f Frame
	if err := json.Unmarshal(msg, &f); err != nil {
		return Frame{}, err
	}
	return f, nil
}

// AddSession attaches a session to the connection.
func (c *Client) AddSession(s *agent.Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessions[s.ID] = s
	c.order = append(c.order, s.ID)
}

// Session returns a session owned by the connection.
func (c *Client) Session(id string) (*agent.Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.sessions[id]
	return s, ok
}

// SessionCount returns how many sessions the connection owns.
func (c *Client) SessionCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sessions)
}

// Sessions summarizes the connection's sessions in creation order.
func (c *Client) Sessions() []domain.SessionSummary {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.SessionSummary, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.sessions[id].Summary())
	}
	return out
}

// track registers an in-flight request. It returns false when the id is
// already running or the connection is closed.
func (c *Client) track(reqID string, cancel context.CancelFunc) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	if _, dup := c.inflight[reqID]; dup {
		return false
	}
	c.inflight[reqID] = cancel
	c.turns.Add(1)
	return true
}

func (c *Client) untrack(reqID string) {
	c.mu.Lock()
	cancel, ok := c.inflight[reqID]
	delete(c.inflight, reqID)
	c.mu.Unlock()
	if ok {
		cancel()
		c.turns.Done()
	}
}

// Cancel aborts an in-flight request. It reports whether one was running.
func (c *Client) Cancel(reqID string) bool {
	c.mu.Lock()
	cancel, ok := c.inflight[reqID]
	c.mu.Unlock()
	if ok {
		cancel()
	}
	return ok
}

// Close cancels in-flight turns, waits for them, and closes the socket.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	c.cancel()
	err := c.Socket.Close()
	c.turns.Wait()

	c.mu.Lock()
	c.sessions = map[string]*agent.Session{}
	c.order = nil
	c.mu.Unlock()
	return err
}

// ClientRegistry manages connected clients.
type ClientRegistry struct {
	mu      sync.RWMutex
	clients map[string]*Client // connID → Client
	log     *logging.Logger
}

// NewClientRegistry creates an empty client registry.
func NewClientRegistry(log *logging.Logger) *ClientRegistry {
	return &ClientRegistry{
		clients: make(map[string]*Client),
		log:     log,
	}
}

// Add registers a connected client.
func (r *ClientRegistry) Add(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[c.ConnID] = c
	r.log.Info().Str("connId", c.ConnID).Str("client", c.Info.ID).Msg("client connected")
}

// Remove unregisters a client by connection ID.
func (r *ClientRegistry) Remove(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.clients, connID)
	r.log.Info().Str("connId", connID).Msg("client disconnected")
}

// Get returns a client by connection ID.
func (r *ClientRegistry) Get(connID string) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clients[connID]
	return c, ok
}

// Count returns the number of connected clients.
func (r *ClientRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// CloseAll closes all connected clients.
func (r *ClientRegistry) CloseAll() {
	r.mu.Lock()
	clients := make([]*Client, 0, len(r.clients))
	for id, c := range r.clients {
		clients = append(clients, c)
		delete(r.clients, id)
	}
	r.mu.Unlock()

	for _, c := range clients {
		c.Close()
	}
}
