package agent

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/soyeahso/assistant/internal/domain"
)

// Session is one conversation. Its history is owned by the session and is
// only appended to by the runner.
type Session struct {
	ID        string
	Model     string
	CreatedAt time.Time
	History   *domain.History

	busy    atomic.Bool
	updated atomic.Int64 // unix nanos
}

func newSession(model, system string) *Session {
	now := time.Now()
	s := &Session{
		ID:        uuid.NewString(),
		Model:     model,
		CreatedAt: now,
		History:   domain.NewHistory(system),
	}
	s.updated.Store(now.UnixNano())
	return s
}

// Busy reports whether a turn is running.
func (s *Session) Busy() bool { return s.busy.Load() }

// Summary describes the session for listings.
func (s *Session) Summary() domain.SessionSummary {
	return domain.SessionSummary{
		ID:        s.ID,
		Model:     s.Model,
		CreatedAt: s.CreatedAt,
		UpdatedAt: time.Unix(0, s.updated.Load()),
		TurnCount: s.History.Len(),
	}
}

func (s *Session) begin() bool { return s.busy.CompareAndSwap(false, true) }

func (s *Session) end() { s.busy.Store(false) }

func (s *Session) touch() { s.updated.Store(time.Now().UnixNano()) }
