package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/soyeahso/assistant/internal/domain"
)

// ErrNotFound is returned when a session does not exist.
var ErrNotFound = errors.New("session not found")

// Invocation is one recorded tool run.
type Invocation struct {
	SessionID string        `json:"sessionId"`
	CallID    string        `json:"callId"`
	Tool      string        `json:"tool"`
	Status    string        `json:"status"`
	Reason    string        `json:"reason,omitempty"`
	Duration  time.Duration `json:"duration"`
	CreatedAt time.Time     `json:"createdAt"`
}

// SearchHit is a turn matching a full-text query.
type SearchHit struct {
	SessionID string      `json:"sessionId"`
	Index     int         `json:"index"`
	Turn      domain.Turn `json:"turn"`
	Rank      float64     `json:"rank"`
}

// TranscriptStore keeps session transcripts.
type TranscriptStore struct {
	db *DB
}

// NewTranscriptStore creates a transcript store using the given database.
func NewTranscriptStore(db *DB) *TranscriptStore {
	return &TranscriptStore{db: db}
}

// EnsureSession creates the session row if it is missing.
func (s *TranscriptStore) EnsureSession(ctx context.Context, id, model string, createdAt time.Time) error {
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	ts := formatTime(createdAt)
	_, err := s.db.sql.ExecContext(ctx,
		`INSERT INTO sessions (id, model, created_at, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO NOTHING`,
		id, model, ts, ts,
	)
	if err != nil {
		return fmt.Errorf("creating session %s: %w", id, err)
	}
	return nil
}

// AppendTurn stores the turn at position index of the session history.
// Rewriting an existing position is a no-op.
func (s *TranscriptStore) AppendTurn(ctx context.Context, sessionID string, index int, t domain.Turn) error {
	var toolCalls sql.NullString
	if len(t.ToolCalls) > 0 {
		data, err := json.Marshal(t.ToolCalls)
		if err != nil {
			return fmt.Errorf("encoding tool calls: %w", err)
		}
		toolCalls = sql.NullString{String: string(data), Valid: true}
	}
	ts := t.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	tx, err := s.db.sql.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO turns (session_id, idx, role, content, tool_calls, call_id, tool_name, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(session_id, idx) DO NOTHING`,
		sessionID, index, string(t.Role), t.Content, toolCalls, t.CallID, t.ToolName, formatTime(ts),
	); err != nil {
		return fmt.Errorf("appending turn %d to %s: %w", index, sessionID, err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE sessions SET updated_at = ? WHERE id = ?`, formatTime(ts), sessionID,
	); err != nil {
		return err
	}
	return tx.Commit()
}

// RecordInvocation stores a tool run.
func (s *TranscriptStore) RecordInvocation(ctx context.Context, inv Invocation) error {
	if inv.CreatedAt.IsZero() {
		inv.CreatedAt = time.Now()
	}
	_, err := s.db.sql.ExecContext(ctx,
		`INSERT INTO tool_invocations (session_id, call_id, tool, status, reason, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		inv.SessionID, inv.CallID, inv.Tool, inv.Status, inv.Reason,
		inv.Duration.Milliseconds(), formatTime(inv.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("recording invocation %s: %w", inv.CallID, err)
	}
	return nil
}

const summaryColumns = `s.id, s.model, s.created_at, s.updated_at,
	(SELECT COUNT(*) FROM turns t WHERE t.session_id = s.id)`

// ListSessions returns sessions, most recently active first.
// Limit of 0 defaults to 50.
func (s *TranscriptStore) ListSessions(ctx context.Context, limit int) ([]domain.SessionSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.sql.QueryContext(ctx,
		`SELECT `+summaryColumns+` FROM sessions s ORDER BY s.updated_at DESC, s.id LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.SessionSummary
	for rows.Next() {
		sum, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

// Session returns one session summary, or ErrNotFound.
func (s *TranscriptStore) Session(ctx context.Context, id string) (domain.SessionSummary, error) {
	row := s.db.sql.QueryRowContext(ctx, `SELECT `+summaryColumns+` FROM sessions s WHERE s.id = ?`, id)
	sum, err := scanSummary(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.SessionSummary{}, ErrNotFound
	}
	return sum, err
}

// ResolveID expands a unique id prefix to a full session id.
func (s *TranscriptStore) ResolveID(ctx context.Context, prefix string) (string, error) {
	rows, err := s.db.sql.QueryContext(ctx,
		`SELECT id FROM sessions WHERE substr(id, 1, length(?)) = ? LIMIT 2`, prefix, prefix,
	)
	if err != nil {
		return "", err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return "", err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	switch len(ids) {
	case 0:
		return "", ErrNotFound
	case 1:
		return ids[0], nil
	default:
		return "", fmt.Errorf("session prefix %q is ambiguous", prefix)
	}
}

// Turns returns the recorded history of a session in order.
func (s *TranscriptStore) Turns(ctx context.Context, sessionID string) ([]domain.Turn, error) {
	if _, err := s.Session(ctx, sessionID); err != nil {
		return nil, err
	}
	rows, err := s.db.sql.QueryContext(ctx,
		`SELECT role, content, tool_calls, call_id, tool_name, timestamp
		 FROM turns WHERE session_id = ? ORDER BY idx`, sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Turn
	for rows.Next() {
		t, err := scanTurn(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Invocations returns the tool runs recorded for a session.
func (s *TranscriptStore) Invocations(ctx context.Context, sessionID string) ([]Invocation, error) {
	rows, err := s.db.sql.QueryContext(ctx,
		`SELECT session_id, call_id, tool, status, reason, duration_ms, created_at
		 FROM tool_invocations WHERE session_id = ? ORDER BY id`, sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Invocation
	for rows.Next() {
		var inv Invocation
		var ms int64
		var created string
		if err := rows.Scan(&inv.SessionID, &inv.CallID, &inv.Tool, &inv.Status, &inv.Reason, &ms, &created); err != nil {
			return nil, err
		}
		inv.Duration = time.Duration(ms) * time.Millisecond
		inv.CreatedAt = parseTime(created)
		out = append(out, inv)
	}
	return out, rows.Err()
}

// Search finds turns matching an FTS5 query, best match first.
// Limit of 0 defaults to 20.
func (s *TranscriptStore) Search(ctx context.Context, query string, limit int) ([]SearchHit, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.sql.QueryContext(ctx,
		`SELECT t.session_id, t.idx, t.role, t.content, t.tool_calls, t.call_id, t.tool_name, t.timestamp, rank
		 FROM turns_fts
		 JOIN turns t ON t.rowid = turns_fts.rowid
		 WHERE turns_fts MATCH ?
		 ORDER BY rank
		 LIMIT ?`,
		query, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("searching transcripts: %w", err)
	}
	defer rows.Close()

	var out []SearchHit
	for rows.Next() {
		var h SearchHit
		var role, ts string
		var toolCalls sql.NullString
		if err := rows.Scan(&h.SessionID, &h.Index, &role, &h.Turn.Content, &toolCalls,
			&h.Turn.CallID, &h.Turn.ToolName, &ts, &h.Rank); err != nil {
			return nil, err
		}
		if err := fillTurn(&h.Turn, role, toolCalls, ts); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// DeleteSession removes a session and everything recorded for it.
func (s *TranscriptStore) DeleteSession(ctx context.Context, id string) error {
	res, err := s.db.sql.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSummary(row scanner) (domain.SessionSummary, error) {
	var sum domain.SessionSummary
	var created, updated string
	if err := row.Scan(&sum.ID, &sum.Model, &created, &updated, &sum.TurnCount); err != nil {
		return domain.SessionSummary{}, err
	}
	sum.CreatedAt = parseTime(created)
	sum.UpdatedAt = parseTime(updated)
	return sum, nil
}

func scanTurn(row scanner) (domain.Turn, error) {
	var t domain.Turn
	var role, ts string
	var toolCalls sql.NullString
	if err := row.Scan(&role, &t.Content, &toolCalls, &t.CallID, &t.ToolName, &ts); err != nil {
		return domain.Turn{}, err
	}
	if err := fillTurn(&t, role, toolCalls, ts); err != nil {
		return domain.Turn{}, err
	}
	return t, nil
}

func fillTurn(t *domain.Turn, role string, toolCalls sql.NullString, ts string) error {
	t.Role = domain.Role(role)
	t.Timestamp = parseTime(ts)
	if toolCalls.Valid && toolCalls.String != "" {
		if err := json.Unmarshal([]byte(toolCalls.String), &t.ToolCalls); err != nil {
			return fmt.Errorf("decoding tool calls: %w", err)
		}
	}
	return nil
}
