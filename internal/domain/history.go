package domain

import "sync"

// History is the ordered, append-only record of a conversation. The first
// turn is always the system turn supplied at construction.
type History struct {
	mu    sync.RWMutex
	turns []Turn
}

// NewHistory returns a history seeded with one system turn.
func NewHistory(systemInstructions string) *History {
	return &History{turns: []Turn{SystemTurn(systemInstructions)}}
}

// Append adds turns to the end of the history and returns the index of the
// first one. A batch is appended atomically: readers never observe part of it.
func (h *History) Append(turns ...Turn) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	start := len(h.turns)
	h.turns = append(h.turns, turns...)
	return start
}

// Turns returns a copy of every turn in order.
func (h *History) Turns() []Turn {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]Turn, len(h.turns))
	copy(out, h.turns)
	return out
}

// Len returns the number of turns, including the system turn.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.turns)
}

// Last returns the most recent turn.
func (h *History) Last() Turn {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.turns[len(h.turns)-1]
}

// Since returns a copy of the turns at index i and after.
func (h *History) Since(i int) []Turn {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if i < 0 {
		i = 0
	}
	if i >= len(h.turns) {
		return nil
	}
	out := make([]Turn, len(h.turns)-i)
	copy(out, h.turns[i:])
	return out
}
