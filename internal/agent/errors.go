package agent

import (
	"errors"
	"fmt"
)

// ErrTurnInProgress is returned when a session already has a running turn.
var ErrTurnInProgress = errors.New("a turn is already in progress for this session")

// TransportError reports that the model could not be reached or rejected the
// request. The turn is abandoned; the user turn stays in the history.
type TransportError struct {
	Provider string
	Err      error
}

func (e *TransportError) Error() string {
	if e.Provider == "" {
		return fmt.Sprintf("model transport: %v", e.Err)
	}
	return fmt.Sprintf("model transport (%s): %v", e.Provider, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// LoopExceededError reports a turn that kept requesting tools past the hop limit.
type LoopExceededError struct {
	Hops int
}

func (e *LoopExceededError) Error() string {
	return fmt.Sprintf("model still requesting tools after %d round trips", e.Hops)
}
