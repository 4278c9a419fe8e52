package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ProviderError is returned when a model provider fails.
type ProviderError struct {
	Provider string
	Message  string
	Code     int    // HTTP status code (401, 429, 500, etc.)
	Type     string // provider error code, e.g. "content_filter"
}

func (e *ProviderError) Error() string {
	if e.Code > 0 {
		return fmt.Sprintf("%s: %d %s", e.Provider, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

// IsRetryable reports whether err suggests the request may succeed later or
// on another provider. The orchestration loop never retries on its own;
// callers decide.
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}

	var provErr *ProviderError
	if errors.As(err, &provErr) {
		switch provErr.Code {
		case 401, 403, 408, 429, 500, 502, 503, 504, 529:
			return true
		}
		if provErr.Code >= 400 && provErr.Code < 500 {
			return false
		}
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "overloaded") ||
		strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "capacity") ||
		strings.Contains(msg, "timeout")
}
