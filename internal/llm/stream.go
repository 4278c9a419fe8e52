package llm

import (
	"context"
	"errors"
	"strings"
)

// ErrIncompleteStream is returned when a stream closes without a final event.
var ErrIncompleteStream = errors.New("stream ended without a final response")

// Collect drains events, forwarding text deltas to onDelta, and returns the
// final response. It returns ctx.Err() if the context ends first.
func Collect(ctx context.Context, events <-chan StreamEvent, onDelta func(string)) (*CompletionResponse, error) {
	var text strings.Builder
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case ev, ok := <-events:
			if !ok {
				if err := ctx.Err(); err != nil {
					return nil, err
				}
				return nil, ErrIncompleteStream
			}
			switch ev.Type {
			case EventDelta:
				if ev.Content == "" {
					continue
				}
				text.WriteString(ev.Content)
				if onDelta != nil {
					onDelta(ev.Content)
				}
			case EventDone:
				resp := ev.Response
				if resp == nil {
					resp = &CompletionResponse{}
				}
				if resp.Content == "" {
					resp.Content = text.String()
				}
				return resp, nil
			case EventError:
				msg := ev.Error
				if msg == "" {
					msg = "unknown stream error"
				}
				return nil, errors.New(msg)
			}
		}
	}
}

// sendEvent delivers ev unless ctx ends first.
func sendEvent(ctx context.Context, ch chan<- StreamEvent, ev StreamEvent) bool {
	select {
	case ch <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
