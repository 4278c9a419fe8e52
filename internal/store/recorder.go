package store

import (
	"context"
	"fmt"
	"time"

	"github.com/soyeahso/assistant/internal/domain"
	"github.com/soyeahso/assistant/internal/hooks"
	"github.com/soyeahso/assistant/internal/logging"
)

const recorderName = "transcript-recorder"

// Recorder writes conversation events into a TranscriptStore.
type Recorder struct {
	store *TranscriptStore
	log   *logging.Logger
}

// NewRecorder creates a recorder for store.
func NewRecorder(store *TranscriptStore, log *logging.Logger) *Recorder {
	return &Recorder{store: store, log: log.Sub("recorder")}
}

// Attach subscribes the recorder to the session events of hm.
func (r *Recorder) Attach(hm *hooks.Manager) {
	hm.On(hooks.EventSessionStart, recorderName, r.onSessionStart)
	hm.On(hooks.EventTurnAppended, recorderName, r.onTurnAppended)
	hm.On(hooks.EventToolInvoked, recorderName, r.onToolInvoked)
}

// Detach removes the recorder's handlers from hm.
func (r *Recorder) Detach(hm *hooks.Manager) {
	hm.Off(hooks.EventSessionStart, recorderName)
	hm.Off(hooks.EventTurnAppended, recorderName)
	hm.Off(hooks.EventToolInvoked, recorderName)
}

func (r *Recorder) onSessionStart(ctx context.Context, p hooks.Payload) error {
	id := p.String(hooks.KeySessionID)
	if id == "" {
		return fmt.Errorf("session_start without session id")
	}
	return r.store.EnsureSession(ctx, id, p.String(hooks.KeyModel), time.Now())
}

func (r *Recorder) onTurnAppended(ctx context.Context, p hooks.Payload) error {
	id := p.String(hooks.KeySessionID)
	turn, ok := p.Data[hooks.KeyTurn].(domain.Turn)
	if id == "" || !ok {
		return fmt.Errorf("turn_appended payload incomplete")
	}
	index, ok := p.Data[hooks.KeyIndex].(int)
	if !ok {
		return fmt.Errorf("turn_appended without index")
	}
	if err := r.store.EnsureSession(ctx, id, p.String(hooks.KeyModel), turn.Timestamp); err != nil {
		return err
	}
	return r.store.AppendTurn(ctx, id, index, turn)
}

func (r *Recorder) onToolInvoked(ctx context.Context, p hooks.Payload) error {
	dur, _ := p.Data[hooks.KeyDuration].(time.Duration)
	return r.store.RecordInvocation(ctx, Invocation{
		SessionID: p.String(hooks.KeySessionID),
		CallID:    p.String(hooks.KeyCallID),
		Tool:      p.String(hooks.KeyTool),
		Status:    p.String(hooks.KeyStatus),
		Reason:    p.String(hooks.KeyReason),
		Duration:  dur,
	})
}
