package brain

import (
	"context"
	"sync"

	"github.com/ent0n29/gemchat/internal/chat"
)

// RecordedCall captures the exact request shape of one adapter call.
type RecordedCall struct {
	History []chat.Message
	Parts   []Part
}

// RecordingAdapter wraps deterministic replies with full call capture so
// tests can assert that replaying the same message log reproduces an
// identical request history (role order and content preserved).
type RecordingAdapter struct {
	mu    sync.Mutex
	calls []RecordedCall

	// ReplyText is streamed in two deltas and returned; Err, when set, is
	// returned instead after the call is recorded.
	ReplyText string
	Err       error
}

func NewRecordingAdapter(replyText string) *RecordingAdapter {
	return &RecordingAdapter{ReplyText: replyText}
}

func (a *RecordingAdapter) StreamMessage(ctx context.Context, history []chat.Message, parts []Part, onDelta DeltaHandler) (Reply, error) {
	call := RecordedCall{
		History: make([]chat.Message, len(history)),
		Parts:   make([]Part, len(parts)),
	}
	copy(call.History, history)
	copy(call.Parts, parts)

	a.mu.Lock()
	a.calls = append(a.calls, call)
	err := a.Err
	text := a.ReplyText
	a.mu.Unlock()

	if err != nil {
		return Reply{}, err
	}

	if onDelta != nil && text != "" {
		half := len(text) / 2
		for _, delta := range []string{text[:half], text[half:]} {
			if delta == "" {
				continue
			}
			if err := onDelta(delta); err != nil {
				return Reply{}, err
			}
		}
	}
	return Reply{Text: text}, nil
}

// Calls returns a copy of every recorded call in order.
func (a *RecordingAdapter) Calls() []RecordedCall {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]RecordedCall, len(a.calls))
	copy(out, a.calls)
	return out
}
