package brain

import (
	"context"
	"fmt"
	"strings"

	"github.com/ent0n29/gemchat/internal/chat"
)

// MockAdapter produces deterministic local replies when no API key is
// configured. Identical history and parts always yield the same reply.
type MockAdapter struct{}

func NewMockAdapter() *MockAdapter { return &MockAdapter{} }

func (a *MockAdapter) StreamMessage(ctx context.Context, history []chat.Message, parts []Part, onDelta DeltaHandler) (Reply, error) {
	select {
	case <-ctx.Done():
		return Reply{}, ctx.Err()
	default:
	}

	text := buildMockReply(history, parts)
	if onDelta != nil && text != "" {
		if err := onDelta(text); err != nil {
			return Reply{}, err
		}
	}
	return Reply{Text: text}, nil
}

func buildMockReply(history []chat.Message, parts []Part) string {
	var input string
	for _, p := range parts {
		if p.Text != "" {
			input = strings.TrimSpace(p.Text)
			break
		}
	}
	if input == "" {
		input = "your attachment"
	}

	attachments := 0
	for _, p := range parts {
		if len(p.Data) > 0 {
			attachments++
		}
	}

	switch {
	case attachments > 0:
		return fmt.Sprintf("You said: %s (with %d attachment(s), %d earlier messages)", input, attachments, len(history))
	case len(history) > 0:
		return fmt.Sprintf("You said: %s (%d earlier messages)", input, len(history))
	default:
		return fmt.Sprintf("You said: %s", input)
	}
}
