package brain

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ent0n29/gemchat/internal/chat"
)

// Part is one piece of an outgoing user turn: either text or inline bytes
// (image or PDF payloads ride along as data parts).
type Part struct {
	Text     string
	MIMEType string
	Data     []byte
}

// TextPart wraps plain text.
func TextPart(text string) Part { return Part{Text: text} }

// DataPart wraps inline bytes with their media type.
func DataPart(mimeType string, data []byte) Part {
	return Part{MIMEType: mimeType, Data: data}
}

// Reply is the final response after streaming deltas.
type Reply struct {
	Text string `json:"text"`
}

// DeltaHandler receives streaming text fragments.
type DeltaHandler func(delta string) error

// Adapter bridges chat sessions with the generative model. The full session
// history is replayed on every call, so switching sessions needs no
// adapter-side state: identical history yields an identical request shape.
type Adapter interface {
	StreamMessage(ctx context.Context, history []chat.Message, parts []Part, onDelta DeltaHandler) (Reply, error)
}

// Config controls adapter construction.
type Config struct {
	Mode              string
	APIKey            string
	Model             string
	SystemInstruction string
}

// NewAdapter builds the adapter for the configured mode and reports which
// mode was resolved. In auto mode a missing API key falls back to the
// deterministic mock so the service can still come up.
func NewAdapter(ctx context.Context, cfg Config) (Adapter, string, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.Mode))
	if mode == "" {
		mode = "auto"
	}

	switch mode {
	case "auto":
		if strings.TrimSpace(cfg.APIKey) == "" {
			return NewMockAdapter(), "mock", nil
		}
		a, err := NewGeminiAdapter(ctx, cfg.APIKey, cfg.Model, cfg.SystemInstruction)
		if err != nil {
			return nil, "", err
		}
		return a, "gemini", nil
	case "gemini":
		if strings.TrimSpace(cfg.APIKey) == "" {
			return nil, "", errors.New("GEMINI_API_KEY is required for gemini mode")
		}
		a, err := NewGeminiAdapter(ctx, cfg.APIKey, cfg.Model, cfg.SystemInstruction)
		if err != nil {
			return nil, "", err
		}
		return a, "gemini", nil
	case "mock":
		return NewMockAdapter(), "mock", nil
	default:
		return nil, "", fmt.Errorf("unsupported brain mode %q", cfg.Mode)
	}
}
