package chat

import (
	"strings"
	"time"
	"unicode"
)

// Role identifies who authored a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one transcript entry. Immutable once appended; slice order is
// insertion order, display order and the order replayed to the model.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Session is one independent chat thread.
type Session struct {
	ID        string    `json:"session_id"`
	Name      string    `json:"name"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"created_at"`
}

// DefaultName is the placeholder before the first user message names a session.
const DefaultName = "New Chat"

const (
	nameWordLimit = 4
	nameRuneLimit = 30
)

// DeriveName builds a display name from the first user message: the first
// four words, truncated to 30 runes with an ellipsis, sentence-capitalized.
// Returns DefaultName when the text has no words.
func DeriveName(text string) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return DefaultName
	}
	if len(words) > nameWordLimit {
		words = words[:nameWordLimit]
	}
	name := strings.Join(words, " ")
	if runes := []rune(name); len(runes) > nameRuneLimit {
		name = string(runes[:nameRuneLimit]) + "..."
	}
	return capitalize(name)
}

// capitalize uppercases the first rune and lowercases the rest.
func capitalize(s string) string {
	runes := []rune(strings.ToLower(s))
	if len(runes) == 0 {
		return s
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
