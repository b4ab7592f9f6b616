package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// MessageType identifies websocket payload variants.
type MessageType string

const (
	TypeUserMessage        MessageType = "user_message"
	TypeClientControl      MessageType = "client_control"
	TypeAssistantTextDelta MessageType = "assistant_text_delta"
	TypeAssistantTurnEnd   MessageType = "assistant_turn_end"
	TypeSessionRenamed     MessageType = "session_renamed"
	TypeReminderSet        MessageType = "reminder_set"
	TypeReminderFired      MessageType = "reminder_fired"
	TypeErrorEvent         MessageType = "error_event"
)

var ErrUnsupportedType = errors.New("unsupported message type")

type Envelope struct {
	Type MessageType `json:"type"`
}

// UserMessage is the only client-to-server variant. SessionID may be empty,
// in which case the turn runs against the active session.
type UserMessage struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id,omitempty"`
	Text      string      `json:"text"`
	TSMs      int64       `json:"ts_ms,omitempty"`
}

// ClientControl drives session lifecycle over the socket. Action is one of
// "new", "switch" or "delete"; switch and delete require SessionID.
type ClientControl struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id,omitempty"`
	Action    string      `json:"action"`
}

type AssistantTextDelta struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	TurnID    string      `json:"turn_id"`
	TextDelta string      `json:"text_delta"`
}

type AssistantTurnEnd struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	TurnID    string      `json:"turn_id"`
	Reason    string      `json:"reason"`
	FullText  string      `json:"full_text"`
}

type SessionRenamed struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	Name      string      `json:"name"`
}

type ReminderSet struct {
	Type         MessageType `json:"type"`
	SessionID    string      `json:"session_id"`
	ReminderID   string      `json:"reminder_id"`
	Task         string      `json:"task"`
	FireAt       string      `json:"fire_at"`
	Local        bool        `json:"local"`
	Confirmation string      `json:"confirmation"`
}

type ReminderFired struct {
	Type       MessageType `json:"type"`
	ReminderID string      `json:"reminder_id"`
	Task       string      `json:"task"`
	FireAt     string      `json:"fire_at"`
}

type ErrorEvent struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	Code      string      `json:"code"`
	Retryable bool        `json:"retryable"`
	Detail    string      `json:"detail"`
}

// ParseClientMessage validates and decodes a raw client frame.
func ParseClientMessage(raw []byte) (any, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("invalid envelope: %w", err)
	}

	switch env.Type {
	case TypeUserMessage:
		var msg UserMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		if msg.Text == "" {
			return nil, errors.New("invalid user_message")
		}
		return msg, nil
	case TypeClientControl:
		var msg ClientControl
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		switch msg.Action {
		case "new":
		case "switch", "delete":
			if msg.SessionID == "" {
				return nil, errors.New("invalid client_control")
			}
		default:
			return nil, errors.New("invalid client_control")
		}
		return msg, nil
	default:
		return nil, ErrUnsupportedType
	}
}
