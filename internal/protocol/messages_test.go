package protocol

import (
	"errors"
	"testing"
)

func TestParseUserMessage(t *testing.T) {
	raw := []byte(`{"type":"user_message","session_id":"s1","text":"hello","ts_ms":42}`)
	got, err := ParseClientMessage(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	msg, ok := got.(UserMessage)
	if !ok {
		t.Fatalf("got %T, want UserMessage", got)
	}
	if msg.SessionID != "s1" || msg.Text != "hello" || msg.TSMs != 42 {
		t.Fatalf("unexpected message: %+v", msg)
	}
}

func TestParseUserMessageWithoutSession(t *testing.T) {
	got, err := ParseClientMessage([]byte(`{"type":"user_message","text":"hi"}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if msg := got.(UserMessage); msg.SessionID != "" {
		t.Fatalf("session_id = %q, want empty", msg.SessionID)
	}
}

func TestParseRejectsEmptyText(t *testing.T) {
	if _, err := ParseClientMessage([]byte(`{"type":"user_message","text":""}`)); err == nil {
		t.Fatal("expected error for empty text")
	}
}

func TestParseClientControl(t *testing.T) {
	cases := []struct {
		raw string
		ok  bool
	}{
		{`{"type":"client_control","action":"new"}`, true},
		{`{"type":"client_control","action":"switch","session_id":"s1"}`, true},
		{`{"type":"client_control","action":"delete","session_id":"s1"}`, true},
		{`{"type":"client_control","action":"switch"}`, false},
		{`{"type":"client_control","action":"delete"}`, false},
		{`{"type":"client_control","action":"reboot"}`, false},
	}
	for _, tc := range cases {
		_, err := ParseClientMessage([]byte(tc.raw))
		if tc.ok && err != nil {
			t.Fatalf("%s: unexpected error %v", tc.raw, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("%s: expected error", tc.raw)
		}
	}
}

func TestParseRejectsServerTypes(t *testing.T) {
	for _, typ := range []string{"assistant_text_delta", "assistant_turn_end", "reminder_fired", "bogus"} {
		raw := []byte(`{"type":"` + typ + `"}`)
		if _, err := ParseClientMessage(raw); !errors.Is(err, ErrUnsupportedType) {
			t.Fatalf("type %q: err = %v, want ErrUnsupportedType", typ, err)
		}
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	if _, err := ParseClientMessage([]byte("{not json")); err == nil {
		t.Fatal("expected error for invalid json")
	}
}
