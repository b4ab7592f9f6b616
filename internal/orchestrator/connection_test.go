package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/ent0n29/gemchat/internal/brain"
	"github.com/ent0n29/gemchat/internal/protocol"
	"github.com/ent0n29/gemchat/internal/reminder"
)

func collectUntilTurnEnd(t *testing.T, outbound <-chan any) []any {
	t.Helper()
	var got []any
	deadline := time.After(2 * time.Second)
	for {
		select {
		case msg := <-outbound:
			got = append(got, msg)
			if _, done := msg.(protocol.AssistantTurnEnd); done {
				return got
			}
		case <-deadline:
			t.Fatalf("no turn end after %d messages", len(got))
		}
	}
}

func TestRunConnectionStreamsTurn(t *testing.T) {
	rec := &brain.RecordingAdapter{ReplyText: "hello from the model"}
	o, _, _ := newTestOrchestrator(rec)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	inbound := make(chan any, 1)
	outbound := make(chan any, 16)

	done := make(chan error, 1)
	go func() { done <- o.RunConnection(ctx, inbound, outbound) }()

	inbound <- protocol.UserMessage{Type: protocol.TypeUserMessage, Text: "hi"}
	got := collectUntilTurnEnd(t, outbound)

	var deltas string
	var end protocol.AssistantTurnEnd
	sawRename := false
	for _, msg := range got {
		switch m := msg.(type) {
		case protocol.AssistantTextDelta:
			deltas += m.TextDelta
			if m.TurnID == "" {
				t.Fatal("delta without turn id")
			}
		case protocol.SessionRenamed:
			sawRename = true
		case protocol.AssistantTurnEnd:
			end = m
		}
	}
	if deltas != "hello from the model" {
		t.Fatalf("deltas = %q", deltas)
	}
	if !sawRename {
		t.Fatal("first turn should emit session_renamed")
	}
	if end.Reason != "completed" || end.FullText != "hello from the model" {
		t.Fatalf("turn end = %+v", end)
	}

	close(inbound)
	if err := <-done; err != nil {
		t.Fatalf("RunConnection: %v", err)
	}
}

func TestRunConnectionReminderTurn(t *testing.T) {
	rec := &brain.RecordingAdapter{ReplyText: "unused"}
	o, _, _ := newTestOrchestrator(rec)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	inbound := make(chan any, 1)
	outbound := make(chan any, 16)
	go o.RunConnection(ctx, inbound, outbound)

	inbound <- protocol.UserMessage{Type: protocol.TypeUserMessage, Text: "remind me to hydrate at 9:00pm"}
	got := collectUntilTurnEnd(t, outbound)

	var set *protocol.ReminderSet
	var end protocol.AssistantTurnEnd
	for _, msg := range got {
		switch m := msg.(type) {
		case protocol.ReminderSet:
			set = &m
		case protocol.AssistantTurnEnd:
			end = m
		}
	}
	if set == nil {
		t.Fatal("no reminder_set event")
	}
	if !set.Local {
		t.Fatal("reminder should be local without a backend")
	}
	if end.Reason != "reminder" {
		t.Fatalf("turn end reason = %q", end.Reason)
	}
	if len(rec.Calls()) != 0 {
		t.Fatal("model called for reminder turn")
	}
}

func TestRunConnectionControlLifecycle(t *testing.T) {
	o, sessions, _ := newTestOrchestrator(&brain.RecordingAdapter{ReplyText: "x"})
	first := sessions.ActiveID()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	inbound := make(chan any, 4)
	outbound := make(chan any, 16)
	go o.RunConnection(ctx, inbound, outbound)

	inbound <- protocol.ClientControl{Type: protocol.TypeClientControl, Action: "new"}

	select {
	case msg := <-outbound:
		renamed, ok := msg.(protocol.SessionRenamed)
		if !ok {
			t.Fatalf("got %T, want SessionRenamed", msg)
		}
		if renamed.SessionID == first {
			t.Fatal("new session should have a fresh id")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no response to control new")
	}
	if sessions.Count() != 2 {
		t.Fatalf("session count = %d, want 2", sessions.Count())
	}

	// Deleting down to the last session is refused.
	second := sessions.ActiveID()
	inbound <- protocol.ClientControl{Type: protocol.TypeClientControl, Action: "delete", SessionID: second}
	inbound <- protocol.ClientControl{Type: protocol.TypeClientControl, Action: "delete", SessionID: first}

	deadline := time.After(2 * time.Second)
	for sessions.Count() != 1 {
		select {
		case <-deadline:
			t.Fatalf("session count = %d, want 1", sessions.Count())
		case <-time.After(10 * time.Millisecond):
		}
	}
	select {
	case msg := <-outbound:
		evt, ok := msg.(protocol.ErrorEvent)
		if !ok {
			t.Fatalf("got %T, want ErrorEvent", msg)
		}
		if evt.Code != "last_session" {
			t.Fatalf("code = %q, want last_session", evt.Code)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no error for last-session delete")
	}
}

func TestBroadcastReminderReachesConnections(t *testing.T) {
	o, _, _ := newTestOrchestrator(&brain.RecordingAdapter{ReplyText: "x"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	inbound := make(chan any)
	outbound := make(chan any, 4)
	go o.RunConnection(ctx, inbound, outbound)

	// Registration happens at loop start; give the goroutine a beat.
	time.Sleep(20 * time.Millisecond)

	fireAt := time.Date(2026, 9, 1, 21, 0, 0, 0, time.UTC)
	o.BroadcastReminder(reminder.Reminder{ID: "r1", Task: "hydrate", FireAt: fireAt})

	select {
	case msg := <-outbound:
		fired, ok := msg.(protocol.ReminderFired)
		if !ok {
			t.Fatalf("got %T, want ReminderFired", msg)
		}
		if fired.ReminderID != "r1" || fired.Task != "hydrate" {
			t.Fatalf("fired = %+v", fired)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("broadcast not delivered")
	}
}
