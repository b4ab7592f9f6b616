package reminderback

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestCreateListDelete(t *testing.T) {
	store := NewInMemoryStore()
	srv := NewServer(store)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	body, _ := json.Marshal(map[string]string{
		"user_id":       "user-1",
		"reminder_time": "2026-09-01T21:00:00Z",
		"message":       "remind me to stretch at 9:00pm",
	})
	res, err := http.Post(ts.URL+"/reminders", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d, want %d", res.StatusCode, http.StatusCreated)
	}
	var created Record
	if err := json.NewDecoder(res.Body).Decode(&created); err != nil {
		t.Fatalf("decode created: %v", err)
	}
	res.Body.Close()
	if created.ID == "" || created.UserID != "user-1" {
		t.Fatalf("created = %+v", created)
	}

	listRes, err := http.Get(ts.URL + "/reminders/user-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var listed []Record
	if err := json.NewDecoder(listRes.Body).Decode(&listed); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	listRes.Body.Close()
	if len(listed) != 1 || listed[0].ID != created.ID {
		t.Fatalf("listed = %+v", listed)
	}

	// Other users see nothing.
	otherRes, _ := http.Get(ts.URL + "/reminders/user-2")
	var other []Record
	_ = json.NewDecoder(otherRes.Body).Decode(&other)
	otherRes.Body.Close()
	if len(other) != 0 {
		t.Fatalf("other user sees %d reminders", len(other))
	}

	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/reminders/"+created.ID, nil)
	delRes, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if delRes.StatusCode != http.StatusOK {
		t.Fatalf("delete status = %d", delRes.StatusCode)
	}
	delRes.Body.Close()

	delRes, _ = http.DefaultClient.Do(req)
	if delRes.StatusCode != http.StatusNotFound {
		t.Fatalf("second delete status = %d, want %d", delRes.StatusCode, http.StatusNotFound)
	}
	delRes.Body.Close()
}

func TestCreateValidation(t *testing.T) {
	srv := NewServer(NewInMemoryStore())
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	cases := []map[string]string{
		{"reminder_time": "2026-09-01T21:00:00Z", "message": "m"},
		{"user_id": "u", "reminder_time": "2026-09-01T21:00:00Z"},
		{"user_id": "u", "reminder_time": "tomorrow at nine", "message": "m"},
	}
	for i, payload := range cases {
		body, _ := json.Marshal(payload)
		res, err := http.Post(ts.URL+"/reminders", "application/json", bytes.NewReader(body))
		if err != nil {
			t.Fatalf("case %d: %v", i, err)
		}
		if res.StatusCode != http.StatusBadRequest {
			t.Fatalf("case %d: status = %d, want %d", i, res.StatusCode, http.StatusBadRequest)
		}
		res.Body.Close()
	}
}

func TestSweepFiresOnce(t *testing.T) {
	store := NewInMemoryStore()
	srv := NewServer(store)

	ctx := context.Background()
	past := time.Now().Add(-time.Minute)
	future := time.Now().Add(time.Hour)
	if _, err := store.Create(ctx, Record{UserID: "u", ReminderTime: past, Message: "due"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := store.Create(ctx, Record{UserID: "u", ReminderTime: future, Message: "later"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	srv.sweep(time.Now())

	left, err := store.ListByUser(ctx, "u")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(left) != 1 || left[0].Message != "later" {
		t.Fatalf("remaining = %+v", left)
	}

	// Idempotent: second sweep finds nothing due.
	srv.sweep(time.Now())
	left, _ = store.ListByUser(ctx, "u")
	if len(left) != 1 {
		t.Fatalf("second sweep removed future reminder: %+v", left)
	}
}

func TestDueBeforeBoundary(t *testing.T) {
	store := NewInMemoryStore()
	now := time.Now().Truncate(time.Second)
	_, _ = store.Create(context.Background(), Record{UserID: "u", ReminderTime: now, Message: "exact"})

	due, err := store.DueBefore(context.Background(), now)
	if err != nil {
		t.Fatalf("due: %v", err)
	}
	if len(due) != 1 {
		t.Fatalf("reminder at the cutoff instant should be due, got %d", len(due))
	}
}
