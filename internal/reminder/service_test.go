package reminder

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestServiceSetPrefersBackend(t *testing.T) {
	var got createPayload
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/reminders" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer backend.Close()

	store := NewStore()
	svc := NewService(store, NewClient(backend.URL), "user-1", "tok-1")

	fireAt := time.Now().Add(time.Hour).Truncate(time.Second)
	res := svc.Set(context.Background(), Reminder{FireAt: fireAt}, "Reminder: call mom")

	if res.Local {
		t.Fatalf("Set() fell back to local with a healthy backend")
	}
	if store.Len() != 0 {
		t.Fatalf("store.Len() = %d, want 0 when the backend owns delivery", store.Len())
	}
	if got.UserID != "user-1" || got.Message != "Reminder: call mom" || got.NotificationToken != "tok-1" {
		t.Fatalf("payload = %+v, want user/message/token filled", got)
	}
	if _, err := time.Parse(time.RFC3339, got.ReminderTime); err != nil {
		t.Fatalf("reminder_time %q is not RFC 3339: %v", got.ReminderTime, err)
	}
	if !strings.Contains(svc.ConfirmationMessage(res), "notification on all devices") {
		t.Fatalf("confirmation = %q, want backend wording", svc.ConfirmationMessage(res))
	}
}

func TestServiceSetFallsBackWhenBackendDown(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	backend.Close() // connection refused from here on

	store := NewStore()
	svc := NewService(store, NewClient(backend.URL), "user-1", "")

	res := svc.Set(context.Background(), Reminder{FireAt: time.Now().Add(time.Hour)}, "Reminder: x")
	if !res.Local {
		t.Fatalf("Set() = backend, want local fallback")
	}
	if store.Len() != 1 {
		t.Fatalf("store.Len() = %d, want 1", store.Len())
	}
	if !strings.Contains(svc.ConfirmationMessage(res), "(local only)") {
		t.Fatalf("confirmation = %q, want local wording", svc.ConfirmationMessage(res))
	}
}

func TestServiceSetWithoutBackendIsLocal(t *testing.T) {
	store := NewStore()
	svc := NewService(store, nil, "user-1", "")

	res := svc.Set(context.Background(), Reminder{FireAt: time.Now().Add(time.Hour)}, "Reminder: y")
	if !res.Local || store.Len() != 1 {
		t.Fatalf("Set() without backend: local=%v len=%d, want local=true len=1", res.Local, store.Len())
	}
}

func TestServiceListFetchesBackend(t *testing.T) {
	fireAt := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/reminders/user-1" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]listEntry{
			{ID: "r-1", UserID: "user-1", ReminderTime: fireAt, Message: "Reminder: call mom"},
		})
	}))
	defer backend.Close()

	store := NewStore()
	store.Add(Reminder{Task: "stretch", FireAt: fireAt})
	svc := NewService(store, NewClient(backend.URL), "user-1", "")

	got := svc.List(context.Background())
	if len(got) != 2 {
		t.Fatalf("List() returned %d reminders, want backend + local = 2", len(got))
	}
	if got[0].ID != "r-1" || got[0].Task != "Reminder: call mom" || !got[0].FireAt.Equal(fireAt) {
		t.Fatalf("backend reminder = %+v, want id/task/fire time from the backend", got[0])
	}
	if got[1].Task != "stretch" {
		t.Fatalf("local reminder = %+v, want the store entry after the backend's", got[1])
	}
}

func TestServiceListFallsBackWhenBackendDown(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	backend.Close()

	store := NewStore()
	store.Add(Reminder{Task: "stretch", FireAt: time.Now().Add(time.Hour)})
	svc := NewService(store, NewClient(backend.URL), "user-1", "")

	got := svc.List(context.Background())
	if len(got) != 1 || got[0].Task != "stretch" {
		t.Fatalf("List() = %+v, want the local store alone when the backend is down", got)
	}
}

func TestServiceDeleteRemovesLocal(t *testing.T) {
	store := NewStore()
	svc := NewService(store, nil, "user-1", "")
	res := svc.Set(context.Background(), Reminder{FireAt: time.Now().Add(time.Hour)}, "m")

	if !svc.Delete(context.Background(), res.Reminder.ID) {
		t.Fatalf("Delete() = false, want true")
	}
	if svc.Delete(context.Background(), res.Reminder.ID) {
		t.Fatalf("second Delete() = true, want false")
	}
}
