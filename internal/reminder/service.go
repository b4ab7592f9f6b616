package reminder

import (
	"context"
	"fmt"
	"log"
)

// Service registers reminders backend-first with local fallback: when the
// remote backend accepts a reminder it owns delivery; when it is absent or
// down the reminder is kept in the local store and fired by the scheduler.
type Service struct {
	store             *Store
	client            *Client
	userID            string
	notificationToken string
}

// SetResult reports where a reminder ended up.
type SetResult struct {
	Reminder Reminder
	Local    bool
}

// NewService builds the reminder service. client may be nil when no backend
// is configured; every reminder is then local.
func NewService(store *Store, client *Client, userID, notificationToken string) *Service {
	return &Service{
		store:             store,
		client:            client,
		userID:            userID,
		notificationToken: notificationToken,
	}
}

// Set registers the reminder, preferring the remote backend.
func (s *Service) Set(ctx context.Context, r Reminder, message string) SetResult {
	r.UserID = s.userID

	if s.client != nil {
		err := s.client.Create(ctx, r, message, s.notificationToken)
		if err == nil {
			return SetResult{Reminder: r, Local: false}
		}
		log.Printf("reminder backend unavailable, keeping locally: %v", err)
	}

	stored := s.store.Add(r)
	return SetResult{Reminder: stored, Local: true}
}

// List returns the pending reminders. With a backend configured the
// backend's view comes first, followed by any reminders that fell back to
// the local store; when the backend is absent or unreachable the local
// store alone answers.
func (s *Service) List(ctx context.Context) []Reminder {
	local := s.store.List()
	if s.client == nil {
		return local
	}
	remote, err := s.client.ListByUser(ctx, s.userID)
	if err != nil {
		log.Printf("reminder backend list failed, showing local only: %v", err)
		return local
	}
	return append(remote, local...)
}

// Delete removes a local reminder and best-effort deletes it from the
// backend. Reports whether anything was removed locally.
func (s *Service) Delete(ctx context.Context, id string) bool {
	removed := s.store.Remove(id)
	if s.client != nil {
		if err := s.client.Delete(ctx, id); err != nil {
			log.Printf("reminder backend delete failed: %v", err)
		}
	}
	return removed
}

// ConfirmationMessage renders the assistant-transcript line for a set result.
func (s *Service) ConfirmationMessage(res SetResult) string {
	if res.Local {
		return fmt.Sprintf("Reminder set for %s (local only)", res.Reminder.ClockLabel())
	}
	return fmt.Sprintf("Reminder set for %s - you'll get a notification on all devices", res.Reminder.ClockLabel())
}
