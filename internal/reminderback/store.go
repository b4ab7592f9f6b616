package reminderback

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("reminder not found")

// Record is a stored reminder as the backend sees it.
type Record struct {
	ID                string    `json:"id"`
	UserID            string    `json:"user_id"`
	ReminderTime      time.Time `json:"reminder_time"`
	Message           string    `json:"message"`
	NotificationToken string    `json:"notification_token,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

// Store persists reminder records.
type Store interface {
	Create(ctx context.Context, rec Record) (Record, error)
	ListByUser(ctx context.Context, userID string) ([]Record, error)
	Delete(ctx context.Context, id string) error
	DueBefore(ctx context.Context, cutoff time.Time) ([]Record, error)
	Close() error
}

// NewStore creates a postgres-backed store when configured, otherwise in-memory.
func NewStore(ctx context.Context, databaseURL string) (Store, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return NewInMemoryStore(), nil
	}
	return NewPostgresStore(ctx, databaseURL)
}

// InMemoryStore keeps records in a map. Suited for single-node dev runs.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[string]Record)}
}

func (s *InMemoryStore) Create(_ context.Context, rec Record) (Record, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.ID] = rec
	return rec, nil
}

func (s *InMemoryStore) ListByUser(_ context.Context, userID string) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Record, 0)
	for _, rec := range s.records {
		if rec.UserID == userID {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReminderTime.Before(out[j].ReminderTime) })
	return out, nil
}

func (s *InMemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[id]; !ok {
		return ErrNotFound
	}
	delete(s.records, id)
	return nil
}

func (s *InMemoryStore) DueBefore(_ context.Context, cutoff time.Time) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Record, 0)
	for _, rec := range s.records {
		if !rec.ReminderTime.After(cutoff) {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReminderTime.Before(out[j].ReminderTime) })
	return out, nil
}

func (s *InMemoryStore) Close() error { return nil }
