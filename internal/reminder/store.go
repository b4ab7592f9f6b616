package reminder

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store holds pending reminders in creation order. It is process-global and
// independent of any chat session.
type Store struct {
	mu      sync.Mutex
	pending []Reminder
}

func NewStore() *Store { return &Store{} }

// Add stores the reminder, assigning an id and creation time when missing,
// and returns the stored value.
func (s *Store) Add(r Reminder) Reminder {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, r)
	return r
}

// Remove deletes the reminder by id and reports whether it was present.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.pending {
		if r.ID == id {
			s.pending = append(s.pending[:i], s.pending[i+1:]...)
			return true
		}
	}
	return false
}

// List returns pending reminders in creation order.
func (s *Store) List() []Reminder {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Reminder, len(s.pending))
	copy(out, s.pending)
	return out
}

// PopDue removes and returns every reminder whose fire time has passed as of
// now, in creation order. A second call at the same instant returns nothing,
// which keeps the poll cycle idempotent.
func (s *Store) PopDue(now time.Time) []Reminder {
	s.mu.Lock()
	defer s.mu.Unlock()

	var due []Reminder
	kept := s.pending[:0]
	for _, r := range s.pending {
		if !r.FireAt.After(now) {
			due = append(due, r)
			continue
		}
		kept = append(kept, r)
	}
	s.pending = kept
	return due
}

// Len returns the number of pending reminders.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}
