package reminder

import (
	"context"
	"time"
)

// FireHook receives each due reminder exactly once.
type FireHook func(Reminder)

// Scheduler sweeps the store on a fixed interval and fires due reminders.
type Scheduler struct {
	store *Store
	hook  FireHook
}

func NewScheduler(store *Store, hook FireHook) *Scheduler {
	return &Scheduler{store: store, hook: hook}
}

// Start launches the sweep loop; it stops when ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Sweep(time.Now())
			}
		}
	}()
}

// Sweep fires every reminder due as of now. Exposed so a caller-driven
// refresh can trigger the same check the timer performs.
func (s *Scheduler) Sweep(now time.Time) {
	for _, r := range s.store.PopDue(now) {
		if s.hook != nil {
			s.hook(r)
		}
	}
}
