package reminder

import "time"

// Reminder is a user-requested future notification extracted from chat text.
type Reminder struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id,omitempty"`
	Task      string    `json:"task,omitempty"`
	FireAt    time.Time `json:"reminder_time"`
	CreatedAt time.Time `json:"created_at"`
}

// ClockLabel renders the fire time the way the chat transcript shows it.
func (r Reminder) ClockLabel() string {
	return r.FireAt.Format("03:04 PM")
}
