package reminder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client talks to the optional remote reminder backend. All failures are
// returned to the caller, which falls back to local-only storage.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type createPayload struct {
	UserID            string `json:"user_id"`
	ReminderTime      string `json:"reminder_time"`
	Message           string `json:"message"`
	NotificationToken string `json:"notification_token,omitempty"`
}

// Create registers the reminder with the backend.
func (c *Client) Create(ctx context.Context, r Reminder, message, notificationToken string) error {
	payload, err := json.Marshal(createPayload{
		UserID:            r.UserID,
		ReminderTime:      r.FireAt.Format(time.RFC3339),
		Message:           message,
		NotificationToken: notificationToken,
	})
	if err != nil {
		return fmt.Errorf("marshal reminder: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/reminders", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("send reminder: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		return fmt.Errorf("reminder backend status %d: %s", res.StatusCode, string(body))
	}
	return nil
}

type listEntry struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	ReminderTime time.Time `json:"reminder_time"`
	Message      string    `json:"message"`
	CreatedAt    time.Time `json:"created_at"`
}

// ListByUser fetches the user's reminders from the backend. The backend
// stores the full chat message; it comes back as the task text.
func (c *Client) ListByUser(ctx context.Context, userID string) ([]Reminder, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/reminders/"+userID, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, fmt.Errorf("reminder backend status %d", res.StatusCode)
	}

	var entries []listEntry
	if err := json.NewDecoder(res.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode reminders: %w", err)
	}
	out := make([]Reminder, 0, len(entries))
	for _, e := range entries {
		out = append(out, Reminder{
			ID:        e.ID,
			UserID:    e.UserID,
			Task:      e.Message,
			FireAt:    e.ReminderTime,
			CreatedAt: e.CreatedAt,
		})
	}
	return out, nil
}

// Delete removes a reminder from the backend.
func (c *Client) Delete(ctx context.Context, id string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/reminders/"+id, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("delete reminder: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return fmt.Errorf("reminder backend status %d", res.StatusCode)
	}
	return nil
}
