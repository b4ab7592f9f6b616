package reminderback

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
)

// Server exposes the reminder collaborator API over HTTP.
type Server struct {
	store Store
}

func NewServer(store Store) *Server {
	return &Server{store: store}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", s.handleHealth)
	r.Post("/reminders", s.handleCreate)
	r.Get("/reminders/{user_id}", s.handleListByUser)
	r.Delete("/reminders/{id}", s.handleDelete)
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type createRequest struct {
	UserID            string `json:"user_id"`
	ReminderTime      string `json:"reminder_time"`
	Message           string `json:"message"`
	NotificationToken string `json:"notification_token"`
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.UserID) == "" || strings.TrimSpace(req.Message) == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "user_id and message are required")
		return
	}
	fireAt, err := time.Parse(time.RFC3339, req.ReminderTime)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_time", "reminder_time must be RFC 3339")
		return
	}

	rec, err := s.store.Create(r.Context(), Record{
		UserID:            req.UserID,
		ReminderTime:      fireAt,
		Message:           req.Message,
		NotificationToken: req.NotificationToken,
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "create_failed", err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleListByUser(w http.ResponseWriter, r *http.Request) {
	recs, err := s.store.ListByUser(r.Context(), chi.URLParam(r, "user_id"))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "list_failed", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, recs)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	err := s.store.Delete(r.Context(), id)
	if errors.Is(err, ErrNotFound) {
		respondError(w, http.StatusNotFound, "reminder_not_found", err.Error())
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "delete_failed", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"deleted": id})
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}

// StartSweeper runs a ticker that drains due reminders. Delivery here is a
// log line; the record is removed so a reminder fires at most once.
func (s *Server) StartSweeper(done <-chan struct{}, interval time.Duration) {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case now := <-ticker.C:
				s.sweep(now)
			}
		}
	}()
}

func (s *Server) sweep(now time.Time) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	due, err := s.store.DueBefore(ctx, now)
	if err != nil {
		log.Printf("reminderback: sweep query failed: %v", err)
		return
	}
	for _, rec := range due {
		log.Printf("reminderback: reminder due user=%s id=%s message=%q", rec.UserID, rec.ID, rec.Message)
		if err := s.store.Delete(ctx, rec.ID); err != nil && !errors.Is(err, ErrNotFound) {
			log.Printf("reminderback: clear fired reminder %s: %v", rec.ID, err)
		}
	}
}
