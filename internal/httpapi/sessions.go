package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ent0n29/gemchat/internal/chat"
)

type sessionView struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	CreatedAt    time.Time `json:"created_at"`
	MessageCount int       `json:"message_count"`
	Active       bool      `json:"active"`
}

type messageView struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type sessionDetail struct {
	sessionView
	Messages []messageView `json:"messages"`
}

func (s *Server) sessionViewOf(sess *chat.Session) sessionView {
	return sessionView{
		ID:           sess.ID,
		Name:         sess.Name,
		CreatedAt:    sess.CreatedAt,
		MessageCount: len(sess.Messages),
		Active:       sess.ID == s.sessions.ActiveID(),
	}
}

func (s *Server) handleCreateSession(w http.ResponseWriter, _ *http.Request) {
	sess := s.sessions.Create()
	s.metrics.SessionEvents.WithLabelValues("created").Inc()
	s.metrics.ActiveSessions.Set(float64(s.sessions.Count()))
	respondJSON(w, http.StatusCreated, s.sessionViewOf(sess))
}

func (s *Server) handleListSessions(w http.ResponseWriter, _ *http.Request) {
	all := s.sessions.List()
	views := make([]sessionView, 0, len(all))
	for _, sess := range all {
		views = append(views, s.sessionViewOf(sess))
	}
	respondJSON(w, http.StatusOK, views)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusNotFound, "session_not_found", err.Error())
		return
	}
	detail := sessionDetail{sessionView: s.sessionViewOf(sess)}
	detail.Messages = make([]messageView, 0, len(sess.Messages))
	for _, m := range sess.Messages {
		detail.Messages = append(detail.Messages, messageView{Role: string(m.Role), Content: m.Content})
	}
	respondJSON(w, http.StatusOK, detail)
}

func (s *Server) handleActivateSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Switch(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusNotFound, "session_not_found", err.Error())
		return
	}
	s.metrics.SessionEvents.WithLabelValues("activated").Inc()
	respondJSON(w, http.StatusOK, s.sessionViewOf(sess))
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	active, err := s.sessions.Delete(chi.URLParam(r, "id"))
	switch {
	case errors.Is(err, chat.ErrNotFound):
		respondError(w, http.StatusNotFound, "session_not_found", err.Error())
		return
	case errors.Is(err, chat.ErrLastSession):
		respondError(w, http.StatusConflict, "last_session", err.Error())
		return
	case err != nil:
		respondError(w, http.StatusInternalServerError, "delete_failed", err.Error())
		return
	}
	s.metrics.SessionEvents.WithLabelValues("deleted").Inc()
	s.metrics.ActiveSessions.Set(float64(s.sessions.Count()))
	respondJSON(w, http.StatusOK, s.sessionViewOf(active))
}

type postMessageRequest struct {
	Text string `json:"text"`
}

type reminderResultView struct {
	ID           string `json:"id"`
	Task         string `json:"task"`
	FireAt       string `json:"fire_at"`
	Local        bool   `json:"local"`
	Confirmation string `json:"confirmation"`
}

type turnResponse struct {
	TurnID        string              `json:"turn_id"`
	SessionID     string              `json:"session_id"`
	SessionName   string              `json:"session_name"`
	Renamed       bool                `json:"renamed"`
	AssistantText string              `json:"assistant_text"`
	RemoteFailed  bool                `json:"remote_failed"`
	Reminder      *reminderResultView `json:"reminder,omitempty"`
}

func (s *Server) handlePostMessage(w http.ResponseWriter, r *http.Request) {
	var req postMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		respondError(w, http.StatusBadRequest, "empty_text", "text is required")
		return
	}

	res, err := s.orchestrator.RunTurn(r.Context(), chi.URLParam(r, "id"), "", req.Text, nil)
	if errors.Is(err, chat.ErrNotFound) {
		respondError(w, http.StatusNotFound, "session_not_found", err.Error())
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "turn_failed", err.Error())
		return
	}

	resp := turnResponse{
		TurnID:        res.TurnID,
		SessionID:     res.SessionID,
		SessionName:   res.SessionName,
		Renamed:       res.Renamed,
		AssistantText: res.AssistantText,
		RemoteFailed:  res.RemoteFailed,
	}
	if res.Reminder != nil {
		resp.Reminder = &reminderResultView{
			ID:           res.Reminder.Reminder.ID,
			Task:         res.Reminder.Reminder.Task,
			FireAt:       res.Reminder.Reminder.FireAt.Format(time.RFC3339),
			Local:        res.Reminder.Local,
			Confirmation: res.Confirmation,
		}
	}
	respondJSON(w, http.StatusOK, resp)
}
