package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/ent0n29/gemchat/internal/attach"
	"github.com/ent0n29/gemchat/internal/brain"
	"github.com/ent0n29/gemchat/internal/chat"
	"github.com/ent0n29/gemchat/internal/config"
	"github.com/ent0n29/gemchat/internal/observability"
	"github.com/ent0n29/gemchat/internal/orchestrator"
	"github.com/ent0n29/gemchat/internal/reminder"
)

// Orchestrator is the turn engine the server drives.
type Orchestrator interface {
	RunTurn(ctx context.Context, sessionID, turnID, text string, onDelta brain.DeltaHandler) (orchestrator.TurnResult, error)
	RunConnection(ctx context.Context, inbound <-chan any, outbound chan<- any) error
}

type Server struct {
	cfg          config.Config
	sessions     *chat.Manager
	orchestrator Orchestrator
	reminders    *reminder.Service
	staging      *attach.Staging
	metrics      *observability.Metrics
	latency      *observability.LatencyWindow
	upgrader     websocket.Upgrader
}

func New(
	cfg config.Config,
	sessions *chat.Manager,
	orch Orchestrator,
	reminders *reminder.Service,
	staging *attach.Staging,
	metrics *observability.Metrics,
	latency *observability.LatencyWindow,
) *Server {
	return &Server{
		cfg:          cfg,
		sessions:     sessions,
		orchestrator: orch,
		reminders:    reminders,
		staging:      staging,
		metrics:      metrics,
		latency:      latency,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// Browser connections must come from the same origin unless
				// explicitly opened up; non-browser clients omit Origin.
				if cfg.AllowAnyOrigin {
					return true
				}
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				if u.Scheme != "http" && u.Scheme != "https" {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			},
		},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Post("/v1/sessions", s.handleCreateSession)
	r.Get("/v1/sessions", s.handleListSessions)
	r.Get("/v1/sessions/{id}", s.handleGetSession)
	r.Post("/v1/sessions/{id}/activate", s.handleActivateSession)
	r.Delete("/v1/sessions/{id}", s.handleDeleteSession)
	r.Post("/v1/sessions/{id}/messages", s.handlePostMessage)
	r.Get("/v1/chat/ws", s.handleChatWS)

	r.Post("/v1/attachments", s.handleStageAttachment)
	r.Get("/v1/attachments", s.handleListAttachments)
	r.Delete("/v1/attachments/{index}", s.handleDropAttachment)

	r.Get("/v1/reminders", s.handleListReminders)
	r.Delete("/v1/reminders/{id}", s.handleDeleteReminder)

	r.Get("/v1/perf/latency", s.handlePerfLatency)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":        "ok",
		"brain_mode":    s.cfg.BrainMode,
		"reminder_mode": s.reminderMode(),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":   "ready",
		"sessions": s.sessions.Count(),
	})
}

func (s *Server) reminderMode() string {
	if strings.TrimSpace(s.cfg.BackendURL) != "" {
		return "backend"
	}
	return "local"
}

func (s *Server) handlePerfLatency(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, s.latency.Snapshot())
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var errEmptyBody = errors.New("empty body")

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(out); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "eof") {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}
