package httpapi

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ent0n29/gemchat/internal/attach"
)

const maxUploadBytes = 32 << 20

type attachmentView struct {
	Index    int    `json:"index"`
	Kind     string `json:"kind"`
	Name     string `json:"name"`
	MIMEType string `json:"mime_type"`
}

func (s *Server) handleStageAttachment(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_multipart", err.Error())
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "missing_file", "multipart field \"file\" is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respondError(w, http.StatusBadRequest, "read_failed", err.Error())
		return
	}

	a, idx, err := s.staging.Stage(data, header.Header.Get("Content-Type"), header.Filename)
	if errors.Is(err, attach.ErrUnsupportedFormat) {
		respondError(w, http.StatusUnsupportedMediaType, "unsupported_format", err.Error())
		return
	}
	if err != nil {
		respondError(w, http.StatusBadRequest, "stage_failed", err.Error())
		return
	}

	s.metrics.AttachmentsStaged.WithLabelValues(string(a.Kind)).Inc()
	respondJSON(w, http.StatusCreated, attachmentView{
		Index:    idx,
		Kind:     string(a.Kind),
		Name:     a.Name,
		MIMEType: a.MIMEType,
	})
}

func (s *Server) handleListAttachments(w http.ResponseWriter, _ *http.Request) {
	staged := s.staging.List()
	views := make([]attachmentView, 0, len(staged))
	for i, a := range staged {
		views = append(views, attachmentView{Index: i, Kind: string(a.Kind), Name: a.Name, MIMEType: a.MIMEType})
	}
	respondJSON(w, http.StatusOK, views)
}

func (s *Server) handleDropAttachment(w http.ResponseWriter, r *http.Request) {
	idx, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_index", err.Error())
		return
	}
	if !s.staging.Drop(idx) {
		respondError(w, http.StatusNotFound, "attachment_not_found", "no staged attachment at index")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"dropped": idx})
}

type reminderView struct {
	ID     string `json:"id"`
	Task   string `json:"task"`
	FireAt string `json:"fire_at"`
	Clock  string `json:"clock"`
}

func (s *Server) handleListReminders(w http.ResponseWriter, r *http.Request) {
	pending := s.reminders.List(r.Context())
	views := make([]reminderView, 0, len(pending))
	for _, r := range pending {
		views = append(views, reminderView{
			ID:     r.ID,
			Task:   r.Task,
			FireAt: r.FireAt.Format(time.RFC3339),
			Clock:  r.ClockLabel(),
		})
	}
	respondJSON(w, http.StatusOK, views)
}

func (s *Server) handleDeleteReminder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.reminders.Delete(r.Context(), id) {
		respondError(w, http.StatusNotFound, "reminder_not_found", "no pending reminder with that id")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"deleted": id})
}
