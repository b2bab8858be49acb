package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/travelagi/dashboard/internal/service/transcript"
	"github.com/travelagi/dashboard/internal/session"
	"github.com/travelagi/dashboard/pkg/utils"
)

// Handler exposes the session state as JSON for programmatic readers.
type Handler struct {
	sessions    *session.Manager
	transcripts *transcript.Service
}

// New creates the API handler.
func New(sessions *session.Manager, transcripts *transcript.Service) *Handler {
	return &Handler{sessions: sessions, transcripts: transcripts}
}

// RegisterRoutes mounts the API routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/persona", h.handleGetPersona)
	r.Get("/messages", h.handleListMessages)
}

// handleGetPersona returns the current persona, 404 before the first
// delivery.
func (h *Handler) handleGetPersona(w http.ResponseWriter, r *http.Request) {
	p := h.sessions.Persona()
	if p == nil {
		utils.RespondError(w, http.StatusNotFound, "persona not available")
		return
	}
	utils.RespondJSON(w, http.StatusOK, p)
}

// handleListMessages returns the in-memory transcript, oldest first.
func (h *Handler) handleListMessages(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.transcripts.Messages())
}
