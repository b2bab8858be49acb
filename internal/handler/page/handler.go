package page

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/travelagi/dashboard/internal/hub"
	"github.com/travelagi/dashboard/internal/service/transcript"
	"github.com/travelagi/dashboard/internal/session"
	"github.com/travelagi/dashboard/internal/view"
	"github.com/travelagi/dashboard/pkg/utils"
)

const heartbeatInterval = 25 * time.Second

// Handler serves the dashboard page, the connect flow, and the live event
// stream the page listens to.
type Handler struct {
	sessions      *session.Manager
	transcripts   *transcript.Service
	events        *hub.Hub
	widgetAgentID string
}

// New creates the page handler.
func New(sessions *session.Manager, transcripts *transcript.Service, events *hub.Hub, widgetAgentID string) *Handler {
	return &Handler{
		sessions:      sessions,
		transcripts:   transcripts,
		events:        events,
		widgetAgentID: widgetAgentID,
	}
}

// RegisterRoutes mounts the page routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.handleIndex)
	r.Post("/connect", h.handleConnect)
	r.Get("/events", h.handleEvents)
}

// handleIndex consumes the account-linking redirect parameters when present
// and otherwise renders the page from the current session state. A consumed
// callback answers with a redirect to "/" so the parameters disappear from
// the visible URL.
func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	status := query.Get("status")
	accountID := query.Get("connected_account_id")

	if status != "" && accountID != "" {
		if h.sessions.HandleLinkCallback(r.Context(), status, accountID) {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
	}

	linkedAccount, currentPersona, loading := h.sessions.Snapshot()
	data := view.PageData{
		Messages:      h.transcripts.Messages(),
		Linked:        linkedAccount != "",
		Loading:       loading,
		Persona:       view.Build(currentPersona),
		WidgetAgentID: h.widgetAgentID,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := view.RenderPage(w, data); err != nil {
		log.Printf("[page] render failed: %v", err)
	}
}

// handleConnect starts the linking flow and sends the browser to the
// provider. A webhook failure puts the user back on the page with the
// connect button still showing, ready for a retry.
func (h *Handler) handleConnect(w http.ResponseWriter, r *http.Request) {
	redirectURL, err := h.sessions.StartLinking(r.Context())
	if err != nil {
		log.Printf("[page] start linking failed: %v", err)
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	http.Redirect(w, r, redirectURL, http.StatusSeeOther)
}

// handleEvents streams live updates to the page over SSE until the browser
// disconnects.
func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	utils.SetupSSEHeaders(w)

	id, events := h.events.Subscribe()
	defer h.events.Unsubscribe(id)

	ctx := r.Context()
	log.Printf("[sse] opening event stream subscriber=%s", id)
	defer log.Printf("[sse] closing event stream subscriber=%s", id)

	utils.SendSSEEvent(w, flusher, "status", map[string]string{"message": "stream established"})

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			utils.SendSSEEvent(w, flusher, "heartbeat", map[string]string{
				"time": time.Now().UTC().Format(time.RFC3339),
			})
		case ev, open := <-events:
			if !open {
				return
			}
			utils.SendSSEEvent(w, flusher, ev.Name, ev.Data)
		}
	}
}
