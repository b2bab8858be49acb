package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/travelagi/dashboard/internal/handler/api"
	"github.com/travelagi/dashboard/internal/handler/page"
	"github.com/travelagi/dashboard/internal/hub"
	middlewarePkg "github.com/travelagi/dashboard/internal/middleware"
	"github.com/travelagi/dashboard/internal/service/transcript"
	"github.com/travelagi/dashboard/internal/session"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(sessions *session.Manager, transcripts *transcript.Service, events *hub.Hub, widgetAgentID string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	pageHandler := page.New(sessions, transcripts, events, widgetAgentID)
	pageHandler.RegisterRoutes(r)

	apiHandler := api.New(sessions, transcripts)
	r.Route("/api", func(apiRouter chi.Router) {
		apiHandler.RegisterRoutes(apiRouter)
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return r
}
