package view

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/travelagi/dashboard/internal/model/chat"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/*.tmpl"))

// PageData carries everything the page template needs for one render.
type PageData struct {
	Messages      []chat.Message
	Linked        bool
	Loading       bool
	Persona       *PersonaView
	WidgetAgentID string
}

// RenderPage writes the dashboard page for the current session state.
func RenderPage(w io.Writer, data PageData) error {
	if err := pageTemplate.ExecuteTemplate(w, "page.html.tmpl", data); err != nil {
		return fmt.Errorf("render page: %w", err)
	}
	return nil
}
