// Package render executes the embedded page templates with the ambient
// request data every page needs.
package render

import (
	"html/template"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/eventease/server/internal/api/flash"
	"github.com/eventease/server/internal/api/middleware"
)

type Renderer struct {
	templates *template.Template
	logger    zerolog.Logger
}

func NewRenderer(templates *template.Template, logger zerolog.Logger) *Renderer {
	return &Renderer{
		templates: templates,
		logger:    logger.With().Str("component", "render").Logger(),
	}
}

// Page renders the named template. The data map is augmented with the
// keys every page expects: Title, User, IsAdmin, Flashes, CSRFField,
// CSRFToken.
func (rn *Renderer) Page(w http.ResponseWriter, r *http.Request, name, title string, data map[string]any) {
	if data == nil {
		data = map[string]any{}
	}
	claims := middleware.SessionClaims(r)
	data["Title"] = title
	data["User"] = claims
	data["IsAdmin"] = claims != nil && claims.IsAdmin()
	data["Flashes"] = flash.Pop(w, r)
	data["CSRFField"] = middleware.CSRFField(r)
	data["CSRFToken"] = middleware.CSRFToken(r)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := rn.templates.ExecuteTemplate(w, name, data); err != nil {
		rn.logger.Error().Err(err).Str("template", name).Msg("template execution failed")
		http.Error(w, "Template error", http.StatusInternalServerError)
	}
}
