// Package web holds the embedded HTML templates for the server UI.
package web

import (
	"embed"
	"html/template"
	"time"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Templates parses the embedded page templates. Call once at startup;
// a parse failure means a broken build, not a runtime condition.
func Templates() (*template.Template, error) {
	funcs := template.FuncMap{
		"formatDate": func(t time.Time) string {
			return t.Format("Jan 2, 2006")
		},
		"inputDate": func(t time.Time) string {
			return t.Format("2006-01-02")
		},
	}
	return template.New("").Funcs(funcs).ParseFS(templatesFS, "templates/*.html")
}
