package handler

import (
	"embed"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

// Templates parses the embedded page templates.
func Templates() *template.Template {
	return template.Must(template.New("").ParseFS(templateFS, "templates/*.html"))
}
