package api

import (
	"embed"
	"html/template"
	"io"

	"github.com/labstack/echo/v4"
)

//go:embed templates/*.html
var templateFS embed.FS

// Renderer serves the embedded page templates through echo's Renderer hook.
type Renderer struct {
	templates *template.Template
}

// NewRenderer parses the embedded templates. Parsing happens once at startup;
// a broken template is a programming error and fails the boot.
func NewRenderer() *Renderer {
	return &Renderer{
		templates: template.Must(template.ParseFS(templateFS, "templates/*.html")),
	}
}

// Render satisfies the echo.Renderer interface.
func (r *Renderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	return r.templates.ExecuteTemplate(w, name, data)
}
