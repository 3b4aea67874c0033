// Package render binds dashboard views to the embedded HTML templates.
package render

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/labstack/echo/v4"
)

//go:embed templates/*.html
var templateFS embed.FS

// Template names accepted by Renderer.Render
const (
	PostsTemplate        = "posts.html"
	ReservationsTemplate = "reservations.html"
	LoginTemplate        = "login.html"
)

// Page is the data every template receives
type Page struct {
	Title     string
	Active    string
	UserEmail string
	Nonce     string
	View      any

	// login form only
	Error string
	Email string
	Next  string
}

// Renderer implements echo.Renderer. Each page is parsed together with
// the shared layout so pages can override its blocks independently.
type Renderer struct {
	templates map[string]*template.Template
}

// New parses every embedded page
func New() (*Renderer, error) {
	r := &Renderer{templates: make(map[string]*template.Template)}
	for _, name := range []string{PostsTemplate, ReservationsTemplate, LoginTemplate} {
		t, err := template.New(name).ParseFS(templateFS, "templates/layout.html", "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		r.templates[name] = t
	}
	return r, nil
}

// Render executes the layout for the named page
func (r *Renderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	t, ok := r.templates[name]
	if !ok {
		return fmt.Errorf("template %q not found", name)
	}
	return t.ExecuteTemplate(w, "layout", data)
}
