package views

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"
	"sync"
)

//go:embed templates/*.html
var templateFS embed.FS

// Engine renders the embedded HTML templates for fiber's Ctx.Render.
type Engine struct {
	once      sync.Once
	templates *template.Template
	err       error
}

// New returns an engine over the embedded templates.
func New() *Engine {
	return &Engine{}
}

// Load parses the templates once.
func (e *Engine) Load() error {
	e.once.Do(func() {
		e.templates, e.err = template.ParseFS(templateFS, "templates/*.html")
	})
	return e.err
}

// Render executes the named template; the ".html" suffix is optional.
func (e *Engine) Render(out io.Writer, name string, binding interface{}, _ ...string) error {
	if err := e.Load(); err != nil {
		return err
	}
	if !strings.HasSuffix(name, ".html") {
		name += ".html"
	}
	tmpl := e.templates.Lookup(name)
	if tmpl == nil {
		return fmt.Errorf("views: template %q not found", name)
	}
	return tmpl.Execute(out, binding)
}
