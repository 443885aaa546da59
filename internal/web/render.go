package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/setsvm/novi/internal/forms"
	"github.com/setsvm/novi/internal/models"
	"github.com/setsvm/novi/internal/server"
)

//go:embed templates
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Layouts defined by the templates/layouts directory.
const (
	LayoutRoot   = "root"
	LayoutPublic = "public"
)

// Page is the data every template receives.
type Page struct {
	Session *models.Session
	Flashes []string
	Error   string
	Errors  forms.FieldErrors
	Data    any
	Year    int
}

var funcs = template.FuncMap{
	"pathEscape": url.PathEscape,
	"typeLabel":  func(t models.ContentType) string { return t.Label() },
	"formatDate": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format("Jan 2, 2006")
	},
}

// Renderer executes a page inside the layout of the matched route.
type Renderer struct {
	pages map[string]*template.Template
}

// NewRenderer parses the layouts and partials once, then one template set per page.
func NewRenderer() (*Renderer, error) {
	base, err := template.New("novi").Funcs(funcs).ParseFS(templateFS, "templates/layouts/*.html", "templates/partials/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse layouts: %w", err)
	}

	files, err := fs.Glob(templateFS, "templates/pages/*.html")
	if err != nil {
		return nil, err
	}

	r := &Renderer{pages: make(map[string]*template.Template, len(files))}
	for _, file := range files {
		set, err := base.Clone()
		if err != nil {
			return nil, err
		}
		if _, err := set.ParseFS(templateFS, file); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", file, err)
		}
		r.pages[strings.TrimSuffix(path.Base(file), ".html")] = set
	}
	return r, nil
}

// Render writes page with status. The layout comes from the matched route and defaults to root.
// The page is rendered into a buffer first so a template error never sends a partial body.
func (r *Renderer) Render(w http.ResponseWriter, req *http.Request, status int, page string, data Page) error {
	set, ok := r.pages[page]
	if !ok {
		return fmt.Errorf("unknown page %q", page)
	}

	layout := LayoutRoot
	if info, ok := server.RouteFrom(req.Context()); ok && info.Layout != "" {
		layout = info.Layout
	}

	var buf bytes.Buffer
	if err := set.ExecuteTemplate(&buf, "layout-"+layout, data); err != nil {
		return fmt.Errorf("failed to render %s: %w", page, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

// staticHandler serves the embedded assets under /static/.
func staticHandler() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServerFS(sub))
}

// writeFrame serves a generated body for a sandboxed iframe.
func writeFrame(w http.ResponseWriter, body string) {
	h := w.Header()
	h.Set("Content-Type", "text/html; charset=utf-8")
	h.Set("Content-Security-Policy", "sandbox allow-scripts")
	h.Set("X-Content-Type-Options", "nosniff")
	h.Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}
