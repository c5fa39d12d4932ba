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

	"log/slog"

	"baseapp/internal/forms"
)

//go:embed templates
var templatesFS embed.FS

// Data is the bag handed to every view. Handlers fill Title, Values, Errors
// and Data; the renderer fills CurrentUser and Flashes.
type Data struct {
	Title       string
	CurrentUser *Viewer
	Flashes     []Flash
	Values      url.Values
	Errors      []forms.FieldError
	Data        any
}

type Renderer struct {
	templates  map[string]*template.Template
	logger     *slog.Logger
	showDetail bool
}

func NewRenderer(logger *slog.Logger, env string) (*Renderer, error) {
	pages, err := fs.Glob(templatesFS, "templates/pages/*.html")
	if err != nil {
		return nil, err
	}
	templates := make(map[string]*template.Template, len(pages))
	for _, page := range pages {
		t, err := template.ParseFS(templatesFS, "templates/layout.html", page)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", page, err)
		}
		templates[path.Base(page)] = t
	}
	return &Renderer{
		templates:  templates,
		logger:     logger,
		showDetail: env != "production",
	}, nil
}

// Render writes the named page wrapped in the layout. The template executes
// into a buffer first so a mid-render failure still produces a clean error
// page instead of a truncated body.
func (rn *Renderer) Render(w http.ResponseWriter, r *http.Request, status int, page string, data Data) {
	if data.CurrentUser == nil {
		if v, ok := ViewerFromContext(r.Context()); ok {
			data.CurrentUser = v
		}
	}
	data.Flashes = popFlash(w, r)

	t, ok := rn.templates[page]
	if !ok {
		rn.Error(w, r, fmt.Errorf("unknown template %q", page))
		return
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout.html", data); err != nil {
		rn.Error(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (rn *Renderer) NotFound(w http.ResponseWriter, r *http.Request) {
	rn.Render(w, r, http.StatusNotFound, "not_found.html", Data{Title: "Not Found"})
}

// Error renders the generic failure page. The underlying detail is shown
// only outside production.
func (rn *Renderer) Error(w http.ResponseWriter, r *http.Request, err error) {
	rn.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	detail := ""
	if rn.showDetail {
		detail = err.Error()
	}
	t, ok := rn.templates["error.html"]
	if !ok {
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	data := Data{Title: "Error", Data: detail}
	if v, okv := ViewerFromContext(r.Context()); okv {
		data.CurrentUser = v
	}
	var buf bytes.Buffer
	if execErr := t.ExecuteTemplate(&buf, "layout.html", data); execErr != nil {
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusInternalServerError)
	_, _ = buf.WriteTo(w)
}
