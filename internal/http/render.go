package http

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"

	"spendtrack/internal/log"
)

const layoutTemplate = "layout.html"

// renderer holds one template set per page, each a clone of the layout.
type renderer struct {
	pages map[string]*template.Template
}

// newRenderer parses layout.html and binds every other *.html file in
// templates/ to its own copy of it.
func newRenderer(fsys fs.FS, funcs template.FuncMap) (*renderer, error) {
	base, err := template.New(layoutTemplate).Funcs(funcs).ParseFS(fsys, path.Join("templates", layoutTemplate))
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}
	files, err := fs.Glob(fsys, "templates/*.html")
	if err != nil {
		return nil, err
	}
	r := &renderer{pages: map[string]*template.Template{}}
	for _, f := range files {
		name := path.Base(f)
		if name == layoutTemplate {
			continue
		}
		t, err := base.Clone()
		if err != nil {
			return nil, err
		}
		if _, err := t.ParseFS(fsys, f); err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		r.pages[strings.TrimSuffix(name, ".html")] = t
	}
	return r, nil
}

// execute renders page into a buffer so a template error never leaves a
// half-written response.
func (r *renderer) execute(page string, data any) ([]byte, error) {
	t, ok := r.pages[page]
	if !ok {
		return nil, fmt.Errorf("unknown page %q", page)
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, layoutTemplate, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// render writes page with status, or a plain 500 if rendering fails.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, page string, data any) {
	if s.templates == nil {
		http.Error(w, "templates unavailable", http.StatusInternalServerError)
		return
	}
	body, err := s.templates.execute(page, data)
	if err != nil {
		s.requestLogger(r).Failure(r.Context(), "Template render failed", log.OpRender, err, "page", page)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
