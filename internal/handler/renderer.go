package handler

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"path"
	"strings"
)

const layoutFile = "layout.html"

// Renderer manages template parsing and rendering. Every page gets its own
// clone of the layout so page-level blocks cannot collide.
type Renderer struct {
	templates map[string]*template.Template
}

// NewRenderer parses layout.html and every other *.html page in fsys.
func NewRenderer(fsys fs.FS) (*Renderer, error) {
	baseTmpl, err := template.New("base").Funcs(TemplateFuncs()).ParseFS(fsys, layoutFile)
	if err != nil {
		return nil, fmt.Errorf("failed to parse layout: %w", err)
	}

	pages, err := fs.Glob(fsys, "*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to glob templates: %w", err)
	}

	templates := make(map[string]*template.Template)
	for _, page := range pages {
		if page == layoutFile {
			continue
		}

		pageTmpl, err := baseTmpl.Clone()
		if err != nil {
			return nil, fmt.Errorf("failed to clone template for %s: %w", page, err)
		}

		pageTmpl, err = pageTmpl.ParseFS(fsys, page)
		if err != nil {
			return nil, fmt.Errorf("failed to parse page %s: %w", page, err)
		}

		templates[strings.TrimSuffix(page, path.Ext(page))] = pageTmpl
	}

	return &Renderer{templates: templates}, nil
}

// Render executes the layout for page name into w.
func (r *Renderer) Render(w io.Writer, name string, data any) error {
	tmpl, ok := r.templates[name]
	if !ok {
		return fmt.Errorf("template %q not found", name)
	}
	return tmpl.ExecuteTemplate(w, "base", data)
}

// RenderHTTP renders into a buffer first so a template error never sends
// a half-written page.
func (r *Renderer) RenderHTTP(w http.ResponseWriter, req *http.Request, name string, data any) {
	var buf bytes.Buffer
	if err := r.Render(&buf, name, data); err != nil {
		InternalErrorResponse(w, req, fmt.Errorf("render %s: %w", name, err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}
