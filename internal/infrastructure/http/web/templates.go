package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
)

//go:embed templates
var content embed.FS

var pages = []string{
	"list.html",
	"detail.html",
	"create.html",
}

// Templates holds parsed HTML templates.
type Templates struct {
	templates map[string]*template.Template
}

// LoadTemplates parses all page templates with the layout.
func LoadTemplates() (*Templates, error) {
	tfs, err := fs.Sub(content, "templates")
	if err != nil {
		return nil, fmt.Errorf("opening templates: %w", err)
	}

	layoutBytes, err := fs.ReadFile(tfs, "layout.html")
	if err != nil {
		return nil, fmt.Errorf("reading layout template: %w", err)
	}
	layout, err := template.New("layout").Parse(string(layoutBytes))
	if err != nil {
		return nil, fmt.Errorf("parsing layout template: %w", err)
	}

	ts := &Templates{templates: make(map[string]*template.Template, len(pages))}
	for _, page := range pages {
		pageBytes, err := fs.ReadFile(tfs, page)
		if err != nil {
			return nil, fmt.Errorf("reading template %s: %w", page, err)
		}
		base, err := layout.Clone()
		if err != nil {
			return nil, fmt.Errorf("cloning layout for %s: %w", page, err)
		}
		t, err := base.Parse(string(pageBytes))
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", page, err)
		}
		ts.templates[page] = t
	}

	return ts, nil
}

// Render executes the named page into w with the given status.
// The page is rendered to a buffer first so a failing template never
// produces a half-written response.
func (ts *Templates) Render(w http.ResponseWriter, status int, name string, data any) error {
	t, ok := ts.templates[name]
	if !ok {
		return fmt.Errorf("template %s not found", name)
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return fmt.Errorf("rendering %s: %w", name, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}
