// Package webui embeds the HTML templates and static assets and renders
// pages into a shared layout.
package webui

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/url"
	"path"
	"strings"
	"time"

	"traveldiary/internal/db"
)

// StaticFS holds embedded UI assets served by the HTTP server.
//
//go:embed static/*
var StaticFS embed.FS

//go:embed templates/*.html
var templateFS embed.FS

const layout = "base.html"

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Category string
	Message  string
}

// Page is passed to every template. Data carries the page-specific view.
type Page struct {
	Title   string
	User    *db.User
	Flashes []Flash
	Data    any
}

// Renderer holds one parsed template set per page, each sharing the layout.
type Renderer struct {
	pages map[string]*template.Template
}

var funcs = template.FuncMap{
	"fmtTime": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Local().Format("2006-01-02 15:04")
	},
	"coord": func(v *float64) string {
		if v == nil {
			return ""
		}
		return fmt.Sprintf("%.5f", *v)
	},
	"uploadURL": func(name string) string {
		return "/uploads/" + url.PathEscape(name)
	},
}

func NewRenderer() (*Renderer, error) {
	base, err := template.New(layout).Funcs(funcs).ParseFS(templateFS, "templates/"+layout)
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}
	files, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	r := &Renderer{pages: make(map[string]*template.Template, len(files))}
	for _, f := range files {
		name := path.Base(f)
		if name == layout {
			continue
		}
		t, err := base.Clone()
		if err != nil {
			return nil, err
		}
		if _, err := t.ParseFS(templateFS, f); err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		r.pages[strings.TrimSuffix(name, ".html")] = t
	}
	return r, nil
}

// Render executes page name into w. Output is buffered so a template error
// never leaves a half-written response.
func (r *Renderer) Render(w io.Writer, name string, p Page) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("unknown page %q", name)
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, layout, p); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	_, err := buf.WriteTo(w)
	return err
}
