package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

//go:embed templates
var templatesFS embed.FS

const layoutFile = "templates/layout.html"

var funcs = template.FuncMap{
	"price": func(d decimal.Decimal) string { return d.StringFixed(2) },
	"date":  func(t time.Time) string { return t.Format("02.01.2006 15:04") },
	"deref": func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	},
	"captchaURL": captchaURL,
}

// captchaURL lets a PNG data URI through the src filter; anything else is dropped
func captchaURL(s string) template.URL {
	if !strings.HasPrefix(s, "data:image/png;base64,") {
		return ""
	}
	return template.URL(s)
}

// Renderer executes the embedded page templates. Every page is parsed
// together with the shared layout.
type Renderer struct {
	pages map[string]*template.Template
	log   *zap.Logger
}

func NewRenderer(log *zap.Logger) (*Renderer, error) {
	r := &Renderer{
		pages: make(map[string]*template.Template),
		log:   log.With(zap.String("component", "renderer")),
	}

	for _, pattern := range []string{"templates/*.html", "templates/pages/*.html"} {
		files, err := fs.Glob(templatesFS, pattern)
		if err != nil {
			return nil, err
		}
		for _, file := range files {
			if file == layoutFile {
				continue
			}
			tmpl, err := template.New(path.Base(file)).Funcs(funcs).ParseFS(templatesFS, layoutFile, file)
			if err != nil {
				return nil, fmt.Errorf("parse %s: %w", file, err)
			}
			r.pages[pageName(file)] = tmpl
		}
	}

	return r, nil
}

// pageName maps templates/index.html to "index" and
// templates/pages/about.html to "pages/about".
func pageName(file string) string {
	return strings.TrimSuffix(strings.TrimPrefix(file, "templates/"), ".html")
}

func (r *Renderer) Has(name string) bool {
	_, ok := r.pages[name]
	return ok
}

// Render writes the named page. The page is buffered so a template error
// still produces a clean 500.
func (r *Renderer) Render(w http.ResponseWriter, status int, name string, view *View) {
	tmpl, ok := r.pages[name]
	if !ok {
		r.log.Error("Unknown template", zap.String("template", name))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", view); err != nil {
		r.log.Error("Failed to render template", zap.String("template", name), zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
