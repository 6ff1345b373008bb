// Package templates holds the embedded page templates and the gin renderer
// that executes them.
package templates

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"strings"

	"github.com/gin-gonic/gin/render"

	"github.com/yungbote/instrument-catalog/internal/platform/markdown"
)

//go:embed html/*.html
var files embed.FS

const layoutFile = "html/layout.html"

// Page names accepted by Renderer.Instance.
const (
	PageIndex          = "index"
	PageCategories     = "categories"
	PageCategory       = "category"
	PageInstruments    = "instruments"
	PageInstrument     = "instrument"
	PageInstrumentForm = "instrument_form"
	PageDelete         = "instrument_delete"
	PageMy             = "my"
	PageLogin          = "login"
	PageAPIDocs        = "api_docs"
	PageError          = "error"
)

var funcs = template.FuncMap{
	"markdown": markdown.Render,
	"join":     strings.Join,
	"inc":      func(i int) int { return i + 1 },
}

// Renderer implements gin's render.HTMLRender with one template set per
// page, each sharing the layout.
type Renderer struct {
	pages map[string]*template.Template
}

func New() (*Renderer, error) {
	layout, err := fs.ReadFile(files, layoutFile)
	if err != nil {
		return nil, fmt.Errorf("read layout: %w", err)
	}
	paths, err := fs.Glob(files, "html/*.html")
	if err != nil {
		return nil, err
	}
	r := &Renderer{pages: map[string]*template.Template{}}
	for _, p := range paths {
		if p == layoutFile {
			continue
		}
		body, err := fs.ReadFile(files, p)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
		name := strings.TrimSuffix(strings.TrimPrefix(p, "html/"), ".html")
		t, err := template.New("layout").Funcs(funcs).Parse(string(layout))
		if err != nil {
			return nil, fmt.Errorf("parse layout: %w", err)
		}
		if _, err := t.Parse(string(body)); err != nil {
			return nil, fmt.Errorf("parse %s: %w", p, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

func Must(r *Renderer, err error) *Renderer {
	if err != nil {
		panic(err)
	}
	return r
}

func (r *Renderer) Has(name string) bool {
	_, ok := r.pages[name]
	return ok
}

func (r *Renderer) Instance(name string, data any) render.Render {
	t, ok := r.pages[name]
	if !ok {
		t = r.pages[PageError]
	}
	return render.HTML{Template: t, Name: "layout", Data: data}
}
