package review

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"sync"

	"github.com/flosch/pongo2/v6"
)

//go:embed templates
var embeddedTemplates embed.FS

// Format selects a review template.
type Format string

const (
	FormatText Format = "txt"
	FormatHTML Format = "html"
)

// ErrUnknownFormat is returned for formats without a template.
var ErrUnknownFormat = errors.New("review: unknown format")

// Option customises a Renderer.
type Option func(*Renderer)

// WithTemplates replaces the embedded templates. fsys must provide
// summary.txt.tpl and summary.html.tpl at its root.
func WithTemplates(fsys fs.FS) Option {
	return func(r *Renderer) {
		if fsys != nil {
			r.templates = fsys
		}
	}
}

// Renderer executes the review templates.
type Renderer struct {
	templates fs.FS
	set       *pongo2.TemplateSet

	mu     sync.Mutex
	parsed map[Format]*pongo2.Template
}

// New builds a Renderer over the embedded templates.
func New(opts ...Option) (*Renderer, error) {
	r := &Renderer{parsed: make(map[Format]*pongo2.Template)}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	if r.templates == nil {
		r.templates = TemplatesFS()
	}
	r.set = pongo2.NewSet("mythforms-review", pongo2.NewFSLoader(r.templates))
	return r, nil
}

// Render executes the template for format and copies the result to every
// writer in out.
func (r *Renderer) Render(summary Summary, format Format, out ...io.Writer) (string, error) {
	tmpl, err := r.template(format)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteWriter(pongo2.Context{"summary": summary}, &buf); err != nil {
		return "", fmt.Errorf("review: render %s: %w", format, err)
	}
	rendered := buf.String()
	for _, w := range out {
		if _, err := io.WriteString(w, rendered); err != nil {
			return "", err
		}
	}
	return rendered, nil
}

func (r *Renderer) template(format Format) (*pongo2.Template, error) {
	if format != FormatText && format != FormatHTML {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if tmpl, ok := r.parsed[format]; ok {
		return tmpl, nil
	}
	name := "summary." + string(format) + ".tpl"
	tmpl, err := r.set.FromFile(name)
	if err != nil {
		return nil, fmt.Errorf("review: load %s: %w", name, err)
	}
	r.parsed[format] = tmpl
	return tmpl, nil
}

// TemplatesFS exposes the embedded review templates.
func TemplatesFS() fs.FS {
	sub, err := fs.Sub(embeddedTemplates, "templates")
	if err != nil {
		return embeddedTemplates
	}
	return sub
}
