// Package views renders the page components of the writings frontend.
package views

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// markup writes HTML for one component render and keeps the first error.
type markup struct {
	w   io.Writer
	err error
}

func component(render func(ctx context.Context, m *markup)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		m := &markup{w: w}
		render(ctx, m)
		return m.err
	})
}

func (m *markup) raw(html string) {
	if m.err != nil {
		return
	}
	_, m.err = io.WriteString(m.w, html)
}

func (m *markup) text(value string) {
	m.raw(templ.EscapeString(value))
}

func (m *markup) attr(name string, value string) {
	m.raw(" " + name + `="` + templ.EscapeString(value) + `"`)
}

// url writes a link attribute. Values with unsafe schemes are replaced by
// templ's sanitization marker.
func (m *markup) url(name string, value string) {
	m.attr(name, string(templ.URL(value)))
}

func (m *markup) render(ctx context.Context, child templ.Component) {
	if m.err != nil || child == nil {
		return
	}
	m.err = child.Render(ctx, m.w)
}

func (m *markup) link(href string, label string) {
	m.raw("<a")
	m.url("href", href)
	m.raw(">")
	m.text(label)
	m.raw("</a>")
}
