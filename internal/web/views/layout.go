package views

import (
	"context"

	"writings/internal/web/appcore"

	"github.com/a-h/templ"
)

const datastarScriptURL = "https://cdn.jsdelivr.net/gh/starfederation/datastar@v1.0.0-RC.6/bundles/datastar.js"

// Layout wraps child in the site shell.
func Layout(view appcore.RootLayoutView, child templ.Component) templ.Component {
	layout := view.Layout()

	return component(func(ctx context.Context, m *markup) {
		m.raw(`<!doctype html><html lang="en"><head><meta charset="utf-8">`)
		m.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		m.raw("<title>")
		m.text(view.LayoutPageTitle())
		m.raw(" :: writings</title>")
		m.raw(`<link rel="stylesheet" href="/static/site.css">`)
		if layout.CodeCSS != "" {
			m.raw("<style>")
			m.render(ctx, templ.Raw(string(layout.CodeCSS)))
			m.raw("</style>")
		}
		m.raw(`<script type="module"`)
		m.attr("src", datastarScriptURL)
		m.raw("></script></head><body>")

		m.raw(`<header class="site-header"><nav>`)
		for _, item := range layout.Nav {
			m.raw("<a")
			m.attr("class", appcore.NavLinkClass(item.Active))
			m.url("href", item.URL)
			if item.Active {
				m.raw(` aria-current="page"`)
			}
			m.raw(">")
			m.text(item.Label)
			m.raw("</a>")
		}
		m.raw("</nav></header>")

		m.raw(`<main id="content">`)
		m.render(ctx, child)
		m.raw("</main></body></html>")
	})
}
