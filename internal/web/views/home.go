package views

import (
	"context"

	"writings/internal/web/appcore"

	"github.com/a-h/templ"
)

func HomePage(view appcore.HomePageView) templ.Component {
	return component(func(ctx context.Context, m *markup) {
		m.raw(`<section class="home"`)
		m.attr("data-signals", view.SignalsJSON)
		m.raw(">")

		m.raw(`<form class="search" action="/" method="get">`)
		m.raw(`<input type="search" name="q" placeholder="Search writings and people" data-bind:q`)
		m.attr("value", view.SearchQuery)
		m.attr("data-on:input__debounce.300ms", "@get('"+appcore.LiveSearchPath+"')")
		m.raw(`><button type="submit">Search</button></form>`)

		m.render(ctx, SearchResults(view))

		m.raw("<h1>Latest writings</h1>")
		if len(view.Writings) == 0 {
			m.raw(`<p class="empty">Nothing has been published yet.</p>`)
		} else {
			m.render(ctx, writingCards(view.Writings))
		}
		m.raw("</section>")
	})
}

// SearchResults is the fragment patched into the home page by live search.
func SearchResults(view appcore.HomePageView) templ.Component {
	search := view.Search

	return component(func(ctx context.Context, m *markup) {
		m.raw("<div")
		m.attr("id", appcore.SearchResultsID)
		m.raw(">")
		if search.Query == "" {
			m.raw("</div>")
			return
		}

		m.raw("<h2>Results for “")
		m.text(search.Query)
		m.raw("”</h2>")

		if len(search.Users) > 0 {
			m.raw(`<ul class="user-list">`)
			for _, user := range search.Users {
				m.raw("<li>")
				m.link(user.URL, "@"+user.Username)
				m.raw("</li>")
			}
			m.raw("</ul>")
		}
		if len(search.Writings) > 0 {
			m.render(ctx, writingCards(search.Writings))
		}
		if search.Empty() {
			m.raw(`<p class="empty">No writings or people match “`)
			m.text(search.Query)
			m.raw("”.</p>")
		}
		m.raw("</div>")
	})
}

// writingCards lists writings. The backend listing carries no author, so
// such cards cannot link to the writing page and say so.
func writingCards(cards []appcore.WritingCard) templ.Component {
	return component(func(_ context.Context, m *markup) {
		m.raw(`<ul class="writing-list">`)
		for _, card := range cards {
			m.raw(`<li class="writing-card">`)
			if card.URL != "" {
				m.raw("<h3>")
				m.link(card.URL, card.Title)
				m.raw("</h3>")
			} else {
				m.raw("<h3>")
				m.text(card.Title)
				m.raw("</h3>")
			}

			if card.Author != "" {
				m.raw(`<p class="byline">by `)
				m.link(card.AuthorURL, "@"+card.Author)
				if published := appcore.PublishedAtText(card.PublishedAt); published != "" {
					m.raw(" · ")
					m.text(published)
				}
				m.raw("</p>")
			} else {
				m.raw(`<p class="byline">Author not listed</p>`)
			}

			if card.Excerpt != "" {
				m.raw(`<p class="excerpt">`)
				m.text(card.Excerpt)
				m.raw("</p>")
			}
			m.raw("</li>")
		}
		m.raw("</ul>")
	})
}
