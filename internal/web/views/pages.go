package views

import (
	"context"

	"writings/internal/web/appcore"

	"github.com/a-h/templ"
)

func UserPage(view appcore.UserPageView) templ.Component {
	return component(func(ctx context.Context, m *markup) {
		m.raw(`<section class="profile"><h1>@`)
		m.text(view.Username)
		m.raw("</h1>")
		if view.Description != "" {
			m.raw(`<p class="bio">`)
			m.text(view.Description)
			m.raw("</p>")
		}
		if view.Email != "" {
			m.raw(`<p class="contact">`)
			m.link("mailto:"+view.Email, view.Email)
			m.raw("</p>")
		}

		m.raw("<h2>Writings</h2>")
		if len(view.Writings) == 0 {
			m.raw(`<p class="empty">@`)
			m.text(view.Username)
			m.raw(" has not published anything yet.</p>")
		} else {
			m.render(ctx, writingCards(view.Writings))
		}
		m.raw("</section>")
	})
}

// WritingPage renders the body as produced by the markdown package, which
// drops raw HTML and unsafe link schemes.
func WritingPage(view appcore.WritingPageView) templ.Component {
	return component(func(ctx context.Context, m *markup) {
		m.raw(`<article class="writing"><h1>`)
		m.text(view.Title)
		m.raw(`</h1><p class="byline">by `)
		m.link(view.AuthorURL, "@"+view.Author)
		if published := appcore.PublishedAtText(view.PublishedAt); published != "" {
			m.raw(" · ")
			m.text(published)
		}
		m.raw(`</p><div class="writing-body">`)
		m.render(ctx, templ.Raw(string(view.Body)))
		m.raw("</div></article>")
	})
}

func PublishPage(view appcore.PublishPageView) templ.Component {
	return component(func(_ context.Context, m *markup) {
		m.raw(`<section class="publish"><h1>Publish a writing</h1>`)
		if view.Error != "" {
			m.raw(`<p class="error" role="alert">`)
			m.text(view.Error)
			m.raw("</p>")
		}

		m.raw("<form")
		m.url("action", view.ActionURL)
		m.raw(` method="post">`)
		m.raw(`<label>Title <input type="text" name="title"`)
		m.attr("value", view.Title)
		m.raw(`></label><label>Author <input type="text" name="author"`)
		m.attr("value", view.Author)
		m.raw(`></label><label>Text <textarea name="text" rows="16">`)
		m.text(view.Text)
		m.raw(`</textarea></label><button type="submit">Publish</button></form></section>`)
	})
}

// AuthPage shows the account form inert: the backend takes these requests
// as JSON from its own client.
func AuthPage(view appcore.AuthPageView) templ.Component {
	return component(func(_ context.Context, m *markup) {
		m.raw(`<section class="auth"><h1>`)
		m.text(view.Heading)
		m.raw(`</h1><p class="notice">Accounts are managed by the writings backend`)
		if view.BackendOrigin != "" {
			m.raw(" at ")
			m.link(view.BackendOrigin, view.BackendOrigin)
		}
		m.raw(`. This site does not submit the form.</p>`)

		m.raw(`<form method="post"><fieldset disabled>`)
		if view.AskUsername {
			m.raw(`<label>Username <input type="text" name="username" autocomplete="username"></label>`)
		}
		m.raw(`<label>Email <input type="email" name="email" autocomplete="email"></label>`)
		m.raw(`<label>Password <input type="password" name="password" autocomplete="current-password"></label>`)
		m.raw(`<button type="submit">`)
		m.text(view.SubmitLabel)
		m.raw("</button></fieldset></form><p>")
		m.link(view.AlternateURL, view.AlternateTxt)
		m.raw("</p></section>")
	})
}

func NotFoundPage(view appcore.NotFoundPageView) templ.Component {
	return component(func(_ context.Context, m *markup) {
		m.raw(`<section class="not-found"><h1>404</h1><p>Nothing lives at <code>`)
		m.text(view.Path)
		m.raw("</code>.</p><p>")
		m.link(view.HomeURL, "Back to the writings")
		m.raw("</p></section>")
	})
}
