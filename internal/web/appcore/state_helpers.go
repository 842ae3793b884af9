package appcore

import (
	"encoding/json"
	"strings"
	"time"

	"writings/internal/markdown"
	"writings/internal/writings"
)

const (
	RouteHome     = "home"
	RouteLogin    = "login"
	RouteUser     = "user"
	RouteWriting  = "writing"
	RouteRegister = "register"
	RoutePublish  = "publish"
)

const (
	LiveSearchPath    = "/search/live"
	SearchResultsID   = "search-results"
	excerptLength     = 220
	publishedAtLayout = "2 Jan 2006"
	codeThemeLight    = markdown.DefaultLightTheme
	codeThemeDark     = markdown.DefaultDarkTheme
)

// SearchSignalState is the datastar signal set of the home page search box.
type SearchSignalState struct {
	Q string `json:"q"`
}

func marshalSignals[T interface{}](value T) string {
	payload, err := json.Marshal(value)
	if err != nil {
		return "{}"
	}

	return string(payload)
}

func (appCtx *Context) path(name string, params map[string]string) string {
	if appCtx == nil || appCtx.routes == nil {
		return "/"
	}

	target, err := appCtx.routes.Path(name, params)
	if err != nil {
		return "/"
	}
	return target
}

func (appCtx *Context) UserURL(username string) string {
	if strings.TrimSpace(username) == "" {
		return ""
	}
	return appCtx.path(RouteUser, map[string]string{"username": username})
}

func (appCtx *Context) WritingURL(username string, id writings.ID) string {
	if strings.TrimSpace(username) == "" || id == "" {
		return ""
	}
	return appCtx.path(RouteWriting, map[string]string{"username": username, "id": id.String()})
}

func (appCtx *Context) newLayout(pageTitle string, activeRoute string, searchQuery string) LayoutView {
	nav := []NavLink{
		{Label: "Writings", URL: appCtx.path(RouteHome, nil), Active: activeRoute == RouteHome},
		{Label: "Publish", URL: appCtx.path(RoutePublish, nil), Active: activeRoute == RoutePublish},
		{Label: "Log in", URL: appCtx.path(RouteLogin, nil), Active: activeRoute == RouteLogin},
		{Label: "Register", URL: appCtx.path(RouteRegister, nil), Active: activeRoute == RouteRegister},
	}

	return LayoutView{
		PageTitle:   pageTitle,
		ActiveRoute: activeRoute,
		SearchQuery: searchQuery,
		Nav:         nav,
		CodeCSS:     markdown.CodeCSS(codeThemeLight, codeThemeDark),
	}
}

func (appCtx *Context) writingCards(items []writings.Writing) []WritingCard {
	cards := make([]WritingCard, 0, len(items))
	for _, item := range items {
		cards = append(cards, WritingCard{
			ID:          item.ID.String(),
			Title:       item.Title,
			Excerpt:     markdown.Excerpt(item.Text, excerptLength),
			Author:      item.Author,
			AuthorURL:   appCtx.UserURL(item.Author),
			URL:         appCtx.WritingURL(item.Author, item.ID),
			PublishedAt: item.PublishedAt,
		})
	}
	return cards
}

func (appCtx *Context) searchResultsView(result writings.SearchResult) SearchResultsView {
	users := make([]UserCard, 0, len(result.Users))
	for _, user := range result.Users {
		users = append(users, UserCard{Username: user.Username, URL: appCtx.UserURL(user.Username)})
	}

	return SearchResultsView{
		Query:    result.Query,
		Writings: appCtx.writingCards(result.Writings),
		Users:    users,
	}
}

func PublishedAtText(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format(publishedAtLayout)
}

func NavLinkClass(active bool) string {
	if active {
		return "nav-link active"
	}
	return "nav-link"
}
