package appcore

import (
	"html/template"
	"time"
)

// NavLink is one entry of the site header.
type NavLink struct {
	Label  string
	URL    string
	Active bool
}

type LayoutView struct {
	PageTitle   string
	ActiveRoute string
	SearchQuery string
	Nav         []NavLink
	CodeCSS     template.CSS
}

func (v LayoutView) LayoutPageTitle() string {
	return v.PageTitle
}

// RootLayoutView is implemented by every page view rendered inside the site
// layout.
type RootLayoutView interface {
	LayoutPageTitle() string
	Layout() LayoutView
}

type WritingCard struct {
	ID          string
	Title       string
	Excerpt     string
	Author      string
	AuthorURL   string
	URL         string
	PublishedAt *time.Time
}

type UserCard struct {
	Username string
	URL      string
}

type SearchResultsView struct {
	Query    string
	Writings []WritingCard
	Users    []UserCard
}

func (v SearchResultsView) Empty() bool {
	return len(v.Writings) == 0 && len(v.Users) == 0
}

type HomePageView struct {
	LayoutView
	Writings      []WritingCard
	Search        SearchResultsView
	Authenticated bool
	SignalsJSON   string
}

func (v HomePageView) Layout() LayoutView {
	return v.LayoutView
}

type UserPageView struct {
	LayoutView
	Username    string
	Email       string
	Description string
	Writings    []WritingCard
}

func (v UserPageView) Layout() LayoutView {
	return v.LayoutView
}

type WritingPageView struct {
	LayoutView
	Title       string
	Author      string
	AuthorURL   string
	Body        template.HTML
	PublishedAt *time.Time
}

func (v WritingPageView) Layout() LayoutView {
	return v.LayoutView
}

type PublishPageView struct {
	LayoutView
	Title     string
	Text      string
	Author    string
	Error     string
	ActionURL string
}

func (v PublishPageView) Layout() LayoutView {
	return v.LayoutView
}

// AuthPageView backs the login and registration forms. Accounts live on
// the backend, which only takes JSON, so the forms are shown inert with a
// pointer to the backend.
type AuthPageView struct {
	LayoutView
	Heading       string
	AskUsername   bool
	SubmitLabel   string
	BackendOrigin string
	AlternateURL  string
	AlternateTxt  string
}

func (v AuthPageView) Layout() LayoutView {
	return v.LayoutView
}

type NotFoundPageView struct {
	LayoutView
	Path    string
	HomeURL string
}

func (v NotFoundPageView) Layout() LayoutView {
	return v.LayoutView
}
