package appcore

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"writings/framework"
	"writings/framework/router"
	"writings/internal/logger"
	"writings/internal/markdown"
	"writings/internal/writings"

	"github.com/starfederation/datastar-go/datastar"
	"go.uber.org/zap"
)

// LoadHomePage lists writings and, when ?q= is set, searches at the same
// time. Both backend requests are in flight together.
func LoadHomePage(
	ctx context.Context,
	appCtx *Context,
	r *http.Request,
	_ router.State,
) (HomePageView, error) {
	service, err := writingsService(appCtx)
	if err != nil {
		return HomePageView{}, err
	}

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	listingPending := service.ListWritingsAsync(ctx)
	searchPending := service.SearchAsync(ctx, query)

	search, searchErr := service.AwaitSearch(ctx, query, searchPending)
	listing, err := service.AwaitListing(ctx, listingPending)
	if err != nil {
		return HomePageView{}, err
	}

	return HomePageView{
		LayoutView:    appCtx.newLayout("Writings", RouteHome, query),
		Writings:      appCtx.writingCards(listing.Writings),
		Search:        appCtx.searchOutcome(query, search, searchErr),
		Authenticated: listing.Authenticated,
		SignalsJSON:   marshalSignals(SearchSignalState{Q: query}),
	}, nil
}

func ParseSearchLiveState(r *http.Request) (SearchSignalState, error) {
	fallback := SearchSignalState{Q: r.URL.Query().Get("q")}

	state, err := readDatastarState(r, fallback)
	if err != nil {
		return SearchSignalState{}, err
	}
	state.Q = strings.TrimSpace(state.Q)

	return state, nil
}

func LoadSearchLive(
	ctx context.Context,
	appCtx *Context,
	_ *http.Request,
	_ map[string]string,
	state SearchSignalState,
) (HomePageView, error) {
	service, err := writingsService(appCtx)
	if err != nil {
		return HomePageView{}, err
	}

	result, err := service.Search(ctx, state.Q)

	return HomePageView{
		LayoutView:  appCtx.newLayout("Writings", RouteHome, state.Q),
		Search:      appCtx.searchOutcome(state.Q, result, err),
		SignalsJSON: marshalSignals(state),
	}, nil
}

// searchOutcome shows a failed search as an empty result set. The home
// route always resolves, whatever the backend answers for the query.
func (appCtx *Context) searchOutcome(query string, result writings.SearchResult, err error) SearchResultsView {
	if err != nil {
		logger.Log.Warn("search failed",
			zap.String("query", query),
			zap.Error(err),
		)
		return appCtx.searchResultsView(writings.SearchResult{Query: query})
	}
	return appCtx.searchResultsView(result)
}

func readDatastarState[T interface{}](r *http.Request, fallback T) (T, error) {
	if r.Method == http.MethodGet && strings.TrimSpace(r.URL.Query().Get(datastar.DatastarKey)) == "" {
		return fallback, nil
	}

	parsed := fallback
	if err := datastar.ReadSignals(r, &parsed); err != nil {
		return fallback, err
	}

	return parsed, nil
}

func LoadUserPage(
	ctx context.Context,
	appCtx *Context,
	_ *http.Request,
	state router.State,
) (UserPageView, error) {
	service, err := writingsService(appCtx)
	if err != nil {
		return UserPageView{}, err
	}

	username, _ := state.Param("username")
	profile, err := service.Profile(ctx, username)
	if err != nil {
		return UserPageView{}, err
	}

	return UserPageView{
		LayoutView:  appCtx.newLayout("@"+profile.Username, RouteUser, ""),
		Username:    profile.Username,
		Email:       profile.Email,
		Description: profile.Description,
		Writings:    appCtx.writingCards(profile.Writings),
	}, nil
}

func LoadWritingPage(
	ctx context.Context,
	appCtx *Context,
	_ *http.Request,
	state router.State,
) (WritingPageView, error) {
	service, err := writingsService(appCtx)
	if err != nil {
		return WritingPageView{}, err
	}

	username, _ := state.Param("username")
	id, _ := state.Param("id")
	profile, writing, err := service.Writing(ctx, username, id)
	if err != nil {
		return WritingPageView{}, err
	}

	return WritingPageView{
		LayoutView:  appCtx.newLayout(writing.Title, RouteWriting, ""),
		Title:       writing.Title,
		Author:      profile.Username,
		AuthorURL:   appCtx.UserURL(profile.Username),
		Body:        markdown.ToHTML(writing.Text, appCtx.markdown),
		PublishedAt: writing.PublishedAt,
	}, nil
}

func LoadPublishPage(
	_ context.Context,
	appCtx *Context,
	_ *http.Request,
	_ router.State,
) (PublishPageView, error) {
	return appCtx.newPublishView(writings.Draft{}, ""), nil
}

// SubmitPublish sends the posted draft to the backend and returns home on
// success. A rejected draft re-renders the form with the backend's answer.
func SubmitPublish(
	ctx context.Context,
	appCtx *Context,
	r *http.Request,
	_ router.State,
) (framework.Submission[PublishPageView], error) {
	service, err := writingsService(appCtx)
	if err != nil {
		return framework.Submission[PublishPageView]{}, err
	}
	if err := r.ParseForm(); err != nil {
		return framework.Submission[PublishPageView]{
			View:       appCtx.newPublishView(writings.Draft{}, "The form could not be read."),
			StatusCode: http.StatusBadRequest,
		}, nil
	}

	draft := writings.Draft{
		Title:  r.PostForm.Get("title"),
		Text:   r.PostForm.Get("text"),
		Author: strings.TrimSpace(r.PostForm.Get("author")),
	}

	if _, err := service.Publish(ctx, draft); err != nil {
		var statusErr *writings.StatusError
		if !errors.As(err, &statusErr) && !errors.Is(err, writings.ErrNotFound) {
			return framework.Submission[PublishPageView]{}, err
		}

		return framework.Submission[PublishPageView]{
			View:       appCtx.newPublishView(draft, "The writing was not published: "+err.Error()),
			StatusCode: http.StatusBadGateway,
		}, nil
	}

	return framework.Submission[PublishPageView]{RedirectTo: appCtx.path(RouteHome, nil)}, nil
}

func (appCtx *Context) newPublishView(draft writings.Draft, message string) PublishPageView {
	return PublishPageView{
		LayoutView: appCtx.newLayout("Publish", RoutePublish, ""),
		Title:      draft.Title,
		Text:       draft.Text,
		Author:     draft.Author,
		Error:      message,
		ActionURL:  appCtx.path(RoutePublish, nil),
	}
}

func LoadLoginPage(
	_ context.Context,
	appCtx *Context,
	_ *http.Request,
	_ router.State,
) (AuthPageView, error) {
	return AuthPageView{
		LayoutView:    appCtx.newLayout("Log in", RouteLogin, ""),
		Heading:       "Log in",
		SubmitLabel:   "Log in",
		BackendOrigin: appCtx.apiOrigin,
		AlternateURL:  appCtx.path(RouteRegister, nil),
		AlternateTxt:  "No account yet? Register",
	}, nil
}

func LoadRegisterPage(
	_ context.Context,
	appCtx *Context,
	_ *http.Request,
	_ router.State,
) (AuthPageView, error) {
	return AuthPageView{
		LayoutView:    appCtx.newLayout("Register", RouteRegister, ""),
		Heading:       "Create an account",
		AskUsername:   true,
		SubmitLabel:   "Register",
		BackendOrigin: appCtx.apiOrigin,
		AlternateURL:  appCtx.path(RouteLogin, nil),
		AlternateTxt:  "Already registered? Log in",
	}, nil
}

func NewNotFoundView(appCtx *Context, requestPath string) NotFoundPageView {
	requestPath = strings.TrimSpace(requestPath)
	if requestPath == "" {
		requestPath = "/"
	}

	return NotFoundPageView{
		LayoutView: appCtx.newLayout("404 Not Found", router.NotFound.Name, ""),
		Path:       requestPath,
		HomeURL:    appCtx.path(RouteHome, nil),
	}
}
