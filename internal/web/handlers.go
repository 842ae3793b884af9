package web

import (
	"fmt"
	"net/http"

	"writings/framework"
	"writings/framework/httpserver"
	"writings/internal/config"
	"writings/internal/logger"
	"writings/internal/web/appcore"
	"writings/internal/web/views"
	"writings/internal/writings"

	"github.com/a-h/templ"
)

// NewHandler builds the full HTTP handler: pages, live search, static
// assets, health and request logging.
func NewHandler(cfg config.Config, service *writings.Service) (http.Handler, error) {
	routes, err := Routes()
	if err != nil {
		return nil, fmt.Errorf("build route table: %w", err)
	}

	appCtx := appcore.NewContext(service, appcore.Options{
		Routes:    routes,
		APIOrigin: cfg.APIOrigin,
		SiteHost:  cfg.SiteHost(),
	})

	cachePolicies := httpserver.DefaultCachePolicies()
	cachePolicies.HTML = cfg.CachePolicy

	return httpserver.New(httpserver.Config[*appcore.Context]{
		AppContext:      appCtx,
		Routes:          routes,
		Handlers:        Handlers(),
		IsNotFoundError: appcore.IsNotFoundError,
		NotFoundPage: func(notFoundContext framework.NotFoundContext) templ.Component {
			view := appcore.NewNotFoundView(appCtx, notFoundContext.RequestPath)
			return views.Layout(view, views.NotFoundPage(view))
		},
		Static: httpserver.StaticMount{
			URLPrefix: "/static/",
			Dir:       cfg.StaticDir,
		},
		CachePolicies: cachePolicies,
		Middleware:    []func(http.Handler) http.Handler{logger.Middleware},
		Logger:        logger.Log,
	})
}

// Handlers binds every entry of Routes to its page module.
func Handlers() []framework.RouteHandler[*appcore.Context] {
	return []framework.RouteHandler[*appcore.Context]{
		framework.PageAndLiveRouteHandler[*appcore.Context, appcore.SearchSignalState, appcore.HomePageView]{
			Page: framework.PageModule[*appcore.Context, appcore.HomePageView]{
				Route:   appcore.RouteHome,
				Load:    appcore.LoadHomePage,
				Render:  views.HomePage,
				Layouts: []framework.LayoutRenderer[appcore.HomePageView]{rootLayout[appcore.HomePageView]},
			},
			Live: framework.LiveModule[*appcore.Context, appcore.SearchSignalState, appcore.HomePageView]{
				Pattern:           appcore.LiveSearchPath,
				ParseState:        appcore.ParseSearchLiveState,
				Load:              appcore.LoadSearchLive,
				Render:            views.SearchResults,
				SelectorID:        appcore.SearchResultsID,
				BadRequestMessage: "invalid search state",
			},
		},
		framework.PageOnlyRouteHandler[*appcore.Context, appcore.AuthPageView]{
			Page: framework.PageModule[*appcore.Context, appcore.AuthPageView]{
				Route:   appcore.RouteLogin,
				Load:    appcore.LoadLoginPage,
				Render:  views.AuthPage,
				Layouts: []framework.LayoutRenderer[appcore.AuthPageView]{rootLayout[appcore.AuthPageView]},
			},
		},
		framework.PageOnlyRouteHandler[*appcore.Context, appcore.UserPageView]{
			Page: framework.PageModule[*appcore.Context, appcore.UserPageView]{
				Route:   appcore.RouteUser,
				Load:    appcore.LoadUserPage,
				Render:  views.UserPage,
				Layouts: []framework.LayoutRenderer[appcore.UserPageView]{rootLayout[appcore.UserPageView]},
			},
		},
		framework.PageOnlyRouteHandler[*appcore.Context, appcore.WritingPageView]{
			Page: framework.PageModule[*appcore.Context, appcore.WritingPageView]{
				Route:   appcore.RouteWriting,
				Load:    appcore.LoadWritingPage,
				Render:  views.WritingPage,
				Layouts: []framework.LayoutRenderer[appcore.WritingPageView]{rootLayout[appcore.WritingPageView]},
			},
		},
		framework.PageOnlyRouteHandler[*appcore.Context, appcore.AuthPageView]{
			Page: framework.PageModule[*appcore.Context, appcore.AuthPageView]{
				Route:   appcore.RouteRegister,
				Load:    appcore.LoadRegisterPage,
				Render:  views.AuthPage,
				Layouts: []framework.LayoutRenderer[appcore.AuthPageView]{rootLayout[appcore.AuthPageView]},
			},
		},
		framework.FormRouteHandler[*appcore.Context, appcore.PublishPageView]{
			Page: framework.PageModule[*appcore.Context, appcore.PublishPageView]{
				Route:   appcore.RoutePublish,
				Load:    appcore.LoadPublishPage,
				Render:  views.PublishPage,
				Layouts: []framework.LayoutRenderer[appcore.PublishPageView]{rootLayout[appcore.PublishPageView]},
			},
			Form: framework.FormModule[*appcore.Context, appcore.PublishPageView]{
				Submit: appcore.SubmitPublish,
			},
		},
	}
}

func rootLayout[VM appcore.RootLayoutView](view VM, child templ.Component) templ.Component {
	return views.Layout(view, child)
}
