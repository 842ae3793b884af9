package appcore

import (
	"errors"
	"strings"

	"writings/framework/router"
	"writings/internal/markdown"
	"writings/internal/writings"
)

var errWritingsServiceUnavailable = errors.New("writings service unavailable")

// Context is shared by every loader for the lifetime of the server.
type Context struct {
	service   *writings.Service
	routes    *router.Table
	apiOrigin string
	markdown  markdown.Options
}

type Options struct {
	Routes *router.Table

	// APIOrigin is named on the login and registration pages, where
	// accounts are managed.
	APIOrigin string

	// SiteHost marks links in writings that stay on this site.
	SiteHost string
}

func NewContext(service *writings.Service, opts Options) *Context {
	return &Context{
		service:   service,
		routes:    opts.Routes,
		apiOrigin: strings.TrimRight(opts.APIOrigin, "/"),
		markdown:  markdown.Options{SiteHost: opts.SiteHost},
	}
}

func IsNotFoundError(err error) bool {
	return errors.Is(err, writings.ErrNotFound)
}

func writingsService(appCtx *Context) (*writings.Service, error) {
	if appCtx == nil || appCtx.service == nil {
		return nil, errWritingsServiceUnavailable
	}
	return appCtx.service, nil
}
