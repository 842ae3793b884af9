package web

import (
	"writings/framework/router"
	"writings/internal/web/appcore"
)

// Routes is the browser route table. Entries are matched in this order.
func Routes() (*router.Table, error) {
	return router.New(
		router.Route{Name: appcore.RouteHome, Pattern: "/", View: "home"},
		router.Route{Name: appcore.RouteLogin, Pattern: "/login", View: "login"},
		router.Route{Name: appcore.RouteUser, Pattern: "/users/:username", View: "user"},
		router.Route{Name: appcore.RouteWriting, Pattern: "/users/:username/:id", View: "writing"},
		router.Route{Name: appcore.RouteRegister, Pattern: "/register", View: "register"},
		router.Route{Name: appcore.RoutePublish, Pattern: "/publish", View: "publish"},
	)
}
