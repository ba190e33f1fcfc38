package handler

import "errors"

const (
	// RootPath is the root path the route group.
	RootPath = "/"

	// RouterRootPath is the root of a route group.
	RouterRootPath = ""

	// APIPath prefixes the JSON api.
	APIPath = "/api"

	// AdminPath prefixes the back office api.
	AdminPath = APIPath + "/admin"
)

// ErrNilDeps is returned by Init if app, cfg, db or the auth service is nil.
var ErrNilDeps = errors.New("app, cfg, db or auth service is nil")
