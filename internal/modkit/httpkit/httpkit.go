// Package httpkit is what modules register routes with, so they never import
// the platform transport or chi directly
package httpkit

import (
	"net/http"
	"strings"

	phttp "cardanoidx/internal/platform/net/http"
)

// Router is the routing seam modules mount on
type Router = phttp.Router

// Get mounts a read handler; the result and error become the response envelope
func Get(r Router, path string, h func(*http.Request) (any, error)) {
	r.Get(path, phttp.Read(h))
}

// GetQuery mounts a read handler whose input is bound from the query string
func GetQuery[T any](r Router, path string, h func(*http.Request, T) (any, error)) {
	r.Get(path, phttp.Query(h))
}

// Param returns a path parameter by name
func Param(r *http.Request, name string) string { return phttp.Param(r, name) }

// MountAPI scopes mount under /api/{version} behind mw
func MountAPI(r Router, version string, mw []func(http.Handler) http.Handler, mount func(Router)) {
	r.Route("/api/"+strings.Trim(version, "/"), func(api Router) {
		api.Use(mw...)
		mount(api)
	})
}
