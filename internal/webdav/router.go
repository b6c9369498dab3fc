package webdav

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter builds the chi router for the gateway: every method and path
// under the tree is handled by d, since routing here means interpreting the
// whole remaining path as a DavPath rather than matching a fixed table of
// route patterns. middleware.RequestID stores a request ID in each request's
// context (the dispatcher's log entries do not include it);
// middleware.Recoverer turns a panic in
// template execution or a resolver bug into a 500 instead of killing the
// server.
func NewRouter(d *Dispatcher) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recoverer)
	r.Handle("/", d)
	r.Handle("/*", d)
	return r
}
