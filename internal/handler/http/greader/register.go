// Package greader exposes internal/usecase/stream's read operations as
// a Google Reader-compatible HTTP surface.
// Authentication is handled upstream by the ambient JWT middleware
// (hauth.Authz); this package only translates query parameters into
// stream.Service calls and renders its JSON response types.
package greader

import (
	"net/http"

	"yana/internal/handler/http/middleware"
	"yana/internal/usecase/stream"
)

// Register wires the GReader read endpoints onto mux. readRateLimiter
// throttles these endpoints the way article/search is throttled in the
// admin API, since unauthenticated-feeling poll loops are the expected
// traffic pattern for a feed reader client.
func Register(mux *http.ServeMux, svc *stream.Service, readRateLimiter *middleware.RateLimiter) {
	mux.Handle("GET /reader/api/0/unread-count", readRateLimiter.Middleware(UnreadCountHandler{Svc: svc}))
	mux.Handle("GET /reader/api/0/stream/items/ids", readRateLimiter.Middleware(StreamItemIDsHandler{Svc: svc}))
	mux.Handle("GET /reader/api/0/stream/contents/{streamId...}", readRateLimiter.Middleware(StreamContentsHandler{Svc: svc}))
}
