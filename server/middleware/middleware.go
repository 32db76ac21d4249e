package middleware

import "net/http"

// Middleware wraps an http.Handler. The server applies these around the whole
// mux so they see every request, including ones Gin never routes.
type Middleware func(http.Handler) http.Handler

// Chain composes middlewares; the first is the outermost.
func Chain(middlewares ...Middleware) Middleware {
	return func(final http.Handler) http.Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			final = middlewares[i](final)
		}
		return final
	}
}
