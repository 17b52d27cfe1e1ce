// Package requesttime pins one "now" per HTTP request. Access, violation and
// error records written while serving a request all carry the same instant.
package requesttime

import (
	"net/http"
	"time"

	"creditgate/pkg/requestcontext"
)

// Middleware stores time.Now in the request context; read it with requestcontext.Now.
func Middleware(next http.Handler) http.Handler {
	return WithClock(time.Now)(next)
}

// WithClock is Middleware with an injected clock.
func WithClock(clock func() time.Time) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := requestcontext.WithTime(r.Context(), clock().UTC())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
