package middleware

import (
	"context"
	"net/http"
	"time"
)

// Timeout wraps a handler to bound the request context. Used on routes that
// wait on the billing provider (PDF download) so a stalled upstream does not
// pin the connection longer than the given budget. The server's
// WriteTimeout still applies on top.
func Timeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
