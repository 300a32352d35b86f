package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/xy-planning-network/trailhead"
)

// RequestIDHeader carries the ID RequestID assigns a request back to the client.
const RequestIDHeader = "X-Request-Id"

// RequestID adds a uuid to the request context under trailhead.RequestIDKey,
// echoing it in the X-Request-Id response header.
func RequestID() Adapter {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := uuid.NewString()
			w.Header().Set(RequestIDHeader, id)
			ctx := context.WithValue(r.Context(), trailhead.RequestIDKey, id)
			h.ServeHTTP(w, r.Clone(ctx))
		})
	}
}

// RequestIDFrom retrieves the ID RequestID stashed in r.
func RequestIDFrom(r *http.Request) string {
	id, _ := r.Context().Value(trailhead.RequestIDKey).(string)
	return id
}
