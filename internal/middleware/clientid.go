package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

const ClientIDKey contextKey = "client_id"

// ClientID reads the browser's X-Client-ID header. The id names the
// anonymous buffer slot, so a malformed value is rejected rather than
// silently mapped to someone else's buffer. Requests without the header
// pass through; handlers that need an id mint one and return it.
func ClientID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientID := r.Header.Get("X-Client-ID")
		if clientID != "" {
			if _, err := uuid.Parse(clientID); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_CLIENT_ID", "X-Client-ID must be a UUID", r)
				return
			}
			ctx := context.WithValue(r.Context(), ClientIDKey, clientID)
			r = r.WithContext(ctx)
		}
		next.ServeHTTP(w, r)
	})
}

// GetClientID extracts the client id from request context. Empty when the
// request carried no X-Client-ID header.
func GetClientID(ctx context.Context) string {
	id, _ := ctx.Value(ClientIDKey).(string)
	return id
}
