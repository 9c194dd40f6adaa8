package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/nintynick/transitive-trust-sub001/pkg/requestcontext"
)

// RequestID assigns each request an ID, honoring an inbound X-Request-ID so
// IDs follow a call across services, and pins the request-scoped time so one
// query evaluates liveness against a single clock reading.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}

		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		ctx = requestcontext.WithTime(ctx, time.Now().UTC())

		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
