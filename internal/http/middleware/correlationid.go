package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/krittapak/catalog-panel/pkg/correlationid"
)

// CorrelationID attaches an inbound correlation ID to the request context,
// generating one when the caller did not send any, and echoes it back on
// the response.
func CorrelationID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(correlationid.Header)
			if id == "" {
				id = uuid.NewString()
			}

			w.Header().Set(correlationid.Header, id)

			ctx := correlationid.NewContext(r.Context(), id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
