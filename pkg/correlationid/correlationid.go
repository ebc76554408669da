package correlationid

import "context"

type contextKey struct{}

// Header is the HTTP header carrying the correlation ID.
const Header = "X-Correlation-ID"

// NewContext returns a context with the given correlation ID attached.
func NewContext(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext extracts the correlation ID from the context, if any.
func FromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(contextKey{}).(string)
	return id, ok
}
