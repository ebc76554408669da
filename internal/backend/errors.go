package backend

import "fmt"

// UnexpectedStatusError reports a non-success HTTP outcome from the catalog
// backend.
type UnexpectedStatusError struct {
	Method     string
	Path       string
	StatusCode int
}

func (e *UnexpectedStatusError) Error() string {
	return fmt.Sprintf("catalog backend: %s %s: unexpected status %d", e.Method, e.Path, e.StatusCode)
}
