package completion

import (
	"errors"
	"fmt"
)

// ErrMalformedResponse wraps any response the wire codec could not parse.
var ErrMalformedResponse = errors.New("malformed completion response")

// StatusError is returned when the endpoint answers with a non-200 status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("endpoint returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("endpoint returned status %d: %s", e.StatusCode, e.Body)
}
