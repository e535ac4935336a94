package predict

import (
	"errors"
	"fmt"
)

var (
	// ErrNoFiles is returned by Predict when called with an empty selection.
	ErrNoFiles = errors.New("no files to upload")

	// ErrUnexpectedStatus matches every *StatusError.
	ErrUnexpectedStatus = errors.New("unexpected status")

	// ErrMalformedResponse is returned when /predict answers 2xx with a body
	// that is not a JSON array.
	ErrMalformedResponse = errors.New("malformed predict response")
)

// StatusError is returned when the service answers with a non-2xx status.
type StatusError struct {
	Op         string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s failed: status %d", e.Op, e.StatusCode)
}

// Is lets errors.Is(err, ErrUnexpectedStatus) match.
func (e *StatusError) Is(target error) bool {
	return target == ErrUnexpectedStatus
}
