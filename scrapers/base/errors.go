package base

import (
	"errors"
	"fmt"
)

// FetchFailedError reports a transport, status or timeout failure for one URL.
// The caller decides whether to skip the item or abort.
type FetchFailedError struct {
	URL string
	Err error
}

func (e *FetchFailedError) Error() string {
	return fmt.Sprintf("fetch failed for %s: %v", e.URL, e.Err)
}

func (e *FetchFailedError) Unwrap() error { return e.Err }

func IsFetchFailed(err error) bool {
	var e *FetchFailedError
	return errors.As(err, &e)
}

// StatusError is a non-2xx response from the HTTP renderer.
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status code error: %d %s", e.StatusCode, e.Status)
}
