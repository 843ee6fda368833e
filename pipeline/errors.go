package pipeline

import (
	"errors"
	"fmt"
)

// StoreError is a store failure other than a duplicate URL. The record was
// not persisted and any transaction was rolled back.
type StoreError struct {
	URL string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.URL, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

func IsStoreError(err error) bool {
	var e *StoreError
	return errors.As(err, &e)
}
