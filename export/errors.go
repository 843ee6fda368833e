package export

import (
	"errors"
	"fmt"
)

// RowTransformError is a stored record that could not become an export row.
// The row is skipped and the export continues.
type RowTransformError struct {
	ID        int64
	ProductID string
	Err       error
}

func (e *RowTransformError) Error() string {
	return fmt.Sprintf("transform record %d (%s): %v", e.ID, e.ProductID, e.Err)
}

func (e *RowTransformError) Unwrap() error { return e.Err }

func IsRowTransformError(err error) bool {
	var e *RowTransformError
	return errors.As(err, &e)
}
