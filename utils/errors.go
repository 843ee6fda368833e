package utils

import (
	"errors"
	"fmt"
)

// ImageDownloadFailedError is one image that could not be fetched or written.
// The remaining images of the product are still attempted.
type ImageDownloadFailedError struct {
	ProductID string
	Index     int
	URL       string
	Err       error
}

func (e *ImageDownloadFailedError) Error() string {
	return fmt.Sprintf("image %d of %s (%s): %v", e.Index, e.ProductID, e.URL, e.Err)
}

func (e *ImageDownloadFailedError) Unwrap() error { return e.Err }

func IsImageDownloadFailed(err error) bool {
	var e *ImageDownloadFailedError
	return errors.As(err, &e)
}
