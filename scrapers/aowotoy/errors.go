package aowotoy

import (
	"errors"
	"fmt"
)

// ExtractionKind classifies why a detail page produced no records.
type ExtractionKind int

const (
	NoEmbeddedPayload ExtractionKind = iota + 1
	MalformedPayload
	MissingProductID
	MissingLocale
)

func (k ExtractionKind) String() string {
	switch k {
	case NoEmbeddedPayload:
		return "no embedded payload"
	case MalformedPayload:
		return "malformed payload"
	case MissingProductID:
		return "missing product id"
	case MissingLocale:
		return "missing locale"
	default:
		return fmt.Sprintf("extraction kind %d", int(k))
	}
}

// ExtractionError reports a detail page whose payload could not be used.
type ExtractionError struct {
	URL  string
	Kind ExtractionKind
	Err  error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("extract %s: %s: %v", e.URL, e.Kind, e.Err)
	}
	return fmt.Sprintf("extract %s: %s", e.URL, e.Kind)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// IsExtractionError reports whether err is an ExtractionError of the given
// kind. A zero kind matches any ExtractionError.
func IsExtractionError(err error, kind ExtractionKind) bool {
	var e *ExtractionError
	if !errors.As(err, &e) {
		return false
	}
	return kind == 0 || e.Kind == kind
}
