package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation rejects an upload before any record exists.
	ErrValidation = errors.New("validation failed")
	// ErrDuplicate rejects an exact duplicate unless the caller forces it.
	ErrDuplicate = errors.New("duplicate document")
	// ErrUnsupportedFormat means no acquisition strategy for the declared type.
	ErrUnsupportedFormat = errors.New("unsupported format")
	// ErrAcquisition covers file I/O and OCR invocation failures.
	ErrAcquisition = errors.New("text acquisition failed")
	// ErrNotFound means an unknown document id.
	ErrNotFound = errors.New("document not found")
	// ErrStore is a persistence failure, fatal to the current operation.
	ErrStore = errors.New("store failure")
	// ErrTemporary marks transient infrastructure errors worth retrying.
	ErrTemporary = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
