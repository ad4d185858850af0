package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidKey is returned by the credential gate for a missing or unknown token.
	ErrInvalidKey = errors.New("invalid api key")

	// ErrNotFound means no model record or fallback configuration matched.
	ErrNotFound = errors.New("model not found")

	// ErrAmbiguous means more than one record matched where exactly one is required.
	ErrAmbiguous = errors.New("multiple models found")
)

// DelegateError wraps an opaque failure from an external collaborator
// (worker manager, model controller, model storage).
type DelegateError struct {
	Op  string
	Err error
}

func (e *DelegateError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *DelegateError) Unwrap() error {
	return e.Err
}

// Delegate wraps err as a DelegateError for op. A nil err stays nil.
func Delegate(op string, err error) error {
	if err == nil {
		return nil
	}
	var de *DelegateError
	if errors.As(err, &de) && de.Op == op {
		return err
	}
	return &DelegateError{Op: op, Err: err}
}

// IsDelegate reports whether err came from a collaborator.
func IsDelegate(err error) bool {
	var de *DelegateError
	return errors.As(err, &de)
}
