package entity

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoSubmission is returned when an operation requires a loaded submission
// and none is present.
var ErrNoSubmission = errors.New("no submission loaded")

// NotFoundError indicates a template, submission or approval does not exist
// in persistence.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// IsNotFound reports whether err wraps a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// ValidationError aggregates structural validation failures. FieldErrors
// holds one message per violating field; Signature marks the dedicated
// missing-signature failure.
type ValidationError struct {
	FieldErrors []string
	Signature   bool
}

func (e *ValidationError) Error() string {
	if e.Signature {
		return "signature is required before submitting"
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(e.FieldErrors, "; "))
}

// IsValidation reports whether err wraps a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsSignatureError reports whether err is the dedicated missing-signature
// validation failure.
func IsSignatureError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve) && ve.Signature
}

// NetworkError indicates a transport or HTTP-status failure talking to
// persistence.
type NetworkError struct {
	Op     string
	Status int
	Err    error
}

func (e *NetworkError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: unexpected status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }
