package errors

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidFormat        = errors.New("invalid API key format, expected 'secret.keyId'")
	ErrInvalidAddressFormat = errors.New("invalid email address format")
	ErrMissingRequiredField = errors.New("missing required field")
	ErrMissingCredential    = errors.New("auth is required to create a client")
	ErrTrackingRequiresHTML = errors.New("tracking is only available for HTML content")
	ErrInvalidSchemaVersion = errors.New("unsupported schema version")
	ErrAuthExchangeFailed   = errors.New("auth token exchange failed")
	ErrRemoteCallFailed     = errors.New("remote call failed")
	ErrOperationRejected    = errors.New("operation rejected")
)

// FieldError reports which request field failed local validation.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// RejectedError is returned when the server accepted the call but reported
// success=false. Message is the server supplied text, unmodified.
type RejectedError struct {
	Operation string
	Message   string
}

func (e *RejectedError) Error() string {
	return e.Message
}

func (e *RejectedError) Is(target error) bool {
	return target == ErrOperationRejected
}

// Remote wraps a transport error so that both errors.Is(err, ErrRemoteCallFailed)
// and status.Code(err) keep working.
func Remote(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrRemoteCallFailed, err)
}

// Field wraps a validation sentinel with the name of the offending field.
func Field(name string, err error) error {
	return &FieldError{Field: name, Err: err}
}
