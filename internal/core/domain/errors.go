package domain

import (
	"errors"
	"fmt"
)

// Domain errors - used across all layers
var (
	// ErrNotFound indicates the requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates the resource already exists
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates the input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized indicates authentication failed or missing
	ErrUnauthorized = errors.New("unauthorized")

	// ErrTokenExpired indicates the service token has expired
	ErrTokenExpired = errors.New("token expired")

	// ErrSourceDisabled indicates the source is registered but disabled
	ErrSourceDisabled = errors.New("source is disabled")

	// ErrConnectorNotFound indicates the connector kind is not registered
	ErrConnectorNotFound = errors.New("connector not found")

	// ErrAcquireTimeout indicates no concurrency slot became free in time
	ErrAcquireTimeout = errors.New("timed out waiting for a concurrency slot")

	// ErrLeaseNotHeld indicates the lease was reclaimed by another contender
	ErrLeaseNotHeld = errors.New("lease not held by this owner")
)

// TransientError marks a fetch failure that is retried by window
// subdivision. It never surfaces to the caller unless retries are
// exhausted at minimal window granularity.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient: %s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// PermanentError marks a failure that invalidates the whole run, such as
// an authentication failure or an unreachable store.
type PermanentError struct {
	Op  string
	Err error
}

func (e *PermanentError) Error() string {
	return fmt.Sprintf("permanent: %s: %v", e.Op, e.Err)
}

func (e *PermanentError) Unwrap() error { return e.Err }

// ValidationError marks a single bad record. The record is skipped and
// counted; the run continues.
type ValidationError struct {
	ExternalID string
	Reason     string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for record %q: %s", e.ExternalID, e.Reason)
}

// IsTransient reports whether err is retryable via window subdivision.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// IsPermanent reports whether err should abort the entire run.
func IsPermanent(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}

// IsValidation reports whether err is a single-record validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
