package sync

import (
	"errors"
	"fmt"
)

// ---------------------------------------------------------------------------
// Error Classification
// ---------------------------------------------------------------------------

// ErrorClass categorizes sync failures. Every failure path in the engine has
// exactly one class, which determines whether it is retried, isolated to a
// single item, or fatal for the integration.
type ErrorClass string

const (
	// ErrorClassConfig indicates invalid or missing adapter configuration.
	// Surfaced at registration time; no run is attempted.
	ErrorClassConfig ErrorClass = "CONFIG"
	// ErrorClassConnectivity indicates a transient network failure.
	// Retried a bounded number of times in-run, then deferred to the next tick.
	ErrorClassConnectivity ErrorClass = "CONNECTIVITY"
	// ErrorClassAuth indicates rejected credentials. Fatal: the integration
	// flips to error status and is not retried until reconfigured.
	ErrorClassAuth ErrorClass = "AUTH"
	// ErrorClassMapping indicates an unresolvable external product key.
	// Isolated to the item; never fails the run on its own.
	ErrorClassMapping ErrorClass = "MAPPING"
	// ErrorClassStorage indicates a per-item persistence failure. Isolated.
	ErrorClassStorage ErrorClass = "STORAGE"
	// ErrorClassStorageUnavailable indicates the inventory store is down.
	// Run-wide: remaining items are aborted and the run finalizes failed.
	ErrorClassStorageUnavailable ErrorClass = "STORAGE_UNAVAILABLE"
	// ErrorClassTimeout indicates the run exceeded its wall-clock budget.
	ErrorClassTimeout ErrorClass = "TIMEOUT"
)

// ClassifiedError wraps an error with its sync error class
type ClassifiedError struct {
	Class ErrorClass
	Err   error
}

// Error implements the error interface
func (e *ClassifiedError) Error() string {
	return fmt.Sprintf("sync: %s: %v", e.Class, e.Err)
}

// Unwrap returns the wrapped error
func (e *ClassifiedError) Unwrap() error {
	return e.Err
}

// NewConfigError wraps err as a configuration error
func NewConfigError(err error) error {
	return &ClassifiedError{Class: ErrorClassConfig, Err: err}
}

// NewConnectivityError wraps err as a transient connectivity error
func NewConnectivityError(err error) error {
	return &ClassifiedError{Class: ErrorClassConnectivity, Err: err}
}

// NewAuthError wraps err as a fatal authentication error
func NewAuthError(err error) error {
	return &ClassifiedError{Class: ErrorClassAuth, Err: err}
}

// NewMappingError wraps err as a per-item mapping error
func NewMappingError(err error) error {
	return &ClassifiedError{Class: ErrorClassMapping, Err: err}
}

// NewStorageError wraps err as a per-item storage error
func NewStorageError(err error) error {
	return &ClassifiedError{Class: ErrorClassStorage, Err: err}
}

// NewStorageUnavailableError wraps err as a run-wide storage outage
func NewStorageUnavailableError(err error) error {
	return &ClassifiedError{Class: ErrorClassStorageUnavailable, Err: err}
}

// NewTimeoutError wraps err as a run-wide timeout
func NewTimeoutError(err error) error {
	return &ClassifiedError{Class: ErrorClassTimeout, Err: err}
}

// ClassOf returns the error class, or an empty class for unclassified errors
func ClassOf(err error) ErrorClass {
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class
	}
	return ""
}

// IsTransient reports whether the error should be retried. Unclassified
// adapter errors are treated as transient so a flaky vendor never bricks an
// integration.
func IsTransient(err error) bool {
	switch ClassOf(err) {
	case ErrorClassConnectivity:
		return true
	case "":
		return err != nil
	default:
		return false
	}
}

// IsFatal reports whether the error must flip the integration to error status
func IsFatal(err error) bool {
	return ClassOf(err) == ErrorClassAuth
}

// ---------------------------------------------------------------------------
// Sentinel Errors
// ---------------------------------------------------------------------------

var (
	ErrUnknownAdapterType       = errors.New("sync: unknown adapter type")
	ErrAdapterNotRegistered     = errors.New("sync: adapter not registered")
	ErrPullNotSupported         = errors.New("sync: adapter does not support pull")
	ErrPushNotSupported         = errors.New("sync: adapter does not support push")
	ErrInvalidStatusTransition  = errors.New("sync: invalid status transition")
	ErrRunAlreadyFinalized      = errors.New("sync: run already finalized")
	ErrAlreadyRunning           = errors.New("sync: a run is already in flight for this integration")
	ErrIntegrationNotActive     = errors.New("sync: integration is not active")
	ErrActiveIntegrationExists  = errors.New("sync: branch already has an active integration")
	ErrWebhookTokenMismatch     = errors.New("sync: webhook token mismatch")
	ErrDuplicateWebhookDelivery = errors.New("sync: duplicate webhook delivery")
)
