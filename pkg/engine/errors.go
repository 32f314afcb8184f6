package engine

import (
	"errors"
	"fmt"
)

// ErrorClass classifies a failure for retry and exit-code decisions.
type ErrorClass string

const (
	// ErrorClassPrecondition indicates the process environment is unfit to
	// run at all (not root, unsupported platform). Never retried and
	// reported with a distinct exit code so it cannot be mistaken for a
	// failed provisioning step.
	ErrorClassPrecondition ErrorClass = "precondition"

	// ErrorClassTransient indicates a failure that may succeed on retry.
	// Examples: mirror fetch timeouts, registry pull resets, clone failures.
	ErrorClassTransient ErrorClass = "transient"

	// ErrorClassPermanent indicates a deterministic failure. Examples:
	// a compile error in a build recipe, an unknown package name.
	ErrorClassPermanent ErrorClass = "permanent"

	// ErrorClassResource indicates the shared build workspace could not be
	// created or reset. Fatal: a corrupted workspace invalidates every
	// later step.
	ErrorClassResource ErrorClass = "resource"
)

// ProvisionError is a classified error carrying the context of the
// operation that produced it.
type ProvisionError struct {
	// Class is the error classification for retry logic.
	Class ErrorClass `json:"class"`

	// Message is the human-readable error message.
	Message string `json:"message"`

	// Operation is the operation being performed when the error occurred.
	Operation string `json:"operation,omitempty"`

	// Err is the underlying error that caused this error.
	Err error `json:"-"`
}

// Error implements the error interface.
func (e *ProvisionError) Error() string {
	if e.Operation != "" {
		return fmt.Sprintf("[%s] %s (operation=%s): %s",
			e.Class, e.Message, e.Operation, e.unwrapMessage())
	}
	return fmt.Sprintf("[%s] %s: %s", e.Class, e.Message, e.unwrapMessage())
}

// Unwrap returns the underlying error for error chain inspection.
func (e *ProvisionError) Unwrap() error {
	return e.Err
}

func (e *ProvisionError) unwrapMessage() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return ""
}

// Is implements error equality checking for errors.Is.
func (e *ProvisionError) Is(target error) bool {
	t, ok := target.(*ProvisionError)
	if !ok {
		return false
	}
	return e.Class == t.Class
}

// NewPreconditionError creates a new precondition error.
func NewPreconditionError(message string, err error) *ProvisionError {
	return &ProvisionError{
		Class:   ErrorClassPrecondition,
		Message: message,
		Err:     err,
	}
}

// NewTransientError creates a new transient error.
func NewTransientError(message string, err error) *ProvisionError {
	return &ProvisionError{
		Class:   ErrorClassTransient,
		Message: message,
		Err:     err,
	}
}

// NewPermanentError creates a new permanent error.
func NewPermanentError(message string, err error) *ProvisionError {
	return &ProvisionError{
		Class:   ErrorClassPermanent,
		Message: message,
		Err:     err,
	}
}

// NewResourceError creates a new workspace/resource error.
func NewResourceError(message string, err error) *ProvisionError {
	return &ProvisionError{
		Class:   ErrorClassResource,
		Message: message,
		Err:     err,
	}
}

// ClassOf returns the classification of err, or ErrorClassPermanent for an
// unclassified error.
func ClassOf(err error) ErrorClass {
	var pe *ProvisionError
	if errors.As(err, &pe) {
		return pe.Class
	}
	return ErrorClassPermanent
}

// IsRetryable reports whether err may succeed on retry. Only actions that
// talk to a remote endpoint are handed to the retry executor, so an
// unclassified error from an external command is assumed transient;
// precondition, permanent and resource failures short-circuit the
// remaining budget.
func IsRetryable(err error) bool {
	var pe *ProvisionError
	if errors.As(err, &pe) {
		return pe.Class == ErrorClassTransient
	}
	return true
}

// IsPrecondition reports whether err is a precondition failure.
func IsPrecondition(err error) bool {
	var pe *ProvisionError
	if errors.As(err, &pe) {
		return pe.Class == ErrorClassPrecondition
	}
	return false
}

// Exit codes returned by the biosetup process.
const (
	ExitOK           = 0
	ExitStepFailed   = 1
	ExitPrecondition = 2
)

// ExitCode maps err to the process exit status: 0 for nil, 2 for a
// precondition failure, 1 for anything else.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case IsPrecondition(err):
		return ExitPrecondition
	default:
		return ExitStepFailed
	}
}
