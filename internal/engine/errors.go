package engine

import (
	"errors"
	"fmt"

	"github.com/outpost-sh/outpost/internal/state"
)

// ValidationError reports invalid operator input or configuration. It is
// never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation failed: %s", e.Reason)
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

// NewValidationError builds a ValidationError for the given field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// TransientError wraps a rate-limit, timeout or 5xx-class failure from
// an upstream API. Components retry these with bounded backoff before
// surfacing a PhaseError.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient failure in %s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// NewTransientError wraps err as retryable.
func NewTransientError(op string, err error) *TransientError {
	return &TransientError{Op: op, Err: err}
}

// IsTransient reports whether err is retryable.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// ConflictError reports that recorded state disagrees with upstream
// reality, such as a recorded instance ID that no longer exists. It is
// fatal and requires manual intervention, never a silent retry.
type ConflictError struct {
	Resource string
	Detail   string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("state conflict for %s: %s", e.Resource, e.Detail)
}

// NewConflictError builds a ConflictError for the given resource.
func NewConflictError(resource, detail string) *ConflictError {
	return &ConflictError{Resource: resource, Detail: detail}
}

// IsConflict reports whether err is a state conflict.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

// PhaseError reports that a phase could not complete. State is always
// persisted in its last-good form before a PhaseError reaches the
// caller, so the run is resumable.
type PhaseError struct {
	Phase       state.Phase
	Op          string
	Remediation string
	Err         error
}

func (e *PhaseError) Error() string {
	msg := fmt.Sprintf("phase %s failed during %s: %v", e.Phase, e.Op, e.Err)
	if e.Remediation != "" {
		msg += fmt.Sprintf(" (remediation: %s)", e.Remediation)
	}
	return msg
}

func (e *PhaseError) Unwrap() error { return e.Err }

// NewPhaseError wraps err with the failing phase and operation.
func NewPhaseError(phase state.Phase, op string, err error) *PhaseError {
	return &PhaseError{Phase: phase, Op: op, Err: err, Remediation: remediationFor(err)}
}

// remediationFor maps error classes to the action an operator should take.
func remediationFor(err error) string {
	switch {
	case IsConflict(err):
		return "inspect upstream resources manually, then resume or destroy"
	case IsTransient(err):
		return "retry with 'outpost resume' once the upstream API recovers"
	default:
		var ve *ValidationError
		if errors.As(err, &ve) {
			return "fix the reported input and run again"
		}
		return "run 'outpost resume' to retry from the current phase"
	}
}
