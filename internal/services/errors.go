package services

import "fmt"

// GuardViolationError: the caller's role lacks the capability, or the current
// state disallows the requested transition. Nothing was mutated.
type GuardViolationError struct {
	Reason string
}

func (e *GuardViolationError) Error() string { return e.Reason }

func guardViolation(format string, args ...interface{}) error {
	return &GuardViolationError{Reason: fmt.Sprintf(format, args...)}
}

// ValidationError: a required payment or shipment field is missing or
// malformed. Carries field-level detail. Nothing was mutated.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func validationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// StaleStateError: the state the caller saw no longer matches. The caller may
// safely re-read and retry.
type StaleStateError struct {
	Expected string
	Current  string
}

func (e *StaleStateError) Error() string {
	return fmt.Sprintf("state changed: expected %q, now %q", e.Expected, e.Current)
}

// ExternalServiceError: a collaborator call failed. Retryable; no local state
// was changed.
type ExternalServiceError struct {
	Service string
	Err     error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Service, e.Err)
}

func (e *ExternalServiceError) Unwrap() error { return e.Err }
