// Package faults defines the error taxonomy shared by the harness.
//
// Configuration and session errors are fatal for the scenario. Interaction
// errors are recoverable at the page-object boundary. Diagnostic errors are
// always dropped after logging. Assertion errors are the only failures a step
// is expected to return on purpose.
package faults

import (
	"errors"
	"fmt"
)

// ConfigurationError reports a missing or ambiguous locator or an
// unresolvable backend setting.
type ConfigurationError struct {
	Subject string
	Reason  string
	Err     error
}

func (e *ConfigurationError) Error() string {
	msg := fmt.Sprintf("configuration error: %s: %s", e.Subject, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// InteractionError reports an element that could not be acted on.
type InteractionError struct {
	Op       string
	Selector string
	Err      error
}

func (e *InteractionError) Error() string {
	return fmt.Sprintf("%s %q failed: %v", e.Op, e.Selector, e.Err)
}

func (e *InteractionError) Unwrap() error { return e.Err }

// SessionError reports a backend that failed to start, stop or is closed.
type SessionError struct {
	Op  string
	Err error
}

func (e *SessionError) Error() string {
	return fmt.Sprintf("session %s: %v", e.Op, e.Err)
}

func (e *SessionError) Unwrap() error { return e.Err }

// DiagnosticError reports a failed screenshot or log capture.
type DiagnosticError struct {
	Step string
	Err  error
}

func (e *DiagnosticError) Error() string {
	return fmt.Sprintf("diagnostic capture for step %q: %v", e.Step, e.Err)
}

func (e *DiagnosticError) Unwrap() error { return e.Err }

// AssertionError reports a failed element assertion. Expected and Actual
// are carried verbatim.
type AssertionError struct {
	Check    string
	Selector string
	Expected interface{}
	Actual   interface{}
	Err      error
}

func (e *AssertionError) Error() string {
	msg := fmt.Sprintf("%s failed for %q. Expected: '%v', Actual: '%v'", e.Check, e.Selector, e.Expected, e.Actual)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *AssertionError) Unwrap() error { return e.Err }

// ErrSessionClosed is returned when a handle outlives its session.
var ErrSessionClosed = errors.New("session is closed")

// ErrNoBackend is returned when a session has no UI backend (API-only scenarios).
var ErrNoBackend = errors.New("no automation backend in this session")

// IsFatal reports whether err must abort the scenario.
func IsFatal(err error) bool {
	var ce *ConfigurationError
	var se *SessionError
	return errors.As(err, &ce) || errors.As(err, &se)
}

// IsAssertion reports whether err is a failed assertion.
func IsAssertion(err error) bool {
	var ae *AssertionError
	return errors.As(err, &ae)
}
