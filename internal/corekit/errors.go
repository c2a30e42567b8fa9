package corekit

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the control-plane error taxonomy (spec §7). Each one
// is wrapped by a RalphError so callers can both errors.Is() the sentinel
// and read a human-readable message with remediation context.
var (
	ErrConfigInvalid       = errors.New("configuration invalid")
	ErrMissingCredentials  = errors.New("missing provider credentials")
	ErrProviderError       = errors.New("provider error")
	ErrAgentOutputInvalid  = errors.New("agent output invalid")
	ErrTestRunnerTimeout   = errors.New("test runner timed out")
	ErrTestRunnerCrash     = errors.New("test runner crashed")
	ErrBudgetExhausted     = errors.New("budget exhausted")
	ErrEntropyDetected     = errors.New("entropy detected")
	ErrAuditStoreError     = errors.New("audit store error")
)

// RalphError carries structured context around one of the sentinel errors
// above, in the same Op/Kind/ID/Message/Err shape the teacher framework
// uses for its FrameworkError.
type RalphError struct {
	Op      string
	Kind    string
	ID      string
	Message string
	Err     error
}

func (e *RalphError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Op != "" && e.Err != nil {
		if e.ID != "" {
			return fmt.Sprintf("%s [%s]: %v", e.Op, e.ID, e.Err)
		}
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s error", e.Kind)
}

func (e *RalphError) Unwrap() error { return e.Err }

// NewMissingCredentials builds the MissingCredentials error spec §4.1
// requires, including the literal "-> Fix: set ENV_VAR_NAME=..." hint.
func NewMissingCredentials(op, envVar string) *RalphError {
	return &RalphError{
		Op:      op,
		Kind:    "credentials",
		Message: fmt.Sprintf("%s: missing credentials -> Fix: set %s=<your-api-key>", op, envVar),
		Err:     ErrMissingCredentials,
	}
}

// NewProviderError wraps a transport/HTTP failure from a vendor adapter.
func NewProviderError(op, provider string, err error) *RalphError {
	return &RalphError{
		Op:      op,
		Kind:    "provider",
		ID:      provider,
		Message: fmt.Sprintf("%s [%s]: %v", op, provider, err),
		Err:     ErrProviderError,
	}
}

// ValidationErrors aggregates every failure found while validating a config
// or tier-config file. spec §6 requires "all validation errors listed, not
// only the first" — the teacher's Config.Validate returns only the first
// error it finds, so this type is new rather than reused (see DESIGN.md).
type ValidationErrors struct {
	Errors []error
}

func (v *ValidationErrors) Error() string {
	if len(v.Errors) == 0 {
		return "no validation errors"
	}
	lines := make([]string, 0, len(v.Errors)+1)
	lines = append(lines, fmt.Sprintf("%d validation error(s):", len(v.Errors)))
	for _, e := range v.Errors {
		lines = append(lines, "  - "+e.Error())
	}
	lines = append(lines, "-> Fix: correct each field listed above and re-run")
	return strings.Join(lines, "\n")
}

func (v *ValidationErrors) Unwrap() []error { return v.Errors }

// Add appends an error, ignoring nils, and returns the receiver for chaining.
func (v *ValidationErrors) Add(err error) *ValidationErrors {
	if err != nil {
		v.Errors = append(v.Errors, err)
	}
	return v
}

// HasErrors reports whether any error was accumulated.
func (v *ValidationErrors) HasErrors() bool { return len(v.Errors) > 0 }

// AsError returns nil if no errors were accumulated, or the *ValidationErrors
// itself otherwise — the usual "return validation.AsError()" idiom.
func (v *ValidationErrors) AsError() error {
	if v.HasErrors() {
		return v
	}
	return nil
}
