/*
errors.go - Centralized error types for the solar engine

PURPOSE:
  All error kinds in one place. Packages wrap these sentinels with context
  (fmt.Errorf("...: %w", err)) so callers can still use errors.Is.

ERROR CATEGORIES:
  1. NotFound - no plant, no entitled tenant, no contract
  2. Conflict - plant already exists, stale write
  3. Validation - unknown phase, period or status

Financial figures never produce errors: divisions by zero degrade to
sentinels in the finance package.
*/
package solar

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNotFound covers a missing plant, a missing or unentitled tenant and
	// a missing contract. The guard deliberately does not tell these apart.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when creating a plant for a tenant that has one.
	ErrConflict = errors.New("conflict")

	// ErrConcurrentModification is returned when a plant save loses an
	// optimistic version check.
	ErrConcurrentModification = errors.New("concurrent modification detected")

	ErrInvalidPhase  = errors.New("invalid phase")
	ErrInvalidPeriod = errors.New("invalid period")
	ErrInvalidStatus = errors.New("invalid status")
	ErrInvalidValue  = errors.New("invalid value")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// NotFoundError names what was missing for which tenant.
type NotFoundError struct {
	Kind     string // "plant", "tenant", "contract", "equipment"
	TenantID TenantID
	ID       string
}

func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s %s not found for tenant %s", e.Kind, e.ID, e.TenantID)
	}
	return fmt.Sprintf("%s not found for tenant %s", e.Kind, e.TenantID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// InvalidValueError reports a rejected enum-like input.
type InvalidValueError struct {
	Field string
	Value string
	Err   error
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("%s: %q", e.Err, e.Value)
}

func (e *InvalidValueError) Unwrap() error { return e.Err }

// =============================================================================
// ERROR HELPERS
// =============================================================================

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsConflict is true for duplicate creates and lost optimistic writes.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict) || errors.Is(err, ErrConcurrentModification)
}

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidPhase) ||
		errors.Is(err, ErrInvalidPeriod) ||
		errors.Is(err, ErrInvalidStatus) ||
		errors.Is(err, ErrInvalidValue)
}
