package errs

import "errors"

// Business-rule errors returned to callers as typed results. They are never
// retried automatically; infra faults are wrapped separately with %w.
var (
	ErrNotFound             = errors.New("not found")
	ErrConflict             = errors.New("conflict")
	ErrInsufficientSeats    = errors.New("insufficient seats")
	ErrInvalidState         = errors.New("invalid order state")
	ErrForbidden            = errors.New("forbidden")
	ErrUnresolvableLocation = errors.New("city timezone unresolvable")
)
