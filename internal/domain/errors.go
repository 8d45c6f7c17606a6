package domain

import "errors"

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrForbidden             = errors.New("forbidden")
	ErrNotFound              = errors.New("resource not found")
	ErrConflict              = errors.New("conflict")
	ErrIdempotencyConflict   = errors.New("idempotency conflict")
	ErrStorageUnavailable    = errors.New("storage unavailable")
	ErrDependencyUnavailable = errors.New("dependency unavailable")

	// Profile edit violations, rejected before any mutation is applied.
	ErrFieldTooLong   = errors.New("field too long")
	ErrImmutableField = errors.New("immutable field")

	// Capability mismatches. Prevented by construction in the HTTP layer,
	// checked again here.
	ErrUnknownPlatform   = errors.New("unknown platform")
	ErrFieldNotSupported = errors.New("field not supported by platform")

	// Dispatch preconditions and execution failures. Recoverable by a manual
	// retry; never automatic.
	ErrPlatformNotConnected = errors.New("platform not connected")
	ErrSyncInProgress       = errors.New("sync already in progress")
	ErrPlatformAPI          = errors.New("platform api error")
	ErrSyncTimeout          = errors.New("sync timed out")
)
