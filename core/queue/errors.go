package queue

import "errors"

// Domain-specific queue errors for consistent error handling across the
// application. Use errors.Is() to check error types for retry logic.
var (
	// ErrStoreUnavailable indicates a transport-level failure reaching the
	// backing store. Retryable with backoff; never silently swallowed.
	ErrStoreUnavailable = errors.New("task store unavailable")

	// ErrDecode indicates a malformed envelope was read from the store.
	// Localized to the offending member; callers skip and continue.
	ErrDecode = errors.New("failed to decode envelope")

	// ErrSequenceOverflow indicates the arrival sequence exceeded the range
	// reserved for it in the sort key.
	ErrSequenceOverflow = errors.New("arrival sequence exceeds sort key range")

	ErrStoreNil        = errors.New("store cannot be nil")
	ErrInvalidPriority = errors.New("priority must be between 1 and 3")
	ErrNoHandlers      = errors.New("no handlers registered")

	ErrHealthcheckFailed  = errors.New("healthcheck failed")
	ErrConsumerNotRunning = errors.New("consumer is not running")
	ErrConsumerOverloaded = errors.New("consumer is overloaded")
)
