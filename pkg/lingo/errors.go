package lingo

import (
	"errors"
	"fmt"
)

var (
	// ErrQuotaExceeded is returned when a premium-tier call would push the
	// user's daily usage over the character ceiling
	ErrQuotaExceeded = errors.New("quota exceeded")

	// ErrServiceUnavailable is returned when the provider could not be
	// reached after exhausting the retry budget on transient timeouts
	ErrServiceUnavailable = errors.New("language service unavailable")

	// ErrTransformationFailed is returned for any non-timeout provider error
	ErrTransformationFailed = errors.New("transformation failed")

	// ErrAdminNotFound is returned when a workspace has no administrator to
	// attribute usage to
	ErrAdminNotFound = errors.New("workspace admin not found")

	// ErrStoreUnavailable is returned when a required store is missing
	ErrStoreUnavailable = errors.New("usage store unavailable")

	// ErrInvalidAmount is returned for negative character amounts
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInvalidRecord is returned when a romanization record violates its
	// shape invariants
	ErrInvalidRecord = errors.New("invalid romanization record")
)

// QuotaExceededError carries the user and tier of a rejected premium call.
// It matches ErrQuotaExceeded via errors.Is.
type QuotaExceededError struct {
	UserID    string
	Tier      ServiceTier
	Used      int
	Requested int
	Limit     int
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("quota exceeded for user %s (%s tier): %d used + %d requested > %d daily limit",
		e.UserID, e.Tier, e.Used, e.Requested, e.Limit)
}

func (e *QuotaExceededError) Is(target error) bool { return target == ErrQuotaExceeded }

// TransformationError wraps a permanent provider failure. It matches
// ErrTransformationFailed via errors.Is and unwraps to the provider error.
type TransformationError struct {
	Op  string
	Err error
}

func (e *TransformationError) Error() string {
	return fmt.Sprintf("%s: transformation failed: %v", e.Op, e.Err)
}

func (e *TransformationError) Unwrap() error { return e.Err }

func (e *TransformationError) Is(target error) bool { return target == ErrTransformationFailed }
