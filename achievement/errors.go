package achievement

import "errors"

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNotFound is returned when the achievement id is not in the
	// catalog. Non-retryable without correcting the request.
	ErrNotFound = errors.New("achievement not found")

	// ErrAlreadyClaimed is returned when the reward for this period was
	// already granted. This is the expected outcome of duplicate or
	// retried requests and of losing a claim race - distinct from
	// ErrNotEligible so clients can render "already collected".
	ErrAlreadyClaimed = errors.New("achievement already claimed")

	// ErrNotEligible is returned when the condition is not yet met.
	// Retryable once the user has done more.
	ErrNotEligible = errors.New("achievement condition not met")

	// ErrNoReward is returned when a definition carries a non-positive
	// reward amount. Catalog misconfiguration, never user-caused.
	ErrNoReward = errors.New("achievement has no reward configured")
)
