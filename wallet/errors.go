/*
errors.go - Centralized error types for the wallet engine

PURPOSE:
  All wallet-level error types in one place. Domain packages wrap these
  with their own context (e.g., the achievement package translates
  ErrDuplicateClaim into its AlreadyClaimed error).

ERROR CATEGORIES:
  1. Ledger errors - Duplicate claims, failed appends
  2. Balance errors - Overdraft, cache/recount divergence

USAGE:
    if errors.Is(err, wallet.ErrDuplicateClaim) {
        return achievement.ErrAlreadyClaimed
    }

SEE ALSO:
  - ledger.go: Produces these errors
  - store/sqlite: Translates database constraint failures into them
*/
package wallet

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrDuplicateClaim is returned when a grant with the same reason
	// already exists for the user. This is the expected outcome of a
	// retried or racing claim, not an anomaly.
	ErrDuplicateClaim = errors.New("duplicate claim reason")

	// ErrInsufficientBalance is returned when a debit would overdraw
	// the wallet.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrBalanceDrift is returned by reconciliation when the cached
	// resulting balance disagrees with a full recount. This always
	// indicates a bug, never expected behavior.
	ErrBalanceDrift = errors.New("cached balance diverges from recount")

	// ErrEmptyReason is returned when a transaction is submitted
	// without a reason. Every ledger entry must be auditable.
	ErrEmptyReason = errors.New("transaction reason is required")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InsufficientBalanceError details a rejected debit.
type InsufficientBalanceError struct {
	UserID    UserID
	Available Amount
	Requested Amount
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance for %s: available %s, requested %s",
		e.UserID, e.Available, e.Requested)
}

func (e *InsufficientBalanceError) Unwrap() error {
	return ErrInsufficientBalance
}

// BalanceDriftError details a reconciliation failure.
type BalanceDriftError struct {
	UserID   UserID
	Cached   Amount
	Recount  Amount
}

func (e *BalanceDriftError) Error() string {
	return fmt.Sprintf("balance drift for %s: cached %s, recount %s",
		e.UserID, e.Cached, e.Recount)
}

func (e *BalanceDriftError) Unwrap() error {
	return ErrBalanceDrift
}
