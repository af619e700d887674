/*
ledger.go - Append-only wallet operations

PURPOSE:
  The Ledger is the only component that writes to the transaction store.
  Every coin movement - achievement grant, redemption, admin adjustment -
  goes through here and is recorded with its resulting balance.

CRITICAL INVARIANTS:
  1. APPEND-ONLY: No update, no delete. Ever.
  2. AT-MOST-ONCE GRANTS: A grant reason is an idempotency key; the same
     (user, reason) can never produce two grant transactions, no matter
     how many callers race.
  3. DERIVABLE BALANCE: The resulting balance written on each transaction
     always equals the sum of all deltas up to and including it.

CONCURRENCY:
  The check-then-append sequence (is this reason claimed? what is the
  prior balance? append) is serialized per user with a keyed mutex.
  The store's own uniqueness constraint on grant reasons is the backstop:
  if two processes race past the in-memory lock, the loser fails on
  insert and the failure surfaces as ErrDuplicateClaim.

SEE ALSO:
  - store.go: Persistence interface and the uniqueness contract
  - balance.go: Reading balances back out
*/
package wallet

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// =============================================================================
// LEDGER - The single writer
// =============================================================================

type Ledger struct {
	store Store
	clock Clock

	mu    sync.Mutex
	users map[UserID]*sync.Mutex
}

func NewLedger(store Store, clock Clock) *Ledger {
	return &Ledger{
		store: store,
		clock: clock,
		users: make(map[UserID]*sync.Mutex),
	}
}

// userLock returns the mutex serializing writes for one user.
func (l *Ledger) userLock(userID UserID) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.users[userID]
	if !ok {
		m = &sync.Mutex{}
		l.users[userID] = m
	}
	return m
}

// Credit grants coins with an idempotent reason. If a grant with the
// same reason already exists for the user, returns ErrDuplicateClaim
// and appends nothing.
func (l *Ledger) Credit(ctx context.Context, userID UserID, amount Amount, reason string) (Transaction, error) {
	if reason == "" {
		return Transaction{}, ErrEmptyReason
	}

	m := l.userLock(userID)
	m.Lock()
	defer m.Unlock()

	claimed, err := l.store.ClaimExists(ctx, userID, reason)
	if err != nil {
		return Transaction{}, fmt.Errorf("checking claim %q: %w", reason, err)
	}
	if claimed {
		return Transaction{}, ErrDuplicateClaim
	}

	return l.appendLocked(ctx, userID, amount, TxGrant, reason)
}

// Debit spends coins. Rejects an overdraft with InsufficientBalanceError.
// Debit reasons are audit text only and may repeat.
func (l *Ledger) Debit(ctx context.Context, userID UserID, amount Amount, reason string) (Transaction, error) {
	if reason == "" {
		return Transaction{}, ErrEmptyReason
	}
	if !amount.IsPositive() {
		return Transaction{}, fmt.Errorf("debit amount must be positive, got %s", amount)
	}

	m := l.userLock(userID)
	m.Lock()
	defer m.Unlock()

	prior, err := l.priorBalanceLocked(ctx, userID)
	if err != nil {
		return Transaction{}, err
	}
	if prior.LessThan(amount) {
		return Transaction{}, &InsufficientBalanceError{
			UserID:    userID,
			Available: prior,
			Requested: amount,
		}
	}

	return l.appendLocked(ctx, userID, amount.Neg(), TxRedeem, reason)
}

// Adjust records a manual correction. Delta may be either sign and may
// take the balance negative; this is an admin path, not a user path.
func (l *Ledger) Adjust(ctx context.Context, userID UserID, delta Amount, reason string) (Transaction, error) {
	if reason == "" {
		return Transaction{}, ErrEmptyReason
	}

	m := l.userLock(userID)
	m.Lock()
	defer m.Unlock()

	return l.appendLocked(ctx, userID, delta, TxAdjustment, reason)
}

// appendLocked builds and persists a transaction. Caller holds the
// user's mutex, so the prior-balance read and the append are atomic
// with respect to other writes for the same user.
func (l *Ledger) appendLocked(ctx context.Context, userID UserID, delta Amount, typ TransactionType, reason string) (Transaction, error) {
	prior, err := l.priorBalanceLocked(ctx, userID)
	if err != nil {
		return Transaction{}, err
	}

	tx := Transaction{
		ID:        TransactionID(uuid.NewString()),
		UserID:    userID,
		Delta:     delta,
		Type:      typ,
		Reason:    reason,
		Balance:   prior.Add(delta),
		CreatedAt: l.clock.Now(),
	}

	if err := l.store.Append(ctx, tx); err != nil {
		return Transaction{}, err
	}
	return tx, nil
}

func (l *Ledger) priorBalanceLocked(ctx context.Context, userID UserID) (Amount, error) {
	last, err := l.store.Latest(ctx, userID)
	if err != nil {
		return Amount{}, fmt.Errorf("reading latest transaction: %w", err)
	}
	if last == nil {
		return NewAmount(0), nil
	}
	return last.Balance, nil
}
