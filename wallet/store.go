/*
store.go - Persistence interface for the transaction ledger

PURPOSE:
  Defines the interface between the wallet logic and the database.
  Different implementations can use SQLite or in-memory storage.

APPEND-ONLY CONTRACT:
  The interface has exactly one write method, Append. No Update() or
  Delete() exists. Corrections go through adjustment transactions.

CLAIM UNIQUENESS:
  A grant's reason string is its idempotency key. Append MUST reject a
  grant whose (UserID, Reason) pair already exists with another grant,
  returning ErrDuplicateClaim. Redeem and adjustment transactions may
  repeat reasons freely. This asymmetry is what lets the ledger double
  as the claim-deduplication index.

ORDERING:
  Load returns transactions in ledger order: (CreatedAt, Seq) ascending,
  where Seq is an insertion sequence assigned by the store. Latest
  returns the last transaction by that same order.

IMPLEMENTATIONS:
  - store/sqlite: Production store, uniqueness via partial unique index
  - wallet/store: In-memory store for tests and development

SEE ALSO:
  - ledger.go: Higher-level operations using Store
*/
package wallet

import "context"

// Store persists transactions. APPEND-ONLY: no update, no delete, ever.
type Store interface {
	// Append persists a transaction, assigning its insertion sequence.
	// Returns ErrDuplicateClaim if tx is a grant and another grant with
	// the same (UserID, Reason) already exists.
	Append(ctx context.Context, tx Transaction) error

	// Load returns all transactions for a user in ledger order.
	Load(ctx context.Context, userID UserID) ([]Transaction, error)

	// Latest returns the most recent transaction for a user by ledger
	// order, or nil if the user has none.
	Latest(ctx context.Context, userID UserID) (*Transaction, error)

	// ClaimExists reports whether a grant with this reason has already
	// been recorded for the user.
	ClaimExists(ctx context.Context, userID UserID, reason string) (bool, error)
}
