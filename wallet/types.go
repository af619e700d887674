/*
Package wallet provides the core reward ledger engine.

PURPOSE:
  This package contains the domain-agnostic wallet: an append-only
  transaction ledger and the balance logic derived from it. It knows
  nothing about achievements, diaries, or eligibility - it only knows
  how to record coin movements and answer "what is the balance?".

KEY CONCEPTS IN THIS FILE (types.go):
  - Amount: An exact coin quantity (decimal-backed, integer-valued)
  - Transaction: An immutable ledger entry recording a balance change
  - UserID / TransactionID: Type-safe identifiers

DESIGN PRINCIPLES:
  1. Immutability: Transactions are never modified or deleted
  2. Derivability: Balance is always a pure function of the ledger
  3. Precision: decimal.Decimal sums are exact, so a full recount can
     never drift from the cached resulting balance
  4. Auditability: Every transaction carries a reason string

SEE ALSO:
  - ledger.go: Credit/debit operations with claim deduplication
  - balance.go: Current balance and full-recount reconciliation
  - store.go: Persistence interface
*/
package wallet

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// AMOUNT - Exact coin quantity
// =============================================================================

// Amount is a coin quantity. The wallet is single-currency, so there is
// no unit; the decimal backing keeps sums exact for recount checks.
type Amount struct {
	Value decimal.Decimal
}

func NewAmount(coins int64) Amount {
	return Amount{Value: decimal.NewFromInt(coins)}
}

// ParseAmount reconstructs an Amount from its stored string form.
// A malformed string yields zero.
func ParseAmount(s string) Amount {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{Value: decimal.Zero}
	}
	return Amount{Value: d}
}

func (a Amount) Add(b Amount) Amount        { return Amount{Value: a.Value.Add(b.Value)} }
func (a Amount) Sub(b Amount) Amount        { return Amount{Value: a.Value.Sub(b.Value)} }
func (a Amount) Neg() Amount                { return Amount{Value: a.Value.Neg()} }
func (a Amount) IsNegative() bool           { return a.Value.IsNegative() }
func (a Amount) IsZero() bool               { return a.Value.IsZero() }
func (a Amount) IsPositive() bool           { return a.Value.IsPositive() }
func (a Amount) Equal(b Amount) bool        { return a.Value.Equal(b.Value) }
func (a Amount) LessThan(b Amount) bool     { return a.Value.LessThan(b.Value) }
func (a Amount) GreaterThan(b Amount) bool  { return a.Value.GreaterThan(b.Value) }
func (a Amount) Int64() int64               { return a.Value.IntPart() }
func (a Amount) String() string             { return a.Value.String() }

// =============================================================================
// IDENTIFIERS
// =============================================================================

type UserID string
type TransactionID string

// =============================================================================
// TRANSACTION - Atomic change to the wallet balance
// =============================================================================

type TransactionType string

const (
	TxGrant      TransactionType = "grant"      // Achievement reward (reason is the claim key)
	TxRedeem     TransactionType = "redeem"     // Coins spent on a reward item
	TxAdjustment TransactionType = "adjustment" // Manual admin correction
)

// Transaction is one immutable ledger entry.
//
// Reason doubles as the audit trail and, for grants, the idempotency
// key: the store rejects a second grant with the same (UserID, Reason).
// Balance is the resulting balance after this transaction - a cached
// convenience, never a second source of truth. Seq is assigned by the
// store on append and breaks ties between equal timestamps, giving the
// ledger its total order (CreatedAt, Seq).
type Transaction struct {
	ID        TransactionID
	UserID    UserID
	Delta     Amount
	Type      TransactionType
	Reason    string
	Balance   Amount
	CreatedAt time.Time
	Seq       int64
}
