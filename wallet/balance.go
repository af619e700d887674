/*
balance.go - Balance reads and reconciliation

PURPOSE:
  Answers "how many coins does this user have?" two independent ways:

  Current:  the resulting balance cached on the most recent transaction.
            O(1), the hot path.
  Recount:  an independent sum of every delta in the user's history.
            The ground truth the cache must always agree with.

  Any divergence between the two is a correctness bug. Verify exists so
  tests (and a paranoid operator) can assert the invariant after every
  mutation rather than discovering drift in production.
*/
package wallet

import "context"

// BalanceReader derives balances from the ledger. Read-only.
type BalanceReader struct {
	store Store
}

func NewBalanceReader(store Store) *BalanceReader {
	return &BalanceReader{store: store}
}

// Current returns the cached resulting balance of the user's most
// recent transaction, or zero if they have none.
func (b *BalanceReader) Current(ctx context.Context, userID UserID) (Amount, error) {
	last, err := b.store.Latest(ctx, userID)
	if err != nil {
		return Amount{}, err
	}
	if last == nil {
		return NewAmount(0), nil
	}
	return last.Balance, nil
}

// Recount sums every transaction delta for the user. This is the
// authoritative value; Current is only a cache of it.
func (b *BalanceReader) Recount(ctx context.Context, userID UserID) (Amount, error) {
	txs, err := b.store.Load(ctx, userID)
	if err != nil {
		return Amount{}, err
	}
	total := NewAmount(0)
	for _, tx := range txs {
		total = total.Add(tx.Delta)
	}
	return total, nil
}

// Verify recomputes the balance from history and compares it with the
// cached value. Returns BalanceDriftError on divergence.
func (b *BalanceReader) Verify(ctx context.Context, userID UserID) error {
	current, err := b.Current(ctx, userID)
	if err != nil {
		return err
	}
	recount, err := b.Recount(ctx, userID)
	if err != nil {
		return err
	}
	if !current.Equal(recount) {
		return &BalanceDriftError{UserID: userID, Cached: current, Recount: recount}
	}
	return nil
}

// History returns the user's full transaction history in ledger order.
func (b *BalanceReader) History(ctx context.Context, userID UserID) ([]Transaction, error) {
	return b.store.Load(ctx, userID)
}
