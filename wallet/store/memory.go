// Package store provides wallet.Store implementations.
package store

import (
	"context"
	"sync"

	"github.com/focusbridge/reward-engine/wallet"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu           sync.RWMutex
	transactions map[wallet.UserID][]wallet.Transaction
	claims       map[claimKey]bool
	seq          int64
}

type claimKey struct {
	UserID wallet.UserID
	Reason string
}

func NewMemory() *Memory {
	return &Memory{
		transactions: make(map[wallet.UserID][]wallet.Transaction),
		claims:       make(map[claimKey]bool),
	}
}

// Append adds a single transaction. Append-only; grants with a reason
// already granted to the same user are rejected.
func (m *Memory) Append(_ context.Context, tx wallet.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if tx.Type == wallet.TxGrant {
		k := claimKey{UserID: tx.UserID, Reason: tx.Reason}
		if m.claims[k] {
			return wallet.ErrDuplicateClaim
		}
		m.claims[k] = true
	}

	m.seq++
	tx.Seq = m.seq
	m.transactions[tx.UserID] = append(m.transactions[tx.UserID], tx)
	return nil
}

// Load returns the user's transactions in insertion order. Insertion
// order is ledger order here: appends happen under the ledger's
// per-user lock with a monotonic sequence.
func (m *Memory) Load(_ context.Context, userID wallet.UserID) ([]wallet.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]wallet.Transaction, len(m.transactions[userID]))
	copy(result, m.transactions[userID])
	return result, nil
}

func (m *Memory) Latest(_ context.Context, userID wallet.UserID) (*wallet.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	txs := m.transactions[userID]
	if len(txs) == 0 {
		return nil, nil
	}
	last := txs[len(txs)-1]
	return &last, nil
}

func (m *Memory) ClaimExists(_ context.Context, userID wallet.UserID, reason string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.claims[claimKey{UserID: userID, Reason: reason}], nil
}
