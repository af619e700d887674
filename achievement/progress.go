package achievement

import (
	"context"
	"sync"

	"github.com/focusbridge/reward-engine/wallet"
)

// =============================================================================
// PROGRESS MIRROR - Rebuildable cache, never authoritative
// =============================================================================

// Progress is a derived view of one user's standing on one achievement.
// It exists so list screens don't re-derive everything; it can be
// rebuilt at any time from the ledger and activity data without losing
// information, and nothing in the claim flow depends on it.
type Progress struct {
	UserID        wallet.UserID
	AchievementID string
	Progress      float64 // fraction in [0,1]
	Unlocked      bool
}

// ProgressStore persists the mirror. Upserts are opportunistic; a
// failed upsert is logged by the caller and never fails a claim.
type ProgressStore interface {
	Upsert(ctx context.Context, p Progress) error
	Get(ctx context.Context, userID wallet.UserID, achievementID string) (*Progress, error)
	List(ctx context.Context, userID wallet.UserID) ([]Progress, error)
}

// =============================================================================
// MEMORY PROGRESS STORE
// =============================================================================

type MemoryProgress struct {
	mu   sync.RWMutex
	rows map[progressKey]Progress
}

type progressKey struct {
	UserID        wallet.UserID
	AchievementID string
}

func NewMemoryProgress() *MemoryProgress {
	return &MemoryProgress{rows: make(map[progressKey]Progress)}
}

func (m *MemoryProgress) Upsert(_ context.Context, p Progress) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[progressKey{UserID: p.UserID, AchievementID: p.AchievementID}] = p
	return nil
}

func (m *MemoryProgress) Get(_ context.Context, userID wallet.UserID, achievementID string) (*Progress, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.rows[progressKey{UserID: userID, AchievementID: achievementID}]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *MemoryProgress) List(_ context.Context, userID wallet.UserID) ([]Progress, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Progress
	for k, p := range m.rows {
		if k.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}
