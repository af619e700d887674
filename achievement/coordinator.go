/*
coordinator.go - The claim flow

PURPOSE:
  Orchestrates a claim attempt as one logically atomic operation:
  resolve the definition, compute the period key, reject duplicates,
  confirm eligibility, append the reward transaction, and report the
  new balance.

CHECK ORDER (load-bearing, do not reorder):
  1. Catalog lookup            -> ErrNotFound
  2. Period key computation
  3. Prior-claim check         -> ErrAlreadyClaimed
  4. Eligibility evaluation    -> ErrNotEligible (or transient failure)
  5. Reward sanity             -> ErrNoReward
  6. Ledger credit             -> duplicate race loser -> ErrAlreadyClaimed
  7. Best-effort progress mirror update
  The duplicate check precedes eligibility so a milestone claimed long
  ago answers "already collected" even if its condition no longer
  holds - the client renders these two outcomes very differently.

ATOMICITY:
  Step 3 here is a fast-path check for error precedence. The
  authoritative check-then-append runs inside Ledger.Credit under the
  per-user lock, backstopped by the store's uniqueness constraint on
  grant reasons; a concurrent double-claim loses there and surfaces as
  ErrAlreadyClaimed. If eligibility cannot be determined (activity
  store down), the claim aborts before any append - no reservation is
  held, so there is nothing to release.

SEE ALSO:
  - wallet/ledger.go: The critical section
  - eligibility.go: Condition evaluation
*/
package achievement

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/focusbridge/reward-engine/wallet"
)

// =============================================================================
// COORDINATOR
// =============================================================================

type Coordinator struct {
	catalog  *Catalog
	eval     *Evaluator
	ledger   *wallet.Ledger
	balances *wallet.BalanceReader
	claims   wallet.Store
	clock    wallet.Clock
	progress ProgressStore // optional mirror; nil disables it
	log      zerolog.Logger
}

func NewCoordinator(
	catalog *Catalog,
	eval *Evaluator,
	ledger *wallet.Ledger,
	store wallet.Store,
	clock wallet.Clock,
	log zerolog.Logger,
) *Coordinator {
	return &Coordinator{
		catalog:  catalog,
		eval:     eval,
		ledger:   ledger,
		balances: wallet.NewBalanceReader(store),
		claims:   store,
		clock:    clock,
		log:      log,
	}
}

// WithProgress enables the optional progress mirror.
func (c *Coordinator) WithProgress(p ProgressStore) *Coordinator {
	c.progress = p
	return c
}

// =============================================================================
// CLAIM
// =============================================================================

// ClaimResult is the successful outcome of a claim.
type ClaimResult struct {
	AchievementID string
	Amount        wallet.Amount
	NewBalance    wallet.Amount
	Status        Status
}

// Claim attempts to grant the achievement's reward to the user.
func (c *Coordinator) Claim(ctx context.Context, userID wallet.UserID, achievementID string) (ClaimResult, error) {
	def, err := c.catalog.Get(achievementID)
	if err != nil {
		return ClaimResult{}, err
	}

	key := def.ClaimKey(c.clock.Today())

	claimed, err := c.claims.ClaimExists(ctx, userID, key)
	if err != nil {
		return ClaimResult{}, fmt.Errorf("checking prior claim: %w", err)
	}
	if claimed {
		return ClaimResult{}, ErrAlreadyClaimed
	}

	eligible, err := c.eval.Evaluate(ctx, userID, def)
	if err != nil {
		// Eligibility unknown means no reward: abort before any append.
		return ClaimResult{}, fmt.Errorf("evaluating %s: %w", achievementID, err)
	}
	if !eligible {
		return ClaimResult{}, ErrNotEligible
	}

	if !def.Reward.IsPositive() {
		// The catalog rejects these at construction; reaching this
		// branch means the catalog was bypassed.
		c.log.Error().Str("achievement", achievementID).Msg("achievement has non-positive reward")
		return ClaimResult{}, ErrNoReward
	}

	tx, err := c.ledger.Credit(ctx, userID, def.Reward, key)
	if errors.Is(err, wallet.ErrDuplicateClaim) {
		// Lost the race to a concurrent claim. Same outcome as a retry.
		return ClaimResult{}, ErrAlreadyClaimed
	}
	if err != nil {
		return ClaimResult{}, fmt.Errorf("granting %s: %w", achievementID, err)
	}

	c.mirrorClaim(ctx, userID, def)

	return ClaimResult{
		AchievementID: achievementID,
		Amount:        def.Reward,
		NewBalance:    tx.Balance,
		Status:        claimedStatus(def),
	}, nil
}

// mirrorClaim updates the progress mirror after a successful claim.
// Best-effort: failures are logged, never returned.
func (c *Coordinator) mirrorClaim(ctx context.Context, userID wallet.UserID, def Definition) {
	if c.progress == nil {
		return
	}
	err := c.progress.Upsert(ctx, Progress{
		UserID:        userID,
		AchievementID: def.ID,
		Progress:      1,
		Unlocked:      def.Recurrence == Milestone,
	})
	if err != nil {
		c.log.Warn().Err(err).
			Str("user", string(userID)).
			Str("achievement", def.ID).
			Msg("progress mirror update failed")
	}
}

// =============================================================================
// STATUS AND LISTING
// =============================================================================

// Status is the user-facing standing of one achievement.
type Status struct {
	Claimable    bool
	ClaimedToday bool // meaningful for daily achievements only
	Unlocked     bool // meaningful for milestone achievements only
}

// Status reports the user's standing on one achievement.
func (c *Coordinator) Status(ctx context.Context, userID wallet.UserID, achievementID string) (Status, error) {
	def, err := c.catalog.Get(achievementID)
	if err != nil {
		return Status{}, err
	}
	return c.statusFor(ctx, userID, def)
}

func (c *Coordinator) statusFor(ctx context.Context, userID wallet.UserID, def Definition) (Status, error) {
	claimed, err := c.claims.ClaimExists(ctx, userID, def.ClaimKey(c.clock.Today()))
	if err != nil {
		return Status{}, err
	}

	var s Status
	if def.Recurrence == Daily {
		s.ClaimedToday = claimed
	} else {
		s.Unlocked = claimed
	}

	if claimed {
		return s, nil
	}

	eligible, err := c.eval.Evaluate(ctx, userID, def)
	if err != nil {
		return Status{}, err
	}
	s.Claimable = eligible
	return s, nil
}

// AchievementStatus pairs a definition with one user's standing on it.
type AchievementStatus struct {
	Definition Definition
	Status     Status
}

// List returns every catalog definition.
func (c *Coordinator) List() []Definition {
	return c.catalog.List()
}

// ListForUser returns every definition with the user's current status.
func (c *Coordinator) ListForUser(ctx context.Context, userID wallet.UserID) ([]AchievementStatus, error) {
	defs := c.catalog.List()
	out := make([]AchievementStatus, 0, len(defs))
	for _, def := range defs {
		s, err := c.statusFor(ctx, userID, def)
		if err != nil {
			return nil, err
		}
		out = append(out, AchievementStatus{Definition: def, Status: s})
	}
	return out, nil
}

// Balance returns the user's current coin balance.
func (c *Coordinator) Balance(ctx context.Context, userID wallet.UserID) (wallet.Amount, error) {
	return c.balances.Current(ctx, userID)
}

func claimedStatus(def Definition) Status {
	if def.Recurrence == Daily {
		return Status{Claimable: false, ClaimedToday: true}
	}
	return Status{Claimable: false, Unlocked: true}
}
