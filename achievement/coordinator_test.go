package achievement_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/focusbridge/reward-engine/achievement"
	"github.com/focusbridge/reward-engine/activity"
	"github.com/focusbridge/reward-engine/wallet"
	"github.com/focusbridge/reward-engine/wallet/store"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// TEST SETUP
// =============================================================================

type testEngine struct {
	coordinator *achievement.Coordinator
	activities  *activity.Memory
	wallets     *store.Memory
	clock       *wallet.ManualClock
	balances    *wallet.BalanceReader
}

func newTestEngine(t *testing.T) *testEngine {
	t.Helper()

	clock := wallet.NewManualClock(
		time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC), time.UTC)
	acts := activity.NewMemory(time.UTC)
	wallets := store.NewMemory()

	coordinator := achievement.NewCoordinator(
		achievement.DefaultCatalog(),
		achievement.NewEvaluator(acts, clock),
		wallet.NewLedger(wallets, clock),
		wallets,
		clock,
		zerolog.Nop(),
	).WithProgress(achievement.NewMemoryProgress())

	return &testEngine{
		coordinator: coordinator,
		activities:  acts,
		wallets:     wallets,
		clock:       clock,
		balances:    wallet.NewBalanceReader(wallets),
	}
}

// verifyBalance asserts the cached balance still matches a full recount.
func (e *testEngine) verifyBalance(t *testing.T, userID wallet.UserID) {
	t.Helper()
	assert.NoError(t, e.balances.Verify(context.Background(), userID))
}

// =============================================================================
// MILESTONE CLAIM FLOW
// =============================================================================

func TestClaim_FirstDiary_FullLifecycle(t *testing.T) {
	// GIVEN: A fresh user
	// WHEN: Claiming first_diary before writing, after writing, and again
	// THEN: NotEligible, then granted 10 coins, then AlreadyClaimed

	e := newTestEngine(t)
	ctx := context.Background()

	_, err := e.coordinator.Claim(ctx, "user-1", "first_diary")
	assert.ErrorIs(t, err, achievement.ErrNotEligible)

	e.activities.RecordDiary("user-1", e.clock.Now())

	result, err := e.coordinator.Claim(ctx, "user-1", "first_diary")
	require.NoError(t, err)
	assert.Equal(t, int64(10), result.Amount.Int64())
	assert.Equal(t, int64(10), result.NewBalance.Int64())
	assert.True(t, result.Status.Unlocked)
	assert.False(t, result.Status.Claimable)

	_, err = e.coordinator.Claim(ctx, "user-1", "first_diary")
	assert.ErrorIs(t, err, achievement.ErrAlreadyClaimed)

	e.verifyBalance(t, "user-1")
}

func TestClaim_UnknownAchievement_NotFound(t *testing.T) {
	e := newTestEngine(t)

	_, err := e.coordinator.Claim(context.Background(), "user-1", "does_not_exist")
	assert.ErrorIs(t, err, achievement.ErrNotFound)
}

func TestClaim_Milestone_PermanentAcrossDays(t *testing.T) {
	// GIVEN: first_diary claimed on March 10
	// WHEN: Re-claiming on March 11
	// THEN: AlreadyClaimed - milestone keys ignore the calendar

	e := newTestEngine(t)
	ctx := context.Background()

	e.activities.RecordDiary("user-1", e.clock.Now())
	_, err := e.coordinator.Claim(ctx, "user-1", "first_diary")
	require.NoError(t, err)

	e.clock.AdvanceDays(1)

	_, err = e.coordinator.Claim(ctx, "user-1", "first_diary")
	assert.ErrorIs(t, err, achievement.ErrAlreadyClaimed)
}

func TestClaim_AlreadyClaimed_BeatsNotEligible(t *testing.T) {
	// GIVEN: streak_7 claimed during a valid streak, then the streak broken
	// WHEN: Claiming again (condition no longer holds)
	// THEN: AlreadyClaimed, not NotEligible - the duplicate check runs first

	e := newTestEngine(t)
	ctx := context.Background()

	for i := 0; i < 7; i++ {
		e.activities.RecordDiary("user-1", e.clock.Now().AddDate(0, 0, -i))
	}
	_, err := e.coordinator.Claim(ctx, "user-1", "streak_7")
	require.NoError(t, err)

	// Days pass with no entries; the streak is gone.
	e.clock.AdvanceDays(10)

	_, err = e.coordinator.Claim(ctx, "user-1", "streak_7")
	assert.ErrorIs(t, err, achievement.ErrAlreadyClaimed)
}

func TestClaim_IndependentUsers(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	e.activities.RecordDiary("user-1", e.clock.Now())
	e.activities.RecordDiary("user-2", e.clock.Now())

	_, err := e.coordinator.Claim(ctx, "user-1", "first_diary")
	require.NoError(t, err)
	_, err = e.coordinator.Claim(ctx, "user-2", "first_diary")
	assert.NoError(t, err, "one user's claim must not block another's")
}

// =============================================================================
// DAILY CLAIM FLOW
// =============================================================================

func TestClaim_DailyTodo3_ResetsOnRollover(t *testing.T) {
	// GIVEN: Three to-dos done today and daily_todo3 claimed
	// WHEN: The day rolls over
	// THEN: The claim is NotEligible until three more are done today,
	//       then grants again under a new claim key

	e := newTestEngine(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		e.activities.RecordTodoDone("user-1", e.clock.Today())
	}
	result, err := e.coordinator.Claim(ctx, "user-1", "daily_todo3")
	require.NoError(t, err)
	assert.Equal(t, int64(5), result.Amount.Int64())
	assert.True(t, result.Status.ClaimedToday)

	_, err = e.coordinator.Claim(ctx, "user-1", "daily_todo3")
	assert.ErrorIs(t, err, achievement.ErrAlreadyClaimed)

	e.clock.AdvanceDays(1)

	_, err = e.coordinator.Claim(ctx, "user-1", "daily_todo3")
	assert.ErrorIs(t, err, achievement.ErrNotEligible,
		"yesterday's to-dos must not satisfy today's condition")

	for i := 0; i < 3; i++ {
		e.activities.RecordTodoDone("user-1", e.clock.Today())
	}
	result, err = e.coordinator.Claim(ctx, "user-1", "daily_todo3")
	require.NoError(t, err)
	assert.Equal(t, int64(10), result.NewBalance.Int64(), "two daily grants accumulate")

	e.verifyBalance(t, "user-1")
}

func TestClaim_DailyDiary_OncePerDay(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	e.activities.RecordDiary("user-1", e.clock.Now())

	_, err := e.coordinator.Claim(ctx, "user-1", "daily_diary")
	require.NoError(t, err)
	_, err = e.coordinator.Claim(ctx, "user-1", "daily_diary")
	assert.ErrorIs(t, err, achievement.ErrAlreadyClaimed)
}

// =============================================================================
// CONCURRENCY
// =============================================================================

func TestClaim_ConcurrentSameAchievement_SingleGrant(t *testing.T) {
	// GIVEN: An eligible user and 20 goroutines claiming first_diary
	// WHEN: All claims race
	// THEN: One grant lands; balance is exactly 10

	e := newTestEngine(t)
	ctx := context.Background()

	e.activities.RecordDiary("user-1", e.clock.Now())

	const racers = 20
	var wg sync.WaitGroup
	results := make(chan error, racers)

	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.coordinator.Claim(ctx, "user-1", "first_diary")
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var wins int
	for err := range results {
		if err == nil {
			wins++
			continue
		}
		assert.ErrorIs(t, err, achievement.ErrAlreadyClaimed)
	}
	assert.Equal(t, 1, wins)

	balance, err := e.balances.Current(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(10), balance.Int64())
	e.verifyBalance(t, "user-1")
}

// =============================================================================
// FAILURE MODES
// =============================================================================

// failingActivity wraps a real store but fails every read.
type failingActivity struct{}

var errActivityDown = errors.New("activity store unavailable")

func (failingActivity) DiaryCount(context.Context, wallet.UserID) (int, error) {
	return 0, errActivityDown
}
func (failingActivity) DiaryExistsOn(context.Context, wallet.UserID, wallet.Day) (bool, error) {
	return false, errActivityDown
}
func (failingActivity) DiaryCreatedTimes(context.Context, wallet.UserID) ([]time.Time, error) {
	return nil, errActivityDown
}
func (failingActivity) PhotoCount(context.Context, wallet.UserID) (int, error) {
	return 0, errActivityDown
}
func (failingActivity) TodosCompletedOn(context.Context, wallet.UserID, wallet.Day) (int, error) {
	return 0, errActivityDown
}
func (failingActivity) TodoEverCompleted(context.Context, wallet.UserID) (bool, error) {
	return false, errActivityDown
}

func TestClaim_ActivityStoreDown_NoGrant(t *testing.T) {
	// GIVEN: An activity store that fails every query
	// WHEN: Claiming
	// THEN: The error propagates and nothing is appended to the ledger

	clock := wallet.NewManualClock(
		time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC), time.UTC)
	wallets := store.NewMemory()
	coordinator := achievement.NewCoordinator(
		achievement.DefaultCatalog(),
		achievement.NewEvaluator(failingActivity{}, clock),
		wallet.NewLedger(wallets, clock),
		wallets,
		clock,
		zerolog.Nop(),
	)
	ctx := context.Background()

	_, err := coordinator.Claim(ctx, "user-1", "first_diary")
	require.Error(t, err)
	assert.ErrorIs(t, err, errActivityDown)
	assert.NotErrorIs(t, err, achievement.ErrNotEligible,
		"an unknown answer is not a 'no' answer")

	txs, err := wallets.Load(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, txs)
}

// =============================================================================
// STATUS AND LISTING
// =============================================================================

func TestStatus_ReflectsLifecycle(t *testing.T) {
	// GIVEN: An eligible, unclaimed milestone
	// WHEN: Checking status before and after the claim
	// THEN: claimable -> unlocked

	e := newTestEngine(t)
	ctx := context.Background()

	e.activities.RecordDiary("user-1", e.clock.Now())

	status, err := e.coordinator.Status(ctx, "user-1", "first_diary")
	require.NoError(t, err)
	assert.True(t, status.Claimable)
	assert.False(t, status.Unlocked)

	_, err = e.coordinator.Claim(ctx, "user-1", "first_diary")
	require.NoError(t, err)

	status, err = e.coordinator.Status(ctx, "user-1", "first_diary")
	require.NoError(t, err)
	assert.False(t, status.Claimable)
	assert.True(t, status.Unlocked)
}

func TestStatus_Daily_ClaimedTodayClearsOnRollover(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	e.activities.RecordDiary("user-1", e.clock.Now())
	_, err := e.coordinator.Claim(ctx, "user-1", "daily_diary")
	require.NoError(t, err)

	status, err := e.coordinator.Status(ctx, "user-1", "daily_diary")
	require.NoError(t, err)
	assert.True(t, status.ClaimedToday)

	e.clock.AdvanceDays(1)

	status, err = e.coordinator.Status(ctx, "user-1", "daily_diary")
	require.NoError(t, err)
	assert.False(t, status.ClaimedToday)
	assert.False(t, status.Claimable, "no entry yet on the new day")
}

func TestStatus_UnknownAchievement_NotFound(t *testing.T) {
	e := newTestEngine(t)

	_, err := e.coordinator.Status(context.Background(), "user-1", "nope")
	assert.ErrorIs(t, err, achievement.ErrNotFound)
}

func TestListForUser_CoversWholeCatalog(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	e.activities.RecordDiary("user-1", e.clock.Now())

	statuses, err := e.coordinator.ListForUser(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, statuses, 9)

	byID := map[string]achievement.Status{}
	for _, s := range statuses {
		byID[s.Definition.ID] = s.Status
	}
	assert.True(t, byID["first_diary"].Claimable)
	assert.True(t, byID["daily_diary"].Claimable)
	assert.False(t, byID["streak_7"].Claimable)
}
