package wallet_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/focusbridge/reward-engine/wallet"
	"github.com/focusbridge/reward-engine/wallet/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestLedger() (*wallet.Ledger, *store.Memory, *wallet.ManualClock) {
	mem := store.NewMemory()
	clock := wallet.NewManualClock(
		time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC), time.UTC)
	return wallet.NewLedger(mem, clock), mem, clock
}

func coins(n int64) wallet.Amount {
	return wallet.NewAmount(n)
}

// =============================================================================
// GRANT IDEMPOTENCY TESTS
// =============================================================================

func TestLedger_Credit_DuplicateReason_Rejected(t *testing.T) {
	// GIVEN: A grant with reason "ach:first_diary" already exists
	// WHEN: Crediting the same user with the same reason again
	// THEN: ErrDuplicateClaim, and the ledger still has one transaction

	ledger, mem, _ := newTestLedger()
	ctx := context.Background()

	_, err := ledger.Credit(ctx, "user-1", coins(10), "ach:first_diary")
	require.NoError(t, err, "first grant should succeed")

	_, err = ledger.Credit(ctx, "user-1", coins(10), "ach:first_diary")
	assert.ErrorIs(t, err, wallet.ErrDuplicateClaim)

	txs, err := mem.Load(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, txs, 1, "duplicate must not append")
}

func TestLedger_Credit_SameReason_DifferentUsers_Allowed(t *testing.T) {
	// GIVEN: user-1 claimed "ach:first_diary"
	// WHEN: user-2 claims the same reason
	// THEN: Both grants succeed (idempotency is per user)

	ledger, _, _ := newTestLedger()
	ctx := context.Background()

	_, err := ledger.Credit(ctx, "user-1", coins(10), "ach:first_diary")
	require.NoError(t, err)

	_, err = ledger.Credit(ctx, "user-2", coins(10), "ach:first_diary")
	assert.NoError(t, err)
}

func TestLedger_Credit_EmptyReason_Rejected(t *testing.T) {
	ledger, _, _ := newTestLedger()

	_, err := ledger.Credit(context.Background(), "user-1", coins(10), "")
	assert.ErrorIs(t, err, wallet.ErrEmptyReason)
}

func TestLedger_Credit_ConcurrentSameReason_ExactlyOneWins(t *testing.T) {
	// GIVEN: 50 goroutines racing to claim the same reason
	// WHEN: All call Credit concurrently
	// THEN: Exactly one succeeds, the rest get ErrDuplicateClaim,
	//       and the resulting balance reflects a single grant

	ledger, mem, _ := newTestLedger()
	ctx := context.Background()

	const racers = 50
	var wg sync.WaitGroup
	results := make(chan error, racers)

	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ledger.Credit(ctx, "user-1", coins(30), "ach:streak_7")
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var wins, losses int
	for err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, wallet.ErrDuplicateClaim):
			losses++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, wins, "exactly one racer should win")
	assert.Equal(t, racers-1, losses)

	txs, err := mem.Load(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.True(t, txs[0].Balance.Equal(coins(30)))
}

// =============================================================================
// DEBIT / OVERDRAFT TESTS
// =============================================================================

func TestLedger_Debit_SufficientBalance_Succeeds(t *testing.T) {
	// GIVEN: User has 30 coins
	// WHEN: Redeeming 20
	// THEN: Balance is 10 and the entry is a redeem with negative delta

	ledger, _, _ := newTestLedger()
	ctx := context.Background()

	_, err := ledger.Credit(ctx, "user-1", coins(30), "ach:streak_7")
	require.NoError(t, err)

	tx, err := ledger.Debit(ctx, "user-1", coins(20), "redeem:item_001 x1")
	require.NoError(t, err)

	assert.Equal(t, wallet.TxRedeem, tx.Type)
	assert.True(t, tx.Delta.Equal(coins(-20)))
	assert.True(t, tx.Balance.Equal(coins(10)))
}

func TestLedger_Debit_Overdraft_Rejected(t *testing.T) {
	// GIVEN: User has 10 coins
	// WHEN: Redeeming 25
	// THEN: InsufficientBalanceError carrying both amounts; nothing appended

	ledger, mem, _ := newTestLedger()
	ctx := context.Background()

	_, err := ledger.Credit(ctx, "user-1", coins(10), "ach:first_diary")
	require.NoError(t, err)

	_, err = ledger.Debit(ctx, "user-1", coins(25), "redeem:item_002 x1")
	require.Error(t, err)

	var insufficient *wallet.InsufficientBalanceError
	require.ErrorAs(t, err, &insufficient)
	assert.True(t, insufficient.Available.Equal(coins(10)))
	assert.True(t, insufficient.Requested.Equal(coins(25)))
	assert.ErrorIs(t, err, wallet.ErrInsufficientBalance)

	txs, err := mem.Load(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, txs, 1, "failed debit must not append")
}

func TestLedger_Debit_ZeroBalance_Rejected(t *testing.T) {
	ledger, _, _ := newTestLedger()

	_, err := ledger.Debit(context.Background(), "user-1", coins(1), "redeem:item_001 x1")
	assert.ErrorIs(t, err, wallet.ErrInsufficientBalance)
}

func TestLedger_Debit_RepeatedReason_Allowed(t *testing.T) {
	// GIVEN: User redeemed "redeem:item_001 x1" already
	// WHEN: Redeeming with the same reason again
	// THEN: Both succeed - reasons are idempotency keys for grants only

	ledger, _, _ := newTestLedger()
	ctx := context.Background()

	_, err := ledger.Credit(ctx, "user-1", coins(30), "ach:streak_7")
	require.NoError(t, err)

	_, err = ledger.Debit(ctx, "user-1", coins(5), "redeem:item_001 x1")
	require.NoError(t, err)
	_, err = ledger.Debit(ctx, "user-1", coins(5), "redeem:item_001 x1")
	assert.NoError(t, err)
}

func TestLedger_Debit_NonPositiveAmount_Rejected(t *testing.T) {
	ledger, _, _ := newTestLedger()

	_, err := ledger.Debit(context.Background(), "user-1", coins(0), "redeem:free")
	assert.Error(t, err)

	_, err = ledger.Debit(context.Background(), "user-1", coins(-5), "redeem:negative")
	assert.Error(t, err)
}

// =============================================================================
// ADJUSTMENT TESTS
// =============================================================================

func TestLedger_Adjust_MayGoNegative(t *testing.T) {
	// GIVEN: User has 5 coins
	// WHEN: An admin adjustment of -8 is recorded
	// THEN: Balance is -3 (adjustments bypass the overdraft check)

	ledger, _, _ := newTestLedger()
	ctx := context.Background()

	_, err := ledger.Credit(ctx, "user-1", coins(5), "ach:photo_first")
	require.NoError(t, err)

	tx, err := ledger.Adjust(ctx, "user-1", coins(-8), "support: double-grant correction")
	require.NoError(t, err)

	assert.Equal(t, wallet.TxAdjustment, tx.Type)
	assert.True(t, tx.Balance.Equal(coins(-3)))
}

// =============================================================================
// BALANCE DERIVABILITY TESTS
// =============================================================================

func TestBalanceReader_CachedMatchesRecount(t *testing.T) {
	// GIVEN: A mixed history of grants, redemptions, and adjustments
	// WHEN: Comparing the cached balance with a full recount
	// THEN: They agree, and Verify reports no drift

	ledger, mem, _ := newTestLedger()
	ctx := context.Background()
	reader := wallet.NewBalanceReader(mem)

	_, err := ledger.Credit(ctx, "user-1", coins(10), "ach:first_diary")
	require.NoError(t, err)
	_, err = ledger.Credit(ctx, "user-1", coins(20), "ach:third_diary")
	require.NoError(t, err)
	_, err = ledger.Debit(ctx, "user-1", coins(12), "redeem:item_001 x1")
	require.NoError(t, err)
	_, err = ledger.Adjust(ctx, "user-1", coins(2), "support: goodwill")
	require.NoError(t, err)

	current, err := reader.Current(ctx, "user-1")
	require.NoError(t, err)
	recount, err := reader.Recount(ctx, "user-1")
	require.NoError(t, err)

	assert.True(t, current.Equal(coins(20)))
	assert.True(t, recount.Equal(current))
	assert.NoError(t, reader.Verify(ctx, "user-1"))
}

func TestBalanceReader_EmptyLedger_ZeroBalance(t *testing.T) {
	_, mem, _ := newTestLedger()
	reader := wallet.NewBalanceReader(mem)

	balance, err := reader.Current(context.Background(), "nobody")
	require.NoError(t, err)
	assert.True(t, balance.IsZero())
}

func TestLedger_History_PreservesOrder(t *testing.T) {
	// GIVEN: Three transactions appended in sequence
	// WHEN: Loading the history
	// THEN: Entries come back in append order with running balances

	ledger, mem, clock := newTestLedger()
	ctx := context.Background()
	reader := wallet.NewBalanceReader(mem)

	_, err := ledger.Credit(ctx, "user-1", coins(10), "ach:first_diary")
	require.NoError(t, err)
	clock.Advance(time.Minute)
	_, err = ledger.Credit(ctx, "user-1", coins(5), "ach:photo_first")
	require.NoError(t, err)
	clock.Advance(time.Minute)
	_, err = ledger.Debit(ctx, "user-1", coins(7), "redeem:item_001 x1")
	require.NoError(t, err)

	txs, err := reader.History(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, txs, 3)

	assert.Equal(t, "ach:first_diary", txs[0].Reason)
	assert.Equal(t, "ach:photo_first", txs[1].Reason)
	assert.Equal(t, "redeem:item_001 x1", txs[2].Reason)

	assert.True(t, txs[0].Balance.Equal(coins(10)))
	assert.True(t, txs[1].Balance.Equal(coins(15)))
	assert.True(t, txs[2].Balance.Equal(coins(8)))
}
