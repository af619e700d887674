package achievement

import (
	"context"
	"time"

	"github.com/focusbridge/reward-engine/wallet"
)

// =============================================================================
// ACTIVITY STORE - Read-only facts about what the user has done
// =============================================================================

// ActivityStore exposes counts and date-indexed facts about diary
// entries, photos, and completed to-dos. The engine only ever reads it;
// the surrounding app records the facts. Content (diary text, image
// bytes) never passes through this interface.
//
// If the store is unavailable, implementations return an error and the
// claim flow aborts before any transaction is appended - no reward
// without confirmed eligibility.
type ActivityStore interface {
	// DiaryCount returns the lifetime number of diary entries.
	DiaryCount(ctx context.Context, userID wallet.UserID) (int, error)

	// DiaryExistsOn reports whether a diary entry exists for the date.
	DiaryExistsOn(ctx context.Context, userID wallet.UserID, day wallet.Day) (bool, error)

	// DiaryCreatedTimes returns the creation timestamps of all diary
	// entries, for time-of-day conditions.
	DiaryCreatedTimes(ctx context.Context, userID wallet.UserID) ([]time.Time, error)

	// PhotoCount returns the lifetime number of uploaded photos.
	PhotoCount(ctx context.Context, userID wallet.UserID) (int, error)

	// TodosCompletedOn returns how many to-dos were completed on the date.
	TodosCompletedOn(ctx context.Context, userID wallet.UserID, day wallet.Day) (int, error)

	// TodoEverCompleted reports whether the user has ever completed a to-do.
	TodoEverCompleted(ctx context.Context, userID wallet.UserID) (bool, error)
}
