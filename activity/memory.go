// Package activity provides an in-memory ActivityStore for tests and
// development. It records facts only - when a diary entry, photo, or
// to-do completion happened - never content.
package activity

import (
	"context"
	"sync"
	"time"

	"github.com/focusbridge/reward-engine/wallet"
)

// =============================================================================
// MEMORY ACTIVITY STORE
// =============================================================================

type Memory struct {
	mu      sync.RWMutex
	diaries map[wallet.UserID][]time.Time // creation timestamps
	photos  map[wallet.UserID]int
	todos   map[wallet.UserID]map[string]int // day key -> completions

	loc *time.Location // zone used to date diary entries
}

// NewMemory creates a store whose diary dates are derived in loc
// (nil means UTC). This should be the same location as the engine's
// clock, or streak answers will disagree with time-of-day answers.
func NewMemory(loc *time.Location) *Memory {
	if loc == nil {
		loc = time.UTC
	}
	return &Memory{
		diaries: make(map[wallet.UserID][]time.Time),
		photos:  make(map[wallet.UserID]int),
		todos:   make(map[wallet.UserID]map[string]int),
		loc:     loc,
	}
}

// =============================================================================
// RECORDING (what the surrounding app would do)
// =============================================================================

// RecordDiary records a diary entry created at the given time.
func (m *Memory) RecordDiary(userID wallet.UserID, createdAt time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.diaries[userID] = append(m.diaries[userID], createdAt)
}

// RecordPhoto records one photo upload.
func (m *Memory) RecordPhoto(userID wallet.UserID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.photos[userID]++
}

// RecordTodoDone records a to-do completed on the given day.
func (m *Memory) RecordTodoDone(userID wallet.UserID, day wallet.Day) {
	m.mu.Lock()
	defer m.mu.Unlock()
	byDay, ok := m.todos[userID]
	if !ok {
		byDay = make(map[string]int)
		m.todos[userID] = byDay
	}
	byDay[day.String()]++
}

// =============================================================================
// ACHIEVEMENT.ACTIVITYSTORE IMPLEMENTATION
// =============================================================================

func (m *Memory) DiaryCount(_ context.Context, userID wallet.UserID) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.diaries[userID]), nil
}

func (m *Memory) DiaryExistsOn(_ context.Context, userID wallet.UserID, day wallet.Day) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, t := range m.diaries[userID] {
		if wallet.DayOf(t, m.loc).Equal(day) {
			return true, nil
		}
	}
	return false, nil
}

func (m *Memory) DiaryCreatedTimes(_ context.Context, userID wallet.UserID) ([]time.Time, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]time.Time, len(m.diaries[userID]))
	copy(out, m.diaries[userID])
	return out, nil
}

func (m *Memory) PhotoCount(_ context.Context, userID wallet.UserID) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.photos[userID], nil
}

func (m *Memory) TodosCompletedOn(_ context.Context, userID wallet.UserID, day wallet.Day) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.todos[userID][day.String()], nil
}

func (m *Memory) TodoEverCompleted(_ context.Context, userID wallet.UserID) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, n := range m.todos[userID] {
		if n > 0 {
			return true, nil
		}
	}
	return false, nil
}
