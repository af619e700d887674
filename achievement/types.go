/*
Package achievement implements the achievement-claim engine for the
journaling app: which rewards exist, who is eligible for them, and the
claim flow that grants each one at most once per period.

PURPOSE:
  Layers achievement semantics on top of the wallet ledger. The wallet
  knows how to record coin movements exactly once per claim key; this
  package knows what the claim keys mean, when a user has earned a
  reward, and how milestone and daily recurrences differ.

KEY CONCEPTS IN THIS FILE (types.go):
  - Definition: One achievement (id, title, reward, recurrence, condition)
  - Recurrence: Milestone (once ever) vs Daily (once per calendar day)
  - Condition: A closed set of eligibility predicates over activity data
  - Claim keys: The literal reason strings written to the ledger

CLAIM KEY FORMAT (correctness-critical, not cosmetic):
  Milestone:  "ach:<achievementID>"
  Daily:      "daily:<achievementID>:<ISO-date>"

  The key is simultaneously the audit trail in the ledger and the
  deduplication index for claims. A daily achievement becomes claimable
  again on day rollover simply because its key changes.

SEE ALSO:
  - catalog.go: The frozen registry of definitions
  - eligibility.go: Evaluating conditions against activity data
  - coordinator.go: The claim flow
*/
package achievement

import (
	"fmt"

	"github.com/focusbridge/reward-engine/wallet"
)

// =============================================================================
// RECURRENCE
// =============================================================================

type Recurrence string

const (
	// Milestone rewards are claimable at most once per user, ever.
	// Once claimed, later eligibility re-evaluation is irrelevant.
	Milestone Recurrence = "milestone"

	// Daily rewards are claimable at most once per user per calendar
	// day, under the engine's single canonical day-boundary policy.
	Daily Recurrence = "daily"
)

// =============================================================================
// CONDITION - Closed set of eligibility predicate kinds
// =============================================================================

// Metric names the activity log a condition reads.
type Metric string

const (
	MetricDiary Metric = "diary"
	MetricPhoto Metric = "photo"
	MetricTodo  Metric = "todo"
)

// CutoffSide selects which side of a time-of-day cutoff counts.
type CutoffSide string

const (
	BeforeCutoff    CutoffSide = "before"     // strictly before Cutoff:00
	AtOrAfterCutoff CutoffSide = "at_or_after" // at or after Cutoff:00
)

// ConditionKind enumerates every supported predicate shape. Adding an
// achievement that needs a new shape means adding a kind here and a
// case in the evaluator; an unmapped kind is a configuration gap the
// catalog detects at construction, not a silent "always false".
type ConditionKind string

const (
	// CountAtLeast: the metric's lifetime count >= Count.
	// For MetricTodo this reads the "ever completed" fact.
	CountAtLeast ConditionKind = "count_at_least"

	// CountOnDayAtLeast: the metric's count for today >= Count.
	CountOnDayAtLeast ConditionKind = "count_on_day_at_least"

	// ConsecutiveDaysAtLeast: walking backward from today, the number
	// of consecutive days with at least one diary entry >= Count.
	ConsecutiveDaysAtLeast ConditionKind = "consecutive_days_at_least"

	// ExistsOnDay: the metric has at least one fact dated today.
	ExistsOnDay ConditionKind = "exists_on_day"

	// TimeOfDayCountAtLeast: diary entries created on the given side
	// of the Cutoff hour number >= Count.
	TimeOfDayCountAtLeast ConditionKind = "time_of_day_count_at_least"
)

// Condition is one eligibility predicate. Which fields matter depends
// on Kind; the catalog validates the combination at construction.
type Condition struct {
	Kind   ConditionKind
	Metric Metric
	Count  int
	Cutoff int // hour of day 0-23, for TimeOfDayCountAtLeast
	Side   CutoffSide
}

// =============================================================================
// DEFINITION
// =============================================================================

// Definition describes one achievement. Immutable after the catalog is
// built; changing definitions is a deployment action, not a runtime one.
type Definition struct {
	ID          string
	Title       string
	Description string
	Reward      wallet.Amount
	Recurrence  Recurrence
	Condition   Condition
}

// ClaimKey returns the ledger reason string for claiming this
// achievement in the period containing today.
func (d Definition) ClaimKey(today wallet.Day) string {
	if d.Recurrence == Daily {
		return fmt.Sprintf("daily:%s:%s", d.ID, today)
	}
	return fmt.Sprintf("ach:%s", d.ID)
}
