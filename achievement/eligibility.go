/*
eligibility.go - Evaluating achievement conditions

PURPOSE:
  Decides whether an achievement's condition currently holds for a
  user, by querying the ActivityStore. Evaluation is side-effect-free
  and independent of whether the reward was already granted - "earned"
  and "claimed" are separate questions.

TIMEZONE:
  Every date-sensitive check ("today", the streak walk, the 09:00 and
  22:00 cutoffs) uses the clock's single canonical location. Mixing
  zones would make streak length ill-defined, so the evaluator never
  consults any other source of time.

FAIL-CLOSED:
  A condition kind the evaluator does not recognize evaluates to false
  without error: an unsupported definition is "not yet earnable", not a
  server fault. The catalog's construction-time validation is what
  turns an unmapped kind into a loud configuration error; this is the
  quiet runtime backstop.
*/
package achievement

import (
	"context"

	"github.com/focusbridge/reward-engine/wallet"
)

// streakScanLimit bounds the backward streak walk so a pathological
// activity store cannot spin the evaluator forever.
const streakScanLimit = 366

// Evaluator answers "does this user currently satisfy this condition?".
type Evaluator struct {
	activity ActivityStore
	clock    wallet.Clock
}

func NewEvaluator(activity ActivityStore, clock wallet.Clock) *Evaluator {
	return &Evaluator{activity: activity, clock: clock}
}

// Evaluate reports whether the definition's condition holds right now.
// Errors are activity-store failures only; an unknown condition is a
// clean false.
func (e *Evaluator) Evaluate(ctx context.Context, userID wallet.UserID, def Definition) (bool, error) {
	cond := def.Condition
	switch cond.Kind {
	case CountAtLeast:
		return e.countAtLeast(ctx, userID, cond)
	case CountOnDayAtLeast:
		return e.countOnDayAtLeast(ctx, userID, cond)
	case ConsecutiveDaysAtLeast:
		return e.consecutiveDaysAtLeast(ctx, userID, cond)
	case ExistsOnDay:
		return e.activity.DiaryExistsOn(ctx, userID, e.clock.Today())
	case TimeOfDayCountAtLeast:
		return e.timeOfDayCountAtLeast(ctx, userID, cond)
	default:
		return false, nil
	}
}

func (e *Evaluator) countAtLeast(ctx context.Context, userID wallet.UserID, cond Condition) (bool, error) {
	switch cond.Metric {
	case MetricDiary:
		n, err := e.activity.DiaryCount(ctx, userID)
		if err != nil {
			return false, err
		}
		return n >= cond.Count, nil
	case MetricPhoto:
		n, err := e.activity.PhotoCount(ctx, userID)
		if err != nil {
			return false, err
		}
		return n >= cond.Count, nil
	case MetricTodo:
		// The activity store only exposes an "ever completed" fact for
		// to-dos, which is all the shipped catalog needs (count >= 1).
		done, err := e.activity.TodoEverCompleted(ctx, userID)
		if err != nil {
			return false, err
		}
		return done && cond.Count <= 1, nil
	default:
		return false, nil
	}
}

func (e *Evaluator) countOnDayAtLeast(ctx context.Context, userID wallet.UserID, cond Condition) (bool, error) {
	today := e.clock.Today()
	switch cond.Metric {
	case MetricTodo:
		n, err := e.activity.TodosCompletedOn(ctx, userID, today)
		if err != nil {
			return false, err
		}
		return n >= cond.Count, nil
	default:
		return false, nil
	}
}

// consecutiveDaysAtLeast walks backward day by day from today, counting
// consecutive days with at least one diary entry, stopping at the first
// empty day. The streak includes today only if today has an entry.
func (e *Evaluator) consecutiveDaysAtLeast(ctx context.Context, userID wallet.UserID, cond Condition) (bool, error) {
	day := e.clock.Today()
	streak := 0
	for streak < streakScanLimit {
		has, err := e.activity.DiaryExistsOn(ctx, userID, day)
		if err != nil {
			return false, err
		}
		if !has {
			break
		}
		streak++
		if streak >= cond.Count {
			return true, nil
		}
		day = day.AddDays(-1)
	}
	return streak >= cond.Count, nil
}

func (e *Evaluator) timeOfDayCountAtLeast(ctx context.Context, userID wallet.UserID, cond Condition) (bool, error) {
	times, err := e.activity.DiaryCreatedTimes(ctx, userID)
	if err != nil {
		return false, err
	}

	loc := e.clock.Location()
	count := 0
	for _, t := range times {
		hour := t.In(loc).Hour()
		switch cond.Side {
		case BeforeCutoff:
			if hour < cond.Cutoff {
				count++
			}
		case AtOrAfterCutoff:
			if hour >= cond.Cutoff {
				count++
			}
		}
		if count >= cond.Count {
			return true, nil
		}
	}
	return count >= cond.Count, nil
}
