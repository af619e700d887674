/*
catalog.go - Immutable achievement registry

PURPOSE:
  The catalog maps achievement ids to their definitions. It is built
  once at startup and never mutated afterward: changing definitions is
  a deployment-time action (reseed and restart), never an ad hoc
  in-place edit.

VALIDATION:
  NewCatalog rejects definitions that could only fail at claim time:
  duplicate ids, empty ids, non-positive rewards, and conditions whose
  kind or parameters are not part of the closed set. A definition the
  evaluator cannot dispatch is a configuration gap surfaced at
  construction, not a silent "always false" at runtime.

SEE ALSO:
  - types.go: Definition and Condition
  - eligibility.go: What the conditions mean
*/
package achievement

import (
	"fmt"

	"github.com/focusbridge/reward-engine/wallet"
)

// =============================================================================
// CATALOG
// =============================================================================

// Catalog is a frozen id -> definition mapping.
type Catalog struct {
	defs map[string]Definition
	ids  []string // stable listing order (insertion order of NewCatalog input)
}

// NewCatalog builds and validates a catalog. The returned catalog owns
// a copy of defs; later changes to the slice do not leak in.
func NewCatalog(defs []Definition) (*Catalog, error) {
	c := &Catalog{defs: make(map[string]Definition, len(defs))}
	for _, d := range defs {
		if err := validateDefinition(d); err != nil {
			return nil, fmt.Errorf("achievement %q: %w", d.ID, err)
		}
		if _, dup := c.defs[d.ID]; dup {
			return nil, fmt.Errorf("achievement %q: duplicate id", d.ID)
		}
		c.defs[d.ID] = d
		c.ids = append(c.ids, d.ID)
	}
	return c, nil
}

// Get returns the definition for id. ErrNotFound if absent.
func (c *Catalog) Get(id string) (Definition, error) {
	d, ok := c.defs[id]
	if !ok {
		return Definition{}, ErrNotFound
	}
	return d, nil
}

// List returns all definitions in catalog order.
func (c *Catalog) List() []Definition {
	out := make([]Definition, 0, len(c.ids))
	for _, id := range c.ids {
		out = append(out, c.defs[id])
	}
	return out
}

func validateDefinition(d Definition) error {
	if d.ID == "" {
		return fmt.Errorf("empty id")
	}
	if !d.Reward.IsPositive() {
		return fmt.Errorf("reward must be positive, got %s", d.Reward)
	}
	switch d.Recurrence {
	case Milestone, Daily:
	default:
		return fmt.Errorf("unknown recurrence %q", d.Recurrence)
	}
	return validateCondition(d.Condition)
}

func validateCondition(c Condition) error {
	switch c.Kind {
	case CountAtLeast, CountOnDayAtLeast:
		if c.Metric != MetricDiary && c.Metric != MetricPhoto && c.Metric != MetricTodo {
			return fmt.Errorf("condition %s: unknown metric %q", c.Kind, c.Metric)
		}
		if c.Count < 1 {
			return fmt.Errorf("condition %s: count must be >= 1", c.Kind)
		}
	case ConsecutiveDaysAtLeast:
		if c.Count < 1 {
			return fmt.Errorf("condition %s: count must be >= 1", c.Kind)
		}
	case ExistsOnDay:
		if c.Metric != MetricDiary {
			return fmt.Errorf("condition %s: only %s is supported, got %q", c.Kind, MetricDiary, c.Metric)
		}
	case TimeOfDayCountAtLeast:
		if c.Cutoff < 0 || c.Cutoff > 23 {
			return fmt.Errorf("condition %s: cutoff hour out of range: %d", c.Kind, c.Cutoff)
		}
		if c.Side != BeforeCutoff && c.Side != AtOrAfterCutoff {
			return fmt.Errorf("condition %s: unknown cutoff side %q", c.Kind, c.Side)
		}
		if c.Count < 1 {
			return fmt.Errorf("condition %s: count must be >= 1", c.Kind)
		}
	default:
		return fmt.Errorf("unknown condition kind %q", c.Kind)
	}
	return nil
}

// =============================================================================
// DEFAULT CATALOG - The shipped achievement set
// =============================================================================

// DefaultDefinitions returns the nine shipped achievements. Ids and
// reward amounts are load-bearing: milestone claim keys embed the id
// forever, so renaming an id would re-open already-claimed rewards.
func DefaultDefinitions() []Definition {
	coins := wallet.NewAmount
	return []Definition{
		{
			ID: "first_diary", Title: "First Entry",
			Description: "Write your first diary entry",
			Reward:      coins(10), Recurrence: Milestone,
			Condition: Condition{Kind: CountAtLeast, Metric: MetricDiary, Count: 1},
		},
		{
			ID: "third_diary", Title: "Three Entries",
			Description: "Write three diary entries in total",
			Reward:      coins(20), Recurrence: Milestone,
			Condition: Condition{Kind: CountAtLeast, Metric: MetricDiary, Count: 3},
		},
		{
			ID: "photo_first", Title: "First Photo",
			Description: "Upload your first photo",
			Reward:      coins(5), Recurrence: Milestone,
			Condition: Condition{Kind: CountAtLeast, Metric: MetricPhoto, Count: 1},
		},
		{
			ID: "todo_first_done", Title: "First Task Done",
			Description: "Complete your first to-do",
			Reward:      coins(5), Recurrence: Milestone,
			Condition: Condition{Kind: CountAtLeast, Metric: MetricTodo, Count: 1},
		},
		{
			ID: "streak_7", Title: "Seven-Day Streak",
			Description: "Write a diary entry seven days in a row",
			Reward:      coins(30), Recurrence: Milestone,
			Condition: Condition{Kind: ConsecutiveDaysAtLeast, Count: 7},
		},
		{
			ID: "early_bird_3", Title: "Early Bird x3",
			Description: "Write three diary entries before 09:00",
			Reward:      coins(10), Recurrence: Milestone,
			Condition: Condition{Kind: TimeOfDayCountAtLeast, Cutoff: 9, Side: BeforeCutoff, Count: 3},
		},
		{
			ID: "night_owl_3", Title: "Night Owl x3",
			Description: "Write three diary entries at or after 22:00",
			Reward:      coins(10), Recurrence: Milestone,
			Condition: Condition{Kind: TimeOfDayCountAtLeast, Cutoff: 22, Side: AtOrAfterCutoff, Count: 3},
		},
		{
			ID: "daily_diary", Title: "Daily Entry",
			Description: "Write a diary entry today",
			Reward:      coins(3), Recurrence: Daily,
			Condition: Condition{Kind: ExistsOnDay, Metric: MetricDiary},
		},
		{
			ID: "daily_todo3", Title: "Three Tasks Today",
			Description: "Complete three to-dos today",
			Reward:      coins(5), Recurrence: Daily,
			Condition: Condition{Kind: CountOnDayAtLeast, Metric: MetricTodo, Count: 3},
		},
	}
}

// DefaultCatalog builds the shipped catalog. Panics on a validation
// failure, which can only mean the definitions above are broken.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(DefaultDefinitions())
	if err != nil {
		panic(fmt.Sprintf("default catalog invalid: %v", err))
	}
	return c
}
