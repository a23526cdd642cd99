package core

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	ThresholdApproaching Threshold = "approaching" // 80%
	ThresholdVeryClose   Threshold = "very_close"  // 90%
	ThresholdExceeded    Threshold = "exceeded"    // 100%
)

// Threshold is a severity band for budget alerts.
type Threshold string

// Percent returns the band's lower bound, 0 for an unknown threshold.
func (t Threshold) Percent() int64 {
	switch t {
	case ThresholdApproaching:
		return 80
	case ThresholdVeryClose:
		return 90
	case ThresholdExceeded:
		return 100
	default:
		return 0
	}
}

// Totals holds spend aggregates relative to a reference instant.
type Totals struct {
	Today Money
	Month Money
}

// ComputeTotals sums expense amounts for the reference instant's calendar
// day and calendar month. Records with a zero CreatedAt are skipped rather
// than failing the whole computation. The input slice is never mutated.
func ComputeTotals(expenses []Expense, ref time.Time) Totals {
	var t Totals
	refYear, refMonth, refDay := ref.Date()
	for _, e := range expenses {
		if e.CreatedAt.IsZero() {
			continue
		}
		y, m, d := e.CreatedAt.Date()
		if y != refYear || m != refMonth {
			continue
		}
		t.Month.Cents += e.Amount.Cents
		if d == refDay {
			t.Today.Cents += e.Amount.Cents
		}
	}
	return t
}

// ScopeTotal picks the aggregate matching the budget scope: today's total
// for a daily budget, the month total for a monthly one.
func (t Totals) ScopeTotal(btype BudgetType) Money {
	if btype == Daily {
		return t.Today
	}
	return t.Month
}

// crossed returns the highest threshold reached by current against budget.
// Pure integer arithmetic: current/budget >= p/100 iff current*100 >= budget*p.
func crossed(current, budget Money) (Threshold, bool) {
	for _, tier := range []Threshold{ThresholdExceeded, ThresholdVeryClose, ThresholdApproaching} {
		if current.Cents*100 >= budget.Cents*tier.Percent() {
			return tier, true
		}
	}
	return "", false
}

// EvaluateBudget decides whether a new budget alert must be emitted.
//
// It returns nil when the budget amount is not positive, when no threshold
// is crossed, or when an alert for the same (budget type, threshold) pair
// was already recorded on now's calendar day. Crossing a higher threshold
// later the same day still produces a new alert: the de-duplication key is
// the pair, not the day alone.
//
// The function is total over its domain; it never fails and never mutates
// its inputs.
func EvaluateBudget(current, budget Money, btype BudgetType, existing []Notification, now time.Time) *Notification {
	if budget.Cents <= 0 {
		return nil
	}
	tier, ok := crossed(current, budget)
	if !ok {
		return nil
	}
	for _, n := range existing {
		if n.Type != NotificationBudget {
			continue
		}
		if n.BudgetType == btype && n.Threshold == tier && SameCalendarDay(n.CreatedAt, now) {
			return nil
		}
	}
	percent := current.Cents * 100 / budget.Cents
	return &Notification{
		ID:         uuid.NewString(),
		Message:    alertMessage(tier, btype, percent),
		Type:       NotificationBudget,
		BudgetType: btype,
		Threshold:  tier,
		CreatedAt:  now,
		Read:       false,
	}
}

func alertMessage(tier Threshold, btype BudgetType, percent int64) string {
	switch tier {
	case ThresholdExceeded:
		return fmt.Sprintf("You have exceeded your %s budget (%d%% used)", btype, percent)
	case ThresholdVeryClose:
		return fmt.Sprintf("You are very close to your %s budget limit (%d%% used)", btype, percent)
	default:
		return fmt.Sprintf("You are approaching your %s budget limit (%d%% used)", btype, percent)
	}
}
