package core

// GateResult is the outcome of the pre-expense budget check.
type GateResult struct {
	Allowed        bool
	WouldBePercent float64
}

// CheckBudgetGate decides whether a candidate expense may be persisted
// without pushing the budget scope strictly over 100%. Landing exactly on
// 100% is allowed. A nil or non-positive budget never blocks.
//
// The allow/deny decision uses integer cents; WouldBePercent is a display
// value only and plays no part in the decision.
func CheckBudgetGate(candidate, priorTotal Money, budget *Money) GateResult {
	if budget == nil || budget.Cents <= 0 {
		return GateResult{Allowed: true}
	}
	projected := priorTotal.Cents + candidate.Cents
	return GateResult{
		Allowed:        projected <= budget.Cents,
		WouldBePercent: float64(projected) / float64(budget.Cents) * 100,
	}
}
