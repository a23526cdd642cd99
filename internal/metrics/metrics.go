// Package metrics exposes Prometheus instrumentation for the budget flow.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var ExpensesCreated = promauto.NewCounter(prometheus.CounterOpts{
	Name: "budgetwatch_expenses_created_total",
	Help: "Number of expense records persisted.",
})

var ExpensesDeleted = promauto.NewCounter(prometheus.CounterOpts{
	Name: "budgetwatch_expenses_deleted_total",
	Help: "Number of expense records deleted.",
})

var BudgetAlerts = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "budgetwatch_budget_alerts_total",
	Help: "Budget alert notifications emitted, by scope and threshold.",
}, []string{"budget_type", "threshold"})

var GateRejections = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "budgetwatch_gate_rejections_total",
	Help: "Expense submissions blocked by the pre-expense budget gate.",
}, []string{"budget_type"})
