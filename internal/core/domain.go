package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Daily   BudgetType = "daily"
	Monthly BudgetType = "monthly"
)

const (
	NotificationBudget  NotificationType = "budget"
	NotificationExpense NotificationType = "expense"
)

type (
	BudgetType string

	NotificationType string

	Money struct {
		Cents int64
	}

	// Expense is a single spend record. Immutable once created, owned
	// exclusively by OwnerID, removed only by hard delete.
	Expense struct {
		ID        string
		Name      string
		Amount    Money
		Category  string
		CreatedAt time.Time
		OwnerID   string
	}

	// Budget is a spending limit for a period. At most one budget is
	// marked active at a time; the active pointer lives in the store.
	Budget struct {
		Period    string // YYYY-MM
		Amount    Money
		Type      BudgetType
		CreatedAt time.Time
	}

	// Notification is an alert record. Created by the evaluator (or by
	// expense events), mutated only to flip Read, deleted by the user.
	Notification struct {
		ID         string
		Message    string
		Type       NotificationType
		BudgetType BudgetType
		Threshold  Threshold // empty unless Type is NotificationBudget
		CreatedAt  time.Time
		Read       bool
	}
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrEmptyName     = errors.New("empty expense name")
	ErrInvalidPeriod = errors.New("invalid budget period")
	ErrInvalidType   = errors.New("invalid budget type")

	ErrNotFound         = errors.New("not found")
	ErrUnauthenticated  = errors.New("unauthenticated")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrRateLimited      = errors.New("rate limited")
	ErrStoreUnavailable = errors.New("store unavailable")
)

func (t BudgetType) Valid() bool {
	return t == Daily || t == Monthly
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (e Expense) Validate() error {
	if len(strings.TrimSpace(e.Name)) == 0 {
		return ErrEmptyName
	}
	if len(e.Name) > 200 {
		return errors.New("expense name too long (max 200 characters)")
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	return nil
}

func (b Budget) Validate() error {
	if _, err := time.Parse("2006-01", b.Period); err != nil {
		return ErrInvalidPeriod
	}
	if !b.Type.Valid() {
		return ErrInvalidType
	}
	if err := b.Amount.Validate(); err != nil {
		return err
	}
	return nil
}

// SameCalendarDay reports whether a and b fall on the same calendar day.
// Comparison uses each value's own location.
func SameCalendarDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
