// Package storage persists expenses, budgets and notifications in SQLite.
//
// It implements the three store contracts consumed by the service layer.
// All write paths map driver failures onto the core error taxonomy so
// callers can distinguish throttling from plain unavailability.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"budgetwatch/internal/core"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// mapStoreErr translates driver errors into the core taxonomy. A busy
// database surfaces as ErrRateLimited so the caller can suggest a retry;
// anything else is ErrStoreUnavailable.
func mapStoreErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}
	msg := err.Error()
	if strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked") {
		return fmt.Errorf("%s: %w", op, core.ErrRateLimited)
	}
	return fmt.Errorf("%s: %w: %v", op, core.ErrStoreUnavailable, err)
}

// parseStoredTime reads a persisted timestamp. Unparseable values come
// back as the zero time, which the evaluator excludes from totals.
func parseStoredTime(ctx context.Context, raw string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	slog.WarnContext(ctx, "Skipping unparseable timestamp", "raw", raw)
	return time.Time{}
}

func formatStoredTime(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}

// --- Expense Store ---

// CreateExpense persists an expense, assigning an id and creation time
// when absent. Amounts must be strictly positive.
func (r *SQLiteRepository) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	if e.Amount.Cents <= 0 {
		return core.Expense{}, core.ErrInvalidAmount
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (id, name, amount_cents, category, owner_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.Name, e.Amount.Cents, e.Category, e.OwnerID, formatStoredTime(e.CreatedAt))
	if err != nil {
		return core.Expense{}, mapStoreErr("create expense", err)
	}

	slog.InfoContext(ctx, "Expense saved",
		"id", e.ID,
		"owner_id", e.OwnerID,
		"amount_cents", e.Amount.Cents,
		"category", e.Category)

	return e, nil
}

// ListExpenses returns the owner's expenses, newest first. An empty
// owner means no resolvable session.
func (r *SQLiteRepository) ListExpenses(ctx context.Context, ownerID string) ([]core.Expense, error) {
	if ownerID == "" {
		return nil, core.ErrUnauthenticated
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, amount_cents, category, owner_id, created_at
		 FROM expenses WHERE owner_id = ? ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, mapStoreErr("list expenses", err)
	}
	defer rows.Close()

	var expenses []core.Expense
	for rows.Next() {
		var (
			e   core.Expense
			raw string
		)
		if err := rows.Scan(&e.ID, &e.Name, &e.Amount.Cents, &e.Category, &e.OwnerID, &raw); err != nil {
			return nil, mapStoreErr("scan expense", err)
		}
		e.CreatedAt = parseStoredTime(ctx, raw)
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, mapStoreErr("list expenses", err)
	}

	return expenses, nil
}

// GetExpense retrieves a single expense by id.
func (r *SQLiteRepository) GetExpense(ctx context.Context, id string) (core.Expense, error) {
	var (
		e   core.Expense
		raw string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, amount_cents, category, owner_id, created_at
		 FROM expenses WHERE id = ?`, id).
		Scan(&e.ID, &e.Name, &e.Amount.Cents, &e.Category, &e.OwnerID, &raw)
	if err != nil {
		return core.Expense{}, mapStoreErr("get expense", err)
	}
	e.CreatedAt = parseStoredTime(ctx, raw)
	return e, nil
}

// DeleteExpense hard-deletes the record after verifying ownership.
func (r *SQLiteRepository) DeleteExpense(ctx context.Context, id, ownerID string) error {
	if ownerID == "" {
		return core.ErrUnauthenticated
	}

	var storedOwner string
	err := r.db.QueryRowContext(ctx, `SELECT owner_id FROM expenses WHERE id = ?`, id).Scan(&storedOwner)
	if err != nil {
		return mapStoreErr("delete expense", err)
	}
	if storedOwner != ownerID {
		return core.ErrUnauthorized
	}

	if _, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id); err != nil {
		return mapStoreErr("delete expense", err)
	}

	slog.InfoContext(ctx, "Expense deleted", "id", id, "owner_id", ownerID)
	return nil
}

// MonthSummary aggregates the owner's spend for a year+month, total and
// per category, for the statistics screen.
func (r *SQLiteRepository) MonthSummary(ctx context.Context, ownerID string, year, month int) (core.MonthSummary, error) {
	summary := core.MonthSummary{Year: year, Month: month}
	if ownerID == "" {
		return summary, core.ErrUnauthenticated
	}

	expenses, err := r.ListExpenses(ctx, ownerID)
	if err != nil {
		return summary, err
	}

	byCategory := make(map[string]int64)
	var order []string
	for _, e := range expenses {
		if e.CreatedAt.IsZero() {
			continue
		}
		y, m, _ := e.CreatedAt.Date()
		if y != year || int(m) != month {
			continue
		}
		summary.Total.Cents += e.Amount.Cents
		if _, seen := byCategory[e.Category]; !seen {
			order = append(order, e.Category)
		}
		byCategory[e.Category] += e.Amount.Cents
	}
	for _, name := range order {
		summary.ByCategory = append(summary.ByCategory, core.CategoryAmount{
			Name:   name,
			Amount: core.Money{Cents: byCategory[name]},
		})
	}

	return summary, nil
}

// --- Notification Store ---

// ListNotifications returns all notification records, newest first.
func (r *SQLiteRepository) ListNotifications(ctx context.Context) ([]core.Notification, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, message, notification_type, budget_type, threshold, created_at, is_read
		 FROM notifications ORDER BY created_at DESC`)
	if err != nil {
		return nil, mapStoreErr("list notifications", err)
	}
	defer rows.Close()

	var notifications []core.Notification
	for rows.Next() {
		var (
			n    core.Notification
			raw  string
			read int
		)
		if err := rows.Scan(&n.ID, &n.Message, &n.Type, &n.BudgetType, &n.Threshold, &raw, &read); err != nil {
			return nil, mapStoreErr("scan notification", err)
		}
		n.CreatedAt = parseStoredTime(ctx, raw)
		n.Read = read != 0
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, mapStoreErr("list notifications", err)
	}

	return notifications, nil
}

// AppendNotification persists a new notification record.
func (r *SQLiteRepository) AppendNotification(ctx context.Context, n core.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}

	read := 0
	if n.Read {
		read = 1
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO notifications (id, message, notification_type, budget_type, threshold, created_at, is_read)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.Message, n.Type, n.BudgetType, n.Threshold, formatStoredTime(n.CreatedAt), read)
	if err != nil {
		return mapStoreErr("append notification", err)
	}

	slog.InfoContext(ctx, "Notification appended",
		"id", n.ID,
		"type", n.Type,
		"budget_type", n.BudgetType,
		"threshold", n.Threshold)
	return nil
}

// MarkNotificationRead flips the read flag on a single record.
func (r *SQLiteRepository) MarkNotificationRead(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE notifications SET is_read = 1 WHERE id = ?`, id)
	if err != nil {
		return mapStoreErr("mark notification read", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("mark notification read: %w", core.ErrNotFound)
	}
	return nil
}

// DeleteNotification removes a single record.
func (r *SQLiteRepository) DeleteNotification(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM notifications WHERE id = ?`, id)
	if err != nil {
		return mapStoreErr("delete notification", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("delete notification: %w", core.ErrNotFound)
	}
	return nil
}

// UnreadNotificationCount returns how many records are still unread.
func (r *SQLiteRepository) UnreadNotificationCount(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM notifications WHERE is_read = 0`).Scan(&count)
	if err != nil {
		return 0, mapStoreErr("count unread notifications", err)
	}
	return count, nil
}

// ClearNotifications removes every notification record.
func (r *SQLiteRepository) ClearNotifications(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM notifications`); err != nil {
		return mapStoreErr("clear notifications", err)
	}
	slog.InfoContext(ctx, "All notifications cleared")
	return nil
}

// --- Budget Store ---

// UpsertBudget creates or replaces the budget keyed by (period, type).
func (r *SQLiteRepository) UpsertBudget(ctx context.Context, b core.Budget) error {
	if err := b.Validate(); err != nil {
		return err
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO budgets (period, budget_type, amount_cents, created_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (period, budget_type)
		 DO UPDATE SET amount_cents = excluded.amount_cents`,
		b.Period, b.Type, b.Amount.Cents, formatStoredTime(b.CreatedAt))
	if err != nil {
		return mapStoreErr("upsert budget", err)
	}

	slog.InfoContext(ctx, "Budget saved",
		"period", b.Period,
		"budget_type", b.Type,
		"amount_cents", b.Amount.Cents)
	return nil
}

// ListBudgets returns all stored budgets ordered by period.
func (r *SQLiteRepository) ListBudgets(ctx context.Context) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT period, budget_type, amount_cents, created_at FROM budgets ORDER BY period, budget_type`)
	if err != nil {
		return nil, mapStoreErr("list budgets", err)
	}
	defer rows.Close()

	var budgets []core.Budget
	for rows.Next() {
		var (
			b   core.Budget
			raw string
		)
		if err := rows.Scan(&b.Period, &b.Type, &b.Amount.Cents, &raw); err != nil {
			return nil, mapStoreErr("scan budget", err)
		}
		b.CreatedAt = parseStoredTime(ctx, raw)
		budgets = append(budgets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, mapStoreErr("list budgets", err)
	}

	return budgets, nil
}

// GetActiveBudget resolves the active pointer to its budget, or nil when
// no budget is active.
func (r *SQLiteRepository) GetActiveBudget(ctx context.Context) (*core.Budget, error) {
	var (
		b   core.Budget
		raw string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT b.period, b.budget_type, b.amount_cents, b.created_at
		 FROM active_budget a
		 JOIN budgets b ON b.period = a.period AND b.budget_type = a.budget_type
		 WHERE a.id = 1`).
		Scan(&b.Period, &b.Type, &b.Amount.Cents, &raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, mapStoreErr("get active budget", err)
	}
	b.CreatedAt = parseStoredTime(ctx, raw)
	return &b, nil
}

// SetActiveBudget points the active pointer at an existing budget.
func (r *SQLiteRepository) SetActiveBudget(ctx context.Context, period string, btype core.BudgetType) error {
	var exists int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM budgets WHERE period = ? AND budget_type = ?`, period, btype).Scan(&exists)
	if err != nil {
		return mapStoreErr("set active budget", err)
	}
	if exists == 0 {
		return fmt.Errorf("set active budget: %w", core.ErrNotFound)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO active_budget (id, period, budget_type) VALUES (1, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET period = excluded.period, budget_type = excluded.budget_type`,
		period, btype)
	if err != nil {
		return mapStoreErr("set active budget", err)
	}

	slog.InfoContext(ctx, "Active budget set", "period", period, "budget_type", btype)
	return nil
}

// DeleteBudget removes a budget; when it was the active one, the active
// pointer is cleared in the same transaction.
func (r *SQLiteRepository) DeleteBudget(ctx context.Context, period string, btype core.BudgetType) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return mapStoreErr("delete budget", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`DELETE FROM budgets WHERE period = ? AND budget_type = ?`, period, btype)
	if err != nil {
		return mapStoreErr("delete budget", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("delete budget: %w", core.ErrNotFound)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM active_budget WHERE period = ? AND budget_type = ?`, period, btype); err != nil {
		return mapStoreErr("clear active budget", err)
	}

	if err := tx.Commit(); err != nil {
		return mapStoreErr("delete budget", err)
	}

	slog.InfoContext(ctx, "Budget deleted", "period", period, "budget_type", btype)
	return nil
}
