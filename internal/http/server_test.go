package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"budgetwatch/internal/core"
)

type fakeExpenseAPI struct {
	gate      core.GateResult
	gateErr   error
	stored    core.Expense
	alert     *core.Notification
	recordErr error
	deleteErr error
	expenses  []core.Expense
	summary   core.MonthSummary

	recorded []core.Expense
}

func (f *fakeExpenseAPI) RecordExpenseAndAlert(_ context.Context, e core.Expense) (core.Expense, *core.Notification, error) {
	if f.recordErr != nil {
		return core.Expense{}, nil, f.recordErr
	}
	f.recorded = append(f.recorded, e)
	return f.stored, f.alert, nil
}

func (f *fakeExpenseAPI) PrecheckExpense(_ context.Context, _ string, _ core.Money) (core.GateResult, error) {
	return f.gate, f.gateErr
}

func (f *fakeExpenseAPI) DeleteExpense(_ context.Context, _, _ string) error {
	return f.deleteErr
}

func (f *fakeExpenseAPI) ListExpenses(_ context.Context, _ string) ([]core.Expense, error) {
	return f.expenses, nil
}

func (f *fakeExpenseAPI) MonthSummary(_ context.Context, _ string, _, _ int) (core.MonthSummary, error) {
	return f.summary, nil
}

type fakeBudgetAPI struct {
	active    *core.Budget
	budgets   []core.Budget
	deleteErr error
}

func (f *fakeBudgetAPI) Upsert(_ context.Context, b core.Budget) error { return nil }
func (f *fakeBudgetAPI) Activate(_ context.Context, _ string, _ core.BudgetType) error {
	return nil
}
func (f *fakeBudgetAPI) Active(_ context.Context) (*core.Budget, error) { return f.active, nil }
func (f *fakeBudgetAPI) List(_ context.Context) ([]core.Budget, error)  { return f.budgets, nil }
func (f *fakeBudgetAPI) Delete(_ context.Context, _ string, _ core.BudgetType) error {
	return f.deleteErr
}

type fakeNotificationAPI struct {
	list    []core.Notification
	unread  int
	markErr error
}

func (f *fakeNotificationAPI) List(_ context.Context) ([]core.Notification, error) {
	return f.list, nil
}
func (f *fakeNotificationAPI) MarkRead(_ context.Context, _ string) error { return f.markErr }
func (f *fakeNotificationAPI) Delete(_ context.Context, _ string) error   { return nil }
func (f *fakeNotificationAPI) UnreadCount(_ context.Context) (int, error) { return f.unread, nil }
func (f *fakeNotificationAPI) Clear(_ context.Context) error              { return nil }

func newTestServer(e *fakeExpenseAPI, b *fakeBudgetAPI, n *fakeNotificationAPI) *Server {
	if e == nil {
		e = &fakeExpenseAPI{gate: core.GateResult{Allowed: true}}
	}
	if b == nil {
		b = &fakeBudgetAPI{}
	}
	if n == nil {
		n = &fakeNotificationAPI{}
	}
	return NewServer(":0", e, b, n, Options{})
}

func TestCreateExpenseRequiresOwner(t *testing.T) {
	s := newTestServer(nil, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/expenses/", strings.NewReader(`{"name":"coffee","amount":"3.50"}`))
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestCreateExpenseBlockedByGate(t *testing.T) {
	api := &fakeExpenseAPI{gate: core.GateResult{Allowed: false, WouldBePercent: 112.5}}
	s := newTestServer(api, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/expenses/", strings.NewReader(`{"name":"tv","amount":"499.99"}`))
	req.Header.Set(ownerHeader, "u1")
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
	var body gateJSON
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Allowed || body.WouldBePercent != 112.5 {
		t.Fatalf("body = %+v", body)
	}
	if len(api.recorded) != 0 {
		t.Fatalf("expense was persisted despite blocked gate")
	}
}

func TestCreateExpenseOverrideSkipsGate(t *testing.T) {
	api := &fakeExpenseAPI{
		gate:   core.GateResult{Allowed: false, WouldBePercent: 150},
		stored: core.Expense{ID: "e1", Name: "tv", Amount: core.Money{Cents: 49999}, OwnerID: "u1"},
	}
	s := newTestServer(api, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/expenses/?override=true", strings.NewReader(`{"name":"tv","amount":"499.99"}`))
	req.Header.Set(ownerHeader, "u1")
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}
	if len(api.recorded) != 1 {
		t.Fatalf("recorded = %d, want 1", len(api.recorded))
	}
}

func TestCreateExpenseReturnsNotification(t *testing.T) {
	api := &fakeExpenseAPI{
		gate:   core.GateResult{Allowed: true, WouldBePercent: 85},
		stored: core.Expense{ID: "e1", Name: "rent", Amount: core.Money{Cents: 85000}, OwnerID: "u1"},
		alert: &core.Notification{
			ID:         "n1",
			Message:    "You are approaching your monthly budget (85% used)",
			Type:       core.NotificationBudget,
			BudgetType: core.Monthly,
			Threshold:  core.ThresholdApproaching,
			CreatedAt:  time.Now(),
		},
	}
	s := newTestServer(api, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/expenses/", strings.NewReader(`{"name":"rent","amount":"850.00"}`))
	req.Header.Set(ownerHeader, "u1")
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}
	var body createExpenseResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Notification == nil {
		t.Fatalf("expected notification in response")
	}
	if body.Notification.Threshold != "approaching" {
		t.Fatalf("threshold = %q", body.Notification.Threshold)
	}
	if body.Expense.Amount.Cents != 85000 {
		t.Fatalf("amount = %d cents", body.Expense.Amount.Cents)
	}
}

func TestCreateExpenseRejectsUnknownFields(t *testing.T) {
	s := newTestServer(nil, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/expenses/", strings.NewReader(`{"name":"x","amount":"1.00","bogus":true}`))
	req.Header.Set(ownerHeader, "u1")
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestDeleteExpenseErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"not found", core.ErrNotFound, http.StatusNotFound},
		{"foreign owner", core.ErrUnauthorized, http.StatusForbidden},
		{"throttled", core.ErrRateLimited, http.StatusTooManyRequests},
		{"store down", core.ErrStoreUnavailable, http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			api := &fakeExpenseAPI{deleteErr: tc.err}
			s := newTestServer(api, nil, nil)

			req := httptest.NewRequest(http.MethodDelete, "/api/expenses/e1", nil)
			req.Header.Set(ownerHeader, "u1")
			rec := httptest.NewRecorder()
			s.Handler.ServeHTTP(rec, req)

			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d", rec.Code, tc.want)
			}
		})
	}
}

func TestStatisticsCachesSummary(t *testing.T) {
	api := &fakeExpenseAPI{
		summary: core.MonthSummary{
			Year:  2026,
			Month: 8,
			Total: core.Money{Cents: 12345},
			ByCategory: []core.CategoryAmount{
				{Name: "food", Amount: core.Money{Cents: 12345}},
			},
		},
	}
	s := newTestServer(api, nil, nil)

	get := func() statisticsJSON {
		req := httptest.NewRequest(http.MethodGet, "/api/statistics?year=2026&month=8", nil)
		req.Header.Set(ownerHeader, "u1")
		rec := httptest.NewRecorder()
		s.Handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		var body statisticsJSON
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		return body
	}

	first := get()
	api.summary.Total = core.Money{Cents: 99999}
	second := get()

	if first.Total.Cents != 12345 || second.Total.Cents != 12345 {
		t.Fatalf("expected cached total, got %d then %d", first.Total.Cents, second.Total.Cents)
	}
}

func TestActiveBudgetEndpoints(t *testing.T) {
	budgets := &fakeBudgetAPI{}
	s := newTestServer(nil, budgets, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/budgets/active", nil)
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != "null" {
		t.Fatalf("body = %q, want null", got)
	}

	budgets.active = &core.Budget{
		Period: "2026-08",
		Amount: core.Money{Cents: 100000},
		Type:   core.Monthly,
	}
	rec = httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/budgets/active", nil))
	var body budgetJSON
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Period != "2026-08" || body.Type != "monthly" {
		t.Fatalf("body = %+v", body)
	}
}

func TestUnreadCount(t *testing.T) {
	s := newTestServer(nil, nil, &fakeNotificationAPI{unread: 3})

	req := httptest.NewRequest(http.MethodGet, "/api/notifications/unread-count", nil)
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]int
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["unread"] != 3 {
		t.Fatalf("unread = %d, want 3", body["unread"])
	}
}

func TestHealthz(t *testing.T) {
	s := newTestServer(nil, nil, nil)

	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}
