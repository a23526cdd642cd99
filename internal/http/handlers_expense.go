package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"budgetwatch/internal/core"
)

type expenseJSON struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Amount    core.Money `json:"amount"`
	Category  string     `json:"category"`
	CreatedAt time.Time  `json:"created_at"`
	OwnerID   string     `json:"owner_id"`
}

type notificationJSON struct {
	ID         string    `json:"id"`
	Message    string    `json:"message"`
	Type       string    `json:"type"`
	BudgetType string    `json:"budget_type,omitempty"`
	Threshold  string    `json:"threshold,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	Read       bool      `json:"read"`
}

type createExpenseRequest struct {
	Name      string     `json:"name"`
	Amount    core.Money `json:"amount"`
	Category  string     `json:"category"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

type createExpenseResponse struct {
	Expense      expenseJSON       `json:"expense"`
	Notification *notificationJSON `json:"notification,omitempty"`
}

type gateJSON struct {
	Allowed        bool    `json:"allowed"`
	WouldBePercent float64 `json:"would_be_percent"`
}

func toExpenseJSON(e core.Expense) expenseJSON {
	return expenseJSON{
		ID:        e.ID,
		Name:      e.Name,
		Amount:    e.Amount,
		Category:  e.Category,
		CreatedAt: e.CreatedAt,
		OwnerID:   e.OwnerID,
	}
}

func toNotificationJSON(n core.Notification) notificationJSON {
	return notificationJSON{
		ID:         n.ID,
		Message:    n.Message,
		Type:       string(n.Type),
		BudgetType: string(n.BudgetType),
		Threshold:  string(n.Threshold),
		CreatedAt:  n.CreatedAt,
		Read:       n.Read,
	}
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	owner := ownerFromRequest(r)
	if owner == "" {
		writeError(w, core.ErrUnauthenticated)
		return
	}

	list, err := s.expenses.ListExpenses(r.Context(), owner)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]expenseJSON, 0, len(list))
	for _, e := range list {
		out = append(out, toExpenseJSON(e))
	}
	writeJSON(w, http.StatusOK, out)
}

// handleCreateExpense runs the pre-expense gate before persisting; a
// blocked submission returns 409 with the projected percentage unless
// the client explicitly overrides.
func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	owner := ownerFromRequest(r)
	if owner == "" {
		writeError(w, core.ErrUnauthenticated)
		return
	}

	var req createExpenseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	override, _ := strconv.ParseBool(r.URL.Query().Get("override"))
	if !override {
		gate, err := s.expenses.PrecheckExpense(r.Context(), owner, req.Amount)
		if err != nil {
			writeError(w, err)
			return
		}
		if !gate.Allowed {
			writeJSON(w, http.StatusConflict, gateJSON{Allowed: false, WouldBePercent: gate.WouldBePercent})
			return
		}
	}

	e := core.Expense{
		Name:     req.Name,
		Amount:   req.Amount,
		Category: req.Category,
		OwnerID:  owner,
	}
	if req.CreatedAt != nil {
		e.CreatedAt = *req.CreatedAt
	}

	stored, alert, err := s.expenses.RecordExpenseAndAlert(r.Context(), e)
	if err != nil {
		writeError(w, err)
		return
	}
	s.statsCache.Purge()

	resp := createExpenseResponse{Expense: toExpenseJSON(stored)}
	if alert != nil {
		n := toNotificationJSON(*alert)
		resp.Notification = &n
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handlePrecheckExpense(w http.ResponseWriter, r *http.Request) {
	owner := ownerFromRequest(r)
	if owner == "" {
		writeError(w, core.ErrUnauthenticated)
		return
	}

	var req struct {
		Amount core.Money `json:"amount"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	gate, err := s.expenses.PrecheckExpense(r.Context(), owner, req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, gateJSON{Allowed: gate.Allowed, WouldBePercent: gate.WouldBePercent})
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	owner := ownerFromRequest(r)
	if owner == "" {
		writeError(w, core.ErrUnauthenticated)
		return
	}

	id := chi.URLParam(r, "id")
	if err := s.expenses.DeleteExpense(r.Context(), id, owner); err != nil {
		writeError(w, err)
		return
	}
	s.statsCache.Purge()
	writeJSON(w, http.StatusNoContent, nil)
}

type statisticsJSON struct {
	Year       int                `json:"year"`
	Month      int                `json:"month"`
	Total      core.Money         `json:"total"`
	ByCategory []categoryAmountJSON `json:"by_category"`
}

type categoryAmountJSON struct {
	Name   string     `json:"name"`
	Amount core.Money `json:"amount"`
}

func (s *Server) handleStatistics(w http.ResponseWriter, r *http.Request) {
	owner := ownerFromRequest(r)
	if owner == "" {
		writeError(w, core.ErrUnauthenticated)
		return
	}

	year, month := parseYearMonth(r)
	cacheKey := owner + "/" + strconv.Itoa(year) + "-" + strconv.Itoa(month)

	summary, ok := s.statsCache.Get(cacheKey)
	if !ok {
		var err error
		summary, err = s.expenses.MonthSummary(r.Context(), owner, year, month)
		if err != nil {
			writeError(w, err)
			return
		}
		s.statsCache.Set(cacheKey, summary)
	}

	out := statisticsJSON{
		Year:       summary.Year,
		Month:      summary.Month,
		Total:      summary.Total,
		ByCategory: make([]categoryAmountJSON, 0, len(summary.ByCategory)),
	}
	for _, c := range summary.ByCategory {
		out.ByCategory = append(out.ByCategory, categoryAmountJSON{Name: c.Name, Amount: c.Amount})
	}
	writeJSON(w, http.StatusOK, out)
}
