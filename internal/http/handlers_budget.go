package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"budgetwatch/internal/core"
)

type budgetJSON struct {
	Period    string     `json:"period"`
	Amount    core.Money `json:"amount"`
	Type      string     `json:"type"`
	CreatedAt time.Time  `json:"created_at"`
}

func toBudgetJSON(b core.Budget) budgetJSON {
	return budgetJSON{
		Period:    b.Period,
		Amount:    b.Amount,
		Type:      string(b.Type),
		CreatedAt: b.CreatedAt,
	}
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	list, err := s.budgets.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]budgetJSON, 0, len(list))
	for _, b := range list {
		out = append(out, toBudgetJSON(b))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleUpsertBudget(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Period string     `json:"period"`
		Amount core.Money `json:"amount"`
		Type   string     `json:"type"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	b := core.Budget{
		Period: req.Period,
		Amount: req.Amount,
		Type:   core.BudgetType(req.Type),
	}
	if err := s.budgets.Upsert(r.Context(), b); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBudgetJSON(b))
}

func (s *Server) handleActiveBudget(w http.ResponseWriter, r *http.Request) {
	active, err := s.budgets.Active(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if active == nil {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	writeJSON(w, http.StatusOK, toBudgetJSON(*active))
}

func (s *Server) handleActivateBudget(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Period string `json:"period"`
		Type   string `json:"type"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	if err := s.budgets.Activate(r.Context(), req.Period, core.BudgetType(req.Type)); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	period := chi.URLParam(r, "period")
	btype := core.BudgetType(chi.URLParam(r, "type"))

	if err := s.budgets.Delete(r.Context(), period, btype); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}
