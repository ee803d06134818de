package http

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

type budgetRequest struct {
	Name       string          `json:"name"`
	Amount     decimal.Decimal `json:"amount"`
	Period     string          `json:"period"`
	StartDate  string          `json:"startDate"`
	EndDate    string          `json:"endDate"`
	CategoryID int64           `json:"categoryId"`
	AlertAt    int             `json:"alertAt"`
}

type budgetResponse struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Amount     string `json:"amount"`
	Spent      string `json:"spent"`
	Period     string `json:"period"`
	StartDate  string `json:"startDate"`
	EndDate    string `json:"endDate,omitempty"`
	CategoryID int64  `json:"categoryId,omitempty"`
	AlertAt    int    `json:"alertAt"`
	CreatedAt  string `json:"createdAt"`
}

func toBudgetResponse(b core.Budget) budgetResponse {
	resp := budgetResponse{
		ID:         b.ID,
		Name:       b.Name,
		Amount:     b.Amount.StringFixed(2),
		Spent:      b.Spent.StringFixed(2),
		Period:     b.Period,
		StartDate:  b.StartDate.UTC().Format("2006-01-02"),
		CategoryID: b.CategoryID,
		AlertAt:    b.AlertAt,
		CreatedAt:  b.CreatedAt.UTC().Format(time.RFC3339),
	}
	if !b.EndDate.IsZero() {
		resp.EndDate = b.EndDate.UTC().Format("2006-01-02")
	}
	return resp
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	b := core.Budget{
		Name:       sanitizeInput(req.Name),
		Amount:     req.Amount,
		Spent:      decimal.Zero,
		Period:     strings.ToLower(strings.TrimSpace(req.Period)),
		CategoryID: req.CategoryID,
		AlertAt:    req.AlertAt,
		IsActive:   true,
	}
	if b.AlertAt == 0 {
		b.AlertAt = 80
	}
	if req.StartDate == "" {
		b.StartDate = time.Now()
	} else if parsed, err := time.Parse("2006-01-02", req.StartDate); err == nil {
		b.StartDate = parsed
	} else {
		writeError(w, http.StatusUnprocessableEntity, "startDate must be YYYY-MM-DD")
		return
	}
	if req.EndDate != "" {
		parsed, err := time.Parse("2006-01-02", req.EndDate)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "endDate must be YYYY-MM-DD")
			return
		}
		b.EndDate = parsed
	}

	if err := b.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	id, err := s.store.CreateBudget(r.Context(), b)
	if err != nil {
		slog.ErrorContext(r.Context(), "Create budget failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save budget")
		return
	}
	b.ID = id

	writeJSON(w, http.StatusCreated, toBudgetResponse(b))
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	budgets, err := s.store.ListBudgets(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List budgets failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list budgets")
		return
	}

	items := make([]budgetResponse, 0, len(budgets))
	for _, b := range budgets {
		items = append(items, toBudgetResponse(b))
	}
	writeJSON(w, http.StatusOK, map[string]any{"budgets": items})
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.store.DeleteBudget(r.Context(), id); err != nil {
		if strings.Contains(err.Error(), "not found") {
			writeError(w, http.StatusNotFound, "budget not found")
			return
		}
		slog.ErrorContext(r.Context(), "Delete budget failed", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete budget")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
