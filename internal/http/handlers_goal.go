package http

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

type goalRequest struct {
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Type          string          `json:"type"`
	TargetAmount  decimal.Decimal `json:"targetAmount"`
	CurrentAmount decimal.Decimal `json:"currentAmount"`
	TargetDate    string          `json:"targetDate"`
	Priority      string          `json:"priority"`
}

type goalResponse struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description,omitempty"`
	Type          string `json:"type"`
	TargetAmount  string `json:"targetAmount"`
	CurrentAmount string `json:"currentAmount"`
	TargetDate    string `json:"targetDate,omitempty"`
	Priority      string `json:"priority"`
	Status        string `json:"status"`
	CreatedAt     string `json:"createdAt"`
}

func toGoalResponse(g core.Goal) goalResponse {
	resp := goalResponse{
		ID:            g.ID,
		Name:          g.Name,
		Description:   g.Description,
		Type:          g.Type,
		TargetAmount:  g.TargetAmount.StringFixed(2),
		CurrentAmount: g.CurrentAmount.StringFixed(2),
		Priority:      g.Priority,
		Status:        g.Status,
		CreatedAt:     g.CreatedAt.UTC().Format(time.RFC3339),
	}
	if !g.TargetDate.IsZero() {
		resp.TargetDate = g.TargetDate.UTC().Format("2006-01-02")
	}
	return resp
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	var req goalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	g := core.Goal{
		Name:          sanitizeInput(req.Name),
		Description:   sanitizeInput(req.Description),
		Type:          strings.ToLower(strings.TrimSpace(req.Type)),
		TargetAmount:  req.TargetAmount,
		CurrentAmount: req.CurrentAmount,
		Priority:      strings.ToLower(strings.TrimSpace(req.Priority)),
		Status:        "active",
	}
	if g.Priority == "" {
		g.Priority = "medium"
	}
	if req.TargetDate != "" {
		parsed, err := time.Parse("2006-01-02", req.TargetDate)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "targetDate must be YYYY-MM-DD")
			return
		}
		g.TargetDate = parsed
	}

	if err := g.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	id, err := s.store.CreateGoal(r.Context(), g)
	if err != nil {
		slog.ErrorContext(r.Context(), "Create goal failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save goal")
		return
	}
	g.ID = id

	writeJSON(w, http.StatusCreated, toGoalResponse(g))
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	goals, err := s.store.ListGoals(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List goals failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list goals")
		return
	}

	items := make([]goalResponse, 0, len(goals))
	for _, g := range goals {
		items = append(items, toGoalResponse(g))
	}
	writeJSON(w, http.StatusOK, map[string]any{"goals": items})
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.store.DeleteGoal(r.Context(), id); err != nil {
		if strings.Contains(err.Error(), "not found") {
			writeError(w, http.StatusNotFound, "goal not found")
			return
		}
		slog.ErrorContext(r.Context(), "Delete goal failed", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete goal")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
