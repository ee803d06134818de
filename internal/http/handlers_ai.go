package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/categorize"
	"fintrack/internal/core"
)

type categorizeRequest struct {
	Description  string          `json:"description"`
	MerchantName string          `json:"merchantName"`
	Amount       decimal.Decimal `json:"amount"`
}

func (s *Server) handleCategorize(w http.ResponseWriter, r *http.Request) {
	var req categorizeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Description) == "" && strings.TrimSpace(req.MerchantName) == "" {
		writeError(w, http.StatusUnprocessableEntity, "description or merchantName is required")
		return
	}

	result := s.categorizer.Categorize(r.Context(),
		sanitizeInput(req.Description), sanitizeInput(req.MerchantName), req.Amount)
	writeJSON(w, http.StatusOK, result)
}

type feedbackRequest struct {
	Description  string `json:"description"`
	MerchantName string `json:"merchantName"`
	CategoryID   int64  `json:"categoryId"`
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.CategoryID <= 0 {
		writeError(w, http.StatusUnprocessableEntity, "categoryId is required")
		return
	}
	if strings.TrimSpace(req.Description) == "" && strings.TrimSpace(req.MerchantName) == "" {
		writeError(w, http.StatusUnprocessableEntity, "description or merchantName is required")
		return
	}

	err := s.categorizer.LearnFromCorrection(r.Context(),
		sanitizeInput(req.Description), sanitizeInput(req.MerchantName), req.CategoryID)
	if err != nil {
		if errors.Is(err, categorize.ErrUnknownCategory) {
			writeError(w, http.StatusNotFound, "category not found")
			return
		}
		slog.ErrorContext(r.Context(), "Learn from correction failed",
			"category_id", req.CategoryID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to record feedback")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "learned"})
}

type insightResponse struct {
	ID          int64          `json:"id"`
	Type        string         `json:"type"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Data        map[string]any `json:"data"`
	Confidence  float64        `json:"confidence"`
	Priority    string         `json:"priority"`
	CreatedAt   string         `json:"createdAt"`
}

func toInsightResponse(in core.Insight) insightResponse {
	return insightResponse{
		ID:          in.ID,
		Type:        in.Type,
		Title:       in.Title,
		Description: in.Description,
		Data:        in.Data,
		Confidence:  in.Confidence,
		Priority:    in.Priority,
		CreatedAt:   in.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if l, err := strconv.Atoi(v); err == nil && l > 0 && l <= 50 {
			limit = l
		}
	}

	insights, err := s.store.ActiveInsights(r.Context(), limit)
	if err != nil {
		slog.ErrorContext(r.Context(), "List insights failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list insights")
		return
	}

	items := make([]insightResponse, 0, len(insights))
	for _, in := range insights {
		items = append(items, toInsightResponse(in))
	}
	writeJSON(w, http.StatusOK, map[string]any{"insights": items})
}
