package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

type transactionRequest struct {
	Amount          decimal.Decimal `json:"amount"`
	Description     string          `json:"description"`
	MerchantName    string          `json:"merchantName"`
	TransactionDate string          `json:"transactionDate"`
	Type            string          `json:"type"`
	PaymentMethod   string          `json:"paymentMethod"`
	CategoryID      int64           `json:"categoryId"`
	Notes           string          `json:"notes"`
	Tags            []string        `json:"tags"`
	IsVerified      bool            `json:"isVerified"`
}

type transactionResponse struct {
	ID               int64    `json:"id"`
	Amount           string   `json:"amount"`
	Description      string   `json:"description"`
	MerchantName     string   `json:"merchantName,omitempty"`
	TransactionDate  string   `json:"transactionDate"`
	Type             string   `json:"type"`
	PaymentMethod    string   `json:"paymentMethod"`
	CategoryID       int64    `json:"categoryId,omitempty"`
	Confidence       float64  `json:"confidence,omitempty"`
	Source           string   `json:"source"`
	ReceiptImagePath string   `json:"receiptImagePath,omitempty"`
	Notes            string   `json:"notes,omitempty"`
	Tags             []string `json:"tags,omitempty"`
	IsVerified       bool     `json:"isVerified"`
	CreatedAt        string   `json:"createdAt"`
	UpdatedAt        string   `json:"updatedAt"`
}

func toTransactionResponse(t core.Transaction) transactionResponse {
	return transactionResponse{
		ID:               t.ID,
		Amount:           t.Amount.StringFixed(2),
		Description:      t.Description,
		MerchantName:     t.MerchantName,
		TransactionDate:  t.TransactionDate.UTC().Format(time.RFC3339),
		Type:             string(t.Type),
		PaymentMethod:    string(t.PaymentMethod),
		CategoryID:       t.CategoryID,
		Confidence:       t.Confidence,
		Source:           string(t.Source),
		ReceiptImagePath: t.ReceiptImagePath,
		Notes:            t.Notes,
		Tags:             t.Tags,
		IsVerified:       t.IsVerified,
		CreatedAt:        t.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:        t.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func (req transactionRequest) toTransaction() (core.Transaction, error) {
	t := core.Transaction{
		Amount:        req.Amount,
		Description:   sanitizeInput(req.Description),
		MerchantName:  sanitizeInput(req.MerchantName),
		Type:          core.TransactionType(req.Type),
		PaymentMethod: core.PaymentMethod(req.PaymentMethod),
		CategoryID:    req.CategoryID,
		Notes:         sanitizeInput(req.Notes),
		Tags:          req.Tags,
		IsVerified:    req.IsVerified,
	}
	if t.Type == "" {
		t.Type = core.TypeExpense
	}
	if t.PaymentMethod == "" {
		t.PaymentMethod = core.PaymentCash
	}
	if req.TransactionDate == "" {
		t.TransactionDate = time.Now()
	} else {
		parsed, err := time.Parse("2006-01-02", req.TransactionDate)
		if err != nil {
			parsed, err = time.Parse(time.RFC3339, req.TransactionDate)
		}
		if err != nil {
			return core.Transaction{}, errors.New("transactionDate must be YYYY-MM-DD or RFC 3339")
		}
		t.TransactionDate = parsed
	}
	return t, nil
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	t, err := req.toTransaction()
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	created, err := s.transactions.Create(r.Context(), t)
	if err != nil {
		if isValidationError(err) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		slog.ErrorContext(r.Context(), "Create transaction failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save transaction")
		return
	}

	writeJSON(w, http.StatusCreated, toTransactionResponse(created))
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	t, err := s.transactions.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			writeError(w, http.StatusNotFound, "transaction not found")
			return
		}
		slog.ErrorContext(r.Context(), "Get transaction failed", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load transaction")
		return
	}

	writeJSON(w, http.StatusOK, toTransactionResponse(*t))
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	t, err := req.toTransaction()
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	t.ID = id

	updated, err := s.transactions.Update(r.Context(), t)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotFound):
			writeError(w, http.StatusNotFound, "transaction not found")
		case isValidationError(err):
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		default:
			slog.ErrorContext(r.Context(), "Update transaction failed", "id", id, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to update transaction")
		}
		return
	}

	writeJSON(w, http.StatusOK, toTransactionResponse(updated))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.transactions.Delete(r.Context(), id); err != nil {
		if strings.Contains(err.Error(), "not found") {
			writeError(w, http.StatusNotFound, "transaction not found")
			return
		}
		slog.ErrorContext(r.Context(), "Delete transaction failed", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete transaction")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	filter := storage.TransactionFilter{Page: 1, Limit: 50}
	filter.StartDate, filter.EndDate = parseDateRange(r)

	q := r.URL.Query()
	if v := q.Get("categoryId"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			filter.CategoryID = id
		}
	}
	if v := q.Get("type"); v != "" {
		filter.Type = core.TransactionType(v)
	}
	filter.Search = sanitizeInput(q.Get("search"))
	if v := q.Get("page"); v != "" {
		if p, err := strconv.Atoi(v); err == nil && p > 0 {
			filter.Page = p
		}
	}
	if v := q.Get("limit"); v != "" {
		if l, err := strconv.Atoi(v); err == nil && l > 0 && l <= 500 {
			filter.Limit = l
		}
	}

	transactions, total, err := s.transactions.List(r.Context(), filter)
	if err != nil {
		slog.ErrorContext(r.Context(), "List transactions failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list transactions")
		return
	}

	items := make([]transactionResponse, 0, len(transactions))
	for _, t := range transactions {
		items = append(items, toTransactionResponse(t))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"transactions": items,
		"pagination": map[string]int{
			"page":  filter.Page,
			"limit": filter.Limit,
			"total": total,
			"pages": (total + filter.Limit - 1) / filter.Limit,
		},
	})
}

func (s *Server) handleTransactionStats(w http.ResponseWriter, r *http.Request) {
	start, end := parseDateRange(r)
	if start.IsZero() {
		start = periodStart(r.URL.Query().Get("period"), time.Now().UTC())
	}

	stats, err := s.transactions.Stats(r.Context(), start, end)
	if err != nil {
		slog.ErrorContext(r.Context(), "Transaction stats failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to compute stats")
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// periodStart maps a named period to its start date. An explicit date range
// takes precedence; unknown or empty periods mean the current month.
func periodStart(period string, now time.Time) time.Time {
	switch period {
	case "week":
		return now.AddDate(0, 0, -7)
	case "quarter":
		return now.AddDate(0, -3, 0)
	case "year":
		return now.AddDate(-1, 0, 0)
	default:
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	}
}

func isValidationError(err error) bool {
	return errors.Is(err, core.ErrInvalidAmount) ||
		errors.Is(err, core.ErrEmptyDescription) ||
		errors.Is(err, core.ErrInvalidType) ||
		errors.Is(err, core.ErrInvalidPayment) ||
		errors.Is(err, core.ErrEmptyName) ||
		errors.Is(err, core.ErrInvalidPeriod) ||
		strings.Contains(err.Error(), "must be") ||
		strings.Contains(err.Error(), "too long") ||
		strings.Contains(err.Error(), "cannot be")
}
