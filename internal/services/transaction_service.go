package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/amqp"
	"fintrack/internal/categorize"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/receipt"
	"fintrack/internal/storage"
)

// ErrNoAmount is returned when a receipt scan could not find any amount.
var ErrNoAmount = errors.New("no amount found on receipt")

// ErrNotFound is returned when a requested transaction does not exist.
var ErrNotFound = errors.New("transaction not found")

// TransactionService orchestrates transaction operations across SQLite,
// the categorizer, the receipt scanner, and AMQP.
type TransactionService struct {
	store       *storage.Repository
	categorizer *categorize.Service
	scanner     *receipt.Scanner
	amqpClient  *amqp.Client
}

func NewTransactionService(store *storage.Repository, categorizer *categorize.Service, scanner *receipt.Scanner, amqpClient *amqp.Client) *TransactionService {
	return &TransactionService{
		store:       store,
		categorizer: categorizer,
		scanner:     scanner,
		amqpClient:  amqpClient,
	}
}

// Create validates and saves a transaction. When no category is given the
// classifier picks one; its confidence is recorded alongside.
func (s *TransactionService) Create(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	if t.CategoryID == 0 {
		result := s.categorizer.Categorize(ctx, t.Description, t.MerchantName, t.Amount)
		t.CategoryID = result.CategoryID
		t.Confidence = result.Confidence
		slog.InfoContext(ctx, "Transaction auto-categorized",
			applog.NewFields().
				WithComponent(applog.ComponentCategorizer).
				WithCategorization(result.CategoryID, result.CategoryName, result.Confidence).
				ToSlice()...)
	}
	if t.Source == "" {
		t.Source = core.SourceManual
	}

	id, err := s.store.CreateTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}
	t.ID = id

	// Publish async event (non-blocking). The transaction is saved locally
	// either way.
	s.publishEvent(ctx, id, amqp.ActionCreated)

	return t, nil
}

// CreateFromReceipt runs OCR on a receipt image, extracts the transaction
// fields, categorizes, and saves. The extraction is always returned so
// callers can surface what was (or was not) read off the receipt.
func (s *TransactionService) CreateFromReceipt(ctx context.Context, imagePath string, paymentMethod core.PaymentMethod) (core.Transaction, core.ReceiptExtraction, error) {
	extraction := s.scanner.Scan(ctx, imagePath)
	if extraction.Amount == "" {
		return core.Transaction{}, extraction, ErrNoAmount
	}

	amount, err := decimal.NewFromString(extraction.Amount)
	if err != nil {
		return core.Transaction{}, extraction, fmt.Errorf("parse extracted amount: %w", err)
	}

	date := time.Now()
	if extraction.Date != "" {
		if parsed, err := time.Parse("2006-01-02", extraction.Date); err == nil {
			date = parsed
		}
	}

	if paymentMethod == "" {
		paymentMethod = core.PaymentOther
	}

	t := core.Transaction{
		Amount:           amount,
		Description:      extraction.Description,
		MerchantName:     extraction.MerchantName,
		TransactionDate:  date,
		Type:             core.TypeExpense,
		PaymentMethod:    paymentMethod,
		Source:           core.SourceOCR,
		ReceiptImagePath: imagePath,
	}

	created, err := s.Create(ctx, t)
	if err != nil {
		return core.Transaction{}, extraction, err
	}
	return created, extraction, nil
}

// Get returns one transaction.
func (s *TransactionService) Get(ctx context.Context, id int64) (*core.Transaction, error) {
	t, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	if t == nil {
		return nil, ErrNotFound
	}
	return t, nil
}

// Update replaces a transaction's mutable fields. When the caller moved the
// transaction into a different category the correction is fed back into the
// classifier so similar transactions land there next time.
func (s *TransactionService) Update(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	existing, err := s.store.GetTransaction(ctx, t.ID)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("load transaction: %w", err)
	}
	if existing == nil {
		return core.Transaction{}, ErrNotFound
	}

	if t.CategoryID != 0 && t.CategoryID != existing.CategoryID {
		if err := s.categorizer.LearnFromCorrection(ctx, t.Description, t.MerchantName, t.CategoryID); err != nil {
			slog.ErrorContext(ctx, "Failed to learn from correction",
				applog.NewFields().
					WithComponent(applog.ComponentCategorizer).
					WithOperation("learn").
					WithError(err).
					WithTransaction(t.ID, t.MerchantName, t.Amount.StringFixed(2)).
					ToSlice()...)
			// The update itself still proceeds.
		}
		t.IsVerified = true
		t.Confidence = 1.0
	}

	if err := s.store.UpdateTransaction(ctx, t); err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}

	s.publishEvent(ctx, t.ID, amqp.ActionUpdated)
	return t, nil
}

// Delete soft deletes a transaction.
func (s *TransactionService) Delete(ctx context.Context, id int64) error {
	if err := s.store.SoftDeleteTransaction(ctx, id); err != nil {
		return err
	}
	s.publishEvent(ctx, id, amqp.ActionDeleted)
	return nil
}

// List returns one page of transactions plus the total match count.
func (s *TransactionService) List(ctx context.Context, filter storage.TransactionFilter) ([]core.Transaction, int, error) {
	return s.store.ListTransactions(ctx, filter)
}

// Stats computes the period summary over all matching transactions.
func (s *TransactionService) Stats(ctx context.Context, start, end time.Time) (core.SummaryStats, error) {
	transactions, _, err := s.store.ListTransactions(ctx, storage.TransactionFilter{
		StartDate: start,
		EndDate:   end,
		Limit:     10000,
	})
	if err != nil {
		return core.SummaryStats{}, fmt.Errorf("load transactions for stats: %w", err)
	}

	categories, err := s.store.ActiveCategories(ctx)
	if err != nil {
		return core.SummaryStats{}, fmt.Errorf("load categories for stats: %w", err)
	}
	categoryByID := make(map[int64]core.Category, len(categories))
	for _, c := range categories {
		categoryByID[c.ID] = c
	}

	stats := core.SummaryStats{
		TotalTransactions: len(transactions),
		TotalExpenses:     decimal.Zero,
		TotalIncome:       decimal.Zero,
		NetAmount:         decimal.Zero,
		AvgAmount:         decimal.Zero,
	}

	byCategory := make(map[int64]*core.CategoryBreakdown)
	byMerchant := make(map[string]*core.MerchantCount)
	total := decimal.Zero

	for _, t := range transactions {
		total = total.Add(t.Amount)
		switch t.Type {
		case core.TypeIncome:
			stats.TotalIncome = stats.TotalIncome.Add(t.Amount)
		default:
			stats.TotalExpenses = stats.TotalExpenses.Add(t.Amount)

			b, ok := byCategory[t.CategoryID]
			if !ok {
				b = &core.CategoryBreakdown{CategoryID: t.CategoryID, Amount: decimal.Zero}
				if c, known := categoryByID[t.CategoryID]; known {
					b.Name, b.Icon, b.Color = c.Name, c.Icon, c.Color
				} else {
					b.Name = "Uncategorized"
				}
				byCategory[t.CategoryID] = b
			}
			b.Amount = b.Amount.Add(t.Amount)
			b.Count++
		}

		if t.MerchantName != "" {
			m, ok := byMerchant[t.MerchantName]
			if !ok {
				m = &core.MerchantCount{Merchant: t.MerchantName, Amount: decimal.Zero}
				byMerchant[t.MerchantName] = m
			}
			m.Count++
			m.Amount = m.Amount.Add(t.Amount)
		}
	}

	stats.NetAmount = stats.TotalIncome.Sub(stats.TotalExpenses)
	if len(transactions) > 0 {
		stats.AvgAmount = total.Div(decimal.NewFromInt(int64(len(transactions)))).Round(2)
	}

	for _, b := range byCategory {
		stats.ByCategory = append(stats.ByCategory, *b)
	}
	sort.Slice(stats.ByCategory, func(i, j int) bool {
		return stats.ByCategory[i].Amount.GreaterThan(stats.ByCategory[j].Amount)
	})

	for _, m := range byMerchant {
		stats.TopMerchants = append(stats.TopMerchants, *m)
	}
	sort.Slice(stats.TopMerchants, func(i, j int) bool {
		if stats.TopMerchants[i].Count != stats.TopMerchants[j].Count {
			return stats.TopMerchants[i].Count > stats.TopMerchants[j].Count
		}
		return stats.TopMerchants[i].Merchant < stats.TopMerchants[j].Merchant
	})
	if len(stats.TopMerchants) > 5 {
		stats.TopMerchants = stats.TopMerchants[:5]
	}

	return stats, nil
}

func (s *TransactionService) publishEvent(ctx context.Context, id int64, action string) {
	if s.amqpClient == nil {
		return
	}
	if err := s.amqpClient.PublishTransactionEvent(ctx, id, action); err != nil {
		slog.ErrorContext(ctx, "Failed to publish transaction event",
			"id", id, "action", action, "error", err)
	}
}

// Close closes storage and AMQP connections
func (s *TransactionService) Close() error {
	var errs []error

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close transaction service: %v", errs)
	}

	return nil
}
