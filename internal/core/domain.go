package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	TypeExpense TransactionType = "expense"
	TypeIncome  TransactionType = "income"
)

const (
	PaymentCash         PaymentMethod = "cash"
	PaymentCreditCard   PaymentMethod = "credit_card"
	PaymentDebitCard    PaymentMethod = "debit_card"
	PaymentBankTransfer PaymentMethod = "bank_transfer"
	PaymentOther        PaymentMethod = "other"
)

const (
	SourceManual TransactionSource = "manual"
	SourceOCR    TransactionSource = "ocr"
	SourceImport TransactionSource = "bank_import"
	SourceRecur  TransactionSource = "recurring"
)

// FallbackCategoryName is the terminal fallback category. It always exists
// and is never deleted during normal operation.
const FallbackCategoryName = "Other"

type (
	TransactionType   string
	PaymentMethod     string
	TransactionSource string

	// Category is a spending category with its keyword training vocabulary.
	// ParentID is 0 for top-level categories; children reference their
	// parent by id rather than by object graph.
	Category struct {
		ID          int64
		Name        string
		Description string
		Icon        string
		Color       string
		Keywords    []string
		ParentID    int64
		IsDefault   bool
		IsActive    bool
		CreatedAt   time.Time
	}

	Transaction struct {
		ID               int64
		Amount           decimal.Decimal
		Description      string
		MerchantName     string
		TransactionDate  time.Time
		Type             TransactionType
		PaymentMethod    PaymentMethod
		CategoryID       int64
		Confidence       float64
		Source           TransactionSource
		ReceiptImagePath string
		Notes            string
		Tags             []string
		IsVerified       bool
		CreatedAt        time.Time
		UpdatedAt        time.Time
	}

	Budget struct {
		ID         int64
		Name       string
		Amount     decimal.Decimal
		Spent      decimal.Decimal
		Period     string
		StartDate  time.Time
		EndDate    time.Time
		CategoryID int64
		AlertAt    int
		IsActive   bool
		CreatedAt  time.Time
	}

	Goal struct {
		ID            int64
		Name          string
		Description   string
		Type          string
		TargetAmount  decimal.Decimal
		CurrentAmount decimal.Decimal
		TargetDate    time.Time
		Priority      string
		Status        string
		CreatedAt     time.Time
	}

	// Insight is a stored spending-pattern observation produced by the
	// insights analyzer.
	Insight struct {
		ID          int64
		Type        string
		Title       string
		Description string
		Data        map[string]any
		Confidence  float64
		Priority    string
		Status      string
		CreatedAt   time.Time
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyDescription = errors.New("empty description")
	ErrInvalidType      = errors.New("invalid transaction type")
	ErrInvalidPayment   = errors.New("invalid payment method")
	ErrEmptyName        = errors.New("empty name")
	ErrInvalidPeriod    = errors.New("invalid period")
)

var validPeriods = map[string]bool{
	"weekly": true, "monthly": true, "quarterly": true, "yearly": true,
}

var validGoalTypes = map[string]bool{
	"savings": true, "debt_reduction": true, "spending_limit": true, "income_target": true,
}

func (t Transaction) Validate() error {
	if t.Amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(t.Description) == "" {
		return ErrEmptyDescription
	}
	if len(t.Description) > 255 {
		return errors.New("description too long (max 255 characters)")
	}
	if len(t.MerchantName) > 100 {
		return errors.New("merchant name too long (max 100 characters)")
	}
	switch t.Type {
	case TypeExpense, TypeIncome:
	default:
		return ErrInvalidType
	}
	switch t.PaymentMethod {
	case PaymentCash, PaymentCreditCard, PaymentDebitCard, PaymentBankTransfer, PaymentOther:
	default:
		return ErrInvalidPayment
	}
	if t.TransactionDate.IsZero() {
		return errors.New("transaction date cannot be zero")
	}
	return nil
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.Name) == "" {
		return ErrEmptyName
	}
	if b.Amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}
	if !validPeriods[b.Period] {
		return ErrInvalidPeriod
	}
	if b.StartDate.IsZero() {
		return errors.New("start date cannot be zero")
	}
	if !b.EndDate.IsZero() && b.EndDate.Before(b.StartDate) {
		return errors.New("end date must be after start date")
	}
	if b.AlertAt < 0 || b.AlertAt > 100 {
		return errors.New("alert threshold must be between 0 and 100 percent")
	}
	return nil
}

func (g Goal) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return ErrEmptyName
	}
	if !validGoalTypes[g.Type] {
		return errors.New("invalid goal type")
	}
	if g.TargetAmount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}
	if g.CurrentAmount.IsNegative() {
		return errors.New("current amount cannot be negative")
	}
	return nil
}
