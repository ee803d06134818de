package insights

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
)

func expense(day time.Time, merchant string, amount int64, categoryID int64) core.Transaction {
	return core.Transaction{
		Amount:          decimal.NewFromInt(amount),
		MerchantName:    merchant,
		TransactionDate: day,
		Type:            core.TypeExpense,
		CategoryID:      categoryID,
	}
}

func TestAnalyzer_TooFewTransactions(t *testing.T) {
	a := NewAnalyzer()

	assert.Nil(t, a.Analyze(nil))

	day := time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC)
	assert.Nil(t, a.Analyze([]core.Transaction{
		expense(day, "Cafe", 5, 1),
		expense(day, "Cafe", 5, 1),
	}))
}

func TestAnalyzer_IncomeIgnored(t *testing.T) {
	a := NewAnalyzer()

	day := time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC)
	transactions := make([]core.Transaction, 0, 6)
	for i := 0; i < 6; i++ {
		tx := expense(day, "Employer", 1000, 1)
		tx.Type = core.TypeIncome
		transactions = append(transactions, tx)
	}
	assert.Nil(t, a.Analyze(transactions))
}

func TestAnalyzer_SpendingPatterns(t *testing.T) {
	a := NewAnalyzer()

	// Monday, 4 March 2024. Five morning purchases on a Monday plus one
	// Tuesday evening outlier.
	monday := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	tuesday := time.Date(2024, 3, 5, 20, 0, 0, 0, time.UTC)

	transactions := []core.Transaction{
		expense(monday, "Bean Bar", 4, 1),
		expense(monday, "Bean Bar", 5, 1),
		expense(monday, "Bean Bar", 6, 1),
		expense(monday, "Grocer", 40, 2),
		expense(monday, "Grocer", 35, 2),
		expense(tuesday, "Cinema", 15, 3),
	}

	insights := a.Analyze(transactions)
	require.NotEmpty(t, insights)

	byType := make(map[string][]core.Insight)
	for _, in := range insights {
		byType[in.Type] = append(byType[in.Type], in)
	}

	require.Len(t, byType["spending_pattern"], 2)
	dayInsight := byType["spending_pattern"][0]
	assert.Contains(t, dayInsight.Title, "Monday")
	assert.Equal(t, "Monday", dayInsight.Data["day"])
	assert.Equal(t, 5, dayInsight.Data["count"])

	slotInsight := byType["spending_pattern"][1]
	assert.Equal(t, "Morning", slotInsight.Data["slot"])

	require.NotEmpty(t, byType["merchant_frequency"])
	merchant := byType["merchant_frequency"][0]
	assert.Equal(t, "Bean Bar", merchant.Data["merchant"])
	assert.Equal(t, 3, merchant.Data["count"])
	assert.Equal(t, "15.00", merchant.Data["total"])

	require.Len(t, byType["category_concentration"], 1)
	top := byType["category_concentration"][0]
	assert.Equal(t, int64(2), top.Data["category_id"])
	assert.Equal(t, "75.00", top.Data["total"])
}

func TestAnalyzer_MerchantThreshold(t *testing.T) {
	a := NewAnalyzer()

	day := time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC)
	transactions := []core.Transaction{
		expense(day, "One", 1, 1),
		expense(day, "Two", 1, 1),
		expense(day, "Three", 1, 1),
		expense(day, "Four", 1, 1),
		expense(day, "Five", 1, 1),
	}

	for _, in := range a.Analyze(transactions) {
		assert.NotEqual(t, "merchant_frequency", in.Type)
	}
}
