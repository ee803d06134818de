package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewRepository(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func seedCategory(t *testing.T, repo *Repository, name string, keywords []string) core.Category {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, repo.EnsureCategory(ctx, core.Category{
		Name:     name,
		Icon:     "tag",
		Color:    "#000000",
		Keywords: keywords,
		IsActive: true,
	}))
	c, err := repo.CategoryByName(ctx, name)
	require.NoError(t, err)
	require.NotNil(t, c)
	return *c
}

func TestRepository_Categories(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	food := seedCategory(t, repo, "Food & Dining", []string{"pizza", "cafe"})
	seedCategory(t, repo, "Transportation", []string{"uber"})

	t.Run("ensure is idempotent", func(t *testing.T) {
		require.NoError(t, repo.EnsureCategory(ctx, core.Category{
			Name: "Food & Dining", Keywords: []string{"other"}, IsActive: true,
		}))
		c, err := repo.CategoryByName(ctx, "Food & Dining")
		require.NoError(t, err)
		assert.Equal(t, []string{"pizza", "cafe"}, c.Keywords)
	})

	t.Run("by id", func(t *testing.T) {
		c, err := repo.CategoryByID(ctx, food.ID)
		require.NoError(t, err)
		require.NotNil(t, c)
		assert.Equal(t, "Food & Dining", c.Name)
	})

	t.Run("missing id returns nil", func(t *testing.T) {
		c, err := repo.CategoryByID(ctx, 9999)
		require.NoError(t, err)
		assert.Nil(t, c)
	})

	t.Run("active list", func(t *testing.T) {
		categories, err := repo.ActiveCategories(ctx)
		require.NoError(t, err)
		assert.Len(t, categories, 2)
	})

	t.Run("append keywords dedupes", func(t *testing.T) {
		require.NoError(t, repo.AppendCategoryKeywords(ctx, food.ID, []string{"pizza", "burger"}))
		c, err := repo.CategoryByID(ctx, food.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"pizza", "cafe", "burger"}, c.Keywords)
	})
}

func testTransaction(categoryID int64) core.Transaction {
	return core.Transaction{
		Amount:          decimal.NewFromFloat(12.50),
		Description:     "Lunch at cafe",
		MerchantName:    "Bean Bar",
		TransactionDate: time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC),
		Type:            core.TypeExpense,
		PaymentMethod:   core.PaymentCash,
		CategoryID:      categoryID,
		Confidence:      0.92,
		Source:          core.SourceManual,
		Tags:            []string{"work"},
	}
}

func TestRepository_TransactionLifecycle(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	food := seedCategory(t, repo, "Food & Dining", []string{"cafe"})

	id, err := repo.CreateTransaction(ctx, testTransaction(food.ID))
	require.NoError(t, err)
	require.Positive(t, id)

	t.Run("get", func(t *testing.T) {
		got, err := repo.GetTransaction(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "Lunch at cafe", got.Description)
		assert.True(t, got.Amount.Equal(decimal.NewFromFloat(12.50)))
		assert.Equal(t, food.ID, got.CategoryID)
		assert.Equal(t, 0.92, got.Confidence)
		assert.Equal(t, []string{"work"}, got.Tags)
	})

	t.Run("update", func(t *testing.T) {
		got, err := repo.GetTransaction(ctx, id)
		require.NoError(t, err)
		got.Description = "Team lunch"
		got.IsVerified = true
		require.NoError(t, repo.UpdateTransaction(ctx, *got))

		updated, err := repo.GetTransaction(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "Team lunch", updated.Description)
		assert.True(t, updated.IsVerified)
	})

	t.Run("soft delete hides the row", func(t *testing.T) {
		require.NoError(t, repo.SoftDeleteTransaction(ctx, id))

		got, err := repo.GetTransaction(ctx, id)
		require.NoError(t, err)
		assert.Nil(t, got)

		err = repo.SoftDeleteTransaction(ctx, id)
		assert.Error(t, err)
	})
}

func TestRepository_ListTransactions(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	food := seedCategory(t, repo, "Food & Dining", nil)
	travel := seedCategory(t, repo, "Travel", nil)

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		tx := testTransaction(food.ID)
		tx.TransactionDate = base.AddDate(0, 0, i)
		_, err := repo.CreateTransaction(ctx, tx)
		require.NoError(t, err)
	}
	hotel := testTransaction(travel.ID)
	hotel.Description = "Hotel stay"
	hotel.TransactionDate = base.AddDate(0, 0, 10)
	_, err := repo.CreateTransaction(ctx, hotel)
	require.NoError(t, err)

	t.Run("all with pagination", func(t *testing.T) {
		page, total, err := repo.ListTransactions(ctx, TransactionFilter{Page: 1, Limit: 4})
		require.NoError(t, err)
		assert.Equal(t, 6, total)
		assert.Len(t, page, 4)
		// Newest first.
		assert.Equal(t, "Hotel stay", page[0].Description)
	})

	t.Run("by category", func(t *testing.T) {
		items, total, err := repo.ListTransactions(ctx, TransactionFilter{CategoryID: travel.ID})
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		assert.Len(t, items, 1)
	})

	t.Run("by date window", func(t *testing.T) {
		_, total, err := repo.ListTransactions(ctx, TransactionFilter{
			StartDate: base.AddDate(0, 0, 2),
			EndDate:   base.AddDate(0, 0, 4),
		})
		require.NoError(t, err)
		assert.Equal(t, 3, total)
	})

	t.Run("search", func(t *testing.T) {
		_, total, err := repo.ListTransactions(ctx, TransactionFilter{Search: "hotel"})
		require.NoError(t, err)
		assert.Equal(t, 1, total)
	})

	t.Run("since", func(t *testing.T) {
		items, err := repo.TransactionsSince(ctx, base.AddDate(0, 0, 3), 100)
		require.NoError(t, err)
		assert.Len(t, items, 3)
	})
}

func TestRepository_BudgetsAndGoals(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	budgetID, err := repo.CreateBudget(ctx, core.Budget{
		Name:      "Groceries",
		Amount:    decimal.NewFromInt(400),
		Spent:     decimal.Zero,
		Period:    "monthly",
		StartDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		AlertAt:   80,
		IsActive:  true,
	})
	require.NoError(t, err)

	budgets, err := repo.ListBudgets(ctx)
	require.NoError(t, err)
	require.Len(t, budgets, 1)
	assert.Equal(t, "Groceries", budgets[0].Name)
	assert.True(t, budgets[0].Amount.Equal(decimal.NewFromInt(400)))

	require.NoError(t, repo.DeleteBudget(ctx, budgetID))
	budgets, err = repo.ListBudgets(ctx)
	require.NoError(t, err)
	assert.Empty(t, budgets)

	goalID, err := repo.CreateGoal(ctx, core.Goal{
		Name:         "Emergency fund",
		Type:         "savings",
		TargetAmount: decimal.NewFromInt(5000),
		Priority:     "high",
		Status:       "active",
	})
	require.NoError(t, err)

	goals, err := repo.ListGoals(ctx)
	require.NoError(t, err)
	require.Len(t, goals, 1)
	assert.Equal(t, "Emergency fund", goals[0].Name)

	require.NoError(t, repo.DeleteGoal(ctx, goalID))
	goals, err = repo.ListGoals(ctx)
	require.NoError(t, err)
	assert.Empty(t, goals)
}

func TestRepository_Insights(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	first := []core.Insight{
		{Type: "spending_pattern", Title: "A", Data: map[string]any{"x": 1.0}, Confidence: 0.5, Priority: "low"},
		{Type: "merchant_frequency", Title: "B", Data: map[string]any{}, Confidence: 0.9, Priority: "high"},
	}
	require.NoError(t, repo.ReplaceActiveInsights(ctx, first))

	active, err := repo.ActiveInsights(ctx, 10)
	require.NoError(t, err)
	require.Len(t, active, 2)
	// High priority first.
	assert.Equal(t, "B", active[0].Title)

	// Replacement expires the previous set.
	require.NoError(t, repo.ReplaceActiveInsights(ctx, []core.Insight{
		{Type: "category_concentration", Title: "C", Data: map[string]any{}, Priority: "medium"},
	}))
	active, err = repo.ActiveInsights(ctx, 10)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "C", active[0].Title)
}
