package categorize

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
)

// fakeDirectory is an in-memory CategoryDirectory.
type fakeDirectory struct {
	categories map[int64]*core.Category
	nextID     int64
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{categories: make(map[int64]*core.Category), nextID: 1}
}

func (f *fakeDirectory) ActiveCategories(ctx context.Context) ([]core.Category, error) {
	var out []core.Category
	for _, c := range f.categories {
		if c.IsActive {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeDirectory) CategoryByID(ctx context.Context, id int64) (*core.Category, error) {
	c, ok := f.categories[id]
	if !ok {
		return nil, nil
	}
	copied := *c
	return &copied, nil
}

func (f *fakeDirectory) CategoryByName(ctx context.Context, name string) (*core.Category, error) {
	for _, c := range f.categories {
		if c.Name == name && c.IsActive {
			copied := *c
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeDirectory) AppendCategoryKeywords(ctx context.Context, id int64, keywords []string) error {
	c := f.categories[id]
	seen := make(map[string]struct{}, len(c.Keywords))
	for _, kw := range c.Keywords {
		seen[kw] = struct{}{}
	}
	for _, kw := range keywords {
		if _, dup := seen[kw]; !dup {
			c.Keywords = append(c.Keywords, kw)
		}
	}
	return nil
}

func (f *fakeDirectory) EnsureCategory(ctx context.Context, c core.Category) error {
	if existing, _ := f.CategoryByName(ctx, c.Name); existing != nil {
		return nil
	}
	c.ID = f.nextID
	f.nextID++
	f.categories[c.ID] = &c
	return nil
}

func newTestService(t *testing.T) (*Service, *fakeDirectory) {
	t.Helper()
	dir := newFakeDirectory()
	svc := NewService(dir, 100, time.Minute)
	require.NoError(t, svc.EnsureDefaultCategories(context.Background()))
	require.NoError(t, svc.Retrain(context.Background()))
	return svc, dir
}

func TestService_CategorizeKnownMerchant(t *testing.T) {
	svc, _ := newTestService(t)

	result := svc.Categorize(context.Background(), "Uber trip to airport", "Uber", decimal.NewFromInt(24))
	assert.Equal(t, "Transportation", result.CategoryName)
	assert.True(t, result.Resolved())
	assert.Greater(t, result.Confidence, 0.1)
	assert.LessOrEqual(t, result.Confidence, 1.0)
}

func TestService_CategorizeEmptyInputFallsBack(t *testing.T) {
	svc, dir := newTestService(t)

	result := svc.Categorize(context.Background(), "", "", decimal.Zero)
	assert.Equal(t, core.FallbackCategoryName, result.CategoryName)
	assert.Equal(t, 0.1, result.Confidence)

	other, err := dir.CategoryByName(context.Background(), core.FallbackCategoryName)
	require.NoError(t, err)
	assert.Equal(t, other.ID, result.CategoryID)
}

func TestService_CategorizeUnknownTokensFallsBack(t *testing.T) {
	svc, _ := newTestService(t)

	result := svc.Categorize(context.Background(), "zzxqv wvvqk", "", decimal.Zero)
	assert.Equal(t, core.FallbackCategoryName, result.CategoryName)
	assert.Equal(t, 0.1, result.Confidence)
}

func TestService_CategorizeDefaultKeywordMatch(t *testing.T) {
	svc, _ := newTestService(t)

	result := svc.Categorize(context.Background(), "Amazon purchase", "", decimal.NewFromInt(30))
	assert.Equal(t, "Shopping", result.CategoryName)
}

func TestService_EnsureDefaultCategoriesIdempotent(t *testing.T) {
	svc, dir := newTestService(t)

	require.NoError(t, svc.EnsureDefaultCategories(context.Background()))

	active, err := dir.ActiveCategories(context.Background())
	require.NoError(t, err)
	assert.Len(t, active, len(DefaultCategories))
}

func TestService_CategorizeCachesByPrefix(t *testing.T) {
	svc, _ := newTestService(t)

	// Two inputs identical in their first 50 normalized characters share
	// one cache entry by design.
	prefix := strings.Repeat("uber ", 12)
	first := svc.Categorize(context.Background(), prefix+"airport run", "", decimal.Zero)
	second := svc.Categorize(context.Background(), prefix+"totally different tail", "", decimal.Zero)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, svc.Cache().Size())
}

func TestService_LearnFromCorrection(t *testing.T) {
	svc, dir := newTestService(t)

	// Before the correction nothing maps "zelda" anywhere.
	before := svc.Categorize(context.Background(), "zelda cartridge", "", decimal.Zero)
	assert.Equal(t, core.FallbackCategoryName, before.CategoryName)

	entertainment, err := dir.CategoryByName(context.Background(), "Entertainment")
	require.NoError(t, err)

	err = svc.LearnFromCorrection(context.Background(), "zelda cartridge", "", entertainment.ID)
	require.NoError(t, err)

	// The keyword store grew and the model was retrained.
	updated, err := dir.CategoryByID(context.Background(), entertainment.ID)
	require.NoError(t, err)
	assert.Contains(t, updated.Keywords, "zelda")

	after := svc.Categorize(context.Background(), "zelda cartridge", "", decimal.Zero)
	assert.Equal(t, "Entertainment", after.CategoryName)
}

func TestService_LearnFromCorrectionUnknownCategory(t *testing.T) {
	svc, _ := newTestService(t)

	err := svc.LearnFromCorrection(context.Background(), "coffee", "", 9999)
	assert.ErrorIs(t, err, ErrUnknownCategory)
}

func TestService_LearnSkipsShortAndDuplicateTokens(t *testing.T) {
	svc, dir := newTestService(t)

	food, err := dir.CategoryByName(context.Background(), "Food & Dining")
	require.NoError(t, err)

	// "at" is too short; "pizza" is already a keyword.
	err = svc.LearnFromCorrection(context.Background(), "pizza at diner", "", food.ID)
	require.NoError(t, err)

	updated, err := dir.CategoryByID(context.Background(), food.ID)
	require.NoError(t, err)
	assert.NotContains(t, updated.Keywords, "at")
	assert.Contains(t, updated.Keywords, "diner")

	count := 0
	for _, kw := range updated.Keywords {
		if kw == "pizza" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestService_RetrainClearsCache(t *testing.T) {
	svc, _ := newTestService(t)

	svc.Categorize(context.Background(), "coffee", "", decimal.Zero)
	require.Positive(t, svc.Cache().Size())

	require.NoError(t, svc.Retrain(context.Background()))
	assert.Zero(t, svc.Cache().Size())
}
