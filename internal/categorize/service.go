package categorize

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/cache"
	"fintrack/internal/core"
)

const (
	// cacheKeyLen is the normalized-text prefix used as the cache key.
	// Distinct longer texts sharing the same prefix collide and share a
	// cached result; this approximation is intentional and documented.
	cacheKeyLen = 50

	fallbackConfidence = 0.1

	learnMaxKeywords = 3
	learnMinTokenLen = 2
)

// ErrUnknownCategory is returned when a correction names a category id
// that does not exist.
var ErrUnknownCategory = errors.New("unknown category")

// CategoryDirectory is the category store the service reads from and
// appends keywords to.
type CategoryDirectory interface {
	ActiveCategories(ctx context.Context) ([]core.Category, error)
	CategoryByID(ctx context.Context, id int64) (*core.Category, error)
	CategoryByName(ctx context.Context, name string) (*core.Category, error)
	AppendCategoryKeywords(ctx context.Context, id int64, keywords []string) error
	EnsureCategory(ctx context.Context, c core.Category) error
}

// Service owns the classifier model and the result cache. One instance is
// shared process-wide and injected into request handlers; all state is
// internal and safe for concurrent use.
type Service struct {
	store  CategoryDirectory
	engine *Engine
	cache  *cache.LRUCache[core.CategorizationResult]

	// trainMu serializes retrains; classification reads the model through
	// an atomic pointer and never blocks on it.
	trainMu sync.Mutex
}

func NewService(store CategoryDirectory, cacheSize int, cacheTTL time.Duration) *Service {
	return &Service{
		store:  store,
		engine: NewEngine(),
		cache:  cache.NewLRUCache[core.CategorizationResult](cacheSize, cacheTTL),
	}
}

// Cache exposes the result cache for lifecycle management (periodic
// expiry cleanup).
func (s *Service) Cache() *cache.LRUCache[core.CategorizationResult] { return s.cache }

// EnsureDefaultCategories idempotently seeds the default category list,
// matched by name. Existing categories are never overwritten.
func (s *Service) EnsureDefaultCategories(ctx context.Context) error {
	for _, c := range DefaultCategories {
		c.IsDefault = true
		c.IsActive = true
		if err := s.store.EnsureCategory(ctx, c); err != nil {
			return fmt.Errorf("ensure category %q: %w", c.Name, err)
		}
	}
	slog.InfoContext(ctx, "Default categories initialized", "count", len(DefaultCategories))
	return nil
}

// Retrain rebuilds the classifier from the current keyword sets and
// publishes the new model atomically. The result cache is cleared so that
// results computed against the stale model are not served afterwards.
func (s *Service) Retrain(ctx context.Context) error {
	s.trainMu.Lock()
	defer s.trainMu.Unlock()

	categories, err := s.store.ActiveCategories(ctx)
	if err != nil {
		return fmt.Errorf("load categories for training: %w", err)
	}

	keywords := make(map[string][]string, len(categories))
	for _, c := range categories {
		keywords[c.Name] = c.Keywords
	}

	if err := s.engine.Train(keywords); err != nil {
		return fmt.Errorf("train classifier: %w", err)
	}

	s.cache.Purge()
	slog.InfoContext(ctx, "Classifier trained", "categories", len(categories))
	return nil
}

// Categorize maps a transaction description and merchant name to a single
// category with a confidence in [0,1]. It never fails: missing input, an
// untrained model, unknown tokens, and store errors all degrade to the
// fallback category. The amount is accepted for future weighting and not
// currently used.
func (s *Service) Categorize(ctx context.Context, description, merchantName string, amount decimal.Decimal) core.CategorizationResult {
	_ = amount

	if !s.engine.Trained() {
		if err := s.Retrain(ctx); err != nil {
			slog.WarnContext(ctx, "Lazy classifier training failed", "error", err)
			return s.fallback(ctx)
		}
	}

	normalized := Normalize(strings.TrimSpace(description + " " + merchantName))
	if normalized == "" {
		return s.fallback(ctx)
	}

	key := cacheKey(normalized)
	if cached, ok := s.cache.Get(key); ok {
		return cached
	}

	predictions := s.engine.Classify(normalized)
	if len(predictions) == 0 {
		result := s.fallback(ctx)
		s.cache.Set(key, result)
		return result
	}

	best := predictions[0]
	category, err := s.store.CategoryByName(ctx, best.Label)
	if err != nil || category == nil || !category.IsActive {
		// Stale label with no matching active category; not a hard failure.
		slog.WarnContext(ctx, "Classifier label has no active category", "label", best.Label, "error", err)
		result := s.fallback(ctx)
		s.cache.Set(key, result)
		return result
	}

	result := core.CategorizationResult{
		CategoryID:   category.ID,
		CategoryName: category.Name,
		Confidence:   math.Round(best.Score*100) / 100,
		Icon:         category.Icon,
		Color:        category.Color,
	}
	s.cache.Set(key, result)
	return result
}

// LearnFromCorrection feeds a user's category correction back into the
// keyword store: the first few meaningful tokens of the corrected text are
// added as keywords to the indicated category, followed by a synchronous
// full retrain. Past transactions are not recategorized.
func (s *Service) LearnFromCorrection(ctx context.Context, description, merchantName string, categoryID int64) error {
	category, err := s.store.CategoryByID(ctx, categoryID)
	if err != nil {
		return fmt.Errorf("look up category %d: %w", categoryID, err)
	}
	if category == nil {
		return ErrUnknownCategory
	}

	existing := make(map[string]struct{}, len(category.Keywords))
	for _, kw := range category.Keywords {
		existing[strings.ToLower(kw)] = struct{}{}
	}

	var keywords []string
	for _, tok := range Tokenize(description + " " + merchantName) {
		if len(tok) <= learnMinTokenLen {
			continue
		}
		if _, dup := existing[tok]; dup {
			continue
		}
		existing[tok] = struct{}{}
		keywords = append(keywords, tok)
		if len(keywords) == learnMaxKeywords {
			break
		}
	}

	if len(keywords) > 0 {
		if err := s.store.AppendCategoryKeywords(ctx, categoryID, keywords); err != nil {
			return fmt.Errorf("append keywords: %w", err)
		}
		slog.InfoContext(ctx, "Learned keywords from correction",
			"category", category.Name,
			"keywords", strings.Join(keywords, ","))
	}

	return s.Retrain(ctx)
}

// ClearCache drops all cached categorization results.
func (s *Service) ClearCache() {
	s.cache.Purge()
}

// fallback resolves the "Other" category. If even that lookup fails the
// result carries no category id; the caller can still proceed.
func (s *Service) fallback(ctx context.Context) core.CategorizationResult {
	result := core.CategorizationResult{
		CategoryName: core.FallbackCategoryName,
		Confidence:   fallbackConfidence,
		Icon:         "more-horizontal",
		Color:        "#6b7280",
	}
	category, err := s.store.CategoryByName(ctx, core.FallbackCategoryName)
	if err != nil || category == nil {
		slog.WarnContext(ctx, "Fallback category lookup failed", "error", err)
		return result
	}
	result.CategoryID = category.ID
	result.Icon = category.Icon
	result.Color = category.Color
	return result
}

func cacheKey(normalized string) string {
	runes := []rune(normalized)
	if len(runes) > cacheKeyLen {
		return string(runes[:cacheKeyLen])
	}
	return normalized
}
