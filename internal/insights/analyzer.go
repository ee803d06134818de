package insights

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

const (
	minTransactionsForPatterns = 5
	topMerchantThreshold       = 3
)

// Analyzer derives spending-pattern insights from a window of transactions.
type Analyzer struct{}

func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// Analyze inspects the given transactions and returns the insights worth
// surfacing. An empty or too-small window yields no insights rather than
// noisy guesses.
func (a *Analyzer) Analyze(transactions []core.Transaction) []core.Insight {
	expenses := make([]core.Transaction, 0, len(transactions))
	for _, t := range transactions {
		if t.Type == core.TypeExpense {
			expenses = append(expenses, t)
		}
	}
	if len(expenses) < minTransactionsForPatterns {
		return nil
	}

	var insights []core.Insight
	if in := a.busiestDay(expenses); in != nil {
		insights = append(insights, *in)
	}
	if in := a.busiestTimeSlot(expenses); in != nil {
		insights = append(insights, *in)
	}
	insights = append(insights, a.frequentMerchants(expenses)...)
	if in := a.topCategory(expenses); in != nil {
		insights = append(insights, *in)
	}
	return insights
}

func (a *Analyzer) busiestDay(expenses []core.Transaction) *core.Insight {
	byDay := make(map[time.Weekday]int)
	for _, t := range expenses {
		byDay[t.TransactionDate.Weekday()]++
	}

	var best time.Weekday
	bestCount := 0
	for day, count := range byDay {
		if count > bestCount || (count == bestCount && day < best) {
			best, bestCount = day, count
		}
	}
	if bestCount == 0 {
		return nil
	}

	share := float64(bestCount) / float64(len(expenses))
	return &core.Insight{
		Type:        "spending_pattern",
		Title:       fmt.Sprintf("Most purchases happen on %s", best),
		Description: fmt.Sprintf("%d of your last %d expenses were made on a %s.", bestCount, len(expenses), best),
		Data: map[string]any{
			"day":   best.String(),
			"count": bestCount,
			"share": share,
		},
		Confidence: share,
		Priority:   "low",
	}
}

func timeSlot(hour int) string {
	switch {
	case hour < 6:
		return "Night"
	case hour < 12:
		return "Morning"
	case hour < 18:
		return "Afternoon"
	default:
		return "Evening"
	}
}

func (a *Analyzer) busiestTimeSlot(expenses []core.Transaction) *core.Insight {
	bySlot := make(map[string]int)
	for _, t := range expenses {
		bySlot[timeSlot(t.TransactionDate.Hour())]++
	}

	var best string
	bestCount := 0
	for slot, count := range bySlot {
		if count > bestCount || (count == bestCount && slot < best) {
			best, bestCount = slot, count
		}
	}
	if bestCount == 0 {
		return nil
	}

	share := float64(bestCount) / float64(len(expenses))
	return &core.Insight{
		Type:        "spending_pattern",
		Title:       fmt.Sprintf("You spend most often in the %s", best),
		Description: fmt.Sprintf("%d of your last %d expenses happened in the %s.", bestCount, len(expenses), best),
		Data: map[string]any{
			"slot":  best,
			"count": bestCount,
			"share": share,
		},
		Confidence: share,
		Priority:   "low",
	}
}

func (a *Analyzer) frequentMerchants(expenses []core.Transaction) []core.Insight {
	type merchantStats struct {
		name  string
		count int
		total decimal.Decimal
	}

	byMerchant := make(map[string]*merchantStats)
	for _, t := range expenses {
		if t.MerchantName == "" {
			continue
		}
		s, ok := byMerchant[t.MerchantName]
		if !ok {
			s = &merchantStats{name: t.MerchantName}
			byMerchant[t.MerchantName] = s
		}
		s.count++
		s.total = s.total.Add(t.Amount)
	}

	merchants := make([]*merchantStats, 0, len(byMerchant))
	for _, s := range byMerchant {
		if s.count >= topMerchantThreshold {
			merchants = append(merchants, s)
		}
	}
	sort.Slice(merchants, func(i, j int) bool {
		if merchants[i].count != merchants[j].count {
			return merchants[i].count > merchants[j].count
		}
		return merchants[i].name < merchants[j].name
	})
	if len(merchants) > 3 {
		merchants = merchants[:3]
	}

	var insights []core.Insight
	for _, s := range merchants {
		insights = append(insights, core.Insight{
			Type:        "merchant_frequency",
			Title:       fmt.Sprintf("Frequent purchases at %s", s.name),
			Description: fmt.Sprintf("You made %d purchases at %s totalling %s.", s.count, s.name, s.total.StringFixed(2)),
			Data: map[string]any{
				"merchant": s.name,
				"count":    s.count,
				"total":    s.total.StringFixed(2),
			},
			Confidence: 0.9,
			Priority:   "medium",
		})
	}
	return insights
}

func (a *Analyzer) topCategory(expenses []core.Transaction) *core.Insight {
	byCategory := make(map[int64]decimal.Decimal)
	total := decimal.Zero
	for _, t := range expenses {
		if t.CategoryID == 0 {
			continue
		}
		byCategory[t.CategoryID] = byCategory[t.CategoryID].Add(t.Amount)
		total = total.Add(t.Amount)
	}
	if total.IsZero() {
		return nil
	}

	var bestID int64
	bestTotal := decimal.Zero
	for id, sum := range byCategory {
		if sum.GreaterThan(bestTotal) || (sum.Equal(bestTotal) && id < bestID) {
			bestID, bestTotal = id, sum
		}
	}

	share, _ := bestTotal.Div(total).Float64()
	return &core.Insight{
		Type:        "category_concentration",
		Title:       "Your biggest spending category",
		Description: fmt.Sprintf("One category accounts for %.0f%% of your recent spending (%s).", share*100, bestTotal.StringFixed(2)),
		Data: map[string]any{
			"category_id": bestID,
			"total":       bestTotal.StringFixed(2),
			"share":       share,
		},
		Confidence: share,
		Priority:   priorityForShare(share),
	}
}

func priorityForShare(share float64) string {
	switch {
	case share >= 0.6:
		return "high"
	case share >= 0.4:
		return "medium"
	default:
		return "low"
	}
}
