package categorize

import "fintrack/internal/core"

// DefaultCategories is the seed list applied at startup. Seeding is
// idempotent and matched by name, so user-added keywords survive restarts.
var DefaultCategories = []core.Category{
	{
		Name:     "Food & Dining",
		Keywords: []string{"restaurant", "food", "dining", "cafe", "pizza", "burger", "grocery", "supermarket", "starbucks", "mcdonalds", "subway", "chipotle", "dominos"},
		Icon:     "utensils",
		Color:    "#f59e0b",
	},
	{
		Name:     "Transportation",
		Keywords: []string{"uber", "lyft", "taxi", "gas", "fuel", "parking", "metro", "bus", "train", "airline", "flight", "car", "auto"},
		Icon:     "car",
		Color:    "#3b82f6",
	},
	{
		Name:     "Shopping",
		Keywords: []string{"amazon", "target", "walmart", "store", "mall", "shopping", "clothes", "clothing", "shoes", "electronics", "best buy"},
		Icon:     "shopping-bag",
		Color:    "#ec4899",
	},
	{
		Name:     "Entertainment",
		Keywords: []string{"movie", "cinema", "netflix", "spotify", "game", "concert", "theater", "museum", "park", "entertainment"},
		Icon:     "film",
		Color:    "#8b5cf6",
	},
	{
		Name:     "Health & Fitness",
		Keywords: []string{"doctor", "hospital", "pharmacy", "gym", "fitness", "yoga", "medical", "health", "dentist", "clinic"},
		Icon:     "heart",
		Color:    "#10b981",
	},
	{
		Name:     "Bills & Utilities",
		Keywords: []string{"electric", "electricity", "water", "gas", "internet", "phone", "utility", "bill", "rent", "mortgage", "insurance"},
		Icon:     "receipt",
		Color:    "#f97316",
	},
	{
		Name:     "Personal Care",
		Keywords: []string{"salon", "haircut", "spa", "beauty", "cosmetics", "personal", "hygiene", "barber"},
		Icon:     "user",
		Color:    "#06b6d4",
	},
	{
		Name:     "Education",
		Keywords: []string{"school", "university", "course", "book", "education", "tuition", "learning", "training"},
		Icon:     "graduation-cap",
		Color:    "#84cc16",
	},
	{
		Name:     "Travel",
		Keywords: []string{"hotel", "airbnb", "booking", "travel", "vacation", "trip", "resort", "flight", "airline"},
		Icon:     "plane",
		Color:    "#f43f5e",
	},
	{
		Name:     core.FallbackCategoryName,
		Keywords: []string{},
		Icon:     "more-horizontal",
		Color:    "#6b7280",
	},
}
