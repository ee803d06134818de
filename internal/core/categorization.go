package core

// CategorizationResult is the outcome of categorizing one transaction text.
// It is transient: produced per request from the current classifier state
// and never persisted. CategoryID is 0 when no category could be resolved,
// which only happens if the fallback category itself is missing.
type CategorizationResult struct {
	CategoryID   int64   `json:"categoryId"`
	CategoryName string  `json:"categoryName"`
	Confidence   float64 `json:"confidence"`
	Icon         string  `json:"icon"`
	Color        string  `json:"color"`
}

// Resolved reports whether the result points at a known category.
func (r CategorizationResult) Resolved() bool {
	return r.CategoryID != 0
}

// ReceiptExtraction holds the structured fields pulled out of raw OCR text.
// Extracted fields are empty strings when nothing plausible was found; the
// amount is a two-decimal string and the date is in YYYY-MM-DD form.
type ReceiptExtraction struct {
	RawText      string        `json:"rawText"`
	MerchantName string        `json:"merchantName,omitempty"`
	Amount       string        `json:"amount,omitempty"`
	Date         string        `json:"date,omitempty"`
	Description  string        `json:"description"`
	Items        []ReceiptItem `json:"items"`
	Confidence   float64       `json:"confidence"`
	Error        string        `json:"error,omitempty"`
}

// ReceiptItem is one extracted line item.
type ReceiptItem struct {
	Name  string `json:"name"`
	Price string `json:"price"`
}
