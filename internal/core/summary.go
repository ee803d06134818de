package core

import "github.com/shopspring/decimal"

// CategoryBreakdown aggregates spend for one category over a period.
type CategoryBreakdown struct {
	CategoryID int64           `json:"categoryId"`
	Name       string          `json:"name"`
	Icon       string          `json:"icon"`
	Color      string          `json:"color"`
	Amount     decimal.Decimal `json:"amount"`
	Count      int             `json:"count"`
}

// MerchantCount aggregates how often a merchant appears.
type MerchantCount struct {
	Merchant string          `json:"merchant"`
	Count    int             `json:"count"`
	Amount   decimal.Decimal `json:"amount"`
}

// SummaryStats is the period summary returned by the stats endpoint.
type SummaryStats struct {
	TotalTransactions int                 `json:"totalTransactions"`
	TotalExpenses     decimal.Decimal     `json:"totalExpenses"`
	TotalIncome       decimal.Decimal     `json:"totalIncome"`
	NetAmount         decimal.Decimal     `json:"netAmount"`
	AvgAmount         decimal.Decimal     `json:"avgTransactionAmount"`
	ByCategory        []CategoryBreakdown `json:"categoryBreakdown"`
	TopMerchants      []MerchantCount     `json:"topMerchants"`
}
