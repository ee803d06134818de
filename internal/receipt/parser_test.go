package receipt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParser_AmountCascade(t *testing.T) {
	p := NewParser()

	tests := []struct {
		name string
		text string
		want string
	}{
		{"labeled total", "WALMART\nTotal: $42.50\nThank you", "42.50"},
		{"labeled without dollar sign", "Total 17.25", "17.25"},
		{"amount label", "Amount: 8.00", "8.00"},
		{"currency before label", "$12.34 total", "12.34"},
		{"balance due", "Balance due: $99.10", "99.10"},
		{"largest amount fallback", "Coffee 3.50\nSandwich 8.25\n$15.80", "15.80"},
		{"no amount", "WALMART\nThank you for shopping", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Parse(tt.text).Amount)
		})
	}
}

func TestParser_AmountRange(t *testing.T) {
	p := NewParser()

	// Amounts at or above 10000 are implausible for a receipt total and
	// are skipped in favor of the next rule.
	assert.Equal(t, "25.00", p.Parse("Total: 10000.00\n$25.00 total").Amount)
	assert.Equal(t, "", p.Parse("Total: 0").Amount)
}

func TestParser_Dates(t *testing.T) {
	p := NewParser()

	tests := []struct {
		name string
		text string
		want string
	}{
		{"slash full year", "Date: 12/25/2023", "2023-12-25"},
		{"slash short year", "1/2/23", "2023-01-02"},
		{"dash", "12-25-2023", "2023-12-25"},
		{"iso", "2023-12-25", "2023-12-25"},
		{"month name", "Dec 25, 2023", "2023-12-25"},
		{"month name uppercase", "DECEMBER 25 2023", "2023-12-25"},
		{"no date", "Total: $5.00", ""},
		{"invalid date skipped", "no such thing here", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Parse(tt.text).Date)
		})
	}
}

func TestParser_Merchant(t *testing.T) {
	p := NewParser()

	tests := []struct {
		name string
		text string
		want string
	}{
		{"simple name", "WALMART\nTotal: $10.00", "Walmart"},
		{"dotted name", "AMAZON.COM\nOrder total 22.00", "Amazon.com"},
		{"skips numeric lines", "12345\n#0042\nTARGET STORE\nTotal 9.99", "Target Store"},
		{"skips boilerplate", "CUSTOMER RECEIPT COPY\nJOES CAFE\nTotal 5.00", "Joes Cafe"},
		{"strips symbols", "**STARBUCKS**\nTotal 4.50", "Starbucks"},
		{"nothing plausible", "123456\n---\n#9", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Parse(tt.text).MerchantName)
		})
	}
}

func TestParser_Items(t *testing.T) {
	p := NewParser()

	text := "JOES CAFE\nCoffee 3.50\nBagel $2.25\nTotal 5.75\nTax 0.46\nChange 4.25"
	extraction := p.Parse(text)

	require.Len(t, extraction.Items, 2)
	assert.Equal(t, "Coffee", extraction.Items[0].Name)
	assert.Equal(t, "3.50", extraction.Items[0].Price)
	assert.Equal(t, "Bagel", extraction.Items[1].Name)
	assert.Equal(t, "2.25", extraction.Items[1].Price)
}

func TestParser_ItemCap(t *testing.T) {
	p := NewParser()

	var text string
	for i := 0; i < 30; i++ {
		text += "Widget 1.50\n"
	}
	assert.Len(t, p.Parse(text).Items, 20)
}

func TestParser_Confidence(t *testing.T) {
	p := NewParser()

	full := p.Parse("WALMART\nTotal: $42.50")
	assert.Equal(t, 0.8, full.Confidence)

	amountOnly := p.Parse("Total: $42.50")
	assert.Equal(t, 0.3, amountOnly.Confidence)

	empty := p.Parse("")
	assert.Equal(t, 0.3, empty.Confidence)
	assert.Equal(t, "Receipt purchase", empty.Description)
}

func TestParser_Description(t *testing.T) {
	p := NewParser()

	extraction := p.Parse("WALMART\nTotal: $10.00")
	assert.Equal(t, "Purchase at Walmart", extraction.Description)
}
