package receipt

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

const (
	// Binary confidence: both merchant and amount found, or not.
	confidenceExtracted = 0.8
	confidencePartial   = 0.3

	maxItems        = 20
	merchantScanTop = 5
	merchantMaxLen  = 50
)

var (
	amountLower = decimal.Zero
	amountUpper = decimal.NewFromInt(10000)
	priceUpper  = decimal.NewFromInt(1000)
)

// amountRule is one step of the total-extraction cascade. Rules run in
// priority order; the first match inside the plausible range wins.
type amountRule struct {
	name string
	re   *regexp.Regexp
}

var amountRules = []amountRule{
	{"labeled total", regexp.MustCompile(`(?i)(?:total|amount|sum)[\s:]*\$?(\d+\.?\d*)`)},
	{"currency with label suffix", regexp.MustCompile(`(?i)\$(\d+\.\d{2})\s*(?:total|amount)?`)},
	{"decimal at line edge", regexp.MustCompile(`(?im)(?:^|\s)(\d+\.\d{2})\s*(?:total|amount|$)`)},
	{"balance due", regexp.MustCompile(`(?i)(?:balance|due|pay)[\s:]*\$?(\d+\.?\d*)`)},
}

// currencyRE feeds the largest-amount fallback when no labeled rule
// matches. That heuristic can pick a line-item price over the true total;
// it is an accepted accuracy trade-off, not something to optimize away.
var currencyRE = regexp.MustCompile(`\$?(\d{1,4}\.\d{2})`)

// dateRule pairs a date-shaped pattern with the layouts that can parse it.
type dateRule struct {
	name    string
	re      *regexp.Regexp
	layouts []string
}

var dateRules = []dateRule{
	{"slash", regexp.MustCompile(`(\d{1,2}/\d{1,2}/\d{2,4})`), []string{"1/2/06", "1/2/2006"}},
	{"dash", regexp.MustCompile(`(\d{1,2}-\d{1,2}-\d{2,4})`), []string{"1-2-06", "1-2-2006"}},
	{"iso", regexp.MustCompile(`(\d{4}-\d{1,2}-\d{1,2})`), []string{"2006-1-2"}},
	{"month name", regexp.MustCompile(`(?i)((?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\s+\d{1,2},?\s+\d{2,4})`),
		[]string{"Jan 2, 2006", "Jan 2 2006", "January 2, 2006", "January 2 2006", "Jan 2, 06", "Jan 2 06"}},
}

var (
	digitsPunctRE = regexp.MustCompile(`^[\d\s\-.,()#*]+$`)
	priceLikeRE   = regexp.MustCompile(`\d+\.\d{2}`)
	symbolsRE     = regexp.MustCompile(`[#*]+`)
	multiSpaceRE  = regexp.MustCompile(`\s+`)
	itemRE        = regexp.MustCompile(`^([A-Za-z][^$\d]*?)\s*\$?(\d+\.?\d*)(?:\s|$)`)
)

// Common receipt boilerplate: a candidate merchant line made up mostly of
// these is skipped.
var boilerplateTerms = []string{
	"receipt", "customer", "copy", "thank", "you", "welcome", "store",
	"location", "address", "phone", "tel", "fax", "email", "www",
}

var businessTerms = []string{
	"store", "mart", "shop", "restaurant", "cafe", "inc", "llc", "corp", "co",
}

var totalLabelTerms = []string{
	"total", "subtotal", "tax", "amount", "balance", "due", "change",
}

// Parser turns unstructured OCR text into structured receipt fields using
// layered regex and heuristic rules. It is stateless and safe for
// concurrent use; Parse never fails, it just leaves fields empty.
type Parser struct{}

func NewParser() *Parser { return &Parser{} }

func (p *Parser) Parse(rawText string) core.ReceiptExtraction {
	lines := nonEmptyLines(rawText)

	extraction := core.ReceiptExtraction{
		RawText:      rawText,
		MerchantName: extractMerchant(lines),
		Amount:       extractTotalAmount(rawText),
		Date:         extractDate(rawText),
		Items:        extractItems(lines),
	}

	if extraction.MerchantName != "" {
		extraction.Description = "Purchase at " + extraction.MerchantName
	} else {
		extraction.Description = "Receipt purchase"
	}

	if extraction.MerchantName != "" && extraction.Amount != "" {
		extraction.Confidence = confidenceExtracted
	} else {
		extraction.Confidence = confidencePartial
	}
	return extraction
}

func nonEmptyLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// extractMerchant scans the top of the receipt for the first line that
// plausibly names a business.
func extractMerchant(lines []string) string {
	for i := 0; i < len(lines) && i < merchantScanTop; i++ {
		if isMerchantLine(lines[i]) {
			return cleanMerchantName(lines[i])
		}
	}
	return ""
}

func isMerchantLine(line string) bool {
	if digitsPunctRE.MatchString(line) {
		return false
	}
	if len(line) < 3 {
		return false
	}
	// Lines carrying a price or a total label are not merchant names.
	if priceLikeRE.MatchString(line) || isTotalLabel(line) {
		return false
	}

	lower := strings.ToLower(line)
	words := strings.Fields(lower)

	skipped := 0
	for _, word := range words {
		for _, term := range boilerplateTerms {
			if strings.Contains(word, term) {
				skipped++
				break
			}
		}
	}
	if float64(skipped)/float64(len(words)) > 0.5 {
		return false
	}

	hasBusinessWord := false
	for _, term := range businessTerms {
		if strings.Contains(lower, term) {
			hasBusinessWord = true
			break
		}
	}

	return (hasBusinessWord || len(words) <= 4) && len(line) <= merchantMaxLen
}

func cleanMerchantName(name string) string {
	name = symbolsRE.ReplaceAllString(name, "")
	name = multiSpaceRE.ReplaceAllString(name, " ")
	name = strings.ToLower(strings.TrimSpace(name))

	words := strings.Fields(name)
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}

// extractTotalAmount runs the labeled-amount cascade and falls back to the
// largest currency-like value on the receipt.
func extractTotalAmount(text string) string {
	for _, rule := range amountRules {
		match := rule.re.FindStringSubmatch(text)
		if match == nil {
			continue
		}
		if amount, ok := parseAmountInRange(match[1], amountUpper); ok {
			return amount.StringFixed(2)
		}
	}

	var largest decimal.Decimal
	found := false
	for _, match := range currencyRE.FindAllStringSubmatch(text, -1) {
		amount, ok := parseAmountInRange(match[1], amountUpper)
		if !ok {
			continue
		}
		if !found || amount.GreaterThan(largest) {
			largest = amount
			found = true
		}
	}
	if found {
		return largest.StringFixed(2)
	}
	return ""
}

func parseAmountInRange(s string, upper decimal.Decimal) (decimal.Decimal, bool) {
	amount, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	if amount.GreaterThan(amountLower) && amount.LessThan(upper) {
		return amount, true
	}
	return decimal.Decimal{}, false
}

// extractDate returns the first date-shaped substring that parses to a
// valid calendar date, normalized to YYYY-MM-DD.
func extractDate(text string) string {
	for _, rule := range dateRules {
		match := rule.re.FindStringSubmatch(text)
		if match == nil {
			continue
		}
		candidate := normalizeMonthCase(match[1])
		for _, layout := range rule.layouts {
			if t, err := time.Parse(layout, candidate); err == nil {
				return t.Format("2006-01-02")
			}
		}
	}
	return ""
}

// normalizeMonthCase fixes OCR casing like "JANUARY 5, 2024" so the month
// name matches Go's reference layouts.
func normalizeMonthCase(s string) string {
	i := 0
	for i < len(s) && isLetter(s[i]) {
		i++
	}
	if i == 0 {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:i]) + s[i:]
}

func isLetter(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z'
}

// extractItems pulls "name followed by price" lines, skipping lines that
// are really total/tax/balance labels so the total is not double-counted
// as an item.
func extractItems(lines []string) []core.ReceiptItem {
	items := []core.ReceiptItem{}
	for _, line := range lines {
		match := itemRE.FindStringSubmatch(line)
		if match == nil {
			continue
		}
		name := strings.TrimSpace(match[1])
		if len(name) <= 2 || isTotalLabel(name) {
			continue
		}
		price, ok := parseAmountInRange(match[2], priceUpper)
		if !ok {
			continue
		}
		items = append(items, core.ReceiptItem{Name: name, Price: price.StringFixed(2)})
		if len(items) == maxItems {
			break
		}
	}
	return items
}

func isTotalLabel(name string) bool {
	lower := strings.ToLower(name)
	for _, term := range totalLabelTerms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}
