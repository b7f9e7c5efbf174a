package fields

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/paperstack/intake/internal/core/domain"
)

var vendorLabelRe = regexp.MustCompile(`(?im)^\s*(?:from|vendor|company|billed\s+by)\s*:?\s+(.+?)\s*$`)

// documentTypeWords are stripped from a fallback vendor line; a header
// like "ACME Corp Invoice" still names the vendor.
var documentTypeWords = map[string]struct{}{
	"invoice":   {},
	"receipt":   {},
	"bill":      {},
	"statement": {},
}

// extractVendor prefers a label-prefixed capture, then falls back to the
// first meaningful line within the first five lines of text.
func extractVendor(text string) *string {
	if m := vendorLabelRe.FindStringSubmatch(text); len(m) == 2 {
		vendor := strings.TrimSpace(m[1])
		if vendor != "" {
			return &vendor
		}
	}

	lines := strings.Split(text, "\n")
	if len(lines) > 5 {
		lines = lines[:5]
	}
	for _, line := range lines {
		candidate := stripDocumentTypeWords(strings.TrimSpace(line))
		if !looksLikeName(candidate) {
			continue
		}
		return &candidate
	}
	return nil
}

var amountRowRe = regexp.MustCompile(`(?i)[$€£]|\b(total|subtotal|tax|vat|gst|date|amount|balance)\b`)

// looksLikeName rejects empty, numeric-dominated, and amount/label lines
// (ids, dates, money rows) as vendor fallbacks.
func looksLikeName(line string) bool {
	if amountRowRe.MatchString(line) {
		return false
	}
	letters, digits := 0, 0
	for _, r := range line {
		switch {
		case r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z':
			letters++
		case r >= '0' && r <= '9':
			digits++
		}
	}
	return letters >= 3 && letters > digits
}

func stripDocumentTypeWords(line string) string {
	var kept []string
	for _, word := range strings.Fields(line) {
		key := strings.ToLower(strings.Trim(word, ".,:#"))
		if _, drop := documentTypeWords[key]; drop {
			continue
		}
		kept = append(kept, word)
	}
	return strings.Join(kept, " ")
}

// lineItemRe is the loose per-line shape: quantity, description, trailing
// amount. Lines that do not match contribute nothing.
var lineItemRe = regexp.MustCompile(`^\s*(\d+)\s+(.+?)\s+[$€£]?(\d{1,3}(?:,\d{3})+(?:\.\d{1,2})?|\d+(?:\.\d{2}))\s*$`)

func extractLineItems(text string, limit int) []domain.LineItem {
	var items []domain.LineItem
	for _, line := range strings.Split(text, "\n") {
		m := lineItemRe.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		quantity, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		unitPrice, err := parseAmount(m[3])
		if err != nil {
			continue
		}
		description := strings.TrimSpace(m[2])
		if description == "" {
			continue
		}
		items = append(items, domain.LineItem{
			Description: description,
			Quantity:    &quantity,
			UnitPrice:   &unitPrice,
		})
		if len(items) >= limit {
			break
		}
	}
	return items
}
