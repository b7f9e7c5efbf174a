// Package fields extracts structured invoice data from acquired text.
//
// Extraction is deterministic pattern matching over ordered recognizer
// tables, not a trainable model. A miss yields a null field, never an
// error, so the extractor has no failure path.
package fields

import (
	"strings"

	"github.com/paperstack/intake/internal/core/domain"
)

const defaultCurrency = "USD"

// Weighted contribution of each recognized field to the confidence
// score. Empirical values carried over from the reference behavior;
// tunable, normalized against maxScore.
var fieldWeights = struct {
	invoiceNumber float64
	date          float64
	total         float64
	tax           float64
	subtotal      float64
	lineItems     float64
	maxScore      float64
}{
	invoiceNumber: 2.0,
	date:          1.5,
	total:         2.0,
	tax:           0.5,
	subtotal:      0.5,
	lineItems:     0.5,
	maxScore:      7.0,
}

// Extractor runs the recognizer catalog over raw text. Stateless and
// safe for concurrent use.
type Extractor struct {
	maxLineItems int
}

func NewExtractor() *Extractor {
	return &Extractor{maxLineItems: 10}
}

// Extract produces the structured field record for text. Never fails:
// an input nothing matches yields all-null fields and confidence 0.
func (e *Extractor) Extract(text string) domain.ExtractionResult {
	result := domain.ExtractionResult{
		Fields: domain.ExtractedFields{Currency: defaultCurrency},
	}
	if strings.TrimSpace(text) == "" {
		return result
	}

	result.Fields.InvoiceNumber = matchFirst(invoiceNumberRecognizers, text, normalizeInvoiceNumber)
	result.Fields.TotalAmount = matchAmount(totalRecognizers, text)
	result.Fields.TaxAmount = matchAmount(taxRecognizers, text)
	result.Fields.Subtotal = matchAmount(subtotalRecognizers, text)
	result.Fields.Currency = detectCurrency(text)
	result.Fields.Vendor = extractVendor(text)
	result.Fields.LineItems = extractLineItems(text, e.maxLineItems)

	if raw, ok := matchFirstRaw(dateRecognizers, text); ok {
		if parsed, ok := parseInvoiceDate(raw); ok {
			result.Fields.InvoiceDate = &parsed
		} else {
			// Keep the best-effort raw string rather than dropping the match.
			result.Fields.InvoiceDateRaw = raw
		}
	}

	result.Confidence = e.score(result.Fields)
	return result
}

func (e *Extractor) score(f domain.ExtractedFields) float64 {
	var score float64
	if f.InvoiceNumber != nil {
		score += fieldWeights.invoiceNumber
	}
	if f.InvoiceDate != nil || f.InvoiceDateRaw != "" {
		score += fieldWeights.date
	}
	if f.TotalAmount != nil {
		score += fieldWeights.total
	}
	if f.TaxAmount != nil {
		score += fieldWeights.tax
	}
	if f.Subtotal != nil {
		score += fieldWeights.subtotal
	}
	if len(f.LineItems) > 0 {
		score += fieldWeights.lineItems
	}

	normalized := score / fieldWeights.maxScore
	if normalized > 1.0 {
		normalized = 1.0
	}
	if normalized < 0 {
		normalized = 0
	}
	return normalized
}

func normalizeInvoiceNumber(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
