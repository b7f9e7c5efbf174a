package fields

import (
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestExtractLabeledTotalWinsOverSubtotalAndTax(t *testing.T) {
	text := "Invoice #INV-2024-001\nSubtotal: $100.00\nTax: $8.50\nTotal: $108.50"
	result := NewExtractor().Extract(text)

	if result.Fields.InvoiceNumber == nil || *result.Fields.InvoiceNumber != "INV-2024-001" {
		t.Fatalf("invoice number = %v, want INV-2024-001", result.Fields.InvoiceNumber)
	}
	if result.Fields.TotalAmount == nil || *result.Fields.TotalAmount != 108.50 {
		t.Fatalf("total = %v, want 108.50", result.Fields.TotalAmount)
	}
	if result.Fields.Subtotal == nil || *result.Fields.Subtotal != 100.00 {
		t.Fatalf("subtotal = %v, want 100.00", result.Fields.Subtotal)
	}
	if result.Fields.TaxAmount == nil || *result.Fields.TaxAmount != 8.50 {
		t.Fatalf("tax = %v, want 8.50", result.Fields.TaxAmount)
	}
	if result.Fields.Currency != "USD" {
		t.Fatalf("currency = %s, want USD", result.Fields.Currency)
	}
}

func TestExtractSimpleTotal(t *testing.T) {
	result := NewExtractor().Extract("Total: $123.45")
	if result.Fields.TotalAmount == nil || *result.Fields.TotalAmount != 123.45 {
		t.Fatalf("total = %v, want 123.45", result.Fields.TotalAmount)
	}
	if result.Fields.Currency != "USD" {
		t.Fatalf("currency = %s, want USD", result.Fields.Currency)
	}
}

func TestExtractLargestAmountHeuristicWhenNoLabel(t *testing.T) {
	result := NewExtractor().Extract("charges were $20.00 then $45.99 then $7.50")
	if result.Fields.TotalAmount == nil || *result.Fields.TotalAmount != 45.99 {
		t.Fatalf("total = %v, want largest amount 45.99", result.Fields.TotalAmount)
	}
}

func TestExtractThousandsSeparators(t *testing.T) {
	result := NewExtractor().Extract("Amount Due: $1,234,567.89")
	if result.Fields.TotalAmount == nil || *result.Fields.TotalAmount != 1234567.89 {
		t.Fatalf("total = %v, want 1234567.89", result.Fields.TotalAmount)
	}
}

func TestExtractNumericDate(t *testing.T) {
	result := NewExtractor().Extract("Date: 03/15/2024")
	want := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)
	if result.Fields.InvoiceDate == nil || !result.Fields.InvoiceDate.Equal(want) {
		t.Fatalf("date = %v, want %v", result.Fields.InvoiceDate, want)
	}
}

func TestExtractMonthNameDate(t *testing.T) {
	for _, raw := range []string{"March 15, 2024", "MARCH 15, 2024", "15 March 2024", "Mar 15, 2024"} {
		result := NewExtractor().Extract("Issued on " + raw)
		if result.Fields.InvoiceDate == nil {
			t.Fatalf("date %q not parsed, raw kept: %q", raw, result.Fields.InvoiceDateRaw)
		}
		got := *result.Fields.InvoiceDate
		if got.Year() != 2024 || got.Month() != time.March || got.Day() != 15 {
			t.Fatalf("date %q parsed as %v", raw, got)
		}
	}
}

func TestExtractUnparsableDateKeptAsRawString(t *testing.T) {
	result := NewExtractor().Extract("Date: 13/13/2024")
	if result.Fields.InvoiceDate != nil {
		t.Fatalf("expected no parsed date, got %v", result.Fields.InvoiceDate)
	}
	if result.Fields.InvoiceDateRaw != "13/13/2024" {
		t.Fatalf("raw date = %q, want 13/13/2024", result.Fields.InvoiceDateRaw)
	}
}

func TestExtractCurrencyPriority(t *testing.T) {
	cases := map[string]string{
		"Total: A$50.00":    "AUD",
		"Total: €50.00":     "EUR",
		"Total: £50.00":     "GBP",
		"Total: $50.00":     "USD",
		"Total: 50.00 EUR":  "EUR",
		"no money here":     "USD",
		"paid 30 pound cash": "GBP",
	}
	for text, want := range cases {
		if got := NewExtractor().Extract(text).Fields.Currency; got != want {
			t.Errorf("currency(%q) = %s, want %s", text, got, want)
		}
	}
}

func TestExtractVendorLabel(t *testing.T) {
	result := NewExtractor().Extract("From: ACME Supplies Ltd\nTotal: $10.00")
	if result.Fields.Vendor == nil || *result.Fields.Vendor != "ACME Supplies Ltd" {
		t.Fatalf("vendor = %v, want ACME Supplies Ltd", result.Fields.Vendor)
	}
}

func TestExtractVendorFallbackStripsDocumentWords(t *testing.T) {
	result := NewExtractor().Extract("ACME Corp Invoice\n#INV-7\nTotal: $10.00")
	if result.Fields.Vendor == nil || *result.Fields.Vendor != "ACME Corp" {
		t.Fatalf("vendor = %v, want ACME Corp", result.Fields.Vendor)
	}
}

func TestExtractLineItemsCappedAtTen(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 15; i++ {
		fmt.Fprintf(&b, "%d widget model %d $%d.00\n", i+1, i, i+2)
	}
	items := NewExtractor().Extract(b.String()).Fields.LineItems
	if len(items) != 10 {
		t.Fatalf("line items = %d, want 10", len(items))
	}
	if items[0].Quantity == nil || *items[0].Quantity != 1 {
		t.Fatalf("first quantity = %v, want 1", items[0].Quantity)
	}
	if items[0].UnitPrice == nil || *items[0].UnitPrice != 2.00 {
		t.Fatalf("first unit price = %v, want 2.00", items[0].UnitPrice)
	}
}

func TestExtractNonMatchingLinesContributeNothing(t *testing.T) {
	result := NewExtractor().Extract("hello world\nno amounts here\n---")
	if len(result.Fields.LineItems) != 0 {
		t.Fatalf("expected no line items, got %d", len(result.Fields.LineItems))
	}
}

func TestExtractEmptyTextYieldsNullFieldsAndZeroConfidence(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\t"} {
		result := NewExtractor().Extract(text)
		if result.Confidence != 0 {
			t.Fatalf("confidence(%q) = %f, want 0", text, result.Confidence)
		}
		if result.Fields.InvoiceNumber != nil || result.Fields.TotalAmount != nil {
			t.Fatalf("expected null fields for %q", text)
		}
		if result.Fields.Currency != "USD" {
			t.Fatalf("currency default = %s, want USD", result.Fields.Currency)
		}
	}
}

func TestExtractConfidenceBounded(t *testing.T) {
	inputs := []string{
		"",
		"garbage ~~ !!",
		"Invoice #A-1\nDate: 01/02/2024\nSubtotal: $1.00\nTax: $0.10\nTotal: $1.10\n2 things $0.55",
		strings.Repeat("Total: $9.99\n", 100),
	}
	for _, text := range inputs {
		c := NewExtractor().Extract(text).Confidence
		if c < 0 || c > 1 {
			t.Fatalf("confidence out of bounds for %q: %f", text, c)
		}
	}
}

func TestExtractConfidenceWeights(t *testing.T) {
	// invoice number (2.0) + total (2.0) + tax (0.5) + subtotal (0.5) = 5.0 / 7.0
	text := "Invoice #INV-1 Subtotal: $100.00 Tax: $8.50 Total: $108.50"
	got := NewExtractor().Extract(text).Confidence
	want := 5.0 / 7.0
	if diff := got - want; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("confidence = %f, want %f", got, want)
	}
}

func TestExtractIsDeterministic(t *testing.T) {
	text := "Invoice #X-9\nDate: 05/06/2024\n3 bolts $1.50\nTotal: $4.50"
	first := NewExtractor().Extract(text)
	second := NewExtractor().Extract(text)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("extraction not deterministic:\n%+v\n%+v", first, second)
	}
}
