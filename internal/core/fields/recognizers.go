package fields

import (
	"regexp"
	"strconv"
	"strings"
)

// Recognizer is one pattern family in a field's ordered catalog. Earlier
// entries are more specific and win over later ones.
type Recognizer interface {
	TryMatch(text string) (string, bool)
}

// patternRecognizer captures the first submatch of a regular expression.
type patternRecognizer struct {
	re *regexp.Regexp
}

func pattern(expr string) patternRecognizer {
	return patternRecognizer{re: regexp.MustCompile(expr)}
}

func (p patternRecognizer) TryMatch(text string) (string, bool) {
	m := p.re.FindStringSubmatch(text)
	if len(m) < 2 || strings.TrimSpace(m[1]) == "" {
		return "", false
	}
	return m[1], true
}

// amount is the numeric shape shared by the money recognizers: optional
// thousands separators, optional cents.
const amount = `(\d{1,3}(?:,\d{3})+(?:\.\d{1,2})?|\d+(?:\.\d{1,2})?)`

var invoiceNumberRecognizers = []Recognizer{
	pattern(`(?i)invoice\s*#?\s*:?\s*([A-Za-z0-9][A-Za-z0-9\-]*)`),
	pattern(`(?i)receipt\s*#?\s*:?\s*([A-Za-z0-9][A-Za-z0-9\-]*)`),
	pattern(`(?i)\binv\s*#?\s*:?\s*([A-Za-z0-9][A-Za-z0-9\-]*)`),
	pattern(`#\s*([A-Za-z0-9][A-Za-z0-9\-]*)`),
}

var totalRecognizers = []Recognizer{
	pattern(`(?i)\btotal\s*:?\s*[$€£]?\s*` + amount),
	pattern(`(?i)\bamount\s+due\s*:?\s*[$€£]?\s*` + amount),
	pattern(`(?i)\bbalance\s*(?:due)?\s*:?\s*[$€£]?\s*` + amount),
	// No label matched anywhere: on an invoice the total is usually the
	// largest amount on the page.
	largestAmountRecognizer{},
}

var taxRecognizers = []Recognizer{
	pattern(`(?i)\btax\s*:?\s*[$€£]?\s*` + amount),
	pattern(`(?i)\bvat\s*:?\s*[$€£]?\s*` + amount),
	pattern(`(?i)\bgst\s*:?\s*[$€£]?\s*` + amount),
}

var subtotalRecognizers = []Recognizer{
	pattern(`(?i)\bsub\s*[-]?\s*total\s*:?\s*[$€£]?\s*` + amount),
}

var dateRecognizers = []Recognizer{
	pattern(`(?i)date\s*:?\s*(\d{1,2}[/\-.]\d{1,2}[/\-.]\d{2,4})`),
	pattern(`(?i)issued\s*:?\s*(\d{1,2}[/\-.]\d{1,2}[/\-.]\d{2,4})`),
	pattern(`(?i)date\s*:?\s*(\d{4}-\d{2}-\d{2})`),
	pattern(`(?i)\b((?:jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?\s+\d{1,2},?\s+\d{4})`),
	pattern(`(?i)\b(\d{1,2}\s+(?:jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?\s+\d{4})`),
	pattern(`(\d{1,2}[/\-.]\d{1,2}[/\-.]\d{2,4})`),
	pattern(`(\d{4}-\d{2}-\d{2})`),
}

// largestAmountRecognizer implements the unlabeled-total heuristic.
type largestAmountRecognizer struct{}

var bareAmountRe = regexp.MustCompile(`[$€£]\s*` + amount)

func (largestAmountRecognizer) TryMatch(text string) (string, bool) {
	var best string
	var bestValue float64
	for _, m := range bareAmountRe.FindAllStringSubmatch(text, -1) {
		value, err := parseAmount(m[1])
		if err != nil {
			continue
		}
		if best == "" || value > bestValue {
			best, bestValue = m[1], value
		}
	}
	return best, best != ""
}

func parseAmount(s string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
}

// matchFirst returns the first recognizer hit for the field, run through
// normalize, as a nullable string.
func matchFirst(catalog []Recognizer, text string, normalize func(string) string) *string {
	raw, ok := matchFirstRaw(catalog, text)
	if !ok {
		return nil
	}
	value := normalize(raw)
	if value == "" {
		return nil
	}
	return &value
}

func matchFirstRaw(catalog []Recognizer, text string) (string, bool) {
	for _, r := range catalog {
		if value, ok := r.TryMatch(text); ok {
			return value, true
		}
	}
	return "", false
}

func matchAmount(catalog []Recognizer, text string) *float64 {
	raw, ok := matchFirstRaw(catalog, text)
	if !ok {
		return nil
	}
	value, err := parseAmount(raw)
	if err != nil {
		return nil
	}
	return &value
}

// currencyHints maps symbols and ISO codes/keywords to a currency code.
// Order matters: composite symbols like A$ must win over the bare $.
var currencyHints = []struct {
	re   *regexp.Regexp
	code string
}{
	{regexp.MustCompile(`(?i)A\$|AU\$|\bAUD\b`), "AUD"},
	{regexp.MustCompile(`(?i)US\$|\bUSD\b`), "USD"},
	{regexp.MustCompile(`€|\bEUR\b|(?i)\bEURO\b`), "EUR"},
	{regexp.MustCompile(`£|\bGBP\b|(?i)\bPOUND\b`), "GBP"},
	{regexp.MustCompile(`\$`), "USD"},
}

func detectCurrency(text string) string {
	for _, hint := range currencyHints {
		if hint.re.MatchString(text) {
			return hint.code
		}
	}
	return defaultCurrency
}
