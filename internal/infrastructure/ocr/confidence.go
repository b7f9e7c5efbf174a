package ocr

import (
	"regexp"
	"strings"
)

var (
	reDate   = regexp.MustCompile(`\b20\d{2}\b|\b\d{1,2}[/-]\d{1,2}[/-]\d{2,4}\b`)
	reCurr   = regexp.MustCompile(`\b(usd|eur|gbp|cad|aud)\b|[$£€]`)
	reAmount = regexp.MustCompile(`\b\d{1,3}(,\d{3})*\.\d{2}\b|\b\d+\.\d{2}\b`)
)

// heuristicConfidence scores recognized text on the 0-100 scale from
// characteristics common to business documents. Used when tesseract
// produces no usable per-word confidence.
func heuristicConfidence(txt string) float64 {
	lower := strings.ToLower(txt)
	score := 20.0
	if reDate.MatchString(lower) {
		score += 20
	}
	if reCurr.MatchString(lower) {
		score += 15
	}
	if reAmount.MatchString(lower) {
		score += 15
	}
	if len(txt) > 120 {
		score += 10
	}
	if score > 100 {
		score = 100
	}
	return score
}
