package textacquire

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDFTextExtractor pulls the embedded text layer out of a PDF without
// touching pixels. Pages are joined with form feeds so callers can
// count them.
type PDFTextExtractor struct{}

func (PDFTextExtractor) ExtractText(data []byte) (text string, err error) {
	// The pdf parser panics on some malformed documents.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parse pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("parse pdf: %w", err)
	}

	var b strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("extract page %d: %w", i, err)
		}
		if b.Len() > 0 {
			b.WriteString("\f")
		}
		b.WriteString(pageText)
	}
	return b.String(), nil
}
