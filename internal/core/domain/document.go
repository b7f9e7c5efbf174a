package domain

import "time"

type DocumentStatus string

const (
	StatusPending    DocumentStatus = "pending"
	StatusProcessing DocumentStatus = "processing"
	StatusCompleted  DocumentStatus = "completed"
	StatusFailed     DocumentStatus = "failed"
)

// Acquisition method tags. Downstream consumers filter low-trust
// extractions on MethodUnavailable.
const (
	MethodDirect      = "direct"
	MethodOCR         = "ocr"
	MethodPlainText   = "plain-text"
	MethodUnavailable = "unavailable"
)

type Document struct {
	ID          int64          `json:"id"`
	Filename    string         `json:"filename"`
	StoredName  string         `json:"stored_name"`
	ContentType string         `json:"content_type"`
	SizeBytes   int64          `json:"size_bytes"`
	Fingerprint string         `json:"fingerprint"`
	Status      DocumentStatus `json:"status"`
	Error       string         `json:"error,omitempty"`

	RawText          string  `json:"raw_text,omitempty"`
	ExtractionMethod string  `json:"extraction_method,omitempty"`
	OCRConfidence    float64 `json:"ocr_confidence,omitempty"`

	Fields *ExtractedFields `json:"fields,omitempty"`

	UploadedAt  time.Time  `json:"uploaded_at"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
}

// ExtractedFields is the structured record produced by field extraction.
// A nil pointer means the corresponding recognizer found nothing.
type ExtractedFields struct {
	InvoiceNumber  *string    `json:"invoice_number,omitempty"`
	InvoiceDate    *time.Time `json:"invoice_date,omitempty"`
	InvoiceDateRaw string     `json:"invoice_date_raw,omitempty"`
	TotalAmount    *float64   `json:"total_amount,omitempty"`
	Subtotal       *float64   `json:"subtotal,omitempty"`
	TaxAmount      *float64   `json:"tax_amount,omitempty"`
	Currency       string     `json:"currency"`
	Vendor         *string    `json:"vendor,omitempty"`
	LineItems      []LineItem `json:"line_items,omitempty"`
}

type LineItem struct {
	Description string   `json:"description"`
	Quantity    *int     `json:"quantity,omitempty"`
	UnitPrice   *float64 `json:"unit_price,omitempty"`
}

// ExtractionResult is the transient outcome of running the recognizer
// catalog over acquired text.
type ExtractionResult struct {
	Fields     ExtractedFields `json:"fields"`
	Confidence float64         `json:"confidence"`
}

// AcquiredText is the aggregated outcome of text acquisition for one
// document. Confidence is on the 0-100 acquisition scale.
type AcquiredText struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	Method     string  `json:"method"`
	Pages      int     `json:"pages"`
}

type ProcessingStats struct {
	Total                int     `json:"total"`
	Pending              int     `json:"pending"`
	Processing           int     `json:"processing"`
	Completed            int     `json:"completed"`
	Failed               int     `json:"failed"`
	SuccessRate          float64 `json:"success_rate"`
	AvgProcessingSeconds float64 `json:"avg_processing_seconds"`
}

// DuplicateKind classifies an incoming upload against stored documents.
type DuplicateKind string

const (
	DuplicateNone     DuplicateKind = "none"
	DuplicateContent  DuplicateKind = "exact-content"
	DuplicateNameSize DuplicateKind = "exact-name-size"
	DuplicateNear     DuplicateKind = "near"
)

// DuplicateMatch carries the classification plus the colliding document,
// when one exists, so callers can report it.
type DuplicateMatch struct {
	Kind     DuplicateKind `json:"kind"`
	Existing *Document     `json:"existing,omitempty"`
	Message  string        `json:"message,omitempty"`
}

// Exact reports whether the match rejects ingestion absent a force flag.
func (m DuplicateMatch) Exact() bool {
	return m.Kind == DuplicateContent || m.Kind == DuplicateNameSize
}
