package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/paperstack/intake/internal/core/domain"
	"github.com/paperstack/intake/internal/core/ports"
)

const exportPageSize = 500

// Service produces XLSX workbooks of extracted document data for
// download from the api.
type Service struct {
	store  ports.DocumentStore
	logger *slog.Logger
}

func NewService(store ports.DocumentStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger}
}

// DocumentsXLSX renders one row per document, optionally filtered by
// status. Field columns stay empty for documents that have not
// completed processing.
func (s *Service) DocumentsXLSX(ctx context.Context, status domain.DocumentStatus) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	const sheet = "Documents"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, fmt.Errorf("xlsx sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if defaultSheet := f.GetSheetName(0); defaultSheet != sheet {
		_ = f.DeleteSheet(defaultSheet)
	}

	headers := []string{
		"ID",
		"Filename",
		"Status",
		"Uploaded At",
		"Processed At",
		"Extraction Method",
		"OCR Confidence",
		"Invoice Number",
		"Invoice Date",
		"Vendor",
		"Subtotal",
		"Tax",
		"Total",
		"Currency",
		"Error",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	total := 0
	for offset := 0; ; offset += exportPageSize {
		docs, err := s.store.List(ctx, ports.ListFilter{
			Status: status,
			Limit:  exportPageSize,
			Offset: offset,
		})
		if err != nil {
			return nil, fmt.Errorf("list documents: %w", err)
		}
		for i := range docs {
			writeDocumentRow(f, sheet, row, &docs[i])
			row++
		}
		total += len(docs)
		if len(docs) < exportPageSize {
			break
		}
	}

	_ = f.SetColWidth(sheet, "B", "B", 32)
	_ = f.SetColWidth(sheet, "D", "E", 20)
	_ = f.SetColWidth(sheet, "H", "J", 22)
	_ = f.SetColWidth(sheet, "O", "O", 48)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", total,
		"status_filter", string(status),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func writeDocumentRow(f *excelize.File, sheet string, row int, doc *domain.Document) {
	write := func(col int, v any) {
		cell, _ := excelize.CoordinatesToCellName(col, row)
		_ = f.SetCellValue(sheet, cell, v)
	}

	write(1, doc.ID)
	write(2, doc.Filename)
	write(3, string(doc.Status))
	write(4, doc.UploadedAt.UTC().Format("2006-01-02 15:04:05"))
	if doc.ProcessedAt != nil {
		write(5, doc.ProcessedAt.UTC().Format("2006-01-02 15:04:05"))
	}
	write(6, doc.ExtractionMethod)
	write(7, doc.OCRConfidence)

	if doc.Fields != nil {
		if doc.Fields.InvoiceNumber != nil {
			write(8, *doc.Fields.InvoiceNumber)
		}
		switch {
		case doc.Fields.InvoiceDate != nil:
			write(9, doc.Fields.InvoiceDate.Format("2006-01-02"))
		case doc.Fields.InvoiceDateRaw != "":
			write(9, doc.Fields.InvoiceDateRaw)
		}
		if doc.Fields.Vendor != nil {
			write(10, *doc.Fields.Vendor)
		}
		if doc.Fields.Subtotal != nil {
			write(11, *doc.Fields.Subtotal)
		}
		if doc.Fields.TaxAmount != nil {
			write(12, *doc.Fields.TaxAmount)
		}
		if doc.Fields.TotalAmount != nil {
			write(13, *doc.Fields.TotalAmount)
		}
		write(14, doc.Fields.Currency)
	}
	write(15, doc.Error)
}
