package textacquire

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/paperstack/intake/internal/core/domain"
	"github.com/paperstack/intake/internal/core/ports"
	"github.com/paperstack/intake/internal/infrastructure/ocr"
)

// PageRasterizer renders a PDF into per-page image frames for OCR.
type PageRasterizer interface {
	RasterizePages(ctx context.Context, pdfData []byte) ([][]byte, error)
}

type Config struct {
	Language string
	// PDFs whose trimmed embedded text layer is shorter than this go
	// through OCR instead. Any non-empty text layer wins by default.
	MinEmbeddedChars int
	// Concurrent page recognitions per document.
	PageParallelism int
}

// Acquirer turns stored document bytes into raw text. PDFs prefer
// their embedded text layer and fall back to rasterized OCR; images go
// straight to OCR; plain text passes through.
type Acquirer struct {
	embedded ports.EmbeddedTextExtractor
	engine   ports.OCREngine
	raster   PageRasterizer
	cfg      Config
	logger   *slog.Logger
}

func NewAcquirer(embedded ports.EmbeddedTextExtractor, engine ports.OCREngine, raster PageRasterizer, cfg Config, logger *slog.Logger) *Acquirer {
	if cfg.Language == "" {
		cfg.Language = "eng"
	}
	if cfg.MinEmbeddedChars <= 0 {
		cfg.MinEmbeddedChars = 1
	}
	if cfg.PageParallelism <= 0 {
		cfg.PageParallelism = 4
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Acquirer{embedded: embedded, engine: engine, raster: raster, cfg: cfg, logger: logger}
}

func (a *Acquirer) Acquire(ctx context.Context, data []byte, contentType string) (domain.AcquiredText, error) {
	mediaType := contentType
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		mediaType = mt
	}

	switch mediaType {
	case "text/plain":
		return domain.AcquiredText{
			Text:       string(data),
			Confidence: 100,
			Method:     domain.MethodPlainText,
			Pages:      1,
		}, nil
	case "application/pdf":
		return a.acquirePDF(ctx, data)
	case "image/png", "image/jpeg", "image/tiff", "image/bmp", "image/gif":
		return a.acquireImage(ctx, data)
	default:
		return domain.AcquiredText{}, domain.WrapError(domain.ErrUnsupportedFormat, "acquire text",
			fmt.Errorf("content type %q", contentType))
	}
}

func (a *Acquirer) acquirePDF(ctx context.Context, data []byte) (domain.AcquiredText, error) {
	text, err := a.embedded.ExtractText(data)
	if err != nil {
		a.logger.Warn("embedded text extraction failed, falling back to ocr", "error", err)
	} else if len(strings.TrimSpace(text)) >= a.cfg.MinEmbeddedChars {
		return domain.AcquiredText{
			Text:       text,
			Confidence: 100,
			Method:     domain.MethodDirect,
			Pages:      strings.Count(text, "\f") + 1,
		}, nil
	}

	if a.degraded() {
		return a.unavailableResult(), nil
	}

	pages, err := a.raster.RasterizePages(ctx, data)
	if err != nil {
		return domain.AcquiredText{}, domain.WrapError(domain.ErrAcquisition, "rasterize pdf", err)
	}
	if len(pages) == 0 {
		return domain.AcquiredText{Method: domain.MethodOCR}, nil
	}

	texts := make([]string, len(pages))
	confidences := make([]float64, len(pages))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.cfg.PageParallelism)
	for i, page := range pages {
		i, page := i, page
		g.Go(func() error {
			pageText, confidence, err := a.engine.Recognize(gctx, page, a.cfg.Language)
			if err != nil {
				return fmt.Errorf("page %d: %w", i+1, err)
			}
			texts[i] = pageText
			confidences[i] = confidence
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return domain.AcquiredText{}, domain.WrapError(domain.ErrAcquisition, "ocr pdf", err)
	}

	var total float64
	for _, c := range confidences {
		total += c
	}
	return domain.AcquiredText{
		Text:       strings.Join(texts, "\n\f\n"),
		Confidence: total / float64(len(pages)),
		Method:     domain.MethodOCR,
		Pages:      len(pages),
	}, nil
}

func (a *Acquirer) acquireImage(ctx context.Context, data []byte) (domain.AcquiredText, error) {
	if a.degraded() {
		return a.unavailableResult(), nil
	}

	text, confidence, err := a.engine.Recognize(ctx, data, a.cfg.Language)
	if err != nil {
		return domain.AcquiredText{}, domain.WrapError(domain.ErrAcquisition, "ocr image", err)
	}
	return domain.AcquiredText{
		Text:       text,
		Confidence: confidence,
		Method:     domain.MethodOCR,
		Pages:      1,
	}, nil
}

func (a *Acquirer) degraded() bool {
	return a.engine == nil || a.engine.Name() == ocr.EngineUnavailable
}

// unavailableResult keeps processing moving when no OCR engine is
// installed: the document completes with no text rather than failing.
func (a *Acquirer) unavailableResult() domain.AcquiredText {
	return domain.AcquiredText{Method: domain.MethodUnavailable}
}
