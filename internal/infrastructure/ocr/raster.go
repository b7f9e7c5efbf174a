package ocr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
)

type RasterConfig struct {
	Binary   string
	DPI      int
	MaxPages int
}

// Rasterizer renders PDF pages to PNG frames with pdftoppm so they can
// be fed through an OCR engine one page at a time.
type Rasterizer struct {
	cfg    RasterConfig
	runner Runner
}

func NewRasterizer(cfg RasterConfig, runner Runner) *Rasterizer {
	if cfg.Binary == "" {
		cfg.Binary = "pdftoppm"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 20
	}
	if runner == nil {
		runner = ExecRunner{}
	}
	return &Rasterizer{cfg: cfg, runner: runner}
}

func (r *Rasterizer) RasterizePages(ctx context.Context, pdfData []byte) ([][]byte, error) {
	tmpDir, err := os.MkdirTemp("", "intake-raster-*")
	if err != nil {
		return nil, fmt.Errorf("raster temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	src := filepath.Join(tmpDir, "source.pdf")
	if err := os.WriteFile(src, pdfData, 0o600); err != nil {
		return nil, fmt.Errorf("stage pdf: %w", err)
	}

	prefix := filepath.Join(tmpDir, "page")
	_, errb, err := r.runner.Run(ctx, r.cfg.Binary,
		"-r", strconv.Itoa(r.cfg.DPI),
		"-l", strconv.Itoa(r.cfg.MaxPages),
		"-png", src, prefix)
	if err != nil {
		return nil, fmt.Errorf("pdftoppm: %w (%s)", err, truncate(string(errb), 256))
	}

	// pdftoppm names frames page-1.png, page-2.png, ...
	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if len(matches) > r.cfg.MaxPages {
		matches = matches[:r.cfg.MaxPages]
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("pdftoppm produced no page images")
	}

	pages := make([][]byte, 0, len(matches))
	for _, m := range matches {
		data, err := os.ReadFile(m)
		if err != nil {
			return nil, fmt.Errorf("read rendered page: %w", err)
		}
		pages = append(pages, data)
	}
	return pages, nil
}
