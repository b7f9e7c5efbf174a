package ocr

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/paperstack/intake/internal/core/ports"
)

const EngineUnavailable = "unavailable"

type TesseractConfig struct {
	Binary      string
	TessdataDir string
}

// TesseractEngine recognizes text by shelling out to the tesseract
// binary. Inputs arrive as raw image bytes and are staged in a temp
// file because tesseract reads from paths only.
type TesseractEngine struct {
	cfg    TesseractConfig
	runner Runner
}

func NewTesseractEngine(cfg TesseractConfig, runner Runner) *TesseractEngine {
	if cfg.Binary == "" {
		cfg.Binary = "tesseract"
	}
	if runner == nil {
		runner = ExecRunner{}
	}
	return &TesseractEngine{cfg: cfg, runner: runner}
}

func (e *TesseractEngine) Name() string { return "tesseract" }

func (e *TesseractEngine) Recognize(ctx context.Context, image []byte, language string) (string, float64, error) {
	if language == "" {
		language = "eng"
	}

	path, cleanup, err := stageImage(image)
	if err != nil {
		return "", 0, err
	}
	defer cleanup()

	args := []string{path, "stdout", "-l", language}
	if e.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", e.cfg.TessdataDir)
	}
	out, errb, err := e.runner.Run(ctx, e.cfg.Binary, args...)
	if err != nil {
		return "", 0, fmt.Errorf("tesseract: %w (%s)", err, truncate(string(errb), 256))
	}
	text := string(out)

	confidence := e.tsvConfidence(ctx, path, language)
	if confidence <= 0 {
		confidence = heuristicConfidence(text)
	}
	return text, confidence, nil
}

// tsvConfidence reruns tesseract in TSV mode and averages per-word
// confidences. Returns 0 when the run fails or yields no words; the
// caller falls back to the heuristic.
func (e *TesseractEngine) tsvConfidence(ctx context.Context, path, language string) float64 {
	args := []string{path, "stdout", "-l", language}
	if e.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", e.cfg.TessdataDir)
	}
	args = append(args, "tsv")

	out, _, err := e.runner.Run(ctx, e.cfg.Binary, args...)
	if err != nil {
		return 0
	}

	var sum, n float64
	for i, line := range strings.Split(string(out), "\n") {
		if i == 0 || line == "" {
			continue
		}
		cols := strings.Split(line, "\t")
		if len(cols) < 12 {
			continue
		}
		// TSV columns: level..height, conf, text. conf is -1 for
		// non-word rows.
		conf := cols[10]
		if conf == "" || conf == "-1" {
			continue
		}
		if v, err := strconv.ParseFloat(conf, 64); err == nil {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / n
}

func stageImage(image []byte) (string, func(), error) {
	f, err := os.CreateTemp("", "intake-ocr-*.png")
	if err != nil {
		return "", nil, fmt.Errorf("stage image: %w", err)
	}
	if _, err := f.Write(image); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", nil, fmt.Errorf("stage image: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", nil, fmt.Errorf("stage image: %w", err)
	}
	return f.Name(), func() { os.Remove(f.Name()) }, nil
}

// UnavailableEngine is the degraded no-op used when no OCR binary is
// installed. Recognition yields empty text so documents still reach a
// terminal state instead of failing outright.
type UnavailableEngine struct{}

func (UnavailableEngine) Name() string { return EngineUnavailable }

func (UnavailableEngine) Recognize(context.Context, []byte, string) (string, float64, error) {
	return "", 0, nil
}

// Autodetect returns a tesseract-backed engine when the binary is on
// PATH and the degraded engine otherwise.
func Autodetect(cfg TesseractConfig, runner Runner) ports.OCREngine {
	binary := cfg.Binary
	if binary == "" {
		binary = "tesseract"
	}
	if _, err := exec.LookPath(binary); err != nil {
		return UnavailableEngine{}
	}
	return NewTesseractEngine(cfg, runner)
}
