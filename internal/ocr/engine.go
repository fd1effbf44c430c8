// Package ocr re-extracts text from scanned documents via external
// rasterization and recognition tools. The whole package is an enhancement:
// missing binaries degrade to no-ops, never to failures.
package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/msoriano/rfp-intake/internal/common"
)

// Engine is the OCR collaborator interface: rasterize a PDF into page
// images, recognize text in one image. Both are optional at runtime.
type Engine interface {
	// Available reports whether the engine can actually run. Callers must
	// skip OCR entirely when this is false.
	Available() bool
	Rasterize(ctx context.Context, pdfData []byte) ([][]byte, error)
	Recognize(ctx context.Context, imageData []byte) (string, error)
}

// ExecEngine shells out to pdftoppm and tesseract.
type ExecEngine struct {
	cfg    common.OCRConfig
	runner Runner
	logger *slog.Logger

	probeOnce sync.Once
	available bool
}

func NewExecEngine(cfg common.OCRConfig, logger *slog.Logger) *ExecEngine {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "eng"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	return &ExecEngine{cfg: cfg, runner: execRunner{}, logger: logger}
}

// Available probes both binaries once and caches the answer for the life of
// the engine.
func (e *ExecEngine) Available() bool {
	e.probeOnce.Do(func() {
		for _, bin := range []string{e.cfg.Pdftoppm, e.cfg.Tesseract} {
			if _, err := e.runner.LookPath(bin); err != nil {
				e.logger.Warn("ocr.engine.unavailable", "binary", bin, "error", err)
				return
			}
		}
		e.available = true
	})
	return e.available
}

// Rasterize renders each PDF page to a PNG via pdftoppm.
func (e *ExecEngine) Rasterize(ctx context.Context, pdfData []byte) ([][]byte, error) {
	tmpDir, err := os.MkdirTemp("", "rfp-pp-*")
	if err != nil {
		return nil, err
	}
	defer func() {
		if rmErr := os.RemoveAll(tmpDir); rmErr != nil {
			e.logger.Warn("ocr.rasterize.tmp_cleanup_failed", "dir", tmpDir, "error", rmErr)
		}
	}()

	in := filepath.Join(tmpDir, "in.pdf")
	if err := os.WriteFile(in, pdfData, 0o600); err != nil {
		return nil, err
	}

	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -r 300 -png <in.pdf> <tmp/page>
	_, errb, err := e.runner.Run(ctx, e.cfg.Pdftoppm, "-r", fmt.Sprintf("%d", e.cfg.DPI), "-png", in, prefix)
	if err != nil {
		return nil, fmt.Errorf("pdftoppm: %w (%s)", err, truncate(string(errb), 512))
	}

	// collect generated pngs (prefix-1.png, prefix-2.png, ...)
	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if e.cfg.MaxPages > 0 && len(matches) > e.cfg.MaxPages {
		matches = matches[:e.cfg.MaxPages]
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("pdftoppm produced no images")
	}

	pages := make([][]byte, 0, len(matches))
	for _, m := range matches {
		img, err := os.ReadFile(m)
		if err != nil {
			return nil, err
		}
		pages = append(pages, img)
	}
	return pages, nil
}

// Recognize runs tesseract over one image.
func (e *ExecEngine) Recognize(ctx context.Context, imageData []byte) (string, error) {
	tmpDir, err := os.MkdirTemp("", "rfp-ocr-*")
	if err != nil {
		return "", err
	}
	defer func() {
		if rmErr := os.RemoveAll(tmpDir); rmErr != nil {
			e.logger.Warn("ocr.recognize.tmp_cleanup_failed", "dir", tmpDir, "error", rmErr)
		}
	}()

	in := filepath.Join(tmpDir, "page.png")
	if err := os.WriteFile(in, imageData, 0o600); err != nil {
		return "", err
	}

	args := []string{in, "stdout", "-l", e.cfg.TesseractLang}
	if e.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", e.cfg.TessdataDir)
	}

	// tesseract <file> stdout -l <lang>
	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, args...)
	if err != nil {
		return "", fmt.Errorf("tesseract: %w (%s)", err, truncate(string(errb), 512))
	}
	return strings.TrimRight(string(out), "\n"), nil
}
