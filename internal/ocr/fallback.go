package ocr

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/msoriano/rfp-intake/constants"
	"github.com/msoriano/rfp-intake/internal/extract"
)

// Fallback decides whether a primary extraction was too thin and, if so,
// re-extracts via OCR. Disabling the feature flag and the engine being
// unavailable share one degradation path: the primary fragment is returned
// unchanged.
type Fallback struct {
	enabled         bool
	engine          Engine
	minCharsPerPage int
	logger          *slog.Logger
}

func NewFallback(enabled bool, engine Engine, minCharsPerPage int, logger *slog.Logger) *Fallback {
	if logger == nil {
		logger = slog.Default()
	}
	if minCharsPerPage <= 0 {
		minCharsPerPage = 24
	}
	return &Fallback{enabled: enabled, engine: engine, minCharsPerPage: minCharsPerPage, logger: logger}
}

// MaybeOCR returns the fragment that should represent the blob: the primary
// one when its yield is acceptable or OCR cannot run, otherwise the OCR
// result when it improves on the primary yield.
func (f *Fallback) MaybeOCR(ctx context.Context, blob extract.InputBlob, primary extract.Fragment) extract.Fragment {
	if !f.shouldAttempt(primary) {
		return primary
	}

	start := time.Now()
	text, pages, err := f.run(ctx, blob, primary.Kind)
	if err != nil {
		f.logger.Warn("ocr.fallback.failed", "file", blob.Filename, "error", err)
		return primary
	}

	if nonWhitespaceLen(text) <= nonWhitespaceLen(primary.Text) {
		f.logger.Info("ocr.fallback.no_improvement",
			"file", blob.Filename,
			"primary_chars", nonWhitespaceLen(primary.Text),
			"ocr_chars", nonWhitespaceLen(text),
		)
		return primary
	}

	out := primary
	out.Text = text
	out.UsedOCRFallback = true
	out.Succeeded = true
	out.Confidence = heuristicConfidence(text)
	if pages > 0 {
		out.Pages = pages
	}
	if primary.Kind == constants.KindPDF {
		out.Method = "pdf-ocr"
	} else {
		out.Method = "image-ocr"
	}
	out.Duration += time.Since(start)

	f.logger.Info("ocr.fallback.ok",
		"file", blob.Filename,
		"method", out.Method,
		"pages", out.Pages,
		"chars", len(out.Text),
		"confidence", out.Confidence,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out
}

// shouldAttempt is the trigger heuristic: only PDF and image kinds qualify,
// and only when the primary yield falls below the per-page threshold. OCR is
// the most expensive extraction path, so a healthy text layer skips it.
func (f *Fallback) shouldAttempt(primary extract.Fragment) bool {
	if !f.enabled || f.engine == nil || !f.engine.Available() {
		return false
	}
	if primary.Kind != constants.KindPDF && primary.Kind != constants.KindImage {
		return false
	}
	pages := primary.Pages
	if pages < 1 {
		pages = 1
	}
	return nonWhitespaceLen(primary.Text) < f.minCharsPerPage*pages
}

func (f *Fallback) run(ctx context.Context, blob extract.InputBlob, kind constants.ContentKind) (string, int, error) {
	if kind == constants.KindImage {
		text, err := f.engine.Recognize(ctx, blob.Data)
		return text, 1, err
	}

	images, err := f.engine.Rasterize(ctx, blob.Data)
	if err != nil {
		return "", 0, err
	}
	var b strings.Builder
	for _, img := range images {
		txt, err := f.engine.Recognize(ctx, img)
		if err != nil {
			f.logger.Warn("ocr.fallback.page_failed", "file", blob.Filename, "error", err)
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\f\n") // keep a clear page break marker
		}
		b.WriteString(txt)
	}
	return b.String(), len(images), nil
}
