package extract

import (
	"context"
	"log/slog"
	"time"

	"github.com/msoriano/rfp-intake/constants"
	"github.com/msoriano/rfp-intake/internal/tabular"
)

// Extractor dispatches a classified blob to its format-specific extraction
// strategy. It never returns an error: a blob that cannot be extracted
// produces a failed fragment so one bad attachment cannot abort the request.
type Extractor struct {
	tab    *tabular.Parser
	logger *slog.Logger
}

func NewExtractor(tab *tabular.Parser, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{tab: tab, logger: logger}
}

// Extract produces the primary (pre-OCR) fragment for one blob.
func (e *Extractor) Extract(ctx context.Context, blob InputBlob, kind constants.ContentKind) Fragment {
	start := time.Now()
	frag := e.extract(ctx, blob, kind)
	frag.Duration = time.Since(start)

	e.logger.Debug("extract.done",
		"file", blob.Filename,
		"kind", string(kind),
		"method", frag.Method,
		"chars", len(frag.Text),
		"pages", frag.Pages,
		"succeeded", frag.Succeeded,
		"elapsed_ms", frag.Duration.Milliseconds(),
	)
	return frag
}

func (e *Extractor) extract(_ context.Context, blob InputBlob, kind constants.ContentKind) Fragment {
	switch kind {
	case constants.KindPDF:
		text, pages, warns := extractPDFText(blob.Data)
		return Fragment{
			SourceName: blob.Filename,
			Kind:       kind,
			Text:       text,
			Succeeded:  true,
			Method:     "pdf-text",
			Pages:      pages,
			Warnings:   warns,
		}

	case constants.KindDOCX:
		text, err := extractDOCXText(blob.Data)
		if err != nil {
			e.logger.Warn("extract.docx_failed", "file", blob.Filename, "error", err)
			return Empty(blob.Filename, kind)
		}
		return Fragment{
			SourceName: blob.Filename,
			Kind:       kind,
			Text:       text,
			Succeeded:  true,
			Method:     "docx-text",
			Pages:      1,
		}

	case constants.KindText:
		return Fragment{
			SourceName: blob.Filename,
			Kind:       kind,
			Text:       extractPlainText(blob.Data),
			Succeeded:  true,
			Method:     "plain-text",
			Pages:      1,
		}

	case constants.KindXLSX, constants.KindCSV:
		rows, err := e.tab.Parse(blob.Data, kind)
		if err != nil {
			e.logger.Warn("extract.tabular_failed", "file", blob.Filename, "error", err)
			return Empty(blob.Filename, kind)
		}
		return Fragment{
			SourceName: blob.Filename,
			Kind:       kind,
			Text:       tabular.Render(rows),
			Succeeded:  true,
			Method:     "tabular",
			Pages:      1,
		}

	case constants.KindImage:
		// no text layer; yield stays empty so the OCR fallback fires
		return Fragment{
			SourceName: blob.Filename,
			Kind:       kind,
			Succeeded:  true,
			Method:     "none",
			Pages:      1,
		}

	case constants.KindZIP, constants.KindUnknown:
		return Empty(blob.Filename, kind)

	default:
		return Empty(blob.Filename, kind)
	}
}
