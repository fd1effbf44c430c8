// Package pipeline wires detection, expansion, extraction, aggregation,
// AI extraction, and validation into the single Process operation exposed
// to the service layer.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/msoriano/rfp-intake/constants"
	"github.com/msoriano/rfp-intake/internal/aggregate"
	"github.com/msoriano/rfp-intake/internal/archive"
	"github.com/msoriano/rfp-intake/internal/common"
	"github.com/msoriano/rfp-intake/internal/detect"
	"github.com/msoriano/rfp-intake/internal/extract"
	"github.com/msoriano/rfp-intake/internal/llm"
	"github.com/msoriano/rfp-intake/internal/ocr"
	"github.com/msoriano/rfp-intake/internal/tabular"
	"github.com/msoriano/rfp-intake/internal/validate"
)

// Pipeline processes one request's uploaded blobs into a validated record.
// Feature flags are read once at construction; concurrent pipelines with
// different flags can coexist in one process.
type Pipeline struct {
	cfg       common.PipelineConfig
	expander  *archive.Expander
	extractor *extract.Extractor
	fallback  *ocr.Fallback
	records   llm.RecordExtractor
	logger    *slog.Logger
}

// New builds a pipeline. engine may be nil (OCR degrades to a no-op);
// records must not be nil.
func New(cfg common.PipelineConfig, records llm.RecordExtractor, engine ocr.Engine, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ExtractWorkers < 1 {
		cfg.ExtractWorkers = 4
	}
	if cfg.DefaultCurrency == "" {
		cfg.DefaultCurrency = "EUR"
	}
	return &Pipeline{
		cfg:       cfg,
		expander:  archive.NewExpander(cfg.UseZIP, cfg.MaxFileBytes, logger),
		extractor: extract.NewExtractor(tabular.NewParser(logger), logger),
		fallback:  ocr.NewFallback(cfg.UseOCR, engine, cfg.OCRMinCharsPerPage, logger),
		records:   records,
		logger:    logger,
	}
}

// unit is one classified blob queued for extraction. Units keep their
// position so the corpus preserves input order no matter which extraction
// finishes first.
type unit struct {
	blob extract.InputBlob
	kind constants.ContentKind
}

// Process runs the full pipeline on the ordered blobs of one request.
// It returns a validated record or one of the typed errors in
// internal/common. No partial result is ever returned.
func (p *Pipeline) Process(ctx context.Context, blobs []extract.InputBlob) (*validate.Record, error) {
	reqID := uuid.New().String()
	ctx = common.WithRequestID(ctx, reqID)
	start := time.Now()

	if p.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = common.WithTimeout(ctx, p.cfg.RequestTimeout)
		defer cancel()
	}

	p.logger.Info("pipeline.start", "req_id", reqID, "files", len(blobs))

	if len(blobs) == 0 {
		return nil, common.NewAppError("PIPELINE", "no input files", common.ErrInvalidInput)
	}
	if err := p.checkSizeLimits(blobs); err != nil {
		return nil, err
	}

	units := p.classify(blobs)

	fragments, err := p.extractAll(ctx, units)
	if err != nil {
		return nil, err
	}

	corpus := aggregate.Build(fragments, p.cfg.MaxCorpusBytes, p.logger)
	sources := make([]string, len(fragments))
	usable := false
	for i, f := range fragments {
		sources[i] = f.SourceName
		if len(f.Text) > 0 {
			usable = true
		}
	}
	if !usable {
		p.logger.Warn("pipeline.no_extractable_text", "req_id", reqID, "files", len(blobs))
		return nil, common.NewAppError("PIPELINE",
			"no text could be extracted from any input file",
			common.ErrUnsupportedInput)
	}

	draft, _, err := p.records.ExtractRecord(ctx, llm.ExtractRequest{
		Corpus:          corpus.Text,
		SourceNames:     sources,
		DefaultCurrency: p.cfg.DefaultCurrency,
	})
	if err != nil {
		return nil, err
	}

	rec, err := validate.Normalize(draft, p.cfg.DefaultCurrency, p.logger)
	if err != nil {
		return nil, err
	}

	// files that produced nothing are surfaced as issues, not errors
	for _, f := range fragments {
		if !f.Succeeded {
			rec.Issues = append(rec.Issues, validate.Issue{
				Field:   "sources",
				Message: "no text extracted from file",
				Value:   f.SourceName,
			})
			rec.NeedsReview = true
		}
	}

	p.logger.Info("pipeline.ok",
		"req_id", reqID,
		"files", len(blobs),
		"fragments", len(fragments),
		"corpus_bytes", len(corpus.Text),
		"truncated", corpus.Truncated,
		"line_items", len(rec.LineItems),
		"issues", len(rec.Issues),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return rec, nil
}

// checkSizeLimits enforces the per-file and aggregate caps before any
// extraction work is spent.
func (p *Pipeline) checkSizeLimits(blobs []extract.InputBlob) error {
	var total int64
	for _, b := range blobs {
		size := int64(len(b.Data))
		if p.cfg.MaxFileBytes > 0 && size > p.cfg.MaxFileBytes {
			return common.NewAppError("PIPELINE",
				fmt.Sprintf("file %q exceeds per-file limit (%d bytes)", b.Filename, p.cfg.MaxFileBytes),
				common.ErrSizeLimitExceeded)
		}
		total += size
	}
	if p.cfg.MaxTotalBytes > 0 && total > p.cfg.MaxTotalBytes {
		return common.NewAppError("PIPELINE",
			fmt.Sprintf("request exceeds total size limit (%d bytes)", p.cfg.MaxTotalBytes),
			common.ErrSizeLimitExceeded)
	}
	return nil
}

// classify detects every blob and expands archives one level. Members of an
// expanded archive are re-classified; a member that is itself an archive
// stays opaque.
func (p *Pipeline) classify(blobs []extract.InputBlob) []unit {
	var units []unit
	for _, b := range blobs {
		kind := detect.Detect(b)
		if kind != constants.KindZIP {
			units = append(units, unit{blob: b, kind: kind})
			continue
		}
		members, kind := p.expander.Expand(b, kind)
		if kind != constants.KindZIP || len(members) == 1 && members[0].Filename == b.Filename {
			// corrupt, or expansion disabled: the blob passes through
			units = append(units, unit{blob: b, kind: kind})
			continue
		}
		for _, m := range members {
			units = append(units, unit{blob: m, kind: detect.Detect(m)})
		}
	}
	return units
}

// extractAll runs per-unit extraction (plus OCR fallback) across a bounded
// worker pool. Results land at their unit's index, so corpus order matches
// input order regardless of completion order.
func (p *Pipeline) extractAll(ctx context.Context, units []unit) ([]extract.Fragment, error) {
	fragments := make([]extract.Fragment, len(units))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.ExtractWorkers)
	for i, u := range units {
		i, u := i, u
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			frag := p.extractor.Extract(gctx, u.blob, u.kind)
			frag = p.fallback.MaybeOCR(gctx, u.blob, frag)
			fragments[i] = frag
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, common.NewAppError("PIPELINE", "extraction aborted", err)
	}
	return fragments, nil
}
