// Package aggregate assembles per-file fragments into the corpus handed to
// the AI extractor.
package aggregate

import (
	"log/slog"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/msoriano/rfp-intake/constants"
	"github.com/msoriano/rfp-intake/internal/extract"
)

// SourceMarker prefixes every section so the extractor can attribute claims
// to a specific file.
const SourceMarker = "### SOURCE: "

// Corpus is the ordered concatenation of all fragment texts. Section order
// always matches input order; the prompt tells the model to prefer
// later-appearing sources on conflict, so order is part of the contract.
type Corpus struct {
	Text      string
	Sections  []Section
	Truncated bool
}

type Section struct {
	Source string
	Kind   constants.ContentKind
	Text   string
}

// Build concatenates the fragments in slice order. Failed fragments still
// contribute an (empty) section so the model sees the true file count.
// When the total exceeds maxBytes, the least information-dense sections are
// trimmed first; tabular text survives longest.
func Build(fragments []extract.Fragment, maxBytes int, logger *slog.Logger) Corpus {
	if logger == nil {
		logger = slog.Default()
	}

	sections := make([]Section, len(fragments))
	for i, f := range fragments {
		sections[i] = Section{
			Source: f.SourceName,
			Kind:   f.Kind,
			Text:   strings.TrimSpace(f.Text),
		}
	}

	truncated := false
	if maxBytes > 0 {
		truncated = trimToFit(sections, maxBytes)
		if truncated {
			logger.Warn("aggregate.truncated", "max_bytes", maxBytes, "sections", len(sections))
		}
	}

	var b strings.Builder
	for _, s := range sections {
		b.WriteString(SourceMarker)
		b.WriteString(s.Source)
		b.WriteString("\n")
		if s.Text != "" {
			b.WriteString(s.Text)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	return Corpus{Text: b.String(), Sections: sections, Truncated: truncated}
}

// keepPriority ranks how long a section's text resists truncation.
// Higher keeps longer. Spreadsheet-derived rows are the densest signal for
// line-item extraction; OCR noise and unclassified bytes go first.
func keepPriority(kind constants.ContentKind) int {
	switch kind {
	case constants.KindXLSX, constants.KindCSV:
		return 4
	case constants.KindDOCX:
		return 3
	case constants.KindPDF:
		return 2
	case constants.KindText:
		return 1
	default: // image OCR, archives, unknown
		return 0
	}
}

func trimToFit(sections []Section, maxBytes int) bool {
	total := 0
	for _, s := range sections {
		total += len(s.Text)
	}
	if total <= maxBytes {
		return false
	}

	// trim lowest-priority sections first; ties trim later sections last,
	// since the prompt treats later sources as authoritative
	order := make([]int, len(sections))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		pa, pb := keepPriority(sections[order[a]].Kind), keepPriority(sections[order[b]].Kind)
		if pa != pb {
			return pa < pb
		}
		return order[a] < order[b]
	})

	over := total - maxBytes
	for _, idx := range order {
		if over <= 0 {
			break
		}
		s := &sections[idx]
		if len(s.Text) <= over {
			over -= len(s.Text)
			s.Text = ""
			continue
		}
		// never cut mid-rune; back the cut point off to a boundary
		cut := len(s.Text) - over
		for cut > 0 && !utf8.RuneStart(s.Text[cut]) {
			cut--
		}
		s.Text = s.Text[:cut]
		over = 0
	}
	return true
}
