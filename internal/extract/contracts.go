package extract

import (
	"time"

	"github.com/msoriano/rfp-intake/constants"
)

// InputBlob is one uploaded file before classification: raw bytes, the
// original filename, and whatever MIME type the client declared.
// Immutable once created.
type InputBlob struct {
	Filename     string
	Data         []byte
	DeclaredMIME string
}

// Fragment is the extraction result for a single blob. Created by an
// extractor and read-only afterwards.
type Fragment struct {
	SourceName      string
	Kind            constants.ContentKind
	Text            string
	UsedOCRFallback bool
	Succeeded       bool

	Method     string // "pdf-text" | "docx-text" | "plain-text" | "tabular" | "pdf-ocr" | "image-ocr" | "none"
	Pages      int
	Duration   time.Duration
	Confidence float32
	Warnings   []string
}

// Empty returns a failed fragment for blobs no extractor can handle.
func Empty(source string, kind constants.ContentKind) Fragment {
	return Fragment{SourceName: source, Kind: kind, Method: "none"}
}
