// Package archive unpacks ZIP containers into their constituent blobs.
package archive

import (
	"archive/zip"
	"bytes"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/msoriano/rfp-intake/constants"
	"github.com/msoriano/rfp-intake/internal/extract"
)

// Expander unpacks archive blobs one level deep. Nested archives stay
// opaque so a crafted upload cannot fan out unboundedly.
type Expander struct {
	enabled        bool
	maxMemberBytes int64
	logger         *slog.Logger
}

func NewExpander(enabled bool, maxMemberBytes int64, logger *slog.Logger) *Expander {
	if logger == nil {
		logger = slog.Default()
	}
	if maxMemberBytes <= 0 {
		maxMemberBytes = 16 << 20
	}
	return &Expander{enabled: enabled, maxMemberBytes: maxMemberBytes, logger: logger}
}

// Expand returns the blob's members as independent blobs. When disabled, or
// when the blob is not an archive, the blob passes through unchanged with
// its kind intact. A corrupt archive degrades to the whole blob being
// treated as unknown; expansion never fails a request.
func (e *Expander) Expand(blob extract.InputBlob, kind constants.ContentKind) ([]extract.InputBlob, constants.ContentKind) {
	if !e.enabled || kind != constants.KindZIP {
		return []extract.InputBlob{blob}, kind
	}

	zr, err := zip.NewReader(bytes.NewReader(blob.Data), int64(len(blob.Data)))
	if err != nil {
		e.logger.Warn("archive.expand.corrupt", "file", blob.Filename, "error", err)
		return []extract.InputBlob{blob}, constants.KindUnknown
	}

	var members []extract.InputBlob
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || isJunkEntry(f.Name) {
			continue
		}
		if f.UncompressedSize64 > uint64(e.maxMemberBytes) {
			e.logger.Warn("archive.expand.member_too_large",
				"file", blob.Filename, "member", f.Name, "size", f.UncompressedSize64)
			continue
		}
		rc, err := f.Open()
		if err != nil {
			e.logger.Warn("archive.expand.member_open_failed",
				"file", blob.Filename, "member", f.Name, "error", err)
			continue
		}
		data, err := io.ReadAll(io.LimitReader(rc, e.maxMemberBytes))
		_ = rc.Close()
		if err != nil {
			e.logger.Warn("archive.expand.member_read_failed",
				"file", blob.Filename, "member", f.Name, "error", err)
			continue
		}
		members = append(members, extract.InputBlob{
			Filename: blob.Filename + "/" + path.Base(f.Name),
			Data:     data,
		})
	}
	if len(members) == 0 {
		e.logger.Warn("archive.expand.no_members", "file", blob.Filename)
		return []extract.InputBlob{blob}, constants.KindUnknown
	}
	e.logger.Info("archive.expand.ok", "file", blob.Filename, "members", len(members))
	return members, kind
}

func isJunkEntry(name string) bool {
	base := path.Base(name)
	return strings.HasPrefix(name, "__MACOSX/") ||
		base == ".DS_Store" ||
		strings.HasPrefix(base, "._")
}
