// Package detect classifies opaque byte blobs into content kinds.
//
// Precedence is load-bearing: magic bytes first, filename extension second,
// declared MIME type last. The declared type is client-controlled and must
// never override a positive byte-signature match.
package detect

import (
	"bytes"
	"path/filepath"

	"github.com/msoriano/rfp-intake/constants"
	"github.com/msoriano/rfp-intake/internal/extract"
)

var (
	sigPDF  = []byte("%PDF")
	sigZIP  = []byte{0x50, 0x4B, 0x03, 0x04} // local file header
	sigPNG  = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}
	sigJPEG = []byte{0xFF, 0xD8, 0xFF}
	sigTIFI = []byte{0x49, 0x49, 0x2A, 0x00} // little-endian
	sigTIFM = []byte{0x4D, 0x4D, 0x00, 0x2A} // big-endian
)

// Detect classifies a blob. It never fails; unrecognized input is
// KindUnknown. Repeated calls on identical input return identical kinds.
func Detect(blob extract.InputBlob) constants.ContentKind {
	if k := fromMagic(blob.Data, blob.Filename); k != constants.KindUnknown {
		return k
	}
	if k := constants.MapExtToKind(filepath.Ext(blob.Filename)); k != constants.KindUnknown {
		return k
	}
	return constants.MapMIMEToKind(blob.DeclaredMIME)
}

// fromMagic checks fixed-offset byte signatures. OOXML formats are ZIP
// containers, so a ZIP signature is disambiguated by extension: .docx and
// .xlsx win, anything else is a plain archive.
func fromMagic(data []byte, filename string) constants.ContentKind {
	switch {
	case bytes.HasPrefix(data, sigPDF):
		return constants.KindPDF
	case bytes.HasPrefix(data, sigPNG),
		bytes.HasPrefix(data, sigJPEG),
		bytes.HasPrefix(data, sigTIFI),
		bytes.HasPrefix(data, sigTIFM):
		return constants.KindImage
	case bytes.HasPrefix(data, sigZIP):
		switch constants.NormalizeExt(filepath.Ext(filename)) {
		case "docx":
			return constants.KindDOCX
		case "xlsx":
			return constants.KindXLSX
		default:
			return constants.KindZIP
		}
	}
	return constants.KindUnknown
}
