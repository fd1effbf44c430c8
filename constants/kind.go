package constants

import "strings"

// ContentKind is the canonical classification of an uploaded blob.
type ContentKind string

// Stable values (these exact strings appear in logs and fragments).
const (
	KindPDF     ContentKind = "pdf"
	KindDOCX    ContentKind = "docx"
	KindImage   ContentKind = "image"
	KindXLSX    ContentKind = "spreadsheet_xlsx"
	KindCSV     ContentKind = "spreadsheet_csv"
	KindZIP     ContentKind = "archive_zip"
	KindText    ContentKind = "plain_text"
	KindUnknown ContentKind = "unknown"
)

// extToKind maps normalized file extensions to content kinds.
var extToKind = map[string]ContentKind{
	"pdf":  KindPDF,
	"docx": KindDOCX,
	"png":  KindImage,
	"jpg":  KindImage,
	"jpeg": KindImage,
	"tif":  KindImage,
	"tiff": KindImage,
	"xlsx": KindXLSX,
	"csv":  KindCSV,
	"zip":  KindZIP,
	"txt":  KindText,
	"md":   KindText,
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MapExtToKind returns the content kind for a normalized extension,
// or KindUnknown when the extension is not recognized.
func MapExtToKind(ext string) ContentKind {
	if k, ok := extToKind[NormalizeExt(ext)]; ok {
		return k
	}
	return KindUnknown
}

// mimeToKind maps declared MIME types to content kinds. Declared types are
// client-controlled and only consulted when bytes and extension say nothing.
var mimeToKind = map[string]ContentKind{
	"application/pdf": KindPDF,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": KindDOCX,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":       KindXLSX,
	"application/zip":   KindZIP,
	"application/x-zip-compressed": KindZIP,
	"text/csv":          KindCSV,
	"text/plain":        KindText,
	"image/png":         KindImage,
	"image/jpeg":        KindImage,
	"image/tiff":        KindImage,
}

// MapMIMEToKind returns the content kind for a declared MIME type,
// ignoring any parameters (e.g. "; charset=utf-8").
func MapMIMEToKind(mime string) ContentKind {
	mime = strings.ToLower(strings.TrimSpace(mime))
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}
	if k, ok := mimeToKind[mime]; ok {
		return k
	}
	return KindUnknown
}
