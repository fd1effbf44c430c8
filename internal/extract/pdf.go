package extract

import (
	"bytes"
	"strings"

	"github.com/ledongthuc/pdf"
)

// extractPDFText pulls the text layer out of a PDF. The library panics on
// some malformed files, so every call into it is recover-guarded; a broken
// PDF yields empty text and lets the OCR fallback take over.
func extractPDFText(data []byte) (text string, pages int, warnings []string) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", 0, []string{"pdf reader: " + err.Error()}
	}

	func() {
		defer func() {
			if r := recover(); r != nil {
				warnings = append(warnings, "pdf page count panic")
			}
		}()
		pages = reader.NumPage()
	}()
	if pages <= 0 {
		return "", 0, warnings
	}

	var b strings.Builder
	for i := 1; i <= pages; i++ {
		func() {
			defer func() {
				if r := recover(); r != nil {
					warnings = append(warnings, "pdf page extraction panic")
				}
			}()
			page := reader.Page(i)
			if page.V.IsNull() {
				return
			}
			content := page.Content()
			var last float64
			for _, item := range content.Text {
				// new line when the Y position moves
				if last != 0 && item.Y != last {
					b.WriteString("\n")
				} else if b.Len() > 0 {
					b.WriteString(" ")
				}
				b.WriteString(item.S)
				last = item.Y
			}
			b.WriteString("\n\f\n")
		}()
	}
	return b.String(), pages, warnings
}
