package extract

import (
	"bytes"
	"strings"
	"unicode/utf8"
)

// extractPlainText returns the blob as text. Invalid UTF-8 is scrubbed
// byte-by-byte rather than rejected; RFP attachments regularly arrive in
// legacy encodings and a lossy read beats no read.
func extractPlainText(data []byte) string {
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF}) // UTF-8 BOM
	if utf8.Valid(data) {
		return string(data)
	}
	var b strings.Builder
	b.Grow(len(data))
	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			b.WriteByte(' ')
		} else {
			b.WriteRune(r)
		}
		data = data[size:]
	}
	return b.String()
}
