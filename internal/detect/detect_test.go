package detect

import (
	"testing"

	"github.com/msoriano/rfp-intake/constants"
	"github.com/msoriano/rfp-intake/internal/extract"
)

func blob(name string, data []byte, mime string) extract.InputBlob {
	return extract.InputBlob{Filename: name, Data: data, DeclaredMIME: mime}
}

var zipHeader = []byte{0x50, 0x4B, 0x03, 0x04, 0x00, 0x00}

func TestDetect(t *testing.T) {
	cases := []struct {
		name string
		in   extract.InputBlob
		want constants.ContentKind
	}{
		{"pdf magic", blob("a.pdf", []byte("%PDF-1.4\n..."), ""), constants.KindPDF},
		{"png magic", blob("scan", []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 1}, ""), constants.KindImage},
		{"jpeg magic", blob("photo.bin", []byte{0xFF, 0xD8, 0xFF, 0xE0}, ""), constants.KindImage},
		{"tiff magic", blob("scan.dat", []byte{0x49, 0x49, 0x2A, 0x00}, ""), constants.KindImage},
		{"zip magic plain", blob("bundle.zip", zipHeader, ""), constants.KindZIP},
		{"zip magic docx ext", blob("offer.DOCX", zipHeader, ""), constants.KindDOCX},
		{"zip magic xlsx ext", blob("items.xlsx", zipHeader, ""), constants.KindXLSX},
		{"zip magic unrelated ext", blob("weird.bin", zipHeader, ""), constants.KindZIP},
		{"csv by extension", blob("items.CSV", []byte("a,b\n1,2\n"), ""), constants.KindCSV},
		{"txt by extension", blob("notes.txt", []byte("hello"), ""), constants.KindText},
		{"mime last resort", blob("payload", []byte("plain words"), "text/plain; charset=utf-8"), constants.KindText},
		{"mime csv", blob("data", []byte("x,y\n"), "text/csv"), constants.KindCSV},
		{"nothing matches", blob("blob", []byte{0x00, 0x01, 0x02}, "application/octet-stream"), constants.KindUnknown},
		{"empty blob", blob("", nil, ""), constants.KindUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Detect(tc.in); got != tc.want {
				t.Errorf("Detect(%s) = %s, want %s", tc.name, got, tc.want)
			}
		})
	}
}

func TestDetectMagicBeatsExtension(t *testing.T) {
	// a PDF renamed to .txt must classify as pdf, never plain_text
	in := blob("misnamed.txt", []byte("%PDF-1.4\nstream"), "")
	if got := Detect(in); got != constants.KindPDF {
		t.Fatalf("Detect = %s, want %s", got, constants.KindPDF)
	}
}

func TestDetectMagicBeatsDeclaredMIME(t *testing.T) {
	// client-declared MIME must never override a positive signature match
	in := blob("upload", []byte("%PDF-1.7\n"), "text/plain")
	if got := Detect(in); got != constants.KindPDF {
		t.Fatalf("Detect = %s, want %s", got, constants.KindPDF)
	}
}

func TestDetectDeterministic(t *testing.T) {
	in := blob("items.csv", []byte("nombre,cantidad\n"), "text/csv")
	first := Detect(in)
	for i := 0; i < 10; i++ {
		if got := Detect(in); got != first {
			t.Fatalf("call %d: Detect = %s, want stable %s", i, got, first)
		}
	}
}
