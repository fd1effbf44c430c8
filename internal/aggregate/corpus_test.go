package aggregate

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/msoriano/rfp-intake/constants"
	"github.com/msoriano/rfp-intake/internal/extract"
)

func frag(name string, kind constants.ContentKind, text string, ok bool) extract.Fragment {
	return extract.Fragment{SourceName: name, Kind: kind, Text: text, Succeeded: ok}
}

func TestBuildOrderAndMarkers(t *testing.T) {
	fragments := []extract.Fragment{
		frag("a.txt", constants.KindText, "alpha", true),
		frag("b.csv", constants.KindCSV, "- product_name=Sillas; quantity=10;", true),
		frag("c.pdf", constants.KindPDF, "gamma", true),
		frag("d.docx", constants.KindDOCX, "delta", true),
		frag("e.txt", constants.KindText, "epsilon", true),
	}
	c := Build(fragments, 0, nil)

	want := []string{"a.txt", "b.csv", "c.pdf", "d.docx", "e.txt"}
	var got []string
	for _, line := range strings.Split(c.Text, "\n") {
		if strings.HasPrefix(line, SourceMarker) {
			got = append(got, strings.TrimPrefix(line, SourceMarker))
		}
	}
	if len(got) != len(want) {
		t.Fatalf("markers = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("section %d = %s, want %s", i, got[i], want[i])
		}
	}
	if c.Truncated {
		t.Error("unexpected truncation")
	}
}

func TestBuildIncludesFailedFragmentsAsEmptySections(t *testing.T) {
	fragments := []extract.Fragment{
		frag("good.txt", constants.KindText, "content", true),
		frag("broken.bin", constants.KindUnknown, "", false),
	}
	c := Build(fragments, 0, nil)

	if !strings.Contains(c.Text, SourceMarker+"broken.bin") {
		t.Fatal("failed fragment must still contribute a source marker")
	}
	if len(c.Sections) != 2 {
		t.Fatalf("sections = %d, want 2", len(c.Sections))
	}
	if c.Sections[1].Text != "" {
		t.Fatalf("failed section text = %q, want empty", c.Sections[1].Text)
	}
}

func TestBuildTruncatesLowDensityFirst(t *testing.T) {
	table := strings.Repeat("- product_name=Sillas; quantity=10;\n", 20) // ~720 bytes
	noise := strings.Repeat("ocr noise ", 100)                          // 1000 bytes
	fragments := []extract.Fragment{
		{SourceName: "scan.pdf", Kind: constants.KindImage, Text: noise, Succeeded: true, UsedOCRFallback: true},
		frag("items.csv", constants.KindCSV, table, true),
	}

	c := Build(fragments, len(table)+100, nil)
	if !c.Truncated {
		t.Fatal("expected truncation")
	}
	if !strings.Contains(c.Text, "product_name=Sillas") {
		t.Fatal("tabular text must survive truncation")
	}
	if len(c.Sections[0].Text) >= len(noise) {
		t.Fatal("low-density section was not trimmed")
	}
	// order unchanged even after trimming
	first := strings.Index(c.Text, SourceMarker+"scan.pdf")
	second := strings.Index(c.Text, SourceMarker+"items.csv")
	if first < 0 || second < 0 || first > second {
		t.Fatalf("section order broken: %d vs %d", first, second)
	}
}

func TestBuildTruncationKeepsRuneBoundaries(t *testing.T) {
	// every rune is 2 bytes, so a naive byte cut lands mid-rune half the time
	text := strings.Repeat("é", 100)
	fragments := []extract.Fragment{frag("notas.txt", constants.KindText, text, true)}

	c := Build(fragments, 101, nil)
	if !c.Truncated {
		t.Fatal("expected truncation")
	}
	if !utf8.ValidString(c.Sections[0].Text) {
		t.Fatalf("trimmed text is not valid UTF-8: %q", c.Sections[0].Text)
	}
	if got := len(c.Sections[0].Text); got > 101 {
		t.Fatalf("trimmed to %d bytes, want <= 101", got)
	}
}

func TestBuildNoLimit(t *testing.T) {
	c := Build([]extract.Fragment{frag("a.txt", constants.KindText, "abc", true)}, 0, nil)
	if c.Truncated {
		t.Fatal("maxBytes=0 must disable truncation")
	}
	if !strings.HasPrefix(c.Text, SourceMarker+"a.txt\nabc\n") {
		t.Fatalf("unexpected corpus: %q", c.Text)
	}
}
