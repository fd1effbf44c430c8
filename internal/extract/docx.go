package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// extractDOCXText reads word/document.xml out of the OOXML container and
// walks its paragraph/run structure. Tables come out row-per-line with
// tab-separated cells, which keeps pricing tables readable downstream.
func extractDOCXText(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open docx container: %w", err)
	}

	var doc io.ReadCloser
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			doc, err = f.Open()
			if err != nil {
				return "", fmt.Errorf("open document.xml: %w", err)
			}
			break
		}
	}
	if doc == nil {
		return "", fmt.Errorf("document.xml not found")
	}
	defer func() { _ = doc.Close() }()

	dec := xml.NewDecoder(doc)
	var b strings.Builder
	var inCell bool
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("decode document.xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				var s string
				if err := dec.DecodeElement(&s, &t); err == nil {
					b.WriteString(s)
				}
			case "tab":
				b.WriteString("\t")
			case "br":
				b.WriteString("\n")
			case "tc":
				inCell = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "p":
				if inCell {
					b.WriteString("\t")
				} else {
					b.WriteString("\n")
				}
			case "tc":
				inCell = false
			case "tr":
				b.WriteString("\n")
			}
		}
	}
	return b.String(), nil
}
