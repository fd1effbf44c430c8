// Package tabular converts spreadsheet files into canonical row records.
package tabular

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/msoriano/rfp-intake/constants"
)

// Row is one spreadsheet row mapped onto canonical column names.
// Unrecognized columns are dropped during mapping, so every populated field
// here is already canonical.
type Row struct {
	ProductName string
	Description string
	Quantity    string
	UnitPrice   string
	Total       string
}

// Empty reports whether no recognized column carried a value.
func (r Row) Empty() bool {
	return r.ProductName == "" && r.Description == "" &&
		r.Quantity == "" && r.UnitPrice == "" && r.Total == ""
}

// Parser parses XLSX and CSV blobs into canonical rows.
type Parser struct {
	logger *slog.Logger
}

func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{logger: logger}
}

// Parse converts a spreadsheet blob into canonical rows. Header matching is
// alias-tolerant and case-insensitive; rows with no recognized column are
// dropped. Errors mean the file itself could not be read; per-cell noise
// never fails the parse.
func (p *Parser) Parse(data []byte, kind constants.ContentKind) ([]Row, error) {
	switch kind {
	case constants.KindXLSX:
		return p.parseXLSX(data)
	case constants.KindCSV:
		return p.parseCSV(data)
	default:
		return nil, fmt.Errorf("not a spreadsheet kind: %s", kind)
	}
}

func (p *Parser) parseXLSX(data []byte) ([]Row, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			p.logger.Warn("tabular.xlsx.close_error", "error", cerr)
		}
	}()

	var rows []Row
	for _, sheet := range f.GetSheetList() {
		raw, err := f.GetRows(sheet)
		if err != nil {
			p.logger.Warn("tabular.xlsx.sheet_read_failed", "sheet", sheet, "error", err)
			continue
		}
		rows = append(rows, mapRecords(raw)...)
	}
	return rows, nil
}

func (p *Parser) parseCSV(data []byte) ([]Row, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1 // ragged rows are common in exports
	r.LazyQuotes = true

	var records [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// malformed line: skip it, keep the rest
			p.logger.Warn("tabular.csv.bad_line", "error", err)
			continue
		}
		records = append(records, rec)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("csv: no readable records")
	}
	return mapRecords(records), nil
}

// mapRecords resolves the header row to canonical columns and maps the
// remaining records. A sheet whose header contains no recognized alias
// yields no rows.
func mapRecords(records [][]string) []Row {
	if len(records) == 0 {
		return nil
	}
	colFor := map[int]string{}
	for i, label := range records[0] {
		if canon, ok := constants.CanonicalizeHeader(label); ok {
			if _, taken := colFor[i]; !taken {
				colFor[i] = canon
			}
		}
	}
	if len(colFor) == 0 {
		return nil
	}

	var rows []Row
	for _, rec := range records[1:] {
		var row Row
		for i, cell := range rec {
			canon, ok := colFor[i]
			if !ok {
				continue
			}
			val := strings.TrimSpace(cell)
			switch canon {
			case constants.ColProductName:
				row.ProductName = val
			case constants.ColDescription:
				row.Description = val
			case constants.ColQuantity:
				row.Quantity = val
			case constants.ColUnitPrice:
				row.UnitPrice = val
			case constants.ColTotal:
				row.Total = val
			}
		}
		if !row.Empty() {
			rows = append(rows, row)
		}
	}
	return rows
}

// Render produces the normalized text representation of the rows that goes
// into the aggregated corpus.
func Render(rows []Row) string {
	var b strings.Builder
	for _, r := range rows {
		b.WriteString("-")
		writeField(&b, constants.ColProductName, r.ProductName)
		writeField(&b, constants.ColDescription, r.Description)
		writeField(&b, constants.ColQuantity, r.Quantity)
		writeField(&b, constants.ColUnitPrice, r.UnitPrice)
		writeField(&b, constants.ColTotal, r.Total)
		b.WriteString("\n")
	}
	return b.String()
}

func writeField(b *strings.Builder, name, val string) {
	if val == "" {
		return
	}
	b.WriteString(" ")
	b.WriteString(name)
	b.WriteString("=")
	b.WriteString(val)
	b.WriteString(";")
}
