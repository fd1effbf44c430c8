package constants

import "strings"

// Canonical column names produced by the tabular parser.
const (
	ColProductName = "product_name"
	ColDescription = "description"
	ColQuantity    = "quantity"
	ColUnitPrice   = "unit_price"
	ColTotal       = "total"
)

// headerAliases maps spreadsheet header labels (lowercased) to canonical
// column names. RFP attachments arrive in English and Spanish, so both
// vocabularies are listed.
var headerAliases = map[string]string{
	"product_name": ColProductName,
	"product":      ColProductName,
	"item":         ColProductName,
	"nombre":       ColProductName,
	"producto":     ColProductName,
	"articulo":     ColProductName,

	"description": ColDescription,
	"descripcion": ColDescription,
	"concepto":    ColDescription,
	"detalle":     ColDescription,

	"quantity": ColQuantity,
	"qty":      ColQuantity,
	"cantidad": ColQuantity,
	"cant":     ColQuantity,
	"unidades": ColQuantity,

	"unit_price":      ColUnitPrice,
	"price":           ColUnitPrice,
	"precio":          ColUnitPrice,
	"precio_unitario": ColUnitPrice,
	"precio unitario": ColUnitPrice,

	"total":   ColTotal,
	"importe": ColTotal,
	"amount":  ColTotal,
}

// CanonicalizeHeader maps a raw header cell to a canonical column name.
// Matching is case-insensitive and tolerant of surrounding whitespace.
// No accent folding is attempted; sheets exported from the usual tools
// don't need it.
func CanonicalizeHeader(label string) (string, bool) {
	key := strings.ToLower(strings.TrimSpace(label))
	key = strings.Trim(key, ":*")
	canon, ok := headerAliases[key]
	return canon, ok
}
