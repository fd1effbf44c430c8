package llm

import "context"

// CompanyInfo is the client company an RFP was issued by.
type CompanyInfo struct {
	Name    string `json:"name,omitempty"`
	TaxID   string `json:"tax_id,omitempty"`
	Address string `json:"address,omitempty"`
	City    string `json:"city,omitempty"`
	Country string `json:"country,omitempty"`
}

// RequesterInfo is the person who sent the request.
type RequesterInfo struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
	Role  string `json:"role,omitempty"`
}

// LineItem is one candidate product/service line.
type LineItem struct {
	ProductName string   `json:"product_name,omitempty"`
	Description string   `json:"description,omitempty"`
	Quantity    *float64 `json:"quantity,omitempty"`
	UnitPrice   string   `json:"unit_price,omitempty"` // decimal
}

// DraftRecord is the raw structured object the model returns, before
// validation. Every field is optional; the validator decides what survives.
type DraftRecord struct {
	Company      *CompanyInfo   `json:"company,omitempty"`
	Requester    *RequesterInfo `json:"requester,omitempty"`
	LineItems    []LineItem     `json:"line_items,omitempty"`
	Requirements []string       `json:"requirements,omitempty"`
	IssueDate    string         `json:"issue_date,omitempty"` // YYYY-MM-DD
	DueDate      string         `json:"due_date,omitempty"`   // YYYY-MM-DD
	BudgetAmount string         `json:"budget_amount,omitempty"` // decimal
	CurrencyCode string         `json:"currency_code,omitempty"` // ISO 4217

	ModelConfidence float32 `json:"confidence,omitempty"` // optional (0..1)
}

// ExtractRequest carries the aggregated corpus into the extraction call.
type ExtractRequest struct {
	Corpus          string
	SourceNames     []string
	DefaultCurrency string
}

// RecordExtractor is the interface the pipeline depends on.
type RecordExtractor interface {
	ExtractRecord(ctx context.Context, req ExtractRequest) (DraftRecord, []byte /*rawJSON*/, error)
}
