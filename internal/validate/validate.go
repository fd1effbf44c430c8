// Package validate turns a raw extraction draft into the typed record
// handed to downstream pricing and document generation.
package validate

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/msoriano/rfp-intake/constants"
	"github.com/msoriano/rfp-intake/internal/common"
	"github.com/msoriano/rfp-intake/internal/llm"
)

// Issue records one field that failed a check and was coerced or nulled.
// Issues never fail the record; they accumulate.
type Issue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Value   any    `json:"value,omitempty"`
}

// Record is the validated business record. Every present field satisfies
// its type and range constraints; what failed is listed in Issues.
type Record struct {
	Company      *llm.CompanyInfo   `json:"company,omitempty"`
	Requester    *llm.RequesterInfo `json:"requester,omitempty"`
	LineItems    []llm.LineItem     `json:"line_items"`
	Requirements []string           `json:"requirements,omitempty"`
	IssueDate    string             `json:"issue_date,omitempty"`
	DueDate      string             `json:"due_date,omitempty"`
	BudgetAmount string             `json:"budget_amount,omitempty"`
	CurrencyCode string             `json:"currency_code"`

	Completeness float32 `json:"completeness"`
	NeedsReview  bool    `json:"needs_review"`
	Issues       []Issue `json:"issues,omitempty"`
}

const lowConfidenceThreshold = 0.6

// Normalize validates and cleans a draft. A draft with no business content
// at all returns common.ErrEmptyExtraction; everything else produces a
// usable record, however many issues it took.
func Normalize(draft llm.DraftRecord, defaultCurrency string, logger *slog.Logger) (*Record, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if isEmpty(draft) {
		return nil, common.NewAppError("VALIDATE",
			"draft contains no line items and no client information",
			common.ErrEmptyExtraction)
	}

	rec := &Record{
		Company:      trimCompany(draft.Company),
		Requester:    trimRequester(draft.Requester),
		Requirements: trimStrings(draft.Requirements),
		LineItems:    make([]llm.LineItem, 0, len(draft.LineItems)),
	}

	// currency: free text -> ISO 4217, default fallback
	if code, ok := constants.CanonicalizeCurrency(draft.CurrencyCode); ok {
		rec.CurrencyCode = code
	} else {
		rec.CurrencyCode = defaultCurrency
		if strings.TrimSpace(draft.CurrencyCode) != "" {
			rec.addIssue("currency_code", "unrecognized currency, using default", draft.CurrencyCode)
		}
	}

	rec.IssueDate = rec.normalizeDate("issue_date", draft.IssueDate)
	rec.DueDate = rec.normalizeDate("due_date", draft.DueDate)
	rec.BudgetAmount = rec.normalizeAmount("budget_amount", draft.BudgetAmount)

	for i, item := range draft.LineItems {
		out := llm.LineItem{
			ProductName: strings.TrimSpace(item.ProductName),
			Description: strings.TrimSpace(item.Description),
		}
		if item.Quantity != nil {
			if *item.Quantity < 0 {
				rec.addIssue(fmt.Sprintf("line_items[%d].quantity", i),
					"negative quantity nulled", *item.Quantity)
			} else {
				q := *item.Quantity
				out.Quantity = &q
			}
		}
		out.UnitPrice = rec.normalizeAmount(fmt.Sprintf("line_items[%d].unit_price", i), item.UnitPrice)
		if out.ProductName == "" && out.Description == "" && out.Quantity == nil && out.UnitPrice == "" {
			rec.addIssue(fmt.Sprintf("line_items[%d]", i), "empty line item dropped", nil)
			continue
		}
		rec.LineItems = append(rec.LineItems, out)
	}

	rec.Completeness = completeness(rec)
	rec.NeedsReview = len(rec.Issues) > 0 ||
		rec.Completeness < 0.5 ||
		(draft.ModelConfidence > 0 && draft.ModelConfidence < lowConfidenceThreshold)

	logger.Info("validate.ok",
		"line_items", len(rec.LineItems),
		"issues", len(rec.Issues),
		"completeness", rec.Completeness,
		"needs_review", rec.NeedsReview,
		"currency", rec.CurrencyCode,
	)
	return rec, nil
}

func (r *Record) addIssue(field, msg string, value any) {
	r.Issues = append(r.Issues, Issue{Field: field, Message: msg, Value: value})
}

func (r *Record) normalizeDate(field, raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	if _, err := time.Parse("2006-01-02", s); err != nil {
		r.addIssue(field, "not a valid YYYY-MM-DD date", raw)
		return ""
	}
	return s
}

// normalizeAmount parses a decimal string and reformats it to two decimals.
// Negative and non-numeric values are nulled with an issue, not raised.
func (r *Record) normalizeAmount(field, raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	s = strings.ReplaceAll(s, ",", "")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		r.addIssue(field, "not a numeric amount", raw)
		return ""
	}
	if f < 0 {
		r.addIssue(field, "negative amount nulled", raw)
		return ""
	}
	return fmt.Sprintf("%.2f", f)
}

// isEmpty reports whether the draft carries no business content at all:
// no line items, no client information, and none of the remaining business
// fields. In that case the input documents likely contained nothing
// extractable (e.g. a cover letter only).
func isEmpty(d llm.DraftRecord) bool {
	if len(d.LineItems) > 0 || len(trimStrings(d.Requirements)) > 0 {
		return false
	}
	if c := trimCompany(d.Company); c != nil {
		return false
	}
	if r := trimRequester(d.Requester); r != nil {
		return false
	}
	return strings.TrimSpace(d.IssueDate) == "" &&
		strings.TrimSpace(d.DueDate) == "" &&
		strings.TrimSpace(d.BudgetAmount) == ""
}

func trimCompany(c *llm.CompanyInfo) *llm.CompanyInfo {
	if c == nil {
		return nil
	}
	out := llm.CompanyInfo{
		Name:    strings.TrimSpace(c.Name),
		TaxID:   strings.TrimSpace(c.TaxID),
		Address: strings.TrimSpace(c.Address),
		City:    strings.TrimSpace(c.City),
		Country: strings.TrimSpace(c.Country),
	}
	if out == (llm.CompanyInfo{}) {
		return nil
	}
	return &out
}

func trimRequester(r *llm.RequesterInfo) *llm.RequesterInfo {
	if r == nil {
		return nil
	}
	out := llm.RequesterInfo{
		Name:  strings.TrimSpace(r.Name),
		Email: strings.TrimSpace(r.Email),
		Phone: strings.TrimSpace(r.Phone),
		Role:  strings.TrimSpace(r.Role),
	}
	if out == (llm.RequesterInfo{}) {
		return nil
	}
	return &out
}

func trimStrings(in []string) []string {
	var out []string
	for _, s := range in {
		if t := strings.TrimSpace(s); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// completeness scores the fraction of expected top-level fields present.
// Surfaced to callers, never a hard failure.
func completeness(r *Record) float32 {
	present := 0
	total := 7
	if r.Company != nil {
		present++
	}
	if r.Requester != nil {
		present++
	}
	if len(r.LineItems) > 0 {
		present++
	}
	if len(r.Requirements) > 0 {
		present++
	}
	if r.IssueDate != "" {
		present++
	}
	if r.DueDate != "" {
		present++
	}
	if r.BudgetAmount != "" {
		present++
	}
	return float32(present) / float32(total)
}
