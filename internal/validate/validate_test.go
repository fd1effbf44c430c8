package validate

import (
	"errors"
	"testing"

	"github.com/msoriano/rfp-intake/internal/common"
	"github.com/msoriano/rfp-intake/internal/llm"
)

func qty(v float64) *float64 { return &v }

func TestNormalizeEmptyDraft(t *testing.T) {
	cases := map[string]llm.DraftRecord{
		"zero value": {},
		"whitespace only": {
			Company:      &llm.CompanyInfo{Name: "   "},
			Requester:    &llm.RequesterInfo{Email: "\t"},
			Requirements: []string{"", "  "},
		},
		"confidence alone is not content": {ModelConfidence: 0.9},
	}
	for name, draft := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Normalize(draft, "EUR", nil)
			if !errors.Is(err, common.ErrEmptyExtraction) {
				t.Fatalf("err = %v, want ErrEmptyExtraction", err)
			}
		})
	}
}

func TestNormalizeNotEmptyWithSingleField(t *testing.T) {
	rec, err := Normalize(llm.DraftRecord{DueDate: "2026-09-15"}, "EUR", nil)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if rec.DueDate != "2026-09-15" {
		t.Fatalf("due date = %q", rec.DueDate)
	}
}

func TestNormalizeNegativeQuantity(t *testing.T) {
	draft := llm.DraftRecord{
		LineItems: []llm.LineItem{
			{ProductName: "Sillas", Quantity: qty(-5)},
			{ProductName: "Mesas", Quantity: qty(3)},
		},
	}
	rec, err := Normalize(draft, "EUR", nil)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if len(rec.LineItems) != 2 {
		t.Fatalf("line items = %d, want 2", len(rec.LineItems))
	}
	if rec.LineItems[0].Quantity != nil {
		t.Errorf("negative quantity not nulled: %v", *rec.LineItems[0].Quantity)
	}
	if rec.LineItems[1].Quantity == nil || *rec.LineItems[1].Quantity != 3 {
		t.Errorf("valid quantity altered: %+v", rec.LineItems[1])
	}
	if len(rec.Issues) != 1 || rec.Issues[0].Field != "line_items[0].quantity" {
		t.Errorf("issues = %+v, want one negative-quantity issue", rec.Issues)
	}
	if !rec.NeedsReview {
		t.Error("issues present, needs_review must be true")
	}
}

func TestNormalizeCurrency(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantIss int
	}{
		{"alias euros", "euros", "EUR", 0},
		{"symbol", "$", "USD", 0},
		{"iso passthrough lowercase", "gbp", "GBP", 0},
		{"empty falls back silently", "", "EUR", 0},
		{"junk falls back with issue", "doubloons", "EUR", 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			draft := llm.DraftRecord{
				LineItems:    []llm.LineItem{{ProductName: "Sillas"}},
				CurrencyCode: tc.in,
			}
			rec, err := Normalize(draft, "EUR", nil)
			if err != nil {
				t.Fatalf("Normalize: %v", err)
			}
			if rec.CurrencyCode != tc.want {
				t.Errorf("currency = %q, want %q", rec.CurrencyCode, tc.want)
			}
			if len(rec.Issues) != tc.wantIss {
				t.Errorf("issues = %+v, want %d", rec.Issues, tc.wantIss)
			}
		})
	}
}

func TestNormalizeDatesAndAmounts(t *testing.T) {
	draft := llm.DraftRecord{
		LineItems:    []llm.LineItem{{ProductName: "Sillas", UnitPrice: "1,250.5"}},
		IssueDate:    "2026-08-01",
		DueDate:      "next friday",
		BudgetAmount: "-400",
	}
	rec, err := Normalize(draft, "EUR", nil)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if rec.IssueDate != "2026-08-01" {
		t.Errorf("issue date = %q", rec.IssueDate)
	}
	if rec.DueDate != "" {
		t.Errorf("unparseable due date kept: %q", rec.DueDate)
	}
	if rec.BudgetAmount != "" {
		t.Errorf("negative budget kept: %q", rec.BudgetAmount)
	}
	if rec.LineItems[0].UnitPrice != "1250.50" {
		t.Errorf("unit price = %q, want 1250.50", rec.LineItems[0].UnitPrice)
	}
	if len(rec.Issues) != 2 {
		t.Errorf("issues = %+v, want due_date and budget_amount", rec.Issues)
	}
}

func TestNormalizeDropsEmptyLineItems(t *testing.T) {
	draft := llm.DraftRecord{
		LineItems: []llm.LineItem{
			{ProductName: "  "},
			{ProductName: "Mesas"},
		},
	}
	rec, err := Normalize(draft, "EUR", nil)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if len(rec.LineItems) != 1 || rec.LineItems[0].ProductName != "Mesas" {
		t.Fatalf("line items = %+v", rec.LineItems)
	}
}

func TestNormalizeCompletenessAndReview(t *testing.T) {
	t.Run("full record does not need review", func(t *testing.T) {
		draft := llm.DraftRecord{
			Company:         &llm.CompanyInfo{Name: "Acme SL"},
			Requester:       &llm.RequesterInfo{Name: "Maria", Email: "m@acme.es"},
			LineItems:       []llm.LineItem{{ProductName: "Sillas", Quantity: qty(10)}},
			Requirements:    []string{"entrega en 30 dias"},
			IssueDate:       "2026-08-01",
			DueDate:         "2026-09-15",
			BudgetAmount:    "5000",
			CurrencyCode:    "EUR",
			ModelConfidence: 0.92,
		}
		rec, err := Normalize(draft, "EUR", nil)
		if err != nil {
			t.Fatalf("Normalize: %v", err)
		}
		if rec.Completeness != 1 {
			t.Errorf("completeness = %v, want 1", rec.Completeness)
		}
		if rec.NeedsReview {
			t.Error("clean full record flagged for review")
		}
	})

	t.Run("sparse record needs review", func(t *testing.T) {
		rec, err := Normalize(llm.DraftRecord{
			LineItems: []llm.LineItem{{ProductName: "Sillas"}},
		}, "EUR", nil)
		if err != nil {
			t.Fatalf("Normalize: %v", err)
		}
		if !rec.NeedsReview {
			t.Error("completeness below threshold must flag review")
		}
	})

	t.Run("low model confidence needs review", func(t *testing.T) {
		rec, err := Normalize(llm.DraftRecord{
			Company:         &llm.CompanyInfo{Name: "Acme SL"},
			Requester:       &llm.RequesterInfo{Name: "Maria"},
			LineItems:       []llm.LineItem{{ProductName: "Sillas"}},
			Requirements:    []string{"x"},
			IssueDate:       "2026-08-01",
			DueDate:         "2026-09-15",
			BudgetAmount:    "5000",
			ModelConfidence: 0.3,
		}, "EUR", nil)
		if err != nil {
			t.Fatalf("Normalize: %v", err)
		}
		if !rec.NeedsReview {
			t.Error("confidence 0.3 must flag review")
		}
	})
}
