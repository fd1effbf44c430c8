package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/msoriano/rfp-intake/internal/common"
	"github.com/msoriano/rfp-intake/internal/llm"
)

func testClient(url string, attempts uint) *Client {
	return NewClient(Config{
		APIKey:      "test-key",
		BaseURL:     url,
		Model:       "test-model",
		MaxAttempts: attempts,
		RetryDelay:  time.Millisecond,
		Timeout:     2 * time.Second,
	}, nil)
}

func chatResponse(t *testing.T, content any) []byte {
	t.Helper()
	b, err := json.Marshal(content)
	if err != nil {
		t.Fatalf("marshal content: %v", err)
	}
	resp := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": string(b)}},
		},
	}
	out, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal response: %v", err)
	}
	return out
}

func TestExtractRecordSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("auth header = %q", got)
		}
		_, _ = w.Write(chatResponse(t, map[string]any{
			"company": map[string]any{"name": "Acme SL"},
			"line_items": []map[string]any{
				{"product_name": "Sillas", "quantity": 10, "unit_price": "25.50"},
			},
			"currency_code": "eur",
		}))
	}))
	defer server.Close()

	c := testClient(server.URL, 3)
	draft, raw, err := c.ExtractRecord(context.Background(), llm.ExtractRequest{
		Corpus:      "### SOURCE: items.csv\n- product_name=Sillas; quantity=10;",
		SourceNames: []string{"items.csv"},
	})
	if err != nil {
		t.Fatalf("ExtractRecord error = %v", err)
	}
	if draft.Company == nil || draft.Company.Name != "Acme SL" {
		t.Errorf("company = %+v", draft.Company)
	}
	if len(draft.LineItems) != 1 || draft.LineItems[0].ProductName != "Sillas" {
		t.Errorf("line items = %+v", draft.LineItems)
	}
	if draft.CurrencyCode != "EUR" {
		t.Errorf("currency = %q, want sanitized EUR", draft.CurrencyCode)
	}
	if draft.LineItems[0].Quantity == nil || *draft.LineItems[0].Quantity != 10 {
		t.Errorf("quantity = %v", draft.LineItems[0].Quantity)
	}
	if len(raw) == 0 {
		t.Error("raw JSON missing")
	}
}

func TestExtractRecordRetryBudgetExhaustion(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer server.Close()

	const attempts = 3
	c := testClient(server.URL, attempts)
	_, _, err := c.ExtractRecord(context.Background(), llm.ExtractRequest{Corpus: "x"})
	if err == nil {
		t.Fatal("expected error after retry exhaustion")
	}
	if !errors.Is(err, common.ErrExtractionFailed) {
		t.Fatalf("error = %v, want ErrExtractionFailed", err)
	}
	if got := calls.Load(); got != attempts {
		t.Fatalf("attempts = %d, want exactly %d", got, attempts)
	}
}

func TestExtractRecordRetriesNonConformantResponse(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		n := calls.Add(1)
		if n == 1 {
			// schema violation: line_items as a string
			_, _ = w.Write(chatResponse(t, map[string]any{"line_items": "Sillas x10"}))
			return
		}
		_, _ = w.Write(chatResponse(t, map[string]any{
			"line_items": []map[string]any{{"product_name": "Sillas"}},
		}))
	}))
	defer server.Close()

	c := testClient(server.URL, 3)
	draft, _, err := c.ExtractRecord(context.Background(), llm.ExtractRequest{Corpus: "x"})
	if err != nil {
		t.Fatalf("ExtractRecord error = %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("calls = %d, want 2 (one bad, one good)", calls.Load())
	}
	if len(draft.LineItems) != 1 {
		t.Fatalf("line items = %+v", draft.LineItems)
	}
}

func TestExtractRecordNeverReturnsPartialDraftOnFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		// valid envelope, permanently non-conformant content
		_, _ = w.Write(chatResponse(t, map[string]any{"line_items": 42}))
	}))
	defer server.Close()

	c := testClient(server.URL, 2)
	draft, raw, err := c.ExtractRecord(context.Background(), llm.ExtractRequest{Corpus: "x"})
	if err == nil {
		t.Fatal("expected failure")
	}
	if draft.Company != nil || len(draft.LineItems) != 0 || raw != nil {
		t.Fatalf("failure must not leak a partial draft: %+v raw=%q", draft, raw)
	}
}

func TestExtractRecordContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write(chatResponse(t, map[string]any{}))
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	c := testClient(server.URL, 5)
	_, _, err := c.ExtractRecord(ctx, llm.ExtractRequest{Corpus: "x"})
	if err == nil {
		t.Fatal("expected error on cancelled context")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want the deadline as the cause", err)
	}
	if errors.Is(err, common.ErrExtractionFailed) {
		t.Fatal("a timeout must not masquerade as retry exhaustion")
	}
}
