package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"

	"github.com/msoriano/rfp-intake/internal/common"
	"github.com/msoriano/rfp-intake/internal/llm"
)

// ExtractRecord implements llm.RecordExtractor using chat/completions with
// a JSON response format. One structured call per request; transient
// failures and non-conformant responses are retried inside the attempt
// budget, and anything left over surfaces as common.ErrExtractionFailed.
// The model is not deterministic, so nothing here caches on corpus content.
func (c *Client) ExtractRecord(ctx context.Context, req llm.ExtractRequest) (llm.DraftRecord, []byte, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.log.Info("llm.extract.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"temp", c.cfg.Temperature,
		"corpus_len", len(req.Corpus),
		"sources", len(req.SourceNames),
		"default_currency", req.DefaultCurrency,
		"max_attempts", c.cfg.MaxAttempts,
	)

	schema := llm.BuildRFPJSONSchema()
	sys := buildSystemPrompt(req)
	user := buildUserPrompt(req)

	body := map[string]any{
		"model":           c.cfg.Model,
		"temperature":     c.cfg.Temperature,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "system", "content": sys},
			{"role": "user", "content": user + "\n\nReturn ONLY JSON that matches the provided schema."},
			{"role": "system", "content": "JSON Schema (" + llm.SchemaVersion + "):\n" + mustJSON(schema)},
		},
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"

	var out llm.DraftRecord
	var rawContent []byte
	attempt := 0

	err := retry.Do(
		func() error {
			attempt++
			content, err := c.callOnce(ctx, endpoint, body)
			if err != nil {
				c.log.Warn("llm.extract.attempt_failed",
					"req_id", rid, "attempt", attempt, "error", err)
				return err
			}

			cleaned, _, sErr := llm.NormalizeAndSanitizeJSON(content, c.log)
			if sErr != nil {
				c.log.Warn("llm.extract.sanitize_failed",
					"req_id", rid, "attempt", attempt, "error", sErr)
				return sErr
			}
			if vErr := llm.ValidateDraftJSON(cleaned); vErr != nil {
				c.log.Warn("llm.extract.schema_validation_failed",
					"req_id", rid, "attempt", attempt, "error", vErr)
				return vErr
			}

			var draft llm.DraftRecord
			if uErr := json.Unmarshal(cleaned, &draft); uErr != nil {
				return fmt.Errorf("unmarshal draft: %w", uErr)
			}
			out = draft
			rawContent = cleaned
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(c.cfg.MaxAttempts),
		retry.Delay(c.cfg.RetryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		// a fired deadline or cancellation is not retry exhaustion; keep the
		// context error as the cause so callers can tell the two apart
		if cerr := ctx.Err(); cerr != nil {
			c.log.Error("llm.extract.aborted",
				"req_id", rid, "attempts", attempt,
				"error", cerr, "elapsed_ms", time.Since(start).Milliseconds(),
			)
			return llm.DraftRecord{}, nil, common.NewAppError("LLM_EXTRACT",
				fmt.Sprintf("structured extraction aborted after %d attempts", attempt),
				cerr)
		}
		c.log.Error("llm.extract.exhausted",
			"req_id", rid, "attempts", attempt,
			"error", err, "elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.DraftRecord{}, nil, common.NewAppError("LLM_EXTRACT",
			fmt.Sprintf("structured extraction failed after %d attempts: %v", attempt, err),
			common.ErrExtractionFailed)
	}

	c.log.Info("llm.extract.ok",
		"req_id", rid,
		"attempts", attempt,
		"line_items", len(out.LineItems),
		"has_company", out.Company != nil,
		"currency", out.CurrencyCode,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, rawContent, nil
}

// callOnce performs a single chat/completions round trip and returns the
// message content.
func (c *Client) callOnce(ctx context.Context, url string, body map[string]any) ([]byte, error) {
	raw, err := c.post(ctx, url, body)
	if err != nil {
		return nil, err
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		return nil, fmt.Errorf("decode openai response: %w", err)
	}
	if len(cc.Choices) == 0 {
		return nil, fmt.Errorf("no choices in openai response")
	}
	return []byte(strings.TrimSpace(cc.Choices[0].Message.Content)), nil
}

func (c *Client) post(ctx context.Context, url string, body map[string]any) ([]byte, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openai http error: %w", err)
	}
	defer func(Body io.ReadCloser) {
		if cerr := Body.Close(); cerr != nil {
			c.log.Warn("openai response body close error", "error", cerr)
		}
	}(resp.Body)

	buf := new(bytes.Buffer)
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return nil, fmt.Errorf("read openai response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("openai status %d: %s", resp.StatusCode, truncate(buf.String(), 512))
	}
	return buf.Bytes(), nil
}

func buildSystemPrompt(req llm.ExtractRequest) string {
	cur := req.DefaultCurrency
	if cur == "" {
		cur = "EUR"
	}
	parts := []string{
		"You are an RFP intake parser. Return ONLY JSON that matches the JSON Schema provided.",
		"The input is a set of documents, each introduced by a '### SOURCE: <filename>' line.",
		"When sources conflict, prefer data from later-appearing sources; follow-up messages override earlier attachments.",
		"Extract the issuing company, the requester contact, every product or service line item, explicit requirements, issue and due dates, and any stated budget.",
		"Use ISO-8601 dates (YYYY-MM-DD).",
		"Currency must be a 3-letter ISO 4217 code; default to " + cur + " if uncertain.",
		"Monetary amounts are decimal strings without thousands separators.",
		"Never invent line items; only list items actually present in the sources.",
		"Never output null. If a field is not present, omit it.",
	}
	return strings.Join(parts, " ")
}

func buildUserPrompt(req llm.ExtractRequest) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Documents (%d files):\n", len(req.SourceNames)))
	for _, n := range req.SourceNames {
		b.WriteString("- ")
		b.WriteString(n)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(req.Corpus)
	return b.String()
}

func mustJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
