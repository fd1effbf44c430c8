package llm

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
)

// NormalizeAndSanitizeJSON
// - Renames known synonyms (budget -> budget_amount, client -> company, ...)
// - Drops null/empty optionals
// - Coerces numeric -> string for money-ish fields
// - Removes unknown keys (strict additionalProperties = false friendliness)
func NormalizeAndSanitizeJSON(raw []byte, logger *slog.Logger) ([]byte, []string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}

	dropped := make([]string, 0, 8)
	renamed := func(from, to string) {
		if v, ok := m[from]; ok {
			// don't overwrite existing value if already present
			if _, exists := m[to]; !exists {
				m[to] = v
			}
			delete(m, from)
			dropped = append(dropped, from+"->"+to)
		}
	}

	// 1) rename synonyms to our schema
	renamed("budget", "budget_amount")
	renamed("total_budget", "budget_amount")
	renamed("currency", "currency_code")
	renamed("client", "company")
	renamed("items", "line_items")
	renamed("products", "line_items")
	renamed("deadline", "due_date")
	renamed("date", "issue_date")

	// 2) money fields: numbers become two-decimal strings, null/empty drop
	coerceMoney(m, "budget_amount", &dropped)

	// 3) line items: per-item cleanup
	if items, ok := m["line_items"].([]any); ok {
		cleaned := make([]any, 0, len(items))
		for _, it := range items {
			im, ok := it.(map[string]any)
			if !ok {
				dropped = append(dropped, "line_items(entry type)")
				continue
			}
			coerceMoney(im, "unit_price", &dropped)
			if v, ok := im["quantity"].(string); ok {
				// models sometimes quote quantities
				var f float64
				if _, err := fmt.Sscanf(strings.TrimSpace(v), "%g", &f); err == nil {
					im["quantity"] = f
				} else {
					delete(im, "quantity")
					dropped = append(dropped, "quantity(string)")
				}
			}
			for _, k := range []string{"product_name", "description"} {
				trimOrDrop(im, k, &dropped)
			}
			for k, v := range im {
				switch k {
				case "product_name", "description", "quantity", "unit_price":
				default:
					delete(im, k)
					dropped = append(dropped, "line_items."+k+"(unknown)")
				}
				_ = v
			}
			if len(im) > 0 {
				cleaned = append(cleaned, im)
			}
		}
		m["line_items"] = cleaned
	}

	// 4) currency_code: normalize casing if present
	if v, ok := m["currency_code"].(string); ok {
		s := strings.ToUpper(strings.TrimSpace(v))
		if s == "" {
			delete(m, "currency_code")
			dropped = append(dropped, "currency_code(empty)")
		} else {
			m["currency_code"] = s
		}
	}

	// 5) remove unknown top-level keys
	allowed := map[string]struct{}{
		"company": {}, "requester": {}, "line_items": {}, "requirements": {},
		"issue_date": {}, "due_date": {}, "budget_amount": {},
		"currency_code": {}, "confidence": {},
	}
	for k := range m {
		if _, ok := allowed[k]; !ok {
			delete(m, k)
			dropped = append(dropped, k+"(unknown)")
		}
	}

	// 6) nested objects: drop unknown keys and nulls, trim strings
	nestedAllowed := map[string]map[string]struct{}{
		"company":   {"name": {}, "tax_id": {}, "address": {}, "city": {}, "country": {}},
		"requester": {"name": {}, "email": {}, "phone": {}, "role": {}},
	}
	for objKey, fields := range nestedAllowed {
		if obj, ok := m[objKey].(map[string]any); ok {
			for k, v := range obj {
				if _, known := fields[k]; !known {
					delete(obj, k)
					dropped = append(dropped, objKey+"."+k+"(unknown)")
					continue
				}
				switch t := v.(type) {
				case nil:
					delete(obj, k)
					dropped = append(dropped, objKey+"."+k+"(null)")
				case string:
					s := strings.TrimSpace(t)
					if s == "" {
						delete(obj, k)
						dropped = append(dropped, objKey+"."+k+"(empty)")
					} else {
						obj[k] = s
					}
				}
			}
			if len(obj) == 0 {
				delete(m, objKey)
				dropped = append(dropped, objKey+"(empty)")
			}
		}
	}
	for _, k := range []string{"issue_date", "due_date"} {
		trimOrDrop(m, k, &dropped)
	}

	out, err := json.Marshal(m)
	if err != nil {
		return nil, dropped, fmt.Errorf("sanitize: encode: %w", err)
	}
	if len(dropped) > 0 {
		logger.Warn("llm.extract.normalize_sanitize", "dropped", dropped)
	}
	return out, dropped, nil
}

func coerceMoney(m map[string]any, k string, dropped *[]string) {
	v, ok := m[k]
	if !ok {
		return
	}
	switch t := v.(type) {
	case float64:
		m[k] = fmt.Sprintf("%.2f", t)
	case string:
		s := strings.TrimSpace(t)
		if s == "" || strings.EqualFold(s, "null") {
			delete(m, k)
			*dropped = append(*dropped, k+"(empty)")
		} else {
			m[k] = s
		}
	case nil:
		delete(m, k)
		*dropped = append(*dropped, k+"(null)")
	default:
		// unexpected type -> drop
		delete(m, k)
		*dropped = append(*dropped, k+"(type)")
	}
}

func trimOrDrop(m map[string]any, k string, dropped *[]string) {
	if v, ok := m[k]; ok {
		switch t := v.(type) {
		case nil:
			delete(m, k)
			*dropped = append(*dropped, k+"(null)")
		case string:
			s := strings.TrimSpace(t)
			if s == "" {
				delete(m, k)
				*dropped = append(*dropped, k+"(empty)")
			} else {
				m[k] = s
			}
		}
	}
}
