package llm

// BuildRFPJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a
// generic map. We pass this to the model as a structured output constraint
// and also use it locally to validate the response. The schema is versioned
// by the constant below; bump it when the shape changes.
const SchemaVersion = "rfp-draft/1"

func BuildRFPJSONSchema() map[string]any {
	lineItem := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"product_name": map[string]any{"type": "string"},
			"description":  map[string]any{"type": "string"},
			// negatives pass the schema on purpose; the validator nulls
			// them with a recorded issue instead of failing the call
			"quantity":   map[string]any{"type": "number"},
			"unit_price": decimalProp(),
		},
	}

	props := map[string]any{
		"company": map[string]any{
			"type":                 "object",
			"additionalProperties": false,
			"properties": map[string]any{
				"name":    map[string]any{"type": "string"},
				"tax_id":  map[string]any{"type": "string"},
				"address": map[string]any{"type": "string"},
				"city":    map[string]any{"type": "string"},
				"country": map[string]any{"type": "string"},
			},
		},
		"requester": map[string]any{
			"type":                 "object",
			"additionalProperties": false,
			"properties": map[string]any{
				"name":  map[string]any{"type": "string"},
				"email": map[string]any{"type": "string"},
				"phone": map[string]any{"type": "string"},
				"role":  map[string]any{"type": "string"},
			},
		},
		"line_items":    map[string]any{"type": "array", "items": lineItem},
		"requirements":  map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		"issue_date":    map[string]any{"type": "string", "pattern": `^\d{4}-\d{2}-\d{2}$`},
		"due_date":      map[string]any{"type": "string", "pattern": `^\d{4}-\d{2}-\d{2}$`},
		"budget_amount": decimalProp(),
		"currency_code": map[string]any{"type": "string", "minLength": 3, "maxLength": 3},
		"confidence":    map[string]any{"type": "number", "minimum": 0.0, "maximum": 1.0},
	}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
		"required":             []string{},
	}
}

func decimalProp() map[string]any {
	return map[string]any{
		"type":    "string",
		"pattern": `^-?\d+(\.\d{1,2})?$`,
	}
}
