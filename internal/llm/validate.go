package llm

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// draftSchema is the compiled form of BuildRFPJSONSchema. Validation runs
// on every retry attempt of every request, so the compile happens once.
var draftSchema = mustCompileSchema(BuildRFPJSONSchema())

func mustCompileSchema(schemaMap map[string]any) *jsonschema.Schema {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		panic(fmt.Sprintf("marshal draft schema: %v", err))
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		panic(fmt.Sprintf("add draft schema: %v", err))
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		panic(fmt.Sprintf("compile draft schema: %v", err))
	}
	return schema
}

// ValidateDraftJSON validates a model response against the draft schema.
func ValidateDraftJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := draftSchema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema %s: %w", SchemaVersion, err)
	}
	return nil
}
