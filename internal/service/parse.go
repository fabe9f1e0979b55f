package service

import (
	"encoding/json"
	"fmt"

	"estate-suggest/internal/model"
	"estate-suggest/internal/utils"

	"github.com/xeipuuv/gojsonschema"
)

// suggestionResponseSchema mirrors model.SuggestionResponse. Extra properties
// are allowed and dropped when the document is decoded into the model.
const suggestionResponseSchema = `{
  "type": "object",
  "required": ["suggestions"],
  "properties": {
    "suggestions": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["address", "description", "price", "area", "rooms", "floor", "total_floors", "year_built"],
        "properties": {
          "id":           {"type": "integer"},
          "address":      {"type": "string", "minLength": 1},
          "description":  {"type": "string"},
          "price":        {"type": "number"},
          "area":         {"type": "number"},
          "rooms":        {"type": "integer", "minimum": 0},
          "floor":        {"type": "integer", "minimum": 1},
          "total_floors": {"type": "integer"},
          "year_built":   {"type": "integer", "minimum": 1000, "maximum": 9999}
        }
      }
    }
  }
}`

var suggestionSchema = mustCompileSchema(suggestionResponseSchema)

func mustCompileSchema(src string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(fmt.Sprintf("invalid suggestion schema: %v", err))
	}
	return schema
}

// emptyContent stands in for a reply without message content
const emptyContent = "{}"

// ParseSuggestions turns the model's message text into a validated response.
// It is a pure function of its input: the same content always yields the same
// result. Errors are *SuggestError of kind KindMalformedOutput or KindNoSuggestions.
func ParseSuggestions(content string) (*model.SuggestionResponse, error) {
	parsed, err := utils.DecodeAIJSON(content)
	if err != nil {
		return nil, newSuggestError(KindMalformedOutput, "AI returned invalid JSON", err)
	}

	var doc map[string]any
	switch v := parsed.(type) {
	case map[string]any:
		doc = v
	case []any:
		// known deviation: the model sometimes returns the array itself
		doc = map[string]any{"suggestions": v}
	default:
		return nil, newSuggestError(KindMalformedOutput, fmt.Sprintf("incorrect data structure: top-level %T", parsed), nil)
	}

	if isEmptyValue(doc["suggestions"]) {
		return nil, newSuggestError(KindNoSuggestions, "the AI could not find suitable options", nil)
	}

	result, err := suggestionSchema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return nil, newSuggestError(KindMalformedOutput, "schema validation could not run", err)
	}
	if !result.Valid() {
		se := newSuggestError(KindMalformedOutput, "AI output does not match the suggestion schema", nil)
		for _, desc := range result.Errors() {
			se.Violations = append(se.Violations, desc.String())
			if isArrayForObject(desc) {
				se.ArrayForObject = true
			}
		}
		return nil, se
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, newSuggestError(KindMalformedOutput, "failed to re-encode AI output", err)
	}
	var resp model.SuggestionResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		// e.g. 3.0 passes the integer check but does not fit an int field
		return nil, newSuggestError(KindMalformedOutput, "failed to decode validated AI output", err)
	}

	return &resp, nil
}

// isEmptyValue reports a missing key or a falsy value: null, false, "" or 0
func isEmptyValue(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case bool:
		return !x
	case string:
		return x == ""
	case json.Number:
		f, err := x.Float64()
		return err == nil && f == 0
	default:
		return false
	}
}

func isArrayForObject(desc gojsonschema.ResultError) bool {
	if desc.Type() != "invalid_type" {
		return false
	}
	details := desc.Details()
	return fmt.Sprint(details["expected"]) == gojsonschema.TYPE_OBJECT &&
		fmt.Sprint(details["given"]) == gojsonschema.TYPE_ARRAY
}
