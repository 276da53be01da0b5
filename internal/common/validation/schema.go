package validation

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// JSONSchema defines the structure for request schemas.
type JSONSchema struct {
	Type                 string              `json:"type"`
	Properties           map[string]Property `json:"properties"`
	Required             []string            `json:"required,omitempty"`
	AdditionalProperties *bool               `json:"additionalProperties,omitempty"`
}

type Property struct {
	Type        string     `json:"type,omitempty"`
	AnyOf       []Property `json:"anyOf,omitempty"`
	Description string     `json:"description,omitempty"`
	Enum        []string   `json:"enum,omitempty"`
	MinLength   *int       `json:"minLength,omitempty"`
	MaxLength   *int       `json:"maxLength,omitempty"`
	Items       *Property  `json:"items,omitempty"`
}

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

const rootField = "body"

// Nullable accepts p or JSON null.
func Nullable(p Property) Property {
	return Property{Description: p.Description, AnyOf: []Property{p, {Type: "null"}}}
}

// Validator checks documents against a compiled schema.
type Validator struct {
	schema *gojsonschema.Schema
}

func NewValidator(schema JSONSchema) (*Validator, error) {
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(schema))
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &Validator{schema: compiled}, nil
}

// Validate checks doc, a decoded JSON value.
func (v *Validator) Validate(doc interface{}) *ValidationResult {
	result, err := v.schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return &ValidationResult{Errors: []ValidationError{{
			Field:   rootField,
			Message: err.Error(),
			Code:    "INVALID_JSON",
		}}}
	}

	errors := make([]ValidationError, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		errors = append(errors, ValidationError{
			Field:   fieldName(e),
			Message: e.Description(),
			Code:    errorCode(e.Type()),
		})
	}

	return &ValidationResult{
		Valid:  len(errors) == 0,
		Errors: errors,
	}
}

// ValidateInput validates input against schema with detailed errors.
func ValidateInput(input map[string]interface{}, schema JSONSchema) (*ValidationResult, error) {
	v, err := NewValidator(schema)
	if err != nil {
		return nil, err
	}
	return v.Validate(input), nil
}

// ValidateJSON decodes raw and validates it. Malformed JSON is reported as a
// validation error on the body.
func (v *Validator) ValidateJSON(raw []byte) (map[string]interface{}, *ValidationResult) {
	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, &ValidationResult{Errors: []ValidationError{{
			Field:   rootField,
			Message: "request body is not valid JSON: " + err.Error(),
			Code:    "INVALID_JSON",
		}}}
	}

	result := v.Validate(doc)
	if !result.Valid {
		return nil, result
	}
	obj, _ := doc.(map[string]interface{})
	return obj, result
}

func fieldName(e gojsonschema.ResultError) string {
	if prop, ok := e.Details()["property"].(string); ok && prop != "" {
		if e.Field() == gojsonschema.STRING_CONTEXT_ROOT || e.Field() == "" {
			return prop
		}
		return e.Field() + "." + prop
	}
	if e.Field() == gojsonschema.STRING_CONTEXT_ROOT {
		return rootField
	}
	return e.Field()
}

func errorCode(kind string) string {
	switch kind {
	case "required":
		return "REQUIRED_FIELD_MISSING"
	case "invalid_type", "number_any_of":
		return "INVALID_TYPE"
	case "enum":
		return "INVALID_ENUM_VALUE"
	case "additional_property_not_allowed":
		return "EXTRA_FIELD"
	case "string_gte":
		return "MIN_LENGTH_VIOLATION"
	case "string_lte":
		return "MAX_LENGTH_VIOLATION"
	default:
		return strings.ToUpper(kind)
	}
}

func (vr *ValidationResult) GetErrorMessages() []string {
	messages := make([]string, len(vr.Errors))
	for i, err := range vr.Errors {
		messages[i] = fmt.Sprintf("%s: %s", err.Field, err.Message)
	}
	return messages
}

func (vr *ValidationResult) HasErrors(field string) bool {
	for _, err := range vr.Errors {
		if err.Field == field {
			return true
		}
	}
	return false
}
