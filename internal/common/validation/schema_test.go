package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envelopeSchema() JSONSchema {
	return JSONSchema{
		Type: "object",
		Properties: map[string]Property{
			"session_id": Nullable(Property{Type: "string"}),
			"scenario":   {Type: "string", Enum: []string{"qualify", "proposal", "pricing"}},
			"brief":      {Type: "string"},
		},
		Required: []string{"scenario", "brief"},
	}
}

func TestValidator_Validate(t *testing.T) {
	v, err := NewValidator(envelopeSchema())
	require.NoError(t, err)

	tests := []struct {
		name      string
		input     map[string]interface{}
		wantValid bool
		wantField string
		wantCode  string
	}{
		{
			name:      "valid",
			input:     map[string]interface{}{"scenario": "qualify", "brief": "x"},
			wantValid: true,
		},
		{
			name:      "extra fields allowed",
			input:     map[string]interface{}{"scenario": "pricing", "brief": "", "extra": 1.0},
			wantValid: true,
		},
		{
			name:      "null session id",
			input:     map[string]interface{}{"scenario": "qualify", "brief": "x", "session_id": nil},
			wantValid: true,
		},
		{
			name:      "unknown scenario",
			input:     map[string]interface{}{"scenario": "unknown", "brief": "x"},
			wantField: "scenario",
			wantCode:  "INVALID_ENUM_VALUE",
		},
		{
			name:      "missing brief",
			input:     map[string]interface{}{"scenario": "qualify"},
			wantField: "brief",
			wantCode:  "REQUIRED_FIELD_MISSING",
		},
		{
			name:      "brief wrong type",
			input:     map[string]interface{}{"scenario": "qualify", "brief": 42.0},
			wantField: "brief",
			wantCode:  "INVALID_TYPE",
		},
		{
			name:      "session id wrong type",
			input:     map[string]interface{}{"scenario": "qualify", "brief": "x", "session_id": true},
			wantField: "session_id",
			wantCode:  "INVALID_TYPE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := v.Validate(tt.input)
			assert.Equal(t, tt.wantValid, result.Valid)
			if tt.wantValid {
				assert.Empty(t, result.Errors)
				return
			}
			require.NotEmpty(t, result.Errors)
			assert.True(t, result.HasErrors(tt.wantField), "errors: %v", result.GetErrorMessages())
			assert.Equal(t, tt.wantCode, result.Errors[0].Code)
		})
	}
}

func TestValidator_ValidateJSON(t *testing.T) {
	v, err := NewValidator(envelopeSchema())
	require.NoError(t, err)

	obj, result := v.ValidateJSON([]byte(`{"scenario":"proposal","brief":"b","session_id":"s-1"}`))
	require.True(t, result.Valid)
	assert.Equal(t, "s-1", obj["session_id"])

	_, result = v.ValidateJSON([]byte(`{"scenario":`))
	assert.False(t, result.Valid)
	assert.Equal(t, "INVALID_JSON", result.Errors[0].Code)

	_, result = v.ValidateJSON([]byte(`["qualify"]`))
	assert.False(t, result.Valid)
	assert.True(t, result.HasErrors("body"))
}

func TestValidateInput(t *testing.T) {
	result, err := ValidateInput(map[string]interface{}{"scenario": "qualify", "brief": "b"}, envelopeSchema())
	require.NoError(t, err)
	assert.True(t, result.Valid)

	_, err = ValidateInput(nil, JSONSchema{Type: "not-a-type"})
	assert.Error(t, err)
}
