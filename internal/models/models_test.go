package models

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xeipuuv/gojsonschema"
)

// ==========================
// Schema Tests
// ==========================

func validate(t *testing.T, schema map[string]interface{}, doc string) *gojsonschema.Result {
	t.Helper()
	result, err := gojsonschema.Validate(gojsonschema.NewGoLoader(schema), gojsonschema.NewStringLoader(doc))
	require.NoError(t, err)
	return result
}

func TestProposalDraftSchema(t *testing.T) {
	valid := `{
		"executive_summary": ["a"], "business_challenges": [], "proposed_solution": [],
		"architecture_notes": [], "delivery_plan": [], "assumptions": [], "risks": [],
		"timeline": [], "evidence": [{"source_hint": "kb#1", "snippet": "text"}]
	}`
	assert.True(t, validate(t, ProposalDraftSchema(), valid).Valid())

	missing := `{"executive_summary": ["a"]}`
	assert.False(t, validate(t, ProposalDraftSchema(), missing).Valid())

	wrongType := `{
		"executive_summary": "a", "business_challenges": [], "proposed_solution": [],
		"architecture_notes": [], "delivery_plan": [], "assumptions": [], "risks": [],
		"timeline": [], "evidence": []
	}`
	assert.False(t, validate(t, ProposalDraftSchema(), wrongType).Valid())
}

func TestPricingPackSchema(t *testing.T) {
	valid := `{
		"currency": "USD",
		"lines": [{"role": "PM", "days": 10, "rate_per_day": 800, "subtotal": 8000}],
		"overhead_pct": 10, "risk_buffer_pct": 5, "discount_pct": 0,
		"total_before_discount": 9200, "total_after_discount": 9200,
		"approvals_needed": false, "approval_reasons": [], "notes": []
	}`
	assert.True(t, validate(t, PricingPackSchema(), valid).Valid())

	negativeDays := `{
		"currency": "USD",
		"lines": [{"role": "PM", "days": -1, "rate_per_day": 800, "subtotal": -800}],
		"overhead_pct": 0, "risk_buffer_pct": 0, "discount_pct": 0,
		"total_before_discount": 0, "total_after_discount": 0,
		"approvals_needed": false, "approval_reasons": [], "notes": []
	}`
	assert.False(t, validate(t, PricingPackSchema(), negativeDays).Valid())

	extraKeys := `{
		"currency": "USD",
		"lines": [{"role": "PM", "days": 10, "rate_per_day": 800, "subtotal": 8000, "level": "senior"}],
		"overhead_pct": 10, "risk_buffer_pct": 5, "discount_pct": 0,
		"total_before_discount": 9200, "total_after_discount": 9200,
		"approvals_needed": false, "approval_reasons": [], "notes": [],
		"assumptions": ["travel excluded"]
	}`
	assert.True(t, validate(t, PricingPackSchema(), extraKeys).Valid())

	stringBool := `{
		"currency": "USD", "lines": [],
		"overhead_pct": 0, "risk_buffer_pct": 0, "discount_pct": 0,
		"total_before_discount": 0, "total_after_discount": 0,
		"approvals_needed": "yes", "approval_reasons": [], "notes": []
	}`
	assert.False(t, validate(t, PricingPackSchema(), stringBool).Valid())
}

func TestPricingPack_ExpectedTotals(t *testing.T) {
	pack := PricingPack{
		Lines: []PricingLine{
			{Role: "Architect", Days: 5, RatePerDay: 1200, Subtotal: 6000},
			{Role: "Engineer", Days: 20, RatePerDay: 800, Subtotal: 16000},
		},
		OverheadPct:         10,
		RiskBufferPct:       5,
		DiscountPct:         10,
		TotalBeforeDiscount: 25300,
		TotalAfterDiscount:  22770,
	}

	before, after := pack.ExpectedTotals()
	assert.InDelta(t, 25300, before, 0.001)
	assert.InDelta(t, 22770, after, 0.001)
	assert.Empty(t, pack.Inconsistencies(0.01))

	pack.Lines[1].Subtotal = 15000
	assert.Contains(t, pack.Inconsistencies(0.01), "subtotal mismatch for role Engineer")
}

// ==========================
// Agent Result Tests
// ==========================

func TestParseAgentResult(t *testing.T) {
	structured := ParseAgentResult([]byte(`{"overall_summary": "预算充足", "budget": {"score": 4}}`))
	assert.Equal(t, AgentResultStructured, structured.Kind)
	assert.Equal(t, "预算充足", structured.OverallSummary())

	quoted := ParseAgentResult([]byte(`"plain analysis"`))
	assert.Equal(t, AgentResultUnstructured, quoted.Kind)
	assert.Equal(t, "plain analysis", quoted.OverallSummary())

	text := ParseAgentResult([]byte("  not json at all \n"))
	assert.Equal(t, AgentResultUnstructured, text.Kind)
	assert.Equal(t, "not json at all", text.Payload())

	list := ParseAgentResult([]byte(`[1, 2]`))
	assert.Equal(t, AgentResultUnstructured, list.Kind)
	assert.Equal(t, "[1, 2]", list.Text)
}

func TestAgentResult_OverallSummary(t *testing.T) {
	assert.Equal(t, "", StructuredResult(map[string]interface{}{"need": "x"}).OverallSummary())
	assert.Equal(t, `{"text":"ok"}`, StructuredResult(map[string]interface{}{
		"overall_summary": map[string]interface{}{"text": "ok"},
	}).OverallSummary())
	assert.Equal(t, "free text", UnstructuredResult("free text").OverallSummary())
}

// ==========================
// Normalization Tests
// ==========================

func TestNormalizeData(t *testing.T) {
	tests := []struct {
		name string
		in   interface{}
		want map[string]interface{}
	}{
		{
			name: "mapping passes through",
			in:   map[string]interface{}{"overall_summary": "ok"},
			want: map[string]interface{}{"overall_summary": "ok"},
		},
		{
			name: "string wrapped",
			in:   "agent said hi",
			want: map[string]interface{}{"raw": "agent said hi"},
		},
		{
			name: "number wrapped",
			in:   42,
			want: map[string]interface{}{"raw": "42"},
		},
		{
			name: "nil wrapped",
			in:   nil,
			want: map[string]interface{}{"raw": ""},
		},
		{
			name: "typed nil pointer wrapped like nil",
			in:   (*ProposalDraft)(nil),
			want: map[string]interface{}{"raw": ""},
		},
		{
			name: "struct flattened",
			in:   &PricingLine{Role: "QA", Days: 2, RatePerDay: 500, Subtotal: 1000},
			want: map[string]interface{}{"role": "QA", "days": 2.0, "rate_per_day": 500.0, "subtotal": 1000.0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeData(tt.in)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("NormalizeData mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNewResponse_EchoesEnvelope(t *testing.T) {
	session := "s-1"
	req := MVPRequest{SessionID: &session, Scenario: ScenarioQualify, Brief: "b"}

	resp, err := NewResponse(req, &RunResult{Summary: "sum", Data: "text"})
	require.NoError(t, err)

	assert.Equal(t, &session, resp.SessionID)
	assert.Equal(t, ScenarioQualify, resp.Scenario)
	assert.Equal(t, map[string]interface{}{"raw": "text"}, resp.Data)

	noSession, err := NewResponse(MVPRequest{Scenario: ScenarioPricing}, &RunResult{Data: map[string]interface{}{}})
	require.NoError(t, err)
	assert.Nil(t, noSession.SessionID)
}

func TestScenario_IsValid(t *testing.T) {
	for _, s := range Scenarios() {
		assert.True(t, s.IsValid())
	}
	assert.False(t, Scenario("unknown").IsValid())
	assert.False(t, Scenario("Qualify").IsValid())
}
