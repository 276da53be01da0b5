package llm

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "presales-mvp/internal/common/errors"
	"presales-mvp/internal/common/logger"
	"presales-mvp/internal/models"
)

// ==========================
// Test Doubles
// ==========================

type outline struct {
	Title string   `json:"title"`
	Items []string `json:"items"`
}

var outlineSchema = Schema{
	Name: "Outline",
	Definition: map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"title": map[string]interface{}{"type": "string"},
			"items": map[string]interface{}{
				"type":  "array",
				"items": map[string]interface{}{"type": "string"},
			},
		},
		"required":             []interface{}{"title", "items"},
		"additionalProperties": false,
	},
}

// scriptedModel returns replies in order, repeating the last one.
type scriptedModel struct {
	mu            sync.Mutex
	replies       []string
	err           error
	calls         int
	conversations [][]Message
}

func (m *scriptedModel) Complete(ctx context.Context, messages []Message) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.conversations = append(m.conversations, append([]Message(nil), messages...))
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	idx := m.calls - 1
	if idx >= len(m.replies) {
		idx = len(m.replies) - 1
	}
	return m.replies[idx], nil
}

type recordingSleeper struct {
	waits []time.Duration
	err   error
}

func (s *recordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	s.waits = append(s.waits, d)
	return s.err
}

func baseConversation() []Message {
	return []Message{
		SystemMessage("Return STRICT JSON only."),
		UserMessage("Outline the brief."),
	}
}

const validOutline = `{"title": "Plan", "items": ["discovery", "build"]}`

// ==========================
// Core Behavior Tests
// ==========================

func TestInvokeStrictJSON_ValidFirstTry(t *testing.T) {
	model := &scriptedModel{replies: []string{validOutline}}

	got, err := InvokeStrictJSON[outline](context.Background(), model, baseConversation(), outlineSchema, 0,
		WithLogger(logger.NewTestLogger(t)))

	require.NoError(t, err)
	assert.Equal(t, &outline{Title: "Plan", Items: []string{"discovery", "build"}}, got)
	assert.Equal(t, 1, model.calls)
}

func TestInvokeStrictJSON_ExhaustsAttempts(t *testing.T) {
	tests := []struct {
		name         string
		retry        int
		wantAttempts int
	}{
		{"retry zero means one attempt", 0, 1},
		{"retry one", 1, 2},
		{"retry three", 3, 4},
		{"negative retry treated as zero", -2, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := &scriptedModel{replies: []string{`{"title": "Plan", "items": [`}}
			sleeper := &recordingSleeper{}

			got, err := InvokeStrictJSON[outline](context.Background(), model, baseConversation(), outlineSchema, tt.retry,
				WithSleeper(sleeper.Sleep))

			require.Error(t, err)
			assert.Nil(t, got)

			var schemaErr *apperrors.SchemaValidationError
			require.ErrorAs(t, err, &schemaErr)
			assert.Equal(t, "Outline", schemaErr.Schema)
			assert.Equal(t, tt.wantAttempts, schemaErr.Attempts)
			assert.Equal(t, `{"title": "Plan", "items": [`, schemaErr.Raw)
			assert.Contains(t, schemaErr.Detail, "invalid JSON")

			assert.Equal(t, tt.wantAttempts, model.calls)
			assert.Len(t, sleeper.waits, tt.wantAttempts-1)
		})
	}
}

func TestInvokeStrictJSON_RecoversAfterMalformedReply(t *testing.T) {
	model := &scriptedModel{replies: []string{"Sure! Here is the outline: title=Plan", validOutline}}

	got, err := InvokeStrictJSON[outline](context.Background(), model, baseConversation(), outlineSchema, 1,
		WithSleeper(func(context.Context, time.Duration) error { return nil }))

	require.NoError(t, err)
	assert.Equal(t, "Plan", got.Title)
	assert.Equal(t, 2, model.calls)

	retried := model.conversations[1]
	require.Len(t, retried, 4)
	assert.Equal(t, RoleAssistant, retried[2].Role)
	assert.Equal(t, "Sure! Here is the outline: title=Plan", retried[2].Content)
	assert.Equal(t, RoleUser, retried[3].Role)
	assert.Contains(t, retried[3].Content, "did not match the Outline schema")

	assert.Len(t, baseConversation(), 2, "caller messages are not mutated")
}

func TestInvokeStrictJSON_SchemaViolations(t *testing.T) {
	tests := []struct {
		name       string
		reply      string
		wantDetail string
	}{
		{"missing required field", `{"title": "Plan"}`, "items"},
		{"type mismatch", `{"title": 7, "items": []}`, "title"},
		{"extra field", `{"title": "Plan", "items": [], "budget": 1}`, "budget"},
		{"empty reply", "   ", "empty response"},
		{"json null", "null", "object"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := &scriptedModel{replies: []string{tt.reply}}

			_, err := InvokeStrictJSON[outline](context.Background(), model, baseConversation(), outlineSchema, 0)

			var schemaErr *apperrors.SchemaValidationError
			require.ErrorAs(t, err, &schemaErr)
			assert.Contains(t, schemaErr.Detail, tt.wantDetail)
		})
	}
}

func TestInvokeStrictJSON_ModelSchemasIgnoreExtraFields(t *testing.T) {
	pricingReply := `{
		"currency": "EUR",
		"lines": [{"role": "Architect", "days": 5, "rate_per_day": 1200, "subtotal": 6000, "level": "senior"}],
		"overhead_pct": 10, "risk_buffer_pct": 5, "discount_pct": 10,
		"total_before_discount": 6900, "total_after_discount": 6210,
		"approvals_needed": false, "approval_reasons": [], "notes": [],
		"assumptions": ["travel excluded"]
	}`
	model := &scriptedModel{replies: []string{pricingReply}}

	pack, err := InvokeStrictJSON[models.PricingPack](context.Background(), model, baseConversation(),
		Schema{Name: models.PricingPackSchemaName, Definition: models.PricingPackSchema()}, 0)

	require.NoError(t, err)
	assert.Equal(t, 1, model.calls)
	require.Len(t, pack.Lines, 1)
	assert.Equal(t, "Architect", pack.Lines[0].Role)
	assert.Equal(t, 6210.0, pack.TotalAfterDiscount)

	proposalReply := `{
		"executive_summary": ["Modernise billing"], "business_challenges": [], "proposed_solution": [],
		"architecture_notes": [], "delivery_plan": [], "assumptions": [], "risks": [], "timeline": [],
		"evidence": [{"source_hint": "case-study", "snippet": "cut costs 20%", "page": 4}],
		"confidence": "high"
	}`
	model = &scriptedModel{replies: []string{proposalReply}}

	draft, err := InvokeStrictJSON[models.ProposalDraft](context.Background(), model, baseConversation(),
		Schema{Name: models.ProposalDraftSchemaName, Definition: models.ProposalDraftSchema()}, 0)

	require.NoError(t, err)
	require.Len(t, draft.Evidence, 1)
	assert.Equal(t, "case-study", draft.Evidence[0].SourceHint)
}

func TestInvokeStrictJSON_AcceptsFencedReply(t *testing.T) {
	for _, reply := range []string{
		"```json\n" + validOutline + "\n```",
		"```\n" + validOutline + "\n```",
		"  " + validOutline + "\n",
	} {
		model := &scriptedModel{replies: []string{reply}}
		got, err := InvokeStrictJSON[outline](context.Background(), model, baseConversation(), outlineSchema, 0)
		require.NoError(t, err, reply)
		assert.Equal(t, "Plan", got.Title)
	}
}

func TestInvokeStrictJSON_ModelErrorNotRetried(t *testing.T) {
	transportErr := apperrors.NewCollaboratorStatusError(apperrors.ServiceLLM, "chat completion", 503, "overloaded")
	model := &scriptedModel{err: transportErr}

	_, err := InvokeStrictJSON[outline](context.Background(), model, baseConversation(), outlineSchema, 3)

	assert.Same(t, transportErr, err)
	assert.Equal(t, 1, model.calls)
}

func TestInvokeStrictJSON_BackoffAndCancellation(t *testing.T) {
	model := &scriptedModel{replies: []string{"nope"}}
	sleeper := &recordingSleeper{}

	_, err := InvokeStrictJSON[outline](context.Background(), model, baseConversation(), outlineSchema, 2,
		WithBackoff(250*time.Millisecond), WithSleeper(sleeper.Sleep))

	require.Error(t, err)
	assert.Equal(t, []time.Duration{250 * time.Millisecond, 250 * time.Millisecond}, sleeper.waits)

	cancelled := &recordingSleeper{err: context.Canceled}
	model = &scriptedModel{replies: []string{"nope"}}
	_, err = InvokeStrictJSON[outline](context.Background(), model, baseConversation(), outlineSchema, 2,
		WithSleeper(cancelled.Sleep))

	assert.True(t, stderrors.Is(err, context.Canceled))
	assert.Equal(t, 1, model.calls)
}

func TestInvokeStrictJSON_RequiresSystemAndUser(t *testing.T) {
	model := &scriptedModel{replies: []string{validOutline}}

	_, err := InvokeStrictJSON[outline](context.Background(), model, []Message{UserMessage("only user")}, outlineSchema, 0)

	var stdErr *apperrors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, apperrors.ErrCodeInvalidRequest, stdErr.Code)
	assert.Equal(t, 0, model.calls)
}

func TestContextSleep(t *testing.T) {
	assert.NoError(t, ContextSleep(context.Background(), 0))
	assert.NoError(t, ContextSleep(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, ContextSleep(ctx, time.Hour), context.Canceled)
}

func TestExtractJSON(t *testing.T) {
	assert.Equal(t, `{"a":1}`, extractJSON("```json{\"a\":1}```"))
	assert.Equal(t, `{"a":1}`, extractJSON("\n```json\n{\"a\":1}\n```\n"))
	assert.Equal(t, `[1]`, extractJSON(" [1] "))
}
