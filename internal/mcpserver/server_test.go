package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "presales-mvp/internal/common/errors"
	"presales-mvp/internal/common/logger"
	"presales-mvp/internal/models"
	"presales-mvp/pkg/registry"
)

// ==========================
// Test Helpers
// ==========================

type MockDispatcher struct {
	ExecuteFunc func(ctx context.Context, req models.MVPRequest) (*models.MVPResponse, error)
	calls       []models.MVPRequest
}

func (m *MockDispatcher) Execute(ctx context.Context, req models.MVPRequest) (*models.MVPResponse, error) {
	m.calls = append(m.calls, req)
	return m.ExecuteFunc(ctx, req)
}

func makeReq(args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func resultText(r *mcp.CallToolResult) string {
	if r == nil {
		return ""
	}
	for _, c := range r.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func createTestTool(t *testing.T, dispatcher Dispatcher) *RunTool {
	return NewRunTool(dispatcher, registry.Default(), logger.NewTestLogger(t))
}

// ==========================
// Tests
// ==========================

func TestRunTool_Definition(t *testing.T) {
	def := createTestTool(t, &MockDispatcher{}).Definition()

	assert.Equal(t, ToolName, def.Name)
	assert.Contains(t, def.InputSchema.Properties, "scenario")
	assert.Contains(t, def.InputSchema.Properties, "brief")
	assert.Contains(t, def.InputSchema.Properties, "session_id")
	assert.ElementsMatch(t, []string{"scenario", "brief"}, def.InputSchema.Required)

	scenario := def.InputSchema.Properties["scenario"].(map[string]interface{})
	assert.ElementsMatch(t, []string{"qualify", "proposal", "pricing"}, scenario["enum"])
}

func TestRunTool_Handle(t *testing.T) {
	dispatcher := &MockDispatcher{
		ExecuteFunc: func(ctx context.Context, req models.MVPRequest) (*models.MVPResponse, error) {
			return models.NewResponse(req, &models.RunResult{
				Summary: "[PRICING] Total after discount: 900. Approvals needed: false",
				Data:    map[string]interface{}{"total_after_discount": 900},
			})
		},
	}
	tool := createTestTool(t, dispatcher)

	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"scenario":   "pricing",
		"brief":      "ACME 3 month rollout",
		"session_id": "s-9",
	}))
	require.NoError(t, err)
	require.False(t, result.IsError, resultText(result))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(resultText(result)), &body))
	assert.Equal(t, "pricing", body["scenario"])
	assert.Equal(t, "s-9", body["session_id"])
	assert.Equal(t, "[PRICING] Total after discount: 900. Approvals needed: false", body["summary"])

	require.Len(t, dispatcher.calls, 1)
	assert.Equal(t, "ACME 3 month rollout", dispatcher.calls[0].Brief)
}

func TestRunTool_Handle_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		args     map[string]interface{}
		wantText string
	}{
		{name: "unknown scenario", args: map[string]interface{}{"scenario": "unknown", "brief": "b"}, wantText: "unknown scenario"},
		{name: "missing scenario", args: map[string]interface{}{"brief": "b"}, wantText: "unknown scenario"},
		{name: "missing brief", args: map[string]interface{}{"scenario": "qualify"}, wantText: "'brief' is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dispatcher := &MockDispatcher{}
			result, err := createTestTool(t, dispatcher).Handle(context.Background(), makeReq(tt.args))

			require.NoError(t, err)
			assert.True(t, result.IsError)
			assert.Contains(t, resultText(result), tt.wantText)
			assert.Empty(t, dispatcher.calls)
		})
	}
}

func TestRunTool_Handle_DispatchError(t *testing.T) {
	dispatcher := &MockDispatcher{
		ExecuteFunc: func(ctx context.Context, req models.MVPRequest) (*models.MVPResponse, error) {
			return nil, apperrors.NewCollaboratorError(apperrors.ServiceKM, "retrieve", errors.New("dial tcp: refused"))
		},
	}

	result, err := createTestTool(t, dispatcher).Handle(context.Background(), makeReq(map[string]interface{}{
		"scenario": "proposal",
		"brief":    "b",
	}))

	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Equal(t, "KM_RETRIEVAL_FAILED: run failed", resultText(result))
	assert.NotContains(t, resultText(result), "dial tcp")
}

func TestNew(t *testing.T) {
	s := New("test", &MockDispatcher{}, registry.Default(), logger.NewNoOpLogger())
	require.NotNil(t, s)
}
