// Package bantc is the client for the BANT-C opportunity qualification agent.
package bantc

import (
	"context"
	"time"

	apperrors "presales-mvp/internal/common/errors"
	httpclient "presales-mvp/internal/common/http"
	"presales-mvp/internal/models"
)

const analysisPath = "/api/v1/opportunity/bantc"

// AnalysisRequest is the body of an analysis call.
type AnalysisRequest struct {
	Query                string `json:"query"`
	ExtraUserInstruction string `json:"extra_user_instruction,omitempty"`
}

type Client struct {
	http *httpclient.Client
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{http: httpclient.NewClient(baseURL, apiKey, timeout)}
}

// NewClientWith wraps an existing collaborator client.
func NewClientWith(c *httpclient.Client) *Client {
	return &Client{http: c}
}

// Analyze runs a BANT-C analysis of query. The reply is tagged Structured when
// it is a JSON object and Unstructured otherwise.
func (c *Client) Analyze(ctx context.Context, query, instruction string) (models.AgentResult, error) {
	resp, err := c.http.PostJSON(ctx, analysisPath, AnalysisRequest{
		Query:                query,
		ExtraUserInstruction: instruction,
	})
	if err != nil {
		return models.AgentResult{}, apperrors.NewCollaboratorError(apperrors.ServiceAgent, "analyze", err)
	}
	if !resp.OK() {
		return models.AgentResult{}, apperrors.NewCollaboratorStatusError(apperrors.ServiceAgent, "analyze", resp.StatusCode, string(resp.Body))
	}

	return models.ParseAgentResult(resp.Body), nil
}
