// Package kmverse is the client for the KM knowledge retrieval service.
package kmverse

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	apperrors "presales-mvp/internal/common/errors"
	httpclient "presales-mvp/internal/common/http"
)

const retrievalPath = "/api/v1/knowledge/retrieval"

// RetrievalRequest is the body of a retrieval call.
type RetrievalRequest struct {
	ProjectID       int     `json:"project_id"`
	KnowledgeBaseID int64   `json:"knowledge_base_id"`
	Folders         []int   `json:"folders"`
	Embedding       string  `json:"embedding,omitempty"`
	Query           string  `json:"query"`
	TopK            int     `json:"top_k"`
	Score           float64 `json:"score"`
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

// Retrieve returns the raw evidence text for req. A JSON object reply with a
// string "data" field yields that field; any other body is returned as is.
func (c *Client) Retrieve(ctx context.Context, req RetrievalRequest) (string, error) {
	if req.Folders == nil {
		req.Folders = []int{}
	}

	resp, err := c.http.PostJSON(ctx, retrievalPath, req)
	if err != nil {
		return "", apperrors.NewCollaboratorError(apperrors.ServiceKM, "retrieve", err)
	}
	if !resp.OK() {
		return "", apperrors.NewCollaboratorStatusError(apperrors.ServiceKM, "retrieve", resp.StatusCode, string(resp.Body))
	}

	var envelope struct {
		Data *string `json:"data"`
	}
	if err := json.Unmarshal(resp.Body, &envelope); err == nil && envelope.Data != nil {
		return *envelope.Data, nil
	}

	return strings.TrimSpace(string(resp.Body)), nil
}
