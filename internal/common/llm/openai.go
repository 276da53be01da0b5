package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	apperrors "presales-mvp/internal/common/errors"
)

// OpenAIConfig configures an OpenAI-compatible chat completions endpoint.
type OpenAIConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
	JSONMode    bool
}

// OpenAIClient calls {BaseURL}/chat/completions.
type OpenAIClient struct {
	config *OpenAIConfig
	client *http.Client
}

func NewOpenAIClient(config *OpenAIConfig, client *http.Client) *OpenAIClient {
	if client == nil {
		client = &http.Client{}
	}
	return &OpenAIClient{config: config, client: client}
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

const opChatCompletion = "chat completion"

func (c *OpenAIClient) Complete(ctx context.Context, messages []Message) (string, error) {
	reqBody := chatRequest{
		Model:       c.config.Model,
		Messages:    messages,
		Temperature: c.config.Temperature,
		MaxTokens:   c.config.MaxTokens,
	}
	if c.config.JSONMode {
		reqBody.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", apperrors.NewCollaboratorError(apperrors.ServiceLLM, opChatCompletion, err)
	}

	url := strings.TrimRight(c.config.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", apperrors.NewCollaboratorError(apperrors.ServiceLLM, opChatCompletion, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", apperrors.NewCollaboratorError(apperrors.ServiceLLM, opChatCompletion, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", apperrors.NewCollaboratorError(apperrors.ServiceLLM, opChatCompletion, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", apperrors.NewCollaboratorStatusError(apperrors.ServiceLLM, opChatCompletion, resp.StatusCode, string(respBody))
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", apperrors.NewCollaboratorError(apperrors.ServiceLLM, opChatCompletion, fmt.Errorf("decode response: %w", err))
	}
	if len(parsed.Choices) == 0 {
		return "", apperrors.NewCollaboratorError(apperrors.ServiceLLM, opChatCompletion, fmt.Errorf("no choices in response"))
	}

	return parsed.Choices[0].Message.Content, nil
}
