package llm

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	apperrors "presales-mvp/internal/common/errors"
)

// GeminiConfig configures the Gemini provider.
type GeminiConfig struct {
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
	JSONMode    bool
}

type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiClient completes conversations through the genai SDK.
type GeminiClient struct {
	config *GeminiConfig
	models contentGenerator
}

func NewGeminiClient(ctx context.Context, config *GeminiConfig) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GeminiClient{config: config, models: client.Models}, nil
}

const opGenerateContent = "generate content"

func (c *GeminiClient) Complete(ctx context.Context, messages []Message) (string, error) {
	system, contents := toGeminiContents(messages)

	genConfig := &genai.GenerateContentConfig{
		SystemInstruction: system,
		Temperature:       genai.Ptr(float32(c.config.Temperature)),
	}
	if c.config.MaxTokens > 0 {
		genConfig.MaxOutputTokens = int32(c.config.MaxTokens)
	}
	if c.config.JSONMode {
		genConfig.ResponseMIMEType = "application/json"
	}

	resp, err := c.models.GenerateContent(ctx, c.config.Model, contents, genConfig)
	if err != nil {
		return "", apperrors.NewCollaboratorError(apperrors.ServiceLLM, opGenerateContent, err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return "", apperrors.NewCollaboratorError(apperrors.ServiceLLM, opGenerateContent, fmt.Errorf("no candidates in response"))
	}

	return resp.Text(), nil
}

// toGeminiContents folds system messages into one system instruction and maps
// assistant turns to the model role.
func toGeminiContents(messages []Message) (*genai.Content, []*genai.Content) {
	var systemParts []string
	contents := make([]*genai.Content, 0, len(messages))

	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			systemParts = append(systemParts, m.Content)
		case RoleAssistant:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}

	if len(systemParts) == 0 {
		return nil, contents
	}
	return genai.NewContentFromText(strings.Join(systemParts, "\n\n"), genai.RoleUser), contents
}
