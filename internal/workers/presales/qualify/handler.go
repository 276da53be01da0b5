// Package qualify runs the BANT-C qualification scenario.
package qualify

import (
	"context"

	"presales-mvp/internal/common/logger"
	"presales-mvp/internal/models"
)

const (
	TaskType = "qualify"

	summaryPrefix = "[QUALIFY] Done. Overall summary:\n"
)

// Analyzer is the qualification agent.
type Analyzer interface {
	Analyze(ctx context.Context, query, instruction string) (models.AgentResult, error)
}

type Handler struct {
	config *Config
	agent  Analyzer
	logger logger.Logger
}

func NewHandler(config *Config, agent Analyzer, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		agent:  agent,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) execute(ctx context.Context, brief string) (*models.RunResult, error) {
	result, err := h.agent.Analyze(ctx, brief, h.config.Instruction)
	if err != nil {
		return nil, err
	}

	h.logger.Debug("qualification analysis received", map[string]interface{}{
		"structured": result.Kind == models.AgentResultStructured,
	})

	return &models.RunResult{
		Summary: Summary(result),
		Data:    result.Payload(),
	}, nil
}

// Summary renders the qualify summary line for result.
func Summary(result models.AgentResult) string {
	return summaryPrefix + result.OverallSummary()
}

func (h *Handler) Execute(ctx context.Context, brief string) (*models.RunResult, error) {
	return h.execute(ctx, brief)
}
