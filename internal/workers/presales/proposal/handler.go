// Package proposal drafts a proposal outline from a brief and KM evidence.
package proposal

import (
	"context"
	"strings"

	"presales-mvp/internal/common/config"
	"presales-mvp/internal/common/llm"
	"presales-mvp/internal/common/logger"
	"presales-mvp/internal/models"
	"presales-mvp/internal/workers/presales/prompts"
)

const (
	TaskType = "proposal"

	summaryHeader     = "[PROPOSAL] Draft ready."
	maxSummaryBullets = 6
)

// Retriever fetches KM evidence for a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string, folders []int, settings config.RetrievalSettings) (string, error)
}

type Handler struct {
	config    *Config
	retriever Retriever
	model     llm.Model
	settings  config.SettingsSource
	prompt    prompts.Template
	logger    logger.Logger
}

func NewHandler(config *Config, retriever Retriever, model llm.Model, settings config.SettingsSource, prompt prompts.Template, log logger.Logger) *Handler {
	return &Handler{
		config:    config,
		retriever: retriever,
		model:     model,
		settings:  settings,
		prompt:    prompt,
		logger:    log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) execute(ctx context.Context, brief string) (*models.RunResult, error) {
	settings := h.settings()

	kmRaw, err := h.retriever.Retrieve(ctx, brief, settings.ProposalFolders, settings)
	if err != nil {
		return nil, err
	}

	draft, err := llm.InvokeStrictJSON[models.ProposalDraft](
		ctx,
		h.model,
		h.prompt.Messages(brief, kmRaw),
		llm.Schema{Name: models.ProposalDraftSchemaName, Definition: models.ProposalDraftSchema()},
		h.config.StrictRetries,
		llm.WithBackoff(h.config.RetryBackoff),
		llm.WithLogger(h.logger),
	)
	if err != nil {
		return nil, err
	}

	h.logger.Info("proposal draft generated", map[string]interface{}{
		"executiveSummaryItems": len(draft.ExecutiveSummary),
		"evidenceItems":         len(draft.Evidence),
	})

	return &models.RunResult{
		Summary: Summary(draft),
		Data:    draft,
	}, nil
}

// Summary lists up to the first six executive summary items as bullets
// under the draft-ready header.
func Summary(draft *models.ProposalDraft) string {
	items := draft.ExecutiveSummary
	if len(items) == 0 {
		return summaryHeader
	}
	if len(items) > maxSummaryBullets {
		items = items[:maxSummaryBullets]
	}
	return summaryHeader + "\n• " + strings.Join(items, "\n• ")
}

func (h *Handler) Execute(ctx context.Context, brief string) (*models.RunResult, error) {
	return h.execute(ctx, brief)
}
