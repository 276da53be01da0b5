// Package pricing builds a pricing pack from a brief and KM rate cards.
package pricing

import (
	"context"
	"fmt"
	"strconv"

	"presales-mvp/internal/common/config"
	"presales-mvp/internal/common/llm"
	"presales-mvp/internal/common/logger"
	"presales-mvp/internal/models"
	"presales-mvp/internal/workers/presales/prompts"
)

const (
	TaskType = "pricing"

	consistencyTolerance = 0.01
)

// Retriever fetches KM evidence for a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string, folders []int, settings config.RetrievalSettings) (string, error)
}

// Notifier publishes an approval notice for a pack that needs one.
type Notifier interface {
	NotifyApproval(ctx context.Context, brief string, pack *models.PricingPack) error
}

type Handler struct {
	config    *Config
	retriever Retriever
	model     llm.Model
	settings  config.SettingsSource
	prompt    prompts.Template
	notifier  Notifier
	logger    logger.Logger
}

// NewHandler builds the pricing handler. notifier may be nil.
func NewHandler(config *Config, retriever Retriever, model llm.Model, settings config.SettingsSource, prompt prompts.Template, notifier Notifier, log logger.Logger) *Handler {
	return &Handler{
		config:    config,
		retriever: retriever,
		model:     model,
		settings:  settings,
		prompt:    prompt,
		notifier:  notifier,
		logger:    log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) execute(ctx context.Context, brief string) (*models.RunResult, error) {
	settings := h.settings()

	kmRaw, err := h.retriever.Retrieve(ctx, brief, settings.PricingFolders, settings)
	if err != nil {
		return nil, err
	}

	pack, err := llm.InvokeStrictJSON[models.PricingPack](
		ctx,
		h.model,
		h.prompt.Messages(brief, kmRaw),
		llm.Schema{Name: models.PricingPackSchemaName, Definition: models.PricingPackSchema()},
		h.config.StrictRetries,
		llm.WithBackoff(h.config.RetryBackoff),
		llm.WithLogger(h.logger),
	)
	if err != nil {
		return nil, err
	}

	if issues := pack.Inconsistencies(consistencyTolerance); len(issues) > 0 {
		h.logger.Warn("pricing pack totals are inconsistent", map[string]interface{}{
			"issues": issues,
		})
	}

	if pack.ApprovalsNeeded && h.notifier != nil {
		if err := h.notifier.NotifyApproval(ctx, brief, pack); err != nil {
			h.logger.Warn("approval notice not delivered", map[string]interface{}{
				"error": err,
			})
		}
	}

	return &models.RunResult{
		Summary: Summary(pack),
		Data:    pack,
	}, nil
}

// Summary reports the discounted total and whether approvals are needed.
func Summary(pack *models.PricingPack) string {
	return fmt.Sprintf("[PRICING] Total after discount: %s. Approvals needed: %t",
		FormatAmount(pack.TotalAfterDiscount), pack.ApprovalsNeeded)
}

// FormatAmount renders v with the fewest digits that round-trip.
func FormatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func (h *Handler) Execute(ctx context.Context, brief string) (*models.RunResult, error) {
	return h.execute(ctx, brief)
}
