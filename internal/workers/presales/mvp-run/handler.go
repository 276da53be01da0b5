// Package mvprun dispatches a request to its scenario handler and serves the
// mvp-run job type.
package mvprun

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"go.opentelemetry.io/otel/attribute"

	apperrors "presales-mvp/internal/common/errors"
	"presales-mvp/internal/common/logger"
	"presales-mvp/internal/common/metrics"
	"presales-mvp/internal/common/observability"
	"presales-mvp/internal/models"
)

const (
	TaskType = "mvp-run"
	SpanName = "mvp.run"

	unknownScenarioLabel = "unknown"
)

// ScenarioHandler runs one scenario for a brief.
type ScenarioHandler interface {
	Execute(ctx context.Context, brief string) (*models.RunResult, error)
}

type Handler struct {
	config       *Config
	scenarios    map[models.Scenario]ScenarioHandler
	obs          *observability.Observability
	errorHandler *apperrors.ErrorHandler
	logger       logger.Logger
}

// NewHandler builds the dispatcher. obs may be nil.
func NewHandler(config *Config, scenarios map[models.Scenario]ScenarioHandler, obs *observability.Observability, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		scenarios:    scenarios,
		obs:          obs,
		errorHandler: apperrors.NewErrorHandler(log),
		logger:       log,
	}
}

// Handle serves one mvp-run job.
func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx := context.Background()
	if h.config.JobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.config.JobTimeout)
		defer cancel()
	}

	req, err := parseJob(job)
	if err != nil {
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return
	}

	resp, err := h.Execute(ctx, req)
	if err != nil {
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return
	}

	h.completeJob(ctx, client, job, resp)
}

func (h *Handler) execute(ctx context.Context, req models.MVPRequest) (*models.MVPResponse, error) {
	scenario, ok := h.scenarios[req.Scenario]
	if !ok {
		return nil, &apperrors.UnknownScenarioError{Scenario: string(req.Scenario)}
	}

	result, err := scenario.Execute(ctx, req.Brief)
	if err != nil {
		return nil, err
	}

	return models.NewResponse(req, result)
}

// Execute runs req under the mvp.run span and records run metrics.
func (h *Handler) Execute(ctx context.Context, req models.MVPRequest) (*models.MVPResponse, error) {
	label := string(req.Scenario)
	if _, ok := h.scenarios[req.Scenario]; !ok {
		label = unknownScenarioLabel
	}

	attrs := []attribute.KeyValue{attribute.String("mvp.scenario", label)}
	if req.SessionID != nil {
		attrs = append(attrs, attribute.String("mvp.session_id", *req.SessionID))
	}
	ctx, span := h.obs.StartSpan(ctx, SpanName, attrs...)

	metrics.MVPRunsActive.WithLabelValues(label).Inc()
	defer metrics.MVPRunsActive.WithLabelValues(label).Dec()

	start := time.Now()
	resp, err := h.execute(ctx, req)
	duration := time.Since(start)

	observability.EndSpan(span, err)
	metrics.MVPRunDuration.WithLabelValues(label).Observe(duration.Seconds())

	status := "success"
	if err != nil {
		status = "failure"
		code := apperrors.Normalize(err).Code
		metrics.MVPRunFailures.WithLabelValues(label, string(code)).Inc()
		h.logger.Error("scenario run failed", map[string]interface{}{
			"scenario":   label,
			"errorCode":  string(code),
			"durationMs": duration.Milliseconds(),
			"error":      err,
		})
	} else {
		h.logger.Info("scenario run completed", map[string]interface{}{
			"scenario":   label,
			"durationMs": duration.Milliseconds(),
		})
	}
	metrics.MVPRunsTotal.WithLabelValues(label, status).Inc()
	h.obs.RecordRun(ctx, label, status, duration)

	return resp, err
}

// parseJob reads the request envelope from the job variables.
func parseJob(job entities.Job) (models.MVPRequest, error) {
	var req models.MVPRequest
	if err := json.Unmarshal([]byte(job.Variables), &req); err != nil {
		return req, apperrors.NewInvalidRequestError(fmt.Sprintf("parse job variables: %v", err))
	}
	if req.Scenario == "" {
		return req, apperrors.NewInvalidRequestError("scenario is required")
	}
	return req, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, resp *models.MVPResponse) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(resp)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	}
}
