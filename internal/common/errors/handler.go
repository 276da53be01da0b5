package errors

import (
	"context"
	"encoding/json"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

// JobAction is what the error handler does with a failed job.
type JobAction string

const (
	JobActionFail  JobAction = "fail"
	JobActionThrow JobAction = "throw"
)

// JobDecision is the outcome of classifying a job error.
type JobDecision struct {
	Action   JobAction
	Retries  int
	Standard *StandardError
	BPMN     *BPMNError
}

// ErrorHandler handles job errors with standardized error handling.
type ErrorHandler struct {
	logger Logger
}

type Logger interface {
	Error(msg string, fields map[string]interface{})
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Decide classifies err for a job with the given remaining retries.
// Retryable codes fail the job so the engine retries it, everything else
// is thrown as a BPMN error for the process to catch.
func Decide(jobRetries int32, err error) JobDecision {
	stdErr := Normalize(err)
	bpmnErr := ConvertToBPMNError(stdErr)

	// remaining retries exclude the attempt that just failed
	remaining := int(jobRetries) - 1
	if bpmnErr.Retries > 0 && remaining > 0 {
		retries := bpmnErr.Retries
		if remaining < retries {
			retries = remaining
		}
		return JobDecision{Action: JobActionFail, Retries: retries, Standard: stdErr, BPMN: bpmnErr}
	}

	return JobDecision{Action: JobActionThrow, Standard: stdErr, BPMN: bpmnErr}
}

// HandleJobError fails or throws the job depending on the error code.
func (h *ErrorHandler) HandleJobError(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	decision := Decide(job.Retries, err)
	h.logError(job, decision)

	vars, _ := json.Marshal(decision.BPMN.ToErrorVariables())

	switch decision.Action {
	case JobActionFail:
		cmd := client.NewFailJobCommand().
			JobKey(job.Key).
			Retries(int32(decision.Retries)).
			ErrorMessage(decision.BPMN.Message)
		if withVars, varErr := cmd.VariablesFromString(string(vars)); varErr == nil {
			_, err = withVars.Send(ctx)
		} else {
			_, err = cmd.Send(ctx)
		}
	default:
		cmd := client.NewThrowErrorCommand().
			JobKey(job.Key).
			ErrorCode(decision.BPMN.Code).
			ErrorMessage(decision.BPMN.Message)
		if withVars, varErr := cmd.VariablesFromString(string(vars)); varErr == nil {
			_, err = withVars.Send(ctx)
		} else {
			_, err = cmd.Send(ctx)
		}
	}

	if err != nil {
		h.logger.Error("failed to report job error", map[string]interface{}{
			"jobKey": job.Key,
			"action": string(decision.Action),
			"error":  err.Error(),
		})
	}
}

func (h *ErrorHandler) logError(job entities.Job, decision JobDecision) {
	h.logger.Error("Job failed", map[string]interface{}{
		"jobKey":           job.Key,
		"jobType":          job.Type,
		"errorCode":        string(decision.Standard.Code),
		"message":          decision.BPMN.Message,
		"details":          decision.Standard.Details,
		"retryable":        decision.Standard.Retryable,
		"action":           string(decision.Action),
		"retries":          decision.Retries,
		"errorCategory":    GetErrorCategory(decision.Standard.Code),
		"workflowInstance": job.ProcessInstanceKey,
	})
}
