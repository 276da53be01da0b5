// Package errors provides the error taxonomy shared by the HTTP, MCP and job surfaces.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeInvalidRequest   ErrorCode = "INVALID_REQUEST"
	ErrCodeUnknownScenario  ErrorCode = "UNKNOWN_SCENARIO"
	ErrCodeSchemaValidation ErrorCode = "SCHEMA_VALIDATION_FAILED"

	ErrCodeKMRetrievalFailed        ErrorCode = "KM_RETRIEVAL_FAILED"
	ErrCodeQualificationAgentFailed ErrorCode = "QUALIFICATION_AGENT_FAILED"
	ErrCodeLLMInvocationFailed      ErrorCode = "LLM_INVOCATION_FAILED"
	ErrCodeNotificationSendFailed   ErrorCode = "NOTIFICATION_SEND_FAILED"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// Collaborator service names used by CollaboratorError.
const (
	ServiceKM           = "km"
	ServiceAgent        = "bantc"
	ServiceLLM          = "llm"
	ServiceNotification = "notification"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// SchemaValidationError is returned when a model reply could not be parsed
// into the requested schema after every allowed attempt.
type SchemaValidationError struct {
	Schema   string
	Raw      string
	Detail   string
	Attempts int
}

func (e *SchemaValidationError) Error() string {
	return fmt.Sprintf("schema %q validation failed after %d attempt(s): %s", e.Schema, e.Attempts, e.Detail)
}

// UnknownScenarioError is returned by the dispatcher for a scenario outside the catalog.
type UnknownScenarioError struct {
	Scenario string
}

func (e *UnknownScenarioError) Error() string {
	return fmt.Sprintf("unknown scenario: %q", e.Scenario)
}

// CollaboratorError is produced by the clients of external services
// (KM retrieval, qualification agent, model transport, notifications).
type CollaboratorError struct {
	Service    string
	Operation  string
	StatusCode int
	Err        error
}

func (e *CollaboratorError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: status %d: %v", e.Service, e.Operation, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Service, e.Operation, e.Err)
}

func (e *CollaboratorError) Unwrap() error { return e.Err }

// NewCollaboratorError builds a CollaboratorError for a transport or decode failure.
func NewCollaboratorError(service, operation string, err error) *CollaboratorError {
	return &CollaboratorError{Service: service, Operation: operation, Err: err}
}

// NewCollaboratorStatusError builds a CollaboratorError for a non-2xx response.
func NewCollaboratorStatusError(service, operation string, status int, body string) *CollaboratorError {
	return &CollaboratorError{
		Service:    service,
		Operation:  operation,
		StatusCode: status,
		Err:        stderrors.New(truncate(strings.TrimSpace(body), 512)),
	}
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for job fail/throw variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

// NewInvalidRequestError creates a non-retryable request validation error.
func NewInvalidRequestError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidRequest,
		Message:   "Invalid request",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewUnknownScenarioError creates a non-retryable dispatch error.
func NewUnknownScenarioError(scenario string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnknownScenario,
		Message:   "Unknown scenario",
		Details:   fmt.Sprintf("scenario: %s", scenario),
		Retryable: false,
		Metadata:  map[string]interface{}{"scenario": scenario},
		Timestamp: time.Now().UTC(),
	}
}

// NewSchemaValidationFailedError creates a retryable error for an unparseable model reply.
func NewSchemaValidationFailedError(err *SchemaValidationError) *StandardError {
	return &StandardError{
		Code:      ErrCodeSchemaValidation,
		Message:   "Model output did not match schema",
		Details:   err.Detail,
		Retryable: true,
		Metadata: map[string]interface{}{
			"schema":   err.Schema,
			"attempts": err.Attempts,
		},
		Timestamp: time.Now().UTC(),
	}
}

// NewCollaboratorFailedError maps a collaborator failure to its service-specific code.
func NewCollaboratorFailedError(err *CollaboratorError) *StandardError {
	code := ErrCodeInternal
	message := "External service error"
	switch err.Service {
	case ServiceKM:
		code, message = ErrCodeKMRetrievalFailed, "Knowledge retrieval failed"
	case ServiceAgent:
		code, message = ErrCodeQualificationAgentFailed, "Qualification agent failed"
	case ServiceLLM:
		code, message = ErrCodeLLMInvocationFailed, "Model invocation failed"
	case ServiceNotification:
		code, message = ErrCodeNotificationSendFailed, "Notification send failed"
	}

	metadata := map[string]interface{}{"service": err.Service}
	if err.StatusCode != 0 {
		metadata["statusCode"] = err.StatusCode
	}

	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   err.Error(),
		Retryable: true,
		Metadata:  metadata,
		Timestamp: time.Now().UTC(),
	}
}

// NewInternalError wraps anything unclassified.
func NewInternalError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// Normalize classifies any error into a StandardError.
func Normalize(err error) *StandardError {
	if err == nil {
		return nil
	}

	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}

	var schemaErr *SchemaValidationError
	if stderrors.As(err, &schemaErr) {
		return NewSchemaValidationFailedError(schemaErr)
	}

	var scenarioErr *UnknownScenarioError
	if stderrors.As(err, &scenarioErr) {
		return NewUnknownScenarioError(scenarioErr.Scenario)
	}

	var collabErr *CollaboratorError
	if stderrors.As(err, &collabErr) {
		return NewCollaboratorFailedError(collabErr)
	}

	return NewInternalError(err)
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// GetRetryCount returns the recommended job retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeKMRetrievalFailed,
		ErrCodeQualificationAgentFailed,
		ErrCodeLLMInvocationFailed,
		ErrCodeNotificationSendFailed:
		return 3

	case ErrCodeSchemaValidation:
		return 1

	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           string(stdErr.Code),
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "KM") || strings.Contains(codeStr, "AGENT") || strings.Contains(codeStr, "LLM"):
		return "COLLABORATOR"
	case strings.Contains(codeStr, "SCHEMA"):
		return "MODEL_OUTPUT"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "UNKNOWN"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}

// IsKnownCode reports whether code is one of the codes defined above.
func IsKnownCode(code ErrorCode) bool {
	switch code {
	case ErrCodeInvalidRequest, ErrCodeUnknownScenario, ErrCodeSchemaValidation,
		ErrCodeKMRetrievalFailed, ErrCodeQualificationAgentFailed, ErrCodeLLMInvocationFailed,
		ErrCodeNotificationSendFailed, ErrCodeInternal:
		return true
	}
	return false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
