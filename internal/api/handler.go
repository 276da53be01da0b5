// Package api serves the HTTP surface: the scenario run endpoint plus health,
// readiness and metrics.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	apperrors "presales-mvp/internal/common/errors"
	"presales-mvp/internal/common/logger"
	"presales-mvp/internal/common/validation"
	"presales-mvp/internal/models"
	"presales-mvp/pkg/registry"
)

const (
	RunPath = "/api/mvp/run"

	DefaultMaxBodyBytes int64 = 1 << 20

	internalErrorMessage = "Internal Server Error"
)

// Dispatcher runs a validated request.
type Dispatcher interface {
	Execute(ctx context.Context, req models.MVPRequest) (*models.MVPResponse, error)
}

// ReadinessCheck is one dependency probed by /ready.
type ReadinessCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type Handler struct {
	dispatcher   Dispatcher
	validator    *validation.Validator
	checks       []ReadinessCheck
	maxBodyBytes int64
	logger       logger.Logger
}

type validationErrorResponse struct {
	Detail []validation.ValidationError `json:"detail"`
}

type errorResponse struct {
	Code    apperrors.ErrorCode `json:"code"`
	Message string              `json:"message"`
}

func NewHandler(dispatcher Dispatcher, catalog *registry.Catalog, maxBodyBytes int64, log logger.Logger, checks ...ReadinessCheck) (*Handler, error) {
	validator, err := validation.NewValidator(EnvelopeSchema(catalog))
	if err != nil {
		return nil, err
	}
	if maxBodyBytes <= 0 {
		maxBodyBytes = DefaultMaxBodyBytes
	}
	return &Handler{
		dispatcher:   dispatcher,
		validator:    validator,
		checks:       checks,
		maxBodyBytes: maxBodyBytes,
		logger:       log.WithFields(map[string]interface{}{"component": "api"}),
	}, nil
}

// EnvelopeSchema is the request schema; the scenario enum comes from catalog.
func EnvelopeSchema(catalog *registry.Catalog) validation.JSONSchema {
	return validation.JSONSchema{
		Type: "object",
		Properties: map[string]validation.Property{
			"session_id": validation.Nullable(validation.Property{Type: "string"}),
			"scenario":   {Type: "string", Enum: catalog.IDs()},
			"brief":      {Type: "string"},
		},
		Required: []string{"scenario", "brief"},
	}
}

func (h *Handler) Run(w http.ResponseWriter, r *http.Request) {
	log := h.logger.WithFields(map[string]interface{}{"requestId": RequestIDFromContext(r.Context())})

	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, validationErrorResponse{Detail: []validation.ValidationError{{
				Field:   "body",
				Message: "request body too large",
				Code:    "BODY_TOO_LARGE",
			}}})
			return
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Code: apperrors.ErrCodeInvalidRequest, Message: "unreadable request body"})
		return
	}

	if _, result := h.validator.ValidateJSON(raw); !result.Valid {
		log.Info("request rejected", map[string]interface{}{"errors": result.GetErrorMessages()})
		writeJSON(w, http.StatusUnprocessableEntity, validationErrorResponse{Detail: result.Errors})
		return
	}

	var req models.MVPRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, validationErrorResponse{Detail: []validation.ValidationError{{
			Field:   "body",
			Message: err.Error(),
			Code:    "INVALID_JSON",
		}}})
		return
	}

	resp, err := h.dispatcher.Execute(r.Context(), req)
	if err != nil {
		stdErr := apperrors.Normalize(err)
		log.Error("run failed", map[string]interface{}{
			"scenario":  string(req.Scenario),
			"errorCode": string(stdErr.Code),
			"error":     err,
		})
		writeJSON(w, http.StatusInternalServerError, errorResponse{Code: stdErr.Code, Message: internalErrorMessage})
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	failures := map[string]string{}
	for _, c := range h.checks {
		if err := c.Check(r.Context()); err != nil {
			failures[c.Name] = err.Error()
		}
	}

	if len(failures) > 0 {
		h.logger.Warn("readiness check failed", map[string]interface{}{"checks": failures})
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status": "not ready",
			"checks": failures,
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
