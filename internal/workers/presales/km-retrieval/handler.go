// Package kmretrieval adapts the configured knowledge backend to a single
// Retrieve call used by the proposal and pricing scenarios.
package kmretrieval

import (
	"context"
	"fmt"
	"time"

	"presales-mvp/internal/common/config"
	"presales-mvp/internal/common/database"
	"presales-mvp/internal/common/kmverse"
	"presales-mvp/internal/common/logger"
	"presales-mvp/internal/common/metrics"
)

const Component = "km-retrieval"

// Backend returns raw evidence text for a retrieval request.
type Backend interface {
	Retrieve(ctx context.Context, req kmverse.RetrievalRequest) (string, error)
}

type Handler struct {
	config  *Config
	backend Backend
	logger  logger.Logger
}

func NewHandler(config *Config, backend Backend, log logger.Logger) *Handler {
	return &Handler{
		config:  config,
		backend: backend,
		logger:  log.WithFields(map[string]interface{}{"component": Component, "backend": config.Backend}),
	}
}

// NewBackend builds the backend selected by km.backend.
func NewBackend(km config.KMConfig) (Backend, error) {
	switch LoadConfig(km).Backend {
	case BackendKMVerse:
		return kmverse.NewClient(km.BaseURL, km.APIKey, config.GetDuration(km.Timeout)), nil
	case BackendElasticsearch:
		es, err := database.NewElasticsearch(km.Elasticsearch, nil)
		if err != nil {
			return nil, err
		}
		return NewESBackend(es.Client, km.Elasticsearch), nil
	default:
		return nil, fmt.Errorf("unknown km backend %q", km.Backend)
	}
}

// Retrieve fetches evidence for query. An empty folders slice means the
// backend's default scope. Failures are returned unchanged.
func (h *Handler) Retrieve(ctx context.Context, query string, folders []int, settings config.RetrievalSettings) (string, error) {
	if folders == nil {
		folders = []int{}
	}

	req := kmverse.RetrievalRequest{
		ProjectID:       settings.ProjectID,
		KnowledgeBaseID: settings.KnowledgeBaseID,
		Folders:         folders,
		Embedding:       settings.Embedding,
		Query:           query,
		TopK:            settings.TopK,
		Score:           settings.Score,
	}

	start := time.Now()
	raw, err := h.backend.Retrieve(ctx, req)
	if err != nil {
		metrics.KMRetrievalRequests.WithLabelValues(h.config.Backend, "error").Inc()
		h.logger.Warn("knowledge retrieval failed", map[string]interface{}{
			"folders": folders,
			"error":   err,
		})
		return "", err
	}

	metrics.KMRetrievalRequests.WithLabelValues(h.config.Backend, "success").Inc()
	h.logger.Debug("knowledge retrieved", map[string]interface{}{
		"folders":    folders,
		"topK":       settings.TopK,
		"bytes":      len(raw),
		"durationMs": time.Since(start).Milliseconds(),
	})

	return raw, nil
}
