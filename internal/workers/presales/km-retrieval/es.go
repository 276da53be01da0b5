package kmretrieval

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"presales-mvp/internal/common/config"
	"presales-mvp/internal/common/database"
	apperrors "presales-mvp/internal/common/errors"
	"presales-mvp/internal/common/kmverse"
)

const minNumCandidates = 50

// ESBackend answers retrieval requests from an Elasticsearch index.
type ESBackend struct {
	client *elasticsearch.Client
	cfg    config.ElasticsearchConfig
}

func NewESBackend(client *elasticsearch.Client, cfg config.ElasticsearchConfig) *ESBackend {
	if cfg.ContentField == "" {
		cfg.ContentField = "content"
	}
	return &ESBackend{client: client, cfg: cfg}
}

// Ping checks that the backing cluster answers.
func (b *ESBackend) Ping(ctx context.Context) error {
	return (&database.ElasticsearchClient{Client: b.client}).Ping(ctx)
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			ID     string                 `json:"_id"`
			Source map[string]interface{} `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func (b *ESBackend) Retrieve(ctx context.Context, req kmverse.RetrievalRequest) (string, error) {
	body, err := json.Marshal(buildSearchBody(b.cfg, req))
	if err != nil {
		return "", apperrors.NewCollaboratorError(apperrors.ServiceKM, "search", err)
	}

	size := req.TopK
	search := esapi.SearchRequest{
		Index: []string{b.cfg.Index},
		Body:  bytes.NewReader(body),
		Size:  &size,
	}

	res, err := search.Do(ctx, b.client)
	if err != nil {
		return "", apperrors.NewCollaboratorError(apperrors.ServiceKM, "search", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return "", apperrors.NewCollaboratorStatusError(apperrors.ServiceKM, "search", res.StatusCode, res.String())
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return "", apperrors.NewCollaboratorError(apperrors.ServiceKM, "search", fmt.Errorf("decode response: %w", err))
	}

	blocks := make([]string, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		content := fieldText(hit.Source, b.cfg.ContentField)
		if content == "" {
			continue
		}
		source := fieldText(hit.Source, b.cfg.SourceField)
		if source == "" {
			source = hit.ID
		}
		blocks = append(blocks, fmt.Sprintf("[%s] %s", source, content))
	}

	return strings.Join(blocks, "\n\n"), nil
}

// buildSearchBody renders the bool query for req. The folder filter is only
// added for a non-empty folder list.
func buildSearchBody(cfg config.ElasticsearchConfig, req kmverse.RetrievalRequest) map[string]interface{} {
	filters := []interface{}{
		map[string]interface{}{"term": map[string]interface{}{"project_id": req.ProjectID}},
		map[string]interface{}{"term": map[string]interface{}{"knowledge_base_id": req.KnowledgeBaseID}},
	}
	if len(req.Folders) > 0 {
		filters = append(filters, map[string]interface{}{
			"terms": map[string]interface{}{"folder_id": req.Folders},
		})
	}

	var must map[string]interface{}
	if cfg.VectorField != "" {
		candidates := req.TopK * 10
		if candidates < minNumCandidates {
			candidates = minNumCandidates
		}
		must = map[string]interface{}{
			"knn": map[string]interface{}{
				"field":          cfg.VectorField,
				"num_candidates": candidates,
				"query_vector_builder": map[string]interface{}{
					"text_embedding": map[string]interface{}{
						"model_id":   req.Embedding,
						"model_text": req.Query,
					},
				},
			},
		}
	} else {
		must = map[string]interface{}{
			"match": map[string]interface{}{cfg.ContentField: req.Query},
		}
	}

	return map[string]interface{}{
		"size":      req.TopK,
		"min_score": req.Score,
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must":   []interface{}{must},
				"filter": filters,
			},
		},
	}
}

func fieldText(source map[string]interface{}, field string) string {
	if field == "" {
		return ""
	}
	switch v := source[field].(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}
