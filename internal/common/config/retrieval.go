package config

import (
	"math"
	"os"
	"strconv"
	"strings"
)

// Environment keys read on every request.
const (
	EnvKMProjectID        = "KM_PROJECT_ID"
	EnvKMKnowledgeBaseID  = "KM_KB_ID"
	EnvKMTopK             = "KM_TOP_K"
	EnvKMScore            = "KM_SCORE"
	EnvKMFolders          = "KM_FOLDERS"
	EnvKMEmbedding        = "KM_EMBEDDING"
	EnvMVPProposalFolders = "MVP_PROPOSAL_FOLDERS"
	EnvMVPPricingFolders  = "MVP_PRICING_FOLDERS"
)

const (
	DefaultKMProjectID       = 79
	DefaultKMKnowledgeBaseID = int64(157674728953541)
	DefaultKMTopK            = 5
	DefaultKMScore           = 0.2
)

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// RetrievalSettings is the request-scoped retrieval configuration.
type RetrievalSettings struct {
	ProjectID       int
	KnowledgeBaseID int64
	Embedding       string
	TopK            int
	Score           float64
	Folders         []int
	ProposalFolders []int
	PricingFolders  []int
}

// SettingsSource produces fresh RetrievalSettings for each call.
type SettingsSource func() RetrievalSettings

// EnvSettingsSource reads the process environment on every call.
func EnvSettingsSource(embedding string) SettingsSource {
	return func() RetrievalSettings {
		return LoadRetrievalSettings(os.LookupEnv, embedding)
	}
}

// StaticSettingsSource always returns s.
func StaticSettingsSource(s RetrievalSettings) SettingsSource {
	return func() RetrievalSettings { return s }
}

// LoadRetrievalSettings builds settings from lookup. Malformed values fall back
// to defaults. A scenario folder key that is set, even to "", overrides KM_FOLDERS.
func LoadRetrievalSettings(lookup LookupFunc, defaultEmbedding string) RetrievalSettings {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	kmFolders, _ := lookup(EnvKMFolders)

	embedding := defaultEmbedding
	if v, ok := lookup(EnvKMEmbedding); ok && strings.TrimSpace(v) != "" {
		embedding = strings.TrimSpace(v)
	}

	return RetrievalSettings{
		ProjectID:       getInt(lookup, EnvKMProjectID, DefaultKMProjectID),
		KnowledgeBaseID: getInt64(lookup, EnvKMKnowledgeBaseID, DefaultKMKnowledgeBaseID),
		Embedding:       embedding,
		TopK:            getInt(lookup, EnvKMTopK, DefaultKMTopK),
		Score:           getFloat(lookup, EnvKMScore, DefaultKMScore),
		Folders:         ParseFolders(kmFolders),
		ProposalFolders: ParseFolders(getOr(lookup, EnvMVPProposalFolders, kmFolders)),
		PricingFolders:  ParseFolders(getOr(lookup, EnvMVPPricingFolders, kmFolders)),
	}
}

// ParseFolders splits a comma-separated id list, dropping empty and
// non-integer tokens: "1, 2,,x,3" -> [1 2 3].
func ParseFolders(raw string) []int {
	folders := []int{}
	for _, token := range strings.Split(raw, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		id, err := strconv.Atoi(token)
		if err != nil {
			continue
		}
		folders = append(folders, id)
	}
	return folders
}

func getOr(lookup LookupFunc, key, fallback string) string {
	if v, ok := lookup(key); ok {
		return v
	}
	return fallback
}

func getInt(lookup LookupFunc, key string, def int) int {
	v, ok := lookup(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return n
}

func getInt64(lookup LookupFunc, key string, def int64) int64 {
	v, ok := lookup(key)
	if !ok {
		return def
	}
	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil {
		return def
	}
	return n
}

func getFloat(lookup LookupFunc, key string, def float64) float64 {
	v, ok := lookup(key)
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return def
	}
	return f
}
