package kmretrieval

import (
	"presales-mvp/internal/common/config"
)

const (
	BackendKMVerse       = "kmverse"
	BackendElasticsearch = "elasticsearch"
)

type Config struct {
	Backend string
}

func LoadConfig(km config.KMConfig) *Config {
	backend := km.Backend
	if backend == "" {
		backend = BackendKMVerse
	}
	return &Config{Backend: backend}
}
