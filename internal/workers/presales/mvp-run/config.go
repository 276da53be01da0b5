package mvprun

import (
	"time"

	"presales-mvp/internal/common/config"
)

type Config struct {
	// JobTimeout bounds one job run. Zero leaves the context unbounded.
	JobTimeout time.Duration
}

func LoadConfig(camunda config.CamundaConfig) *Config {
	return &Config{JobTimeout: config.GetDuration(camunda.Timeout)}
}
