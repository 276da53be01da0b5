package proposal

import (
	"time"

	"presales-mvp/internal/common/config"
)

type Config struct {
	StrictRetries int
	RetryBackoff  time.Duration
}

func LoadConfig(llmCfg config.LLMConfig) *Config {
	return &Config{
		StrictRetries: llmCfg.StrictRetries,
		RetryBackoff:  config.GetDuration(llmCfg.RetryBackoffMs),
	}
}
