package pricing

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

// NotifierConfig addresses approval notices. Empty channels are skipped.
type NotifierConfig struct {
	TopicARN  string
	FromEmail string
	ToEmails  []string
}

func LoadNotifierConfig(cfg config.NotificationConfig) *NotifierConfig {
	return &NotifierConfig{
		TopicARN:  cfg.Approvals.SNSTopicARN,
		FromEmail: cfg.Approvals.FromEmail,
		ToEmails:  cfg.Approvals.ToEmails,
	}
}
