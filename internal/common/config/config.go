// internal/common/config/config.go
package config

import "time"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig          `mapstructure:"app"`
	Server        ServerConfig       `mapstructure:"server"`
	Logging       LoggingConfig      `mapstructure:"logging"`
	LLM           LLMConfig          `mapstructure:"llm"`
	KM            KMConfig           `mapstructure:"km"`
	Agent         AgentConfig        `mapstructure:"agent"`
	Camunda       CamundaConfig      `mapstructure:"camunda"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Tracing       TracingConfig      `mapstructure:"tracing"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Address         string `mapstructure:"address"`
	ReadTimeout     int    `mapstructure:"read_timeout"`     // milliseconds
	WriteTimeout    int    `mapstructure:"write_timeout"`    // milliseconds
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"` // milliseconds
	MaxBodyBytes    int64  `mapstructure:"max_body_bytes"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type TracingConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"` // OTLP/HTTP traces URL, e.g. http://collector:4318/v1/traces
}

// --- Collaborators ---

// LLMConfig selects and configures the model provider.
type LLMConfig struct {
	Provider       string  `mapstructure:"provider"` // openai | gemini
	BaseURL        string  `mapstructure:"base_url"`
	APIKey         string  `mapstructure:"api_key"`
	Model          string  `mapstructure:"model"`
	Temperature    float64 `mapstructure:"temperature"`
	MaxTokens      int     `mapstructure:"max_tokens"`
	JSONMode       bool    `mapstructure:"json_mode"`
	Timeout        int     `mapstructure:"timeout"` // milliseconds
	StrictRetries  int     `mapstructure:"strict_retries"`
	RetryBackoffMs int     `mapstructure:"retry_backoff_ms"`
}

// KMConfig configures the knowledge retrieval backend.
type KMConfig struct {
	Backend       string              `mapstructure:"backend"` // kmverse | elasticsearch
	BaseURL       string              `mapstructure:"base_url"`
	APIKey        string              `mapstructure:"api_key"`
	Embedding     string              `mapstructure:"embedding"`
	Timeout       int                 `mapstructure:"timeout"` // milliseconds
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
}

type ElasticsearchConfig struct {
	Addresses    []string `mapstructure:"addresses"`
	Username     string   `mapstructure:"username"`
	Password     string   `mapstructure:"password"`
	Index        string   `mapstructure:"index"`
	ContentField string   `mapstructure:"content_field"`
	SourceField  string   `mapstructure:"source_field"`
	VectorField  string   `mapstructure:"vector_field"`
}

// AgentConfig configures the BANT-C qualification agent.
type AgentConfig struct {
	BaseURL     string `mapstructure:"base_url"`
	APIKey      string `mapstructure:"api_key"`
	Timeout     int    `mapstructure:"timeout"` // milliseconds
	Instruction string `mapstructure:"instruction"`
}

type CamundaConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	BrokerAddress string `mapstructure:"broker_address"`
	MaxJobsActive int    `mapstructure:"max_jobs_active"`
	Timeout       int    `mapstructure:"timeout"` // milliseconds
}

// NotificationConfig holds the pricing approval notifier settings.
type NotificationConfig struct {
	Approvals struct {
		Enabled     bool     `mapstructure:"enabled"`
		Region      string   `mapstructure:"region"`
		SNSTopicARN string   `mapstructure:"sns_topic_arn"`
		FromEmail   string   `mapstructure:"from_email"`
		ToEmails    []string `mapstructure:"to_emails"`
	} `mapstructure:"approvals"`
}

// GetDuration converts milliseconds from config to time.Duration.
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
