// internal/common/config/loader.go
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultAgentInstruction asks the qualification agent for a Chinese overall
// summary while leaving the other fields bilingual.
const DefaultAgentInstruction = "overall_summary 用中文即可，其他字段中英皆可。"

// Load reads configs/config.yaml, merges config.<APP_ENVIRONMENT>.yaml on top,
// then applies environment overrides (llm.api_key <- LLM_API_KEY).
func Load() (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}
	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // optional

	return finalize(v)
}

// LoadFromFile loads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finalize(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

func finalize(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "presales-mvp")
	v.SetDefault("app.version", "0.1.0")
	v.SetDefault("app.environment", "development")

	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.read_timeout", 15000)
	v.SetDefault("server.write_timeout", 180000)
	v.SetDefault("server.shutdown_timeout", 30000)
	v.SetDefault("server.max_body_bytes", 1<<20)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.endpoint", "")

	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.base_url", "https://api.openai.com/v1")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.temperature", 0.2)
	v.SetDefault("llm.max_tokens", 2048)
	v.SetDefault("llm.json_mode", true)
	v.SetDefault("llm.timeout", 120000)
	v.SetDefault("llm.strict_retries", 0)
	v.SetDefault("llm.retry_backoff_ms", 0)

	v.SetDefault("km.backend", "kmverse")
	v.SetDefault("km.base_url", "http://localhost:8100")
	v.SetDefault("km.api_key", "")
	v.SetDefault("km.embedding", "")
	v.SetDefault("km.timeout", 30000)
	v.SetDefault("km.elasticsearch.addresses", []string{"http://localhost:9200"})
	v.SetDefault("km.elasticsearch.username", "")
	v.SetDefault("km.elasticsearch.password", "")
	v.SetDefault("km.elasticsearch.index", "km-knowledge")
	v.SetDefault("km.elasticsearch.content_field", "content")
	v.SetDefault("km.elasticsearch.source_field", "title")
	v.SetDefault("km.elasticsearch.vector_field", "")

	v.SetDefault("agent.base_url", "http://localhost:8200")
	v.SetDefault("agent.api_key", "")
	v.SetDefault("agent.timeout", 120000)
	v.SetDefault("agent.instruction", DefaultAgentInstruction)

	v.SetDefault("camunda.enabled", false)
	v.SetDefault("camunda.broker_address", "localhost:26500")
	v.SetDefault("camunda.max_jobs_active", 5)
	v.SetDefault("camunda.timeout", 180000)

	v.SetDefault("notifications.approvals.enabled", false)
	v.SetDefault("notifications.approvals.region", "us-east-1")
	v.SetDefault("notifications.approvals.sns_topic_arn", "")
	v.SetDefault("notifications.approvals.from_email", "")
	v.SetDefault("notifications.approvals.to_emails", []string{})
}

// loadEnvFile loads the first .env found walking up to the module root.
func loadEnvFile() string {
	possiblePaths := []string{".env", "../.env", "../../.env"}
	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err == nil {
			return path
		}
	}
	return ""
}

func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// expandEnvVars resolves ${VAR} placeholders in string values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			if expanded := os.ExpandEnv(strVal); expanded != strVal {
				v.Set(key, expanded)
			}
		}
	}
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	switch cfg.LLM.Provider {
	case "openai":
		if cfg.LLM.BaseURL == "" {
			return fmt.Errorf("llm.base_url is required for provider openai")
		}
	case "gemini":
	default:
		return fmt.Errorf("llm.provider must be one of openai, gemini (got %q)", cfg.LLM.Provider)
	}
	if cfg.LLM.Model == "" {
		return fmt.Errorf("llm.model is required")
	}
	if cfg.LLM.StrictRetries < 0 {
		return fmt.Errorf("llm.strict_retries must be >= 0")
	}

	switch cfg.KM.Backend {
	case "kmverse":
		if cfg.KM.BaseURL == "" {
			return fmt.Errorf("km.base_url is required for backend kmverse")
		}
	case "elasticsearch":
		if len(cfg.KM.Elasticsearch.Addresses) == 0 {
			return fmt.Errorf("km.elasticsearch.addresses is required for backend elasticsearch")
		}
		if cfg.KM.Elasticsearch.Index == "" {
			return fmt.Errorf("km.elasticsearch.index is required for backend elasticsearch")
		}
	default:
		return fmt.Errorf("km.backend must be one of kmverse, elasticsearch (got %q)", cfg.KM.Backend)
	}

	if cfg.Agent.BaseURL == "" {
		return fmt.Errorf("agent.base_url is required")
	}

	if cfg.Tracing.Enabled && cfg.Tracing.Endpoint == "" {
		return fmt.Errorf("tracing.endpoint is required when tracing is enabled")
	}

	if cfg.Camunda.Enabled && cfg.Camunda.BrokerAddress == "" {
		return fmt.Errorf("camunda.broker_address is required when camunda is enabled")
	}

	approvals := cfg.Notifications.Approvals
	if approvals.Enabled {
		if approvals.Region == "" {
			return fmt.Errorf("notifications.approvals.region is required")
		}
		hasEmail := approvals.FromEmail != "" && len(approvals.ToEmails) > 0
		if approvals.SNSTopicARN == "" && !hasEmail {
			return fmt.Errorf("notifications.approvals needs sns_topic_arn or from_email and to_emails")
		}
	}

	return nil
}
