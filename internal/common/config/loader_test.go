package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromFile_Defaults(t *testing.T) {
	path := writeConfig(t, "app:\n  name: presales-test\n")

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "presales-test", cfg.App.Name)
	assert.Equal(t, ":8000", cfg.Server.Address)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, 0, cfg.LLM.StrictRetries)
	assert.True(t, cfg.LLM.JSONMode)
	assert.Equal(t, "kmverse", cfg.KM.Backend)
	assert.Equal(t, []string{"http://localhost:9200"}, cfg.KM.Elasticsearch.Addresses)
	assert.Equal(t, DefaultAgentInstruction, cfg.Agent.Instruction)
	assert.False(t, cfg.Camunda.Enabled)
	assert.False(t, cfg.Tracing.Enabled)
	assert.Empty(t, cfg.Tracing.Endpoint)
	assert.Equal(t, 30*time.Second, GetDuration(cfg.Server.ShutdownTimeout))
}

func TestLoadFromFile_EnvOverrideAndExpansion(t *testing.T) {
	t.Setenv("LLM_MODEL", "gpt-test")
	t.Setenv("TEST_AGENT_KEY", "agent-secret")

	path := writeConfig(t, `
llm:
  provider: openai
  base_url: http://llm.local/v1
  strict_retries: 2
agent:
  base_url: http://agent.local
  api_key: ${TEST_AGENT_KEY}
notifications:
  approvals:
    enabled: true
    region: eu-west-1
    from_email: pricing@example.com
    to_emails:
      - approvals@example.com
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "gpt-test", cfg.LLM.Model)
	assert.Equal(t, "http://llm.local/v1", cfg.LLM.BaseURL)
	assert.Equal(t, 2, cfg.LLM.StrictRetries)
	assert.Equal(t, "agent-secret", cfg.Agent.APIKey)
	assert.Equal(t, []string{"approvals@example.com"}, cfg.Notifications.Approvals.ToEmails)
}

func TestLoadFromFile_Validation(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name:    "unknown provider",
			body:    "llm:\n  provider: cohere\n",
			wantErr: "llm.provider",
		},
		{
			name:    "unknown backend",
			body:    "km:\n  backend: solr\n",
			wantErr: "km.backend",
		},
		{
			name:    "negative strict retries",
			body:    "llm:\n  strict_retries: -1\n",
			wantErr: "llm.strict_retries",
		},
		{
			name:    "elasticsearch without index",
			body:    "km:\n  backend: elasticsearch\n  elasticsearch:\n    index: \"\"\n",
			wantErr: "km.elasticsearch.index",
		},
		{
			name:    "tracing without endpoint",
			body:    "tracing:\n  enabled: true\n",
			wantErr: "tracing.endpoint",
		},
		{
			name:    "approvals without target",
			body:    "notifications:\n  approvals:\n    enabled: true\n",
			wantErr: "sns_topic_arn",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromFile(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadFromFile_MissingFile(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadFromFile_ShippedConfig(t *testing.T) {
	cfg, err := LoadFromFile(filepath.Join("..", "..", "..", "configs", "config.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "kmverse", cfg.KM.Backend)
	assert.Equal(t, 1, cfg.LLM.StrictRetries)
	assert.False(t, cfg.Tracing.Enabled)
	assert.Equal(t, DefaultAgentInstruction, cfg.Agent.Instruction)
	assert.Equal(t, []string{"deal-desk@example.com"}, cfg.Notifications.Approvals.ToEmails)
}
