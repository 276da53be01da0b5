package camunda

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"presales-mvp/internal/common/config"
)

func TestIsRetryableZeebeError(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{err: errors.New("rpc error: code = Unavailable desc = connection refused"), want: true},
		{err: errors.New("context deadline exceeded"), want: true},
		{err: errors.New("rpc error: code = PermissionDenied"), want: false},
		{err: errors.New("invalid job type"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, isRetryableZeebeError(tt.err))
		})
	}
}

func TestBackoffDelay(t *testing.T) {
	cfg := &RetryConfig{BaseDelay: time.Second, MaxDelay: 5 * time.Second}

	assert.Equal(t, 1*time.Second, backoffDelay(cfg, 0))
	assert.Equal(t, 2*time.Second, backoffDelay(cfg, 1))
	assert.Equal(t, 4*time.Second, backoffDelay(cfg, 2))
	assert.Equal(t, 5*time.Second, backoffDelay(cfg, 3))
}

func TestLoadClientConfig(t *testing.T) {
	cfg := LoadClientConfig(config.CamundaConfig{BrokerAddress: "zeebe:26500"})
	assert.Equal(t, "zeebe:26500", cfg.GatewayAddress)
	assert.True(t, cfg.UsePlaintextConnection)
	assert.Equal(t, 10*time.Second, cfg.ConnectionTimeout)
	assert.Same(t, DefaultRetryConfig, cfg.RetryConfig)

	assert.Equal(t, 3*time.Second, LoadClientConfig(config.CamundaConfig{Timeout: 3000}).ConnectionTimeout)
}
