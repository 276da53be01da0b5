package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c := Default()

	assert.Equal(t, []string{"qualify", "proposal", "pricing"}, c.IDs())

	pricing, ok := c.Find("pricing")
	require.True(t, ok)
	assert.True(t, pricing.UsesRetrieval)
	assert.Equal(t, "PricingPack", pricing.OutputSchema)

	qualify, ok := c.Find("qualify")
	require.True(t, ok)
	assert.False(t, qualify.UsesRetrieval)

	_, ok = c.Find("Qualify")
	assert.False(t, ok, "lookup is exact match")
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "malformed", data: `{"scenarios": [`},
		{name: "missing id", data: `{"scenarios": [{"displayName": "x"}]}`},
		{name: "duplicate id", data: `{"scenarios": [{"id": "a"}, {"id": "a"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestLoadRegistry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"version": "2", "scenarios": [{"id": "qualify"}]}`), 0o644))

	c, err := LoadRegistry(path)
	require.NoError(t, err)
	assert.Equal(t, "2", c.Version)
	assert.Equal(t, []string{"qualify"}, c.IDs())

	_, err = LoadRegistry(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
