package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
	assert.Equal(t, "text-embedding-3-small", cfg.EmbeddingModel)
	assert.Equal(t, "none", cfg.APIToken)
	assert.NoError(t, cfg.Validate())
}

func TestNewConfig_Options(t *testing.T) {
	cfg := NewConfig(
		WithHost("http://embed.internal:9100/v1"),
		WithEmbeddingModel("embeddinggemma"),
		WithAPIToken("secret"),
	)

	assert.Equal(t, "http://embed.internal:9100/v1", cfg.EmbeddingHost)
	assert.Equal(t, "embeddinggemma", cfg.EmbeddingModel)
	assert.Equal(t, "secret", cfg.APIToken)
}

func TestConfig_Normalize(t *testing.T) {
	tests := []struct {
		name string
		host string
		want string
	}{
		{"already canonical", "http://localhost:11434/v1", "http://localhost:11434/v1"},
		{"missing suffix", "http://localhost:11434", "http://localhost:11434/v1"},
		{"trailing slash", "http://localhost:11434/", "http://localhost:11434/v1"},
		{"empty host untouched", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{EmbeddingHost: tt.host}
			cfg.Normalize()
			assert.Equal(t, tt.want, cfg.EmbeddingHost)
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	cfg := &Config{
		EmbeddingHost:  "http://localhost:11434",
		EmbeddingModel: "text-embedding-3-small",
	}
	require.NoError(t, cfg.Validate())
	// Validate normalizes the host as a side effect.
	assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)

	missingHost := &Config{EmbeddingModel: "m"}
	assert.Error(t, missingHost.Validate())

	missingModel := &Config{EmbeddingHost: "http://localhost:11434"}
	assert.Error(t, missingModel.Validate())
}
