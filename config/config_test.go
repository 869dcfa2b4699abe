package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "sk-test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8000", cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "anthropic", cfg.Provider)
	assert.Equal(t, 4096, cfg.MaxTokens)
	assert.Equal(t, 2*time.Minute, cfg.StepTimeout)
	assert.Equal(t, "sk-test", cfg.APIKey())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("LOOM_PORT", "9090")
	t.Setenv("LOOM_PROVIDER", "openai")
	t.Setenv("OPENAI_API_KEY", "sk-openai")
	t.Setenv("LOOM_MAX_TOKENS", "512")
	t.Setenv("LOOM_STEP_TIMEOUT", "30s")
	t.Setenv("LOOM_RATE_LIMIT", "2.5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "openai", cfg.Provider)
	assert.Equal(t, 512, cfg.MaxTokens)
	assert.Equal(t, 30*time.Second, cfg.StepTimeout)
	assert.Equal(t, 2.5, cfg.RateLimit)
	assert.Equal(t, "sk-openai", cfg.APIKey())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{
			name:    "missing anthropic key",
			cfg:     Config{Provider: "anthropic"},
			wantErr: "ANTHROPIC_API_KEY",
		},
		{
			name:    "missing openai key",
			cfg:     Config{Provider: "openai"},
			wantErr: "OPENAI_API_KEY",
		},
		{
			name:    "missing google key",
			cfg:     Config{Provider: "google"},
			wantErr: "GOOGLE_API_KEY",
		},
		{
			name:    "unknown provider",
			cfg:     Config{Provider: "cohere"},
			wantErr: "unknown provider",
		},
		{
			name: "valid",
			cfg:  Config{Provider: "google", GoogleKey: "g-key"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestInvalidIntFallsBack(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "sk-test")
	t.Setenv("LOOM_MAX_TOKENS", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 4096, cfg.MaxTokens)
}
