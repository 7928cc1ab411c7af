package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"poetry-chef-api/internal/config"
)

func TestGetUnknownProvider(t *testing.T) {
	f := NewEinoFactory(&config.Config{LLM: config.LLMConfig{DefaultProvider: "openai"}})

	_, err := f.Get(context.Background(), "chưa cấu hình")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chưa cấu hình")
}

func TestDefaultProviderWithoutModel(t *testing.T) {
	cfg := &config.Config{LLM: config.LLMConfig{
		DefaultProvider: "openai",
		Providers: map[string]config.ProviderConfig{
			"openai": {APIKey: "k", BaseURL: "http://localhost:9999/v1"},
		},
	}}
	f := NewEinoFactory(cfg)

	_, err := f.Default(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no model configured")
}
