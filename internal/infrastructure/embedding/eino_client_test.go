package embedding

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"poetry-chef-api/internal/config"
)

func TestNewEinoEmbedderRequiresEndpoint(t *testing.T) {
	_, err := NewEinoEmbedder(context.Background(), &config.EmbeddingConfig{Model: "BAAI/bge-m3"})
	require.ErrorContains(t, err, "endpoint")
}

func TestNewEinoEmbedderRequiresModel(t *testing.T) {
	_, err := NewEinoEmbedder(context.Background(), &config.EmbeddingConfig{Endpoint: "http://localhost:9999/v1"})
	require.ErrorContains(t, err, "model")
}
