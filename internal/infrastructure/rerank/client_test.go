package rerank

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"poetry-chef-api/internal/config"
)

func newTestClient(endpoint string) *Client {
	return NewClient(&config.RerankConfig{
		Endpoint: endpoint,
		Model:    "BAAI/bge-reranker-base",
		Timeout:  5 * time.Second,
	})
}

func TestScore(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req scoreRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "nỗi buồn", req.Query)
		assert.Equal(t, []string{"a", "b"}, req.Texts)
		assert.Equal(t, "BAAI/bge-reranker-base", req.Model)

		json.NewEncoder(w).Encode(scoreResponse{Scores: []float64{0.9, 0.1}})
	}))
	defer srv.Close()

	scores, err := newTestClient(srv.URL).Score(context.Background(), "nỗi buồn", []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, []float64{0.9, 0.1}, scores)
}

func TestScoreEmptyTexts(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	scores, err := newTestClient(srv.URL).Score(context.Background(), "q", nil)
	require.NoError(t, err)
	assert.Empty(t, scores)
	assert.False(t, called)
}

func TestScoreServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Score(context.Background(), "q", []string{"a"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestScoreCountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(scoreResponse{Scores: []float64{0.5}})
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Score(context.Background(), "q", []string{"a", "b"})
	require.Error(t, err)
}

func TestScoreMissingEndpoint(t *testing.T) {
	c := NewClient(&config.RerankConfig{})
	_, err := c.Score(context.Background(), "q", []string{"a"})
	require.Error(t, err)
}
