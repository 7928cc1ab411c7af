// Package rerank 提供交叉编码器打分服务接入
package rerank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"poetry-chef-api/internal/application/rag"
	"poetry-chef-api/internal/config"
)

// Client 交叉编码器推理服务 HTTP 客户端
type Client struct {
	endpoint string
	model    string
	http     *http.Client
}

// NewClient 创建客户端
func NewClient(cfg *config.RerankConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		endpoint: cfg.Endpoint,
		model:    cfg.Model,
		http:     &http.Client{Timeout: timeout},
	}
}

var _ rag.Scorer = (*Client)(nil)

type scoreRequest struct {
	Query string   `json:"query"`
	Texts []string `json:"texts"`
	Model string   `json:"model,omitempty"`
}

type scoreResponse struct {
	Scores []float64 `json:"scores"`
}

// Score 对 query 与每段文本打相关性分，返回顺序与 texts 对齐
func (c *Client) Score(ctx context.Context, query string, texts []string) ([]float64, error) {
	if c.endpoint == "" {
		return nil, fmt.Errorf("rerank endpoint is not configured")
	}
	if len(texts) == 0 {
		return []float64{}, nil
	}

	body, err := json.Marshal(scoreRequest{
		Query: query,
		Texts: texts,
		Model: c.model,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal rerank request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build rerank request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rerank request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("rerank service returned %d: %s", resp.StatusCode, payload)
	}

	var out scoreResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode rerank response: %w", err)
	}
	if len(out.Scores) != len(texts) {
		return nil, fmt.Errorf("rerank service returned %d scores for %d texts", len(out.Scores), len(texts))
	}
	return out.Scores, nil
}
