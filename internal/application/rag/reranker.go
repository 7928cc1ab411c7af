package rag

import (
	"context"
	"fmt"
	"sort"
	"time"

	"poetry-chef-api/pkg/metrics"
)

// Scorer 交叉编码器打分端口，返回与 texts 一一对应的相关性分数
type Scorer interface {
	Score(ctx context.Context, query string, texts []string) ([]float64, error)
}

// Reranker 用交叉编码器对候选块重排，取前 topK
type Reranker struct {
	scorer Scorer
}

// NewReranker 创建重排器
func NewReranker(scorer Scorer) *Reranker {
	return &Reranker{scorer: scorer}
}

// Rerank 按分数降序稳定排序并截取前 topK。
// 候选为空时不调用打分服务，直接返回空。
func (r *Reranker) Rerank(ctx context.Context, query string, candidates []Chunk, topK int) ([]Chunk, error) {
	if len(candidates) == 0 || topK <= 0 {
		return []Chunk{}, nil
	}

	texts := make([]string, len(candidates))
	for i, c := range candidates {
		texts[i] = c.Content
	}

	start := time.Now()
	scores, err := r.scorer.Score(ctx, query, texts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRerankFailed, err)
	}
	if len(scores) != len(candidates) {
		return nil, fmt.Errorf("%w: got %d scores for %d candidates", ErrRerankFailed, len(scores), len(candidates))
	}
	metrics.RerankDuration.Observe(time.Since(start).Seconds())

	order := make([]int, len(candidates))
	for i := range order {
		order[i] = i
	}
	// 稳定排序：同分保持原始检索顺序
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	if topK > len(order) {
		topK = len(order)
	}
	out := make([]Chunk, 0, topK)
	for _, idx := range order[:topK] {
		out = append(out, candidates[idx])
	}
	return out, nil
}
