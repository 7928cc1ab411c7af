package rag

import (
	"context"
	"fmt"
	"strings"
	"time"

	"poetry-chef-api/pkg/logger"
	"poetry-chef-api/pkg/metrics"
)

// Asker 问答入口，检索模式与随机模式都实现它
type Asker interface {
	Ask(ctx context.Context, in AskInput) (*AnswerResult, error)
	// Ingest 预热数据（构建索引或加载语料缓存）
	Ingest(ctx context.Context, force bool) error
}

// Pipeline 检索增强问答编排：检索、重排、生成
type Pipeline struct {
	index    *Index
	reranker *Reranker
	asm      *Assembler

	defaultPoolSize int
	defaultTopK     int
}

// NewPipeline 创建检索问答管道
func NewPipeline(index *Index, reranker *Reranker, asm *Assembler, defaultPoolSize, defaultTopK int) *Pipeline {
	if defaultPoolSize <= 0 {
		defaultPoolSize = 25
	}
	if defaultTopK <= 0 {
		defaultTopK = 4
	}
	return &Pipeline{
		index:           index,
		reranker:        reranker,
		asm:             asm,
		defaultPoolSize: defaultPoolSize,
		defaultTopK:     defaultTopK,
	}
}

var _ Asker = (*Pipeline)(nil)

// Ask 执行一次完整问答
func (p *Pipeline) Ask(ctx context.Context, in AskInput) (*AnswerResult, error) {
	question := strings.TrimSpace(in.Question)
	if question == "" {
		return nil, fmt.Errorf("question is required")
	}

	poolSize := in.PoolSize
	if poolSize <= 0 {
		poolSize = p.defaultPoolSize
	}
	topK := in.TopK
	if topK <= 0 {
		topK = p.defaultTopK
	}

	start := time.Now()
	candidates, err := p.index.Search(ctx, question, poolSize)
	if err != nil {
		metrics.AskTotal.WithLabelValues("retrieval", "error").Inc()
		return nil, err
	}

	var chosen []Chunk
	if in.Rerank {
		chosen, err = p.reranker.Rerank(ctx, question, candidates, topK)
		if err != nil {
			metrics.AskTotal.WithLabelValues("retrieval", "error").Inc()
			return nil, err
		}
	} else {
		// 不重排：保留相似度检索的原始顺序，截取前 topK
		if topK > len(candidates) {
			topK = len(candidates)
		}
		chosen = candidates[:topK]
	}

	result, err := p.asm.Assemble(ctx, question, in.AdditionalContext, chosen, in.Temperature)
	if err != nil {
		metrics.AskTotal.WithLabelValues("retrieval", "error").Inc()
		return nil, err
	}

	metrics.AskTotal.WithLabelValues("retrieval", "ok").Inc()
	metrics.AskDuration.WithLabelValues("retrieval").Observe(time.Since(start).Seconds())
	logger.Info(ctx, "问答完成",
		"pool_size", poolSize,
		"top_k", topK,
		"rerank", in.Rerank,
		"candidates", len(candidates),
		"citations", len(result.Citations),
	)
	return result, nil
}

// Ingest 构建或复用向量索引
func (p *Pipeline) Ingest(ctx context.Context, force bool) error {
	return p.index.BuildOrLoad(ctx, force)
}
