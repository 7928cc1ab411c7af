package rag

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"poetry-chef-api/pkg/logger"
	"poetry-chef-api/pkg/metrics"
)

// apologyAnswer 语料缺失时的固定回答
const apologyAnswer = "Xin lỗi, hiện tại tôi không có dữ liệu công thức để chế biến cảm xúc này."

// RandomPipeline 随机上下文模式：不建索引，从语料缓存中均匀随机取一条作为上下文
type RandomPipeline struct {
	loader *Loader
	asm    *Assembler

	mu     sync.Mutex
	loaded bool
	docs   []Document
}

// NewRandomPipeline 创建随机上下文管道
func NewRandomPipeline(loader *Loader, asm *Assembler) *RandomPipeline {
	return &RandomPipeline{loader: loader, asm: asm}
}

var _ Asker = (*RandomPipeline)(nil)

// Ask 随机抽取一条语料作为上下文生成答案。
// 语料缺失或为空时返回固定道歉回答，引用与来源为空。
func (p *RandomPipeline) Ask(ctx context.Context, in AskInput) (*AnswerResult, error) {
	question := strings.TrimSpace(in.Question)
	if question == "" {
		return nil, errors.New("question is required")
	}

	docs := p.corpus(ctx)
	if len(docs) == 0 {
		metrics.AskTotal.WithLabelValues("random", "no_data").Inc()
		return &AnswerResult{
			Answer:    apologyAnswer,
			Citations: []string{},
			Sources:   []SourceChunk{},
		}, nil
	}

	start := time.Now()
	doc := docs[rand.IntN(len(docs))]
	chunk := Chunk{Content: doc.Content, Meta: doc.Meta}

	result, err := p.asm.Assemble(ctx, question, in.AdditionalContext, []Chunk{chunk}, in.Temperature)
	if err != nil {
		metrics.AskTotal.WithLabelValues("random", "error").Inc()
		return nil, err
	}

	metrics.AskTotal.WithLabelValues("random", "ok").Inc()
	metrics.AskDuration.WithLabelValues("random").Observe(time.Since(start).Seconds())
	return result, nil
}

// Ingest 预热语料缓存；force 为 true 时重新加载
func (p *RandomPipeline) Ingest(ctx context.Context, force bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.loaded && !force {
		return nil
	}
	docs, err := p.loader.Load(ctx)
	if err != nil {
		return err
	}
	p.docs = docs
	p.loaded = true
	return nil
}

// corpus 返回语料缓存，进程生命周期内至多成功加载一次。
// 加载失败只记日志，交由调用方走道歉回答。
func (p *RandomPipeline) corpus(ctx context.Context) []Document {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.loaded {
		return p.docs
	}
	docs, err := p.loader.Load(ctx)
	if err != nil {
		logger.Warn(ctx, "随机模式语料加载失败", "error", err)
		return nil
	}
	p.docs = docs
	p.loaded = true
	return p.docs
}
