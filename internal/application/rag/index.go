package rag

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"poetry-chef-api/pkg/logger"
	"poetry-chef-api/pkg/metrics"
)

// 嵌入批次的默认并发度
const embedConcurrency = 4

// Index 向量索引：懒加载构建（复用已持久化的索引）并提供相似度检索
type Index struct {
	loader    *Loader
	splitter  *Splitter
	embedder  embedding.Embedder
	store     VectorStore
	batchSize int

	// buildMu 只保护构建路径，检索路径不持锁
	buildMu sync.Mutex
	ready   atomic.Bool
}

// NewIndex 创建向量索引
func NewIndex(loader *Loader, splitter *Splitter, embedder embedding.Embedder, store VectorStore, batchSize int) *Index {
	if batchSize <= 0 {
		batchSize = 32
	}
	return &Index{
		loader:    loader,
		splitter:  splitter,
		embedder:  embedder,
		store:     store,
		batchSize: batchSize,
	}
}

// Ready 索引是否已可检索
func (ix *Index) Ready() bool {
	return ix.ready.Load()
}

// BuildOrLoad 构建或复用向量索引。
// force 为 false 时：已就绪直接返回；持久化索引非空则直接复用。
// force 为 true 时：重新加载语料、重算嵌入并重建集合。
// 全部嵌入成功之前不会触碰持久化状态，不存在半成品索引。
func (ix *Index) BuildOrLoad(ctx context.Context, force bool) error {
	if !force && ix.ready.Load() {
		return nil
	}

	ix.buildMu.Lock()
	defer ix.buildMu.Unlock()

	// 等锁期间别的请求可能已经建好
	if !force && ix.ready.Load() {
		return nil
	}

	if !force {
		has, err := ix.store.HasIndexData(ctx)
		if err != nil {
			return fmt.Errorf("%w: probe index: %v", ErrIndexPersistence, err)
		}
		if has {
			logger.Info(ctx, "复用已持久化的向量索引")
			ix.ready.Store(true)
			return nil
		}
	}

	docs, err := ix.loader.Load(ctx)
	if err != nil {
		return err
	}

	chunks := ix.splitter.SplitDocuments(docs)
	if len(chunks) == 0 {
		return fmt.Errorf("%w: corpus produced no chunks", ErrNoDataFound)
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}

	vectors, err := ix.embedBatch(ctx, texts)
	if err != nil {
		return err
	}

	records := make([]*ChunkRecord, len(chunks))
	for i, c := range chunks {
		records[i] = &ChunkRecord{
			ID:      uuid.NewString(),
			Vector:  vectors[i],
			Content: c.Content,
			Meta:    c.Meta,
		}
	}

	if force {
		if err := ix.store.Reset(ctx); err != nil {
			return fmt.Errorf("%w: reset collection: %v", ErrIndexPersistence, err)
		}
	} else {
		if err := ix.store.EnsureCollection(ctx); err != nil {
			return fmt.Errorf("%w: ensure collection: %v", ErrIndexPersistence, err)
		}
	}
	if err := ix.store.Insert(ctx, records); err != nil {
		return fmt.Errorf("%w: insert chunks: %v", ErrIndexPersistence, err)
	}

	metrics.IndexedChunksTotal.Add(float64(len(records)))
	logger.Info(ctx, "向量索引构建完成",
		"documents", len(docs),
		"chunks", len(records),
		"force", force,
	)
	ix.ready.Store(true)
	return nil
}

// Search 按查询文本检索候选块，按相似度降序返回至多 poolSize 条。
// 首次调用会触发索引构建。
func (ix *Index) Search(ctx context.Context, query string, poolSize int) ([]Chunk, error) {
	if err := ix.BuildOrLoad(ctx, false); err != nil {
		return nil, err
	}

	resp, err := ix.embedder.EmbedStrings(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %v", ErrEmbeddingFailed, err)
	}
	if len(resp) != 1 {
		return nil, fmt.Errorf("%w: got %d query vectors", ErrEmbeddingFailed, len(resp))
	}

	start := time.Now()
	chunks, err := ix.store.Search(ctx, toFloat32(resp[0]), poolSize)
	if err != nil {
		return nil, fmt.Errorf("%w: search: %v", ErrIndexPersistence, err)
	}
	metrics.RetrievalDuration.WithLabelValues("recipe_chunks").Observe(time.Since(start).Seconds())
	return chunks, nil
}

// embedBatch 分批并发嵌入，结果按输入顺序对齐
func (ix *Index) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(embedConcurrency)
	for start := 0; start < len(texts); start += ix.batchSize {
		end := start + ix.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		start, end := start, end
		g.Go(func() error {
			vectors, err := ix.embedder.EmbedStrings(gctx, texts[start:end])
			if err != nil {
				return err
			}
			if len(vectors) != end-start {
				return fmt.Errorf("got %d vectors for %d texts", len(vectors), end-start)
			}
			for i, v := range vectors {
				out[start+i] = toFloat32(v)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
	}
	return out, nil
}

func toFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(x)
	}
	return out
}
