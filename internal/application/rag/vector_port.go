package rag

import "context"

// ChunkRecord 写入向量库的一条块记录
type ChunkRecord struct {
	ID      string
	Vector  []float32
	Content string
	Meta    Metadata
}

// VectorStore 向量库端口，由基础设施层实现
type VectorStore interface {
	// HasIndexData 持久化索引是否存在且非空
	HasIndexData(ctx context.Context) (bool, error)
	// EnsureCollection 确保集合与索引存在（非破坏性）
	EnsureCollection(ctx context.Context) error
	// Reset 删除并重建集合，强制重建入口
	Reset(ctx context.Context) error
	// Insert 批量写入块记录
	Insert(ctx context.Context, records []*ChunkRecord) error
	// Search 按向量相似度检索，按相似度降序返回至多 topK 条
	Search(ctx context.Context, vector []float32, topK int) ([]Chunk, error)
}
