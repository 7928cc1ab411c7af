package milvus

import (
	"context"

	"poetry-chef-api/internal/application/rag"
)

// RagVectorStore 把仓储适配到应用层向量库端口
type RagVectorStore struct {
	repo *Repository
}

// NewRagVectorStore 创建适配器
func NewRagVectorStore(repo *Repository) *RagVectorStore {
	return &RagVectorStore{repo: repo}
}

var _ rag.VectorStore = (*RagVectorStore)(nil)

// HasIndexData 集合存在且行数大于零
func (s *RagVectorStore) HasIndexData(ctx context.Context) (bool, error) {
	count, err := s.repo.RowCount(ctx)
	if err != nil {
		return false, err
	}
	if count == 0 {
		return false, nil
	}
	// 复用已有索引前确保集合已加载
	if err := s.repo.EnsureCollection(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// EnsureCollection 确保集合与索引存在
func (s *RagVectorStore) EnsureCollection(ctx context.Context) error {
	return s.repo.EnsureCollection(ctx)
}

// Reset 删除并重建集合
func (s *RagVectorStore) Reset(ctx context.Context) error {
	if err := s.repo.Drop(ctx); err != nil {
		return err
	}
	return s.repo.EnsureCollection(ctx)
}

// Insert 写入块记录
func (s *RagVectorStore) Insert(ctx context.Context, records []*rag.ChunkRecord) error {
	chunks := make([]*RecipeChunk, 0, len(records))
	for _, rec := range records {
		if rec == nil {
			continue
		}
		chunks = append(chunks, &RecipeChunk{
			ID:             rec.ID,
			Vector:         rec.Vector,
			Content:        rec.Content,
			SourcePath:     rec.Meta.SourcePath,
			FileName:       rec.Meta.FileName,
			Action:         rec.Meta.Action,
			OriginalRecipe: rec.Meta.OriginalRecipe,
			FullText:       rec.Meta.FullText,
			PubDate:        rec.Meta.Date,
			Issue:          rec.Meta.Issue,
			Newspaper:      rec.Meta.Newspaper,
			CitationLabel:  rec.Meta.CitationLabel,
		})
	}
	return s.repo.InsertChunks(ctx, chunks)
}

// Search 相似度检索并还原应用层块
func (s *RagVectorStore) Search(ctx context.Context, vector []float32, topK int) ([]rag.Chunk, error) {
	results, err := s.repo.SearchChunks(ctx, vector, topK)
	if err != nil {
		return nil, err
	}

	chunks := make([]rag.Chunk, 0, len(results))
	for _, res := range results {
		c := res.Chunk
		chunks = append(chunks, rag.Chunk{
			Content: c.Content,
			Meta: rag.Metadata{
				SourcePath:     c.SourcePath,
				FileName:       c.FileName,
				Action:         c.Action,
				OriginalRecipe: c.OriginalRecipe,
				FullText:       c.FullText,
				Date:           c.PubDate,
				Issue:          c.Issue,
				Newspaper:      c.Newspaper,
				CitationLabel:  c.CitationLabel,
			},
		})
	}
	return chunks, nil
}
