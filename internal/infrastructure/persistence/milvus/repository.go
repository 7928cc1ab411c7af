// Package milvus 提供 Milvus 向量数据库访问层实现
package milvus

import (
	"context"
	"fmt"
	"strconv"

	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// chunkOutputFields 检索返回的字段
var chunkOutputFields = []string{
	"id", "content", "source_path", "file_name", "action",
	"original_recipe", "full_text", "pub_date", "issue", "newspaper", "citation_label",
}

// Repository 菜谱语料块仓储
type Repository struct {
	client *Client
}

// NewRepository 创建仓储
func NewRepository(client *Client) *Repository {
	return &Repository{client: client}
}

// RecipeChunk 一条语料块记录
type RecipeChunk struct {
	ID             string
	Vector         []float32
	Content        string
	SourcePath     string
	FileName       string
	Action         string
	OriginalRecipe string
	FullText       string
	PubDate        string
	Issue          string
	Newspaper      string
	CitationLabel  string
}

// SearchResult 检索结果
type SearchResult struct {
	Chunk RecipeChunk
	Score float32
}

// EnsureCollection 确保集合、索引存在并加载到内存（非破坏性）
func (r *Repository) EnsureCollection(ctx context.Context) error {
	if r == nil || r.client == nil || r.client.milvus == nil {
		return fmt.Errorf("milvus client not configured")
	}
	ctx, span := tracer.Start(ctx, "milvus.EnsureCollection",
		trace.WithAttributes(attribute.String("collection", CollectionRecipeChunks)))
	defer span.End()

	has, err := r.client.HasCollection(ctx, CollectionRecipeChunks)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to check collection: %w", err)
	}
	if !has {
		schema := RecipeChunksSchema()
		schema.CollectionName = r.client.CollectionName(schema.CollectionName)
		if err := r.client.milvus.CreateCollection(ctx, schema, entity.DefaultShardNumber); err != nil {
			span.RecordError(err)
			return fmt.Errorf("failed to create collection: %w", err)
		}
		if err := r.createIndex(ctx); err != nil {
			return err
		}
	}

	if err := r.client.LoadCollection(ctx, CollectionRecipeChunks); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to load collection: %w", err)
	}
	return nil
}

// Drop 删除集合；集合不存在时是空操作
func (r *Repository) Drop(ctx context.Context) error {
	if r == nil || r.client == nil || r.client.milvus == nil {
		return fmt.Errorf("milvus client not configured")
	}
	ctx, span := tracer.Start(ctx, "milvus.Drop",
		trace.WithAttributes(attribute.String("collection", CollectionRecipeChunks)))
	defer span.End()

	has, err := r.client.HasCollection(ctx, CollectionRecipeChunks)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to check collection: %w", err)
	}
	if !has {
		return nil
	}
	if err := r.client.milvus.DropCollection(ctx, r.client.CollectionName(CollectionRecipeChunks)); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to drop collection: %w", err)
	}
	return nil
}

// createIndex 创建 HNSW 索引
func (r *Repository) createIndex(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "milvus.CreateIndex",
		trace.WithAttributes(attribute.String("collection", CollectionRecipeChunks)))
	defer span.End()

	idx, err := entity.NewIndexHNSW(
		entity.COSINE,
		r.client.config.HNSWM,
		r.client.config.HNSWEfConstruction,
	)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create index: %w", err)
	}

	collName := r.client.CollectionName(CollectionRecipeChunks)
	if err := r.client.milvus.CreateIndex(ctx, collName, "vector", idx, false); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create index: %w", err)
	}
	return nil
}

// RowCount 集合当前行数；集合不存在时返回 0
func (r *Repository) RowCount(ctx context.Context) (int64, error) {
	if r == nil || r.client == nil || r.client.milvus == nil {
		return 0, fmt.Errorf("milvus client not configured")
	}
	ctx, span := tracer.Start(ctx, "milvus.RowCount",
		trace.WithAttributes(attribute.String("collection", CollectionRecipeChunks)))
	defer span.End()

	has, err := r.client.HasCollection(ctx, CollectionRecipeChunks)
	if err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("failed to check collection: %w", err)
	}
	if !has {
		return 0, nil
	}

	stats, err := r.client.milvus.GetCollectionStatistics(ctx, r.client.CollectionName(CollectionRecipeChunks))
	if err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("failed to get collection statistics: %w", err)
	}
	count, err := strconv.ParseInt(stats["row_count"], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse row count %q: %w", stats["row_count"], err)
	}
	span.SetAttributes(attribute.Int64("row_count", count))
	return count, nil
}

// InsertChunks 批量插入语料块并刷盘，保证后续统计可见
func (r *Repository) InsertChunks(ctx context.Context, chunks []*RecipeChunk) error {
	if r == nil || r.client == nil || r.client.milvus == nil {
		return fmt.Errorf("milvus client not configured")
	}
	ctx, span := tracer.Start(ctx, "milvus.InsertChunks",
		trace.WithAttributes(attribute.Int("count", len(chunks))))
	defer span.End()

	if len(chunks) == 0 {
		return nil
	}

	ids := make([]string, len(chunks))
	vectors := make([][]float32, len(chunks))
	contents := make([]string, len(chunks))
	sourcePaths := make([]string, len(chunks))
	fileNames := make([]string, len(chunks))
	actions := make([]string, len(chunks))
	recipes := make([]string, len(chunks))
	fullTexts := make([]string, len(chunks))
	pubDates := make([]string, len(chunks))
	issues := make([]string, len(chunks))
	newspapers := make([]string, len(chunks))
	labels := make([]string, len(chunks))

	for i, c := range chunks {
		ids[i] = c.ID
		vectors[i] = c.Vector
		contents[i] = c.Content
		sourcePaths[i] = c.SourcePath
		fileNames[i] = c.FileName
		actions[i] = c.Action
		recipes[i] = c.OriginalRecipe
		fullTexts[i] = c.FullText
		pubDates[i] = c.PubDate
		issues[i] = c.Issue
		newspapers[i] = c.Newspaper
		labels[i] = c.CitationLabel
	}

	collName := r.client.CollectionName(CollectionRecipeChunks)
	_, err := r.client.milvus.Insert(ctx, collName, "",
		entity.NewColumnVarChar("id", ids),
		entity.NewColumnFloatVector("vector", VectorDimension, vectors),
		entity.NewColumnVarChar("content", contents),
		entity.NewColumnVarChar("source_path", sourcePaths),
		entity.NewColumnVarChar("file_name", fileNames),
		entity.NewColumnVarChar("action", actions),
		entity.NewColumnVarChar("original_recipe", recipes),
		entity.NewColumnVarChar("full_text", fullTexts),
		entity.NewColumnVarChar("pub_date", pubDates),
		entity.NewColumnVarChar("issue", issues),
		entity.NewColumnVarChar("newspaper", newspapers),
		entity.NewColumnVarChar("citation_label", labels),
	)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to insert chunks: %w", err)
	}

	if err := r.client.milvus.Flush(ctx, collName, false); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to flush collection: %w", err)
	}
	return nil
}

// SearchChunks 按向量相似度检索，按相似度降序返回至多 topK 条
func (r *Repository) SearchChunks(ctx context.Context, vector []float32, topK int) ([]*SearchResult, error) {
	if r == nil || r.client == nil || r.client.milvus == nil {
		return nil, fmt.Errorf("milvus client not configured")
	}
	ctx, span := tracer.Start(ctx, "milvus.SearchChunks",
		trace.WithAttributes(attribute.Int("top_k", topK)))
	defer span.End()

	sp, err := entity.NewIndexHNSWSearchParam(128)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to create search param: %w", err)
	}

	collName := r.client.CollectionName(CollectionRecipeChunks)
	results, err := r.client.milvus.Search(ctx,
		collName,
		nil,
		"",
		chunkOutputFields,
		[]entity.Vector{entity.FloatVector(vector)},
		"vector",
		entity.COSINE,
		topK,
		sp,
	)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to search: %w", err)
	}

	var out []*SearchResult
	for _, result := range results {
		varchar := func(name string, i int) string {
			col, ok := result.Fields.GetColumn(name).(*entity.ColumnVarChar)
			if !ok || i >= len(col.Data()) {
				return ""
			}
			return col.Data()[i]
		}
		for i := 0; i < result.ResultCount; i++ {
			out = append(out, &SearchResult{
				Score: result.Scores[i],
				Chunk: RecipeChunk{
					ID:             varchar("id", i),
					Content:        varchar("content", i),
					SourcePath:     varchar("source_path", i),
					FileName:       varchar("file_name", i),
					Action:         varchar("action", i),
					OriginalRecipe: varchar("original_recipe", i),
					FullText:       varchar("full_text", i),
					PubDate:        varchar("pub_date", i),
					Issue:          varchar("issue", i),
					Newspaper:      varchar("newspaper", i),
					CitationLabel:  varchar("citation_label", i),
				},
			})
		}
	}

	span.SetAttributes(attribute.Int("result_count", len(out)))
	return out, nil
}
