// Package wire 提供依赖注入配置
package wire

import (
	"context"
	"fmt"

	einoembedding "github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/components/model"
	"github.com/google/wire"

	"poetry-chef-api/internal/application/rag"
	"poetry-chef-api/internal/config"
	infraembedding "poetry-chef-api/internal/infrastructure/embedding"
	"poetry-chef-api/internal/infrastructure/llm"
	"poetry-chef-api/internal/infrastructure/persistence/milvus"
	"poetry-chef-api/internal/infrastructure/persistence/postgres"
	"poetry-chef-api/internal/infrastructure/persistence/redis"
	"poetry-chef-api/internal/infrastructure/rerank"
	"poetry-chef-api/internal/interfaces/http/handler"
	"poetry-chef-api/internal/interfaces/http/middleware"
	"poetry-chef-api/internal/interfaces/http/router"
)

// IngestApp 索引构建入口依赖
type IngestApp struct {
	Asker rag.Asker
}

// InfraSet 基础设施提供者集合
var InfraSet = wire.NewSet(
	ProvideMilvusClient,
	ProvideMilvusRepository,
	ProvideVectorStore,
	ProvideEmbedder,
	llm.NewEinoFactory,
	ProvideChatModel,
	ProvideScorer,
	ProvideRedisClient,
	ProvideAnswerCache,
	ProvideRateLimiter,
	ProvidePostgresClient,
	ProvideAskLogRepository,
)

// RagSet 问答管线提供者集合
var RagSet = wire.NewSet(
	ProvideLoader,
	ProvideSplitter,
	rag.NewPromptRegistry,
	ProvideAssembler,
	rag.NewReranker,
	ProvideIndex,
	ProvideAsker,
)

// HTTPSet HTTP 接口层提供者集合
var HTTPSet = wire.NewSet(
	ProvideAskHandler,
	ProvideHealthHandler,
	ProvideRouter,
)

// ProvideMilvusClient 提供 Milvus 客户端；random 模式不依赖向量库
func ProvideMilvusClient(ctx context.Context, cfg *config.Config) (*milvus.Client, func(), error) {
	if cfg.RAG.Mode != "retrieval" {
		return nil, func() {}, nil
	}
	client, err := milvus.NewClient(ctx, &cfg.Vector.Milvus)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		_ = client.Close()
	}
	return client, cleanup, nil
}

// ProvideMilvusRepository 提供菜谱分块仓储
func ProvideMilvusRepository(client *milvus.Client) *milvus.Repository {
	if client == nil {
		return nil
	}
	return milvus.NewRepository(client)
}

// ProvideVectorStore 提供向量存储端口
func ProvideVectorStore(repo *milvus.Repository) rag.VectorStore {
	if repo == nil {
		return nil
	}
	return milvus.NewRagVectorStore(repo)
}

// ProvideEmbedder 提供向量化客户端；random 模式不需要
func ProvideEmbedder(ctx context.Context, cfg *config.Config) (einoembedding.Embedder, error) {
	if cfg.RAG.Mode != "retrieval" {
		return nil, nil
	}
	return infraembedding.NewEinoEmbedder(ctx, &cfg.Embedding)
}

// ProvideChatModel 提供默认 LLM 客户端
func ProvideChatModel(ctx context.Context, factory *llm.EinoFactory) (model.BaseChatModel, error) {
	return factory.Default(ctx)
}

// ProvideScorer 提供交叉编码器重排客户端
func ProvideScorer(cfg *config.Config) rag.Scorer {
	return rerank.NewClient(&cfg.Rerank)
}

// ProvideRedisClient 提供 Redis 客户端；未启用时为 nil
func ProvideRedisClient(cfg *config.Config) (*redis.Client, func(), error) {
	if !cfg.Cache.Redis.Enabled {
		return nil, func() {}, nil
	}
	client, err := redis.NewClient(&cfg.Cache.Redis)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		_ = client.Close()
	}
	return client, cleanup, nil
}

// ProvideAnswerCache 提供答案缓存；TTL 为 0 时关闭
func ProvideAnswerCache(client *redis.Client, cfg *config.Config) *redis.AnswerCache {
	if client == nil || cfg.RAG.AnswerCacheTTL <= 0 {
		return nil
	}
	return redis.NewAnswerCache(client, cfg.RAG.AnswerCacheTTL)
}

// ProvideRateLimiter 提供限流器；Redis 未启用时为 nil（中间件放行）
func ProvideRateLimiter(client *redis.Client) middleware.RateLimiter {
	if client == nil {
		return nil
	}
	return redis.NewRateLimiter(client)
}

// ProvidePostgresClient 提供 PostgreSQL 客户端；未启用时为 nil
func ProvidePostgresClient(cfg *config.Config) (*postgres.Client, func(), error) {
	if !cfg.Database.Postgres.Enabled {
		return nil, func() {}, nil
	}
	client, err := postgres.NewClient(&cfg.Database.Postgres)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		_ = client.Close()
	}
	return client, cleanup, nil
}

// ProvideAskLogRepository 提供问答审计仓储并执行建表迁移
func ProvideAskLogRepository(client *postgres.Client) (*postgres.AskLogRepository, error) {
	if client == nil {
		return nil, nil
	}
	repo := postgres.NewAskLogRepository(client)
	if err := repo.Migrate(); err != nil {
		return nil, fmt.Errorf("migrate ask_logs: %w", err)
	}
	return repo, nil
}

// ProvideLoader 提供语料加载器
func ProvideLoader(cfg *config.Config) *rag.Loader {
	return rag.NewLoader(cfg.Corpus.DataDir, cfg.Corpus.PreferredFile)
}

// ProvideSplitter 提供文本分块器
func ProvideSplitter(cfg *config.Config) *rag.Splitter {
	return rag.NewSplitter(cfg.RAG.ChunkSizeRunes, cfg.RAG.ChunkOverlapRunes)
}

// ProvideAssembler 提供回答组装器
func ProvideAssembler(chat model.BaseChatModel, prompts *rag.PromptRegistry, cfg *config.Config) *rag.Assembler {
	provider := cfg.LLM.DefaultProvider
	modelName := ""
	if p, ok := cfg.LLM.Providers[provider]; ok {
		modelName = p.Model
	}
	return rag.NewAssembler(chat, prompts, rag.PromptVariant(cfg.RAG.PromptVariant), provider, modelName)
}

// ProvideIndex 提供向量索引
func ProvideIndex(loader *rag.Loader, splitter *rag.Splitter, embedder einoembedding.Embedder, store rag.VectorStore, cfg *config.Config) *rag.Index {
	return rag.NewIndex(loader, splitter, embedder, store, cfg.RAG.EmbeddingBatchSize)
}

// ProvideAsker 按配置模式选择问答管线
func ProvideAsker(cfg *config.Config, index *rag.Index, reranker *rag.Reranker, asm *rag.Assembler, loader *rag.Loader) rag.Asker {
	if cfg.RAG.Mode == "random" {
		return rag.NewRandomPipeline(loader, asm)
	}
	return rag.NewPipeline(index, reranker, asm, cfg.RAG.PoolSize, cfg.RAG.TopK)
}

// ProvideAskHandler 提供问答处理器
func ProvideAskHandler(cfg *config.Config, asker rag.Asker, cache *redis.AnswerCache, askLogs *postgres.AskLogRepository) *handler.AskHandler {
	return handler.NewAskHandler(asker, cfg.RAG.Mode, cfg.RAG.PromptVariant, cache, askLogs)
}

// ProvideHealthHandler 提供健康检查处理器
func ProvideHealthHandler(cfg *config.Config, milvusClient *milvus.Client, redisClient *redis.Client, pgClient *postgres.Client) *handler.HealthHandler {
	return handler.NewHealthHandler(cfg.App.Version, milvusClient, redisClient, pgClient)
}

// ProvideRouter 提供 HTTP 路由器
func ProvideRouter(cfg *config.Config, askHandler *handler.AskHandler, healthHandler *handler.HealthHandler, limiter middleware.RateLimiter) *router.Router {
	return router.New(cfg, router.Handlers{
		Ask:    askHandler,
		Health: healthHandler,
	}, limiter)
}
