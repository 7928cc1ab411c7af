// Package redis 提供 Redis 缓存与限流实现
package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"poetry-chef-api/internal/application/rag"
	"poetry-chef-api/pkg/metrics"
)

var cacheTracer = otel.Tracer("redis.cache")

// AnswerCache 问答结果的 read-through 缓存，singleflight 防止同键击穿
type AnswerCache struct {
	client *Client
	ttl    time.Duration
	group  singleflight.Group
}

// NewAnswerCache 创建答案缓存；ttl 不为正时缓存退化为直通
func NewAnswerCache(client *Client, ttl time.Duration) *AnswerCache {
	return &AnswerCache{client: client, ttl: ttl}
}

// AnswerCacheKey 由请求参数派生的缓存键
func AnswerCacheKey(in rag.AskInput, variant string) string {
	temp := "default"
	if in.Temperature != nil {
		temp = fmt.Sprintf("%.3f", *in.Temperature)
	}
	raw := fmt.Sprintf("%s|%s|%d|%d|%s|%t|%s",
		in.Question, in.AdditionalContext, in.PoolSize, in.TopK, temp, in.Rerank, variant)
	sum := sha256.Sum256([]byte(raw))
	return "answer:" + hex.EncodeToString(sum[:])
}

// GetOrLoad 命中直接返回缓存结果，未命中时经 singleflight 调用 loader。
// 缓存读写失败都只记指标，不影响问答。
func (c *AnswerCache) GetOrLoad(ctx context.Context, key string, loader func(context.Context) (*rag.AnswerResult, error)) (*rag.AnswerResult, error) {
	if c == nil || c.client == nil || c.ttl <= 0 {
		return loader(ctx)
	}

	ctx, span := cacheTracer.Start(ctx, "cache.GetOrLoad",
		trace.WithAttributes(attribute.String("cache.key", key)))
	defer span.End()

	if res, ok := c.get(ctx, key); ok {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		metrics.AnswerCacheHits.WithLabelValues("hit").Inc()
		return res, nil
	}
	span.SetAttributes(attribute.Bool("cache.hit", false))
	metrics.AnswerCacheHits.WithLabelValues("miss").Inc()

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		// 等待期间可能已有请求回填
		if res, ok := c.get(ctx, key); ok {
			return res, nil
		}
		res, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		c.set(ctx, key, res)
		return res, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*rag.AnswerResult), nil
}

func (c *AnswerCache) get(ctx context.Context, key string) (*rag.AnswerResult, bool) {
	data, err := c.client.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			metrics.AnswerCacheHits.WithLabelValues("error").Inc()
		}
		return nil, false
	}
	var res rag.AnswerResult
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, false
	}
	return &res, true
}

func (c *AnswerCache) set(ctx context.Context, key string, res *rag.AnswerResult) {
	data, err := json.Marshal(res)
	if err != nil {
		return
	}
	if err := c.client.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
		metrics.AnswerCacheHits.WithLabelValues("error").Inc()
	}
}
