// Package handler 提供 HTTP 请求处理器
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"poetry-chef-api/internal/infrastructure/persistence/milvus"
	"poetry-chef-api/internal/infrastructure/persistence/postgres"
	"poetry-chef-api/internal/infrastructure/persistence/redis"
)

// HealthHandler 健康检查处理器
type HealthHandler struct {
	version string
	milvus  *milvus.Client
	redis   *redis.Client
	pg      *postgres.Client
}

// NewHealthHandler 创建健康检查处理器；可选依赖传 nil 表示未启用
func NewHealthHandler(version string, milvusClient *milvus.Client, redisClient *redis.Client, pgClient *postgres.Client) *HealthHandler {
	return &HealthHandler{
		version: version,
		milvus:  milvusClient,
		redis:   redisClient,
		pg:      pgClient,
	}
}

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

type readinessCheck struct {
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
	LatencyMs int64  `json:"latency_ms,omitempty"`
}

type readinessResponse struct {
	Status string                     `json:"status"`
	Checks map[string]*readinessCheck `json:"checks,omitempty"`
}

// Health 健康检查接口
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: h.version,
	})
}

// Live 存活检查接口
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// Ready 就绪检查接口
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	checks := map[string]*readinessCheck{}
	ready := true

	run := func(name string, fn func(context.Context) error) {
		if fn == nil {
			checks[name] = &readinessCheck{Status: "disabled"}
			return
		}
		start := time.Now()
		if err := fn(ctx); err != nil {
			checks[name] = &readinessCheck{Status: "down", Error: err.Error()}
			ready = false
			return
		}
		checks[name] = &readinessCheck{Status: "up", LatencyMs: time.Since(start).Milliseconds()}
	}

	var milvusCheck, redisCheck, pgCheck func(context.Context) error
	if h.milvus != nil {
		milvusCheck = h.milvus.HealthCheck
	}
	if h.redis != nil {
		redisCheck = h.redis.HealthCheck
	}
	if h.pg != nil {
		pgCheck = h.pg.HealthCheck
	}
	run("milvus", milvusCheck)
	run("redis", redisCheck)
	run("postgres", pgCheck)

	status := "ready"
	code := http.StatusOK
	if !ready {
		status = "not_ready"
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, readinessResponse{Status: status, Checks: checks})
}
