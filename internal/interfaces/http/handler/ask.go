// Package handler 提供 HTTP 请求处理器
package handler

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"poetry-chef-api/internal/application/rag"
	"poetry-chef-api/internal/infrastructure/persistence/postgres"
	"poetry-chef-api/internal/infrastructure/persistence/redis"
	"poetry-chef-api/internal/interfaces/http/dto"
	apperrors "poetry-chef-api/pkg/errors"
	"poetry-chef-api/pkg/logger"
)

// AskHandler 问答处理器
type AskHandler struct {
	asker   rag.Asker
	mode    string
	variant string
	cache   *redis.AnswerCache
	askLogs *postgres.AskLogRepository
}

// NewAskHandler 创建问答处理器；cache 与 askLogs 可为 nil
func NewAskHandler(asker rag.Asker, mode, variant string, cache *redis.AnswerCache, askLogs *postgres.AskLogRepository) *AskHandler {
	return &AskHandler{
		asker:   asker,
		mode:    mode,
		variant: variant,
		cache:   cache,
		askLogs: askLogs,
	}
}

// Ask 问答接口
// @Summary 提交一个情绪问题，返回诗意菜谱回答
// @Tags Ask
// @Accept json
// @Produce json
// @Param request body dto.AskRequest true "问答请求"
// @Success 200 {object} dto.Response[dto.AskResponse]
// @Router /v1/ask [post]
func (h *AskHandler) Ask(c *gin.Context) {
	var req dto.AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		dto.BadRequest(c, "question must not be empty")
		return
	}

	in := req.ToInput()
	ctx := c.Request.Context()
	start := time.Now()

	result, err := h.ask(ctx, in)
	if err != nil {
		appErr := mapAskError(err)
		logger.Error(ctx, "问答失败", err, "mode", h.mode)
		dto.FromAppError(c, appErr)
		return
	}

	h.audit(ctx, c.GetString("request_id"), in, result, time.Since(start))
	dto.Success(c, dto.NewAskResponse(result))
}

// ask 可选地经过答案缓存；随机模式永不缓存
func (h *AskHandler) ask(ctx context.Context, in rag.AskInput) (*rag.AnswerResult, error) {
	loader := func(ctx context.Context) (*rag.AnswerResult, error) {
		return h.asker.Ask(ctx, in)
	}
	if h.cache == nil || h.mode != "retrieval" {
		return loader(ctx)
	}
	return h.cache.GetOrLoad(ctx, redis.AnswerCacheKey(in, h.variant), loader)
}

// audit 尽力而为地写问答审计，失败只记日志
func (h *AskHandler) audit(ctx context.Context, requestID string, in rag.AskInput, res *rag.AnswerResult, elapsed time.Duration) {
	if h.askLogs == nil {
		return
	}

	entry := &postgres.AskLog{
		RequestID:     requestID,
		Question:      in.Question,
		Mode:          h.mode,
		PoolSize:      in.PoolSize,
		TopK:          in.TopK,
		Rerank:        in.Rerank,
		AnswerLength:  len(res.Answer),
		CitationCount: len(res.Citations),
		DurationMs:    elapsed.Milliseconds(),
	}

	go func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := h.askLogs.Create(ctx, entry); err != nil {
			logger.Warn(ctx, "问答审计写入失败", "error", err)
		}
	}(context.WithoutCancel(ctx))
}

// mapAskError 把应用层错误映射为对外错误
func mapAskError(err error) *apperrors.AppError {
	switch {
	case errors.Is(err, rag.ErrNoDataFound):
		return apperrors.New(apperrors.CodeNoDataFound, "no corpus data available").WithDetail(err.Error())
	case errors.Is(err, rag.ErrEmbeddingFailed):
		return apperrors.New(apperrors.CodeEmbeddingFailed, "embedding provider failed").WithDetail(err.Error())
	case errors.Is(err, rag.ErrRerankFailed):
		return apperrors.New(apperrors.CodeRerankFailed, "rerank service failed").WithDetail(err.Error())
	case errors.Is(err, rag.ErrGenerationFailed):
		return apperrors.New(apperrors.CodeGenerationFailed, "generation provider failed").WithDetail(err.Error())
	case errors.Is(err, rag.ErrIndexPersistence):
		return apperrors.New(apperrors.CodeIndexPersistence, "vector index unavailable").WithDetail(err.Error())
	default:
		if appErr, ok := err.(*apperrors.AppError); ok {
			return appErr
		}
		return apperrors.New(apperrors.CodeInternalError, "internal server error").WithDetail(err.Error())
	}
}
