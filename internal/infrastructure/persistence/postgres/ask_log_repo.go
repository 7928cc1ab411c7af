package postgres

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// AskLog 一次问答的审计记录
type AskLog struct {
	ID            uint   `gorm:"primaryKey;autoIncrement"`
	RequestID     string `gorm:"type:varchar(64);index"`
	Question      string `gorm:"type:text;not null"`
	Mode          string `gorm:"type:varchar(16);not null;index"`
	PoolSize      int    `gorm:"not null"`
	TopK          int    `gorm:"not null"`
	Rerank        bool   `gorm:"not null"`
	AnswerLength  int    `gorm:"not null"`
	CitationCount int    `gorm:"not null"`
	DurationMs    int64  `gorm:"not null"`
	CreatedAt     time.Time
}

// TableName 表名
func (AskLog) TableName() string {
	return "ask_logs"
}

// AskLogRepository 问答审计仓储
type AskLogRepository struct {
	client *Client
}

// NewAskLogRepository 创建仓储
func NewAskLogRepository(client *Client) *AskLogRepository {
	return &AskLogRepository{client: client}
}

// Migrate 创建或更新表结构
func (r *AskLogRepository) Migrate() error {
	return r.client.db.AutoMigrate(&AskLog{})
}

// Create 写入一条审计记录
func (r *AskLogRepository) Create(ctx context.Context, log *AskLog) error {
	ctx, span := tracer.Start(ctx, "postgres.AskLogCreate",
		trace.WithAttributes(attribute.String("mode", log.Mode)))
	defer span.End()

	if err := r.client.db.WithContext(ctx).Create(log).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create ask log: %w", err)
	}
	return nil
}

// RecentLogs 最近的审计记录，按时间倒序
func (r *AskLogRepository) RecentLogs(ctx context.Context, limit int) ([]*AskLog, error) {
	ctx, span := tracer.Start(ctx, "postgres.AskLogRecent",
		trace.WithAttributes(attribute.Int("limit", limit)))
	defer span.End()

	if limit <= 0 {
		limit = 50
	}
	var logs []*AskLog
	if err := r.client.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&logs).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list ask logs: %w", err)
	}
	return logs, nil
}
