//go:build wireinject
// +build wireinject

// Package wire 提供依赖注入配置
package wire

import (
	"context"

	"github.com/google/wire"

	"poetry-chef-api/internal/config"
	"poetry-chef-api/internal/interfaces/http/router"
)

// InitializeApp 初始化整个应用（带路由器）
func InitializeApp(ctx context.Context, cfg *config.Config) (*router.Router, func(), error) {
	wire.Build(
		InfraSet,
		RagSet,
		HTTPSet,
	)
	return nil, nil, nil
}

// InitializeIngest 初始化索引构建所需的最小依赖
func InitializeIngest(ctx context.Context, cfg *config.Config) (*IngestApp, func(), error) {
	wire.Build(
		InfraSet,
		RagSet,
		wire.Struct(new(IngestApp), "*"),
	)
	return nil, nil, nil
}
