package rag

import "errors"

// 核心错误分类，基础设施错误统一用 %w 包装到这些哨兵上
var (
	// ErrNoDataFound 语料目录没有可用数据
	ErrNoDataFound = errors.New("no corpus data found")
	// ErrEmbeddingFailed 嵌入服务调用失败
	ErrEmbeddingFailed = errors.New("embedding failed")
	// ErrRerankFailed 重排打分失败
	ErrRerankFailed = errors.New("rerank failed")
	// ErrGenerationFailed 生成模型调用失败
	ErrGenerationFailed = errors.New("generation failed")
	// ErrIndexPersistence 向量索引持久化读写失败
	ErrIndexPersistence = errors.New("index persistence failed")
)
