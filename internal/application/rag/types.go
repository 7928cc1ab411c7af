// Package rag 实现菜谱语料的检索增强问答核心：
// 语料加载、切块、向量索引、重排与答案组装。
package rag

// SourceRecord 语料 CSV 的一行
type SourceRecord struct {
	Action         string
	OriginalRecipe string
	FullText       string
	Date           string
	Issue          string
	Newspaper      string
	SourcePath     string
}

// Metadata 文档与块共享的来源元数据
type Metadata struct {
	SourcePath     string
	FileName       string
	Action         string
	OriginalRecipe string
	FullText       string
	Date           string
	Issue          string
	Newspaper      string
	CitationLabel  string
}

// Document 规范化后的语料文档
type Document struct {
	Content string
	Meta    Metadata
}

// Chunk 切块结果，继承父文档全部元数据
type Chunk struct {
	Content string
	Meta    Metadata
}

// AskInput 单次问答请求参数
type AskInput struct {
	Question          string
	AdditionalContext string
	PoolSize          int
	TopK              int
	// Temperature 为 nil 时使用模型默认温度
	Temperature *float32
	Rerank      bool
}

// SourceChunk 返回给调用方的来源详情
type SourceChunk struct {
	Label      string
	PageNumber *int
	Chapter    string
	BookTitle  string
	FileName   string
	SourcePath string
	Text       string
	ViewerURL  string
}

// AnswerResult 问答结果
type AnswerResult struct {
	Answer    string
	Citations []string
	Sources   []SourceChunk
}
