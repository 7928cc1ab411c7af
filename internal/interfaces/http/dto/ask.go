package dto

import (
	"poetry-chef-api/internal/application/rag"
)

// AskRequest 问答请求
type AskRequest struct {
	// Question 用户的"情绪"问题
	Question string `json:"question" binding:"required"`
	// AdditionalContext 情绪的"重量"，缺省时服务端注入默认值
	AdditionalContext string `json:"additional_context"`
	// TopK 进入上下文的块数量
	TopK *int `json:"top_k" binding:"omitempty,gte=1"`
	// PoolSize 初始召回候选数量
	PoolSize *int `json:"pool_size" binding:"omitempty,gte=1"`
	// Temperature 本次调用的采样温度
	Temperature *float32 `json:"temperature" binding:"omitempty,gte=0,lte=2"`
	// Rerank 是否启用交叉编码器重排，缺省为 true
	Rerank *bool `json:"rerank"`
}

// ToInput 转换为应用层输入
func (r *AskRequest) ToInput() rag.AskInput {
	in := rag.AskInput{
		Question:          r.Question,
		AdditionalContext: r.AdditionalContext,
		Temperature:       r.Temperature,
		Rerank:            true,
	}
	if r.TopK != nil {
		in.TopK = *r.TopK
	}
	if r.PoolSize != nil {
		in.PoolSize = *r.PoolSize
	}
	if r.Rerank != nil {
		in.Rerank = *r.Rerank
	}
	return in
}

// SourceChunk 来源详情
type SourceChunk struct {
	Label      string `json:"label"`
	PageNumber *int   `json:"page_number"`
	Chapter    string `json:"chapter,omitempty"`
	BookTitle  string `json:"book_title,omitempty"`
	FileName   string `json:"file_name,omitempty"`
	SourcePath string `json:"source_path,omitempty"`
	Text       string `json:"text"`
	ViewerURL  string `json:"viewer_url,omitempty"`
}

// AskResponse 问答响应
type AskResponse struct {
	Answer    string        `json:"answer"`
	Citations []string      `json:"citations"`
	Sources   []SourceChunk `json:"sources"`
}

// NewAskResponse 从应用层结果构建响应
func NewAskResponse(res *rag.AnswerResult) AskResponse {
	citations := res.Citations
	if citations == nil {
		citations = []string{}
	}
	sources := make([]SourceChunk, 0, len(res.Sources))
	for _, s := range res.Sources {
		sources = append(sources, SourceChunk{
			Label:      s.Label,
			PageNumber: s.PageNumber,
			Chapter:    s.Chapter,
			BookTitle:  s.BookTitle,
			FileName:   s.FileName,
			SourcePath: s.SourcePath,
			Text:       s.Text,
			ViewerURL:  s.ViewerURL,
		})
	}
	return AskResponse{
		Answer:    res.Answer,
		Citations: citations,
		Sources:   sources,
	}
}
