package rag

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"

	"poetry-chef-api/pkg/logger"
	"poetry-chef-api/pkg/metrics"
)

const (
	// noContextPlaceholder 检索为空时注入提示词的占位文本
	noContextPlaceholder = "No supporting context retrieved."
	// defaultWeight 未提供附加上下文时的默认"重量"
	defaultWeight = "không xác định"
)

// Assembler 组装提示词、调用生成模型并抽取引用
type Assembler struct {
	chat      model.BaseChatModel
	prompts   *PromptRegistry
	variant   PromptVariant
	provider  string
	modelName string
}

// NewAssembler 创建答案组装器；provider/modelName 仅用于指标标签
func NewAssembler(chat model.BaseChatModel, prompts *PromptRegistry, variant PromptVariant, provider, modelName string) *Assembler {
	return &Assembler{
		chat:      chat,
		prompts:   prompts,
		variant:   variant,
		provider:  provider,
		modelName: modelName,
	}
}

// Assemble 基于选中的块生成答案。temperature 非 nil 时仅作用于本次调用。
func (a *Assembler) Assemble(ctx context.Context, question, additionalContext string, chunks []Chunk, temperature *float32) (*AnswerResult, error) {
	weight := strings.TrimSpace(additionalContext)
	if weight == "" {
		weight = defaultWeight
	}

	tpl, err := a.prompts.ChatTemplate(a.variant)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	messages, err := tpl.Format(ctx, map[string]any{
		"context":            FormatChunks(chunks),
		"question":           question,
		"additional_context": weight,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: format prompt: %v", ErrGenerationFailed, err)
	}

	var opts []model.Option
	if temperature != nil {
		opts = append(opts, model.WithTemperature(*temperature))
	}

	start := time.Now()
	out, err := a.chat.Generate(ctx, messages, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	if out == nil {
		return nil, fmt.Errorf("%w: model returned no message", ErrGenerationFailed)
	}
	metrics.LLMCallDuration.WithLabelValues(a.provider, a.modelName).Observe(time.Since(start).Seconds())
	if out.ResponseMeta != nil && out.ResponseMeta.Usage != nil {
		usage := out.ResponseMeta.Usage
		metrics.LLMTokensUsed.WithLabelValues(a.provider, a.modelName, "prompt").Add(float64(usage.PromptTokens))
		metrics.LLMTokensUsed.WithLabelValues(a.provider, a.modelName, "completion").Add(float64(usage.CompletionTokens))
	}

	answer := strings.TrimSpace(out.Content)
	logger.Debug(ctx, "答案生成完成",
		"variant", string(a.variant),
		"chunks", len(chunks),
		"answer_len", len(answer),
	)

	return &AnswerResult{
		Answer:    answer,
		Citations: uniqueCitations(chunks),
		Sources:   buildSources(chunks),
	}, nil
}

// FormatChunks 把块正文拼成上下文段落；无块时返回固定占位文本
func FormatChunks(chunks []Chunk) string {
	if len(chunks) == 0 {
		return noContextPlaceholder
	}
	parts := make([]string, len(chunks))
	for i, c := range chunks {
		parts[i] = c.Content
	}
	return strings.Join(parts, "\n\n")
}

// uniqueCitations 按首次出现顺序去重的引用标签。
// 标签与来源详情使用同一份日期本地化结果，两边永远一致。
func uniqueCitations(chunks []Chunk) []string {
	seen := make(map[string]struct{}, len(chunks))
	out := make([]string, 0, len(chunks))
	for _, c := range chunks {
		label := LocalizeDate(citationLabel(c.Meta), c.Meta.Date)
		if _, ok := seen[label]; ok {
			continue
		}
		seen[label] = struct{}{}
		out = append(out, label)
	}
	return out
}

// buildSources 与输入块一一对应的来源详情，标签与正文都做日期本地化
func buildSources(chunks []Chunk) []SourceChunk {
	out := make([]SourceChunk, 0, len(chunks))
	for _, c := range chunks {
		out = append(out, buildSourceChunk(c))
	}
	return out
}

func buildSourceChunk(c Chunk) SourceChunk {
	text := c.Meta.FullText
	if text == "" {
		text = c.Content
	}
	return SourceChunk{
		Label:      LocalizeDate(citationLabel(c.Meta), c.Meta.Date),
		Chapter:    c.Meta.Issue,
		BookTitle:  c.Meta.Newspaper,
		FileName:   c.Meta.FileName,
		SourcePath: c.Meta.SourcePath,
		Text:       LocalizeDate(text, c.Meta.Date),
	}
}
