package rag

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAssembler(chat *fakeChatModel) *Assembler {
	return NewAssembler(chat, NewPromptRegistry(), PromptPoetryChefV2, "openai", "gpt-4o-mini")
}

func caKhoChunk() Chunk {
	return Chunk{
		Content: "Hành động: kho cá\nCông thức gốc: Cá kho\nNguyên văn: lấy cá rửa sạch rồi kho",
		Meta: Metadata{
			OriginalRecipe: "Cá kho",
			Newspaper:      "Phụ Nữ Tân Văn",
			Date:           "May 10, 2020",
			Issue:          "12",
			FullText:       "lấy cá rửa sạch rồi kho, đăng ngày May 10, 2020",
			FileName:       "data.csv",
			SourcePath:     "/data/data.csv",
			CitationLabel:  "Cá kho (Phụ Nữ Tân Văn, May 10, 2020)",
		},
	}
}

func TestAssembleCitationAndLocalizedSource(t *testing.T) {
	chat := &fakeChatModel{content: "  Tên món: Cá kho nỗi buồn  "}
	asm := newTestAssembler(chat)

	res, err := asm.Assemble(context.Background(), "nỗi buồn", "3kg", []Chunk{caKhoChunk()}, nil)
	require.NoError(t, err)

	assert.Equal(t, "Tên món: Cá kho nỗi buồn", res.Answer)
	// 引用与来源标签共用同一份本地化日期
	require.Equal(t, []string{"Cá kho (Phụ Nữ Tân Văn, 10 tháng 5, 2020)"}, res.Citations)
	require.Len(t, res.Sources, 1)
	assert.Equal(t, res.Citations[0], res.Sources[0].Label)
	assert.Equal(t, "Cá kho (Phụ Nữ Tân Văn, 10 tháng 5, 2020)", res.Sources[0].Label)
	assert.Contains(t, res.Sources[0].Text, "10 tháng 5, 2020")
	assert.NotContains(t, res.Sources[0].Text, "May 10, 2020")
	assert.Equal(t, "12", res.Sources[0].Chapter)
	assert.Equal(t, "Phụ Nữ Tân Văn", res.Sources[0].BookTitle)
}

func TestAssembleDeduplicatesCitationsFirstSeen(t *testing.T) {
	chat := &fakeChatModel{content: "ok"}
	asm := newTestAssembler(chat)

	a := caKhoChunk()
	b := caKhoChunk()
	c := caKhoChunk()
	c.Meta.CitationLabel = "Rau luộc (Ngày Nay, Jan 2, 1935)"
	c.Meta.Date = "Jan 2, 1935"

	res, err := asm.Assemble(context.Background(), "q", "", []Chunk{a, b, c}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Cá kho (Phụ Nữ Tân Văn, 10 tháng 5, 2020)",
		"Rau luộc (Ngày Nay, 2 tháng 1, 1935)",
	}, res.Citations)
	// 来源不去重，与输入块一一对应
	assert.Len(t, res.Sources, 3)
}

func TestAssembleEmptyContextUsesPlaceholder(t *testing.T) {
	chat := &fakeChatModel{content: "câu trả lời"}
	asm := newTestAssembler(chat)

	res, err := asm.Assemble(context.Background(), "nỗi buồn", "", nil, nil)
	require.NoError(t, err)
	assert.Empty(t, res.Citations)
	assert.Empty(t, res.Sources)

	require.Len(t, chat.messages, 2)
	user := chat.messages[1].Content
	assert.Contains(t, user, "Context:\nNo supporting context retrieved.")
	assert.Contains(t, user, "Input Emotion: nỗi buồn")
	assert.Contains(t, user, "Weight: không xác định")
}

func TestAssembleContextJoinsChunks(t *testing.T) {
	chat := &fakeChatModel{content: "ok"}
	asm := newTestAssembler(chat)

	chunks := []Chunk{{Content: "đoạn một"}, {Content: "đoạn hai"}}
	_, err := asm.Assemble(context.Background(), "q", "2kg", chunks, nil)
	require.NoError(t, err)

	user := chat.messages[1].Content
	assert.Contains(t, user, "đoạn một\n\nđoạn hai")
	assert.Contains(t, user, "Weight: 2kg")
}

func TestAssemblePromptVariants(t *testing.T) {
	for _, variant := range []PromptVariant{PromptPoetryChefV1, PromptPoetryChefV2} {
		chat := &fakeChatModel{content: "ok"}
		asm := NewAssembler(chat, NewPromptRegistry(), variant, "openai", "gpt-4o-mini")

		_, err := asm.Assemble(context.Background(), "q", "", nil, nil)
		require.NoError(t, err)
		system := chat.messages[0].Content
		assert.True(t, strings.HasPrefix(system, `Bạn là một "Đầu bếp Thơ ca"`))
	}

	// v2 比 v1 多出原料替换的黄金法则
	chatV2 := &fakeChatModel{content: "ok"}
	_, err := NewAssembler(chatV2, NewPromptRegistry(), PromptPoetryChefV2, "p", "m").
		Assemble(context.Background(), "q", "", nil, nil)
	require.NoError(t, err)
	assert.Contains(t, chatV2.messages[0].Content, "Nguyên tắc Vàng")
}

func TestAssembleUnknownVariant(t *testing.T) {
	chat := &fakeChatModel{content: "ok"}
	asm := NewAssembler(chat, NewPromptRegistry(), PromptVariant("nope"), "p", "m")

	_, err := asm.Assemble(context.Background(), "q", "", nil, nil)
	require.ErrorIs(t, err, ErrGenerationFailed)
	assert.Zero(t, chat.calls)
}

func TestAssembleTemperaturePerCall(t *testing.T) {
	chat := &fakeChatModel{content: "ok"}
	asm := newTestAssembler(chat)

	temp := float32(0.2)
	_, err := asm.Assemble(context.Background(), "q", "", nil, &temp)
	require.NoError(t, err)
	require.NotNil(t, chat.lastTemperature())
	assert.InDelta(t, 0.2, float64(*chat.lastTemperature()), 1e-6)

	// 后续调用不带温度选项，互不影响
	_, err = asm.Assemble(context.Background(), "q", "", nil, nil)
	require.NoError(t, err)
	assert.Nil(t, chat.lastTemperature())
}

func TestAssembleGenerationError(t *testing.T) {
	chat := &fakeChatModel{err: errors.New("upstream 500")}
	asm := newTestAssembler(chat)

	_, err := asm.Assemble(context.Background(), "q", "", nil, nil)
	require.ErrorIs(t, err, ErrGenerationFailed)
}

func TestAssembleUnknownSourceLabel(t *testing.T) {
	chat := &fakeChatModel{content: "ok"}
	asm := newTestAssembler(chat)

	res, err := asm.Assemble(context.Background(), "q", "", []Chunk{{Content: "mồ côi metadata"}}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Unknown Source"}, res.Citations)
	assert.Equal(t, "mồ côi metadata", res.Sources[0].Text)
}
