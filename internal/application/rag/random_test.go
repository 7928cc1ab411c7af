package rag

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomAskApologyWhenCorpusMissing(t *testing.T) {
	chat := &fakeChatModel{content: "không được gọi"}
	p := NewRandomPipeline(NewLoader(t.TempDir(), ""), newTestAssembler(chat))

	res, err := p.Ask(context.Background(), AskInput{Question: "nỗi buồn"})
	require.NoError(t, err)
	assert.Equal(t, apologyAnswer, res.Answer)
	assert.Empty(t, res.Citations)
	assert.Empty(t, res.Sources)
	assert.Zero(t, chat.calls)
}

func TestRandomAskSingleSource(t *testing.T) {
	dir := t.TempDir()
	writeCorpusFile(t, dir, "data.csv", sampleCSV)
	chat := &fakeChatModel{content: "công thức"}
	p := NewRandomPipeline(NewLoader(dir, ""), newTestAssembler(chat))

	res, err := p.Ask(context.Background(), AskInput{Question: "nỗi buồn"})
	require.NoError(t, err)
	assert.Equal(t, "công thức", res.Answer)
	require.Len(t, res.Citations, 1)
	require.Len(t, res.Sources, 1)
	// 引用与来源标签一致（含日期本地化）
	assert.Equal(t, res.Sources[0].Label, res.Citations[0])

	// 整行文档作为唯一上下文
	assert.Contains(t, chat.messages[1].Content, "Hành động:")
}

func TestRandomCorpusLoadedOnce(t *testing.T) {
	dir := t.TempDir()
	writeCorpusFile(t, dir, "data.csv", sampleCSV)
	p := NewRandomPipeline(NewLoader(dir, ""), newTestAssembler(&fakeChatModel{content: "ok"}))

	_, err := p.Ask(context.Background(), AskInput{Question: "q"})
	require.NoError(t, err)

	// 语料缓存生效后删除文件不影响后续请求
	require.NoError(t, os.Remove(filepath.Join(dir, "data.csv")))
	_, err = p.Ask(context.Background(), AskInput{Question: "q"})
	require.NoError(t, err)
}

func TestRandomIngestWarmsCache(t *testing.T) {
	dir := t.TempDir()
	writeCorpusFile(t, dir, "data.csv", sampleCSV)
	p := NewRandomPipeline(NewLoader(dir, ""), newTestAssembler(&fakeChatModel{content: "ok"}))

	require.NoError(t, p.Ingest(context.Background(), false))
	assert.True(t, p.loaded)
	assert.NotEmpty(t, p.docs)
}

func TestRandomIngestMissingCorpus(t *testing.T) {
	p := NewRandomPipeline(NewLoader(t.TempDir(), ""), newTestAssembler(&fakeChatModel{content: "ok"}))
	require.ErrorIs(t, p.Ingest(context.Background(), false), ErrNoDataFound)
}
