package rag

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPipeline(t *testing.T, store *fakeStore, scorer *fakeScorer, chat *fakeChatModel) *Pipeline {
	t.Helper()
	ix := newTestIndex(t, store, &fakeEmbedder{})
	return NewPipeline(ix, NewReranker(scorer), newTestAssembler(chat), 25, 4)
}

func poolChunks(n int) ([]Chunk, map[string]float64) {
	chunks := make([]Chunk, n)
	scores := make(map[string]float64, n)
	for i := range chunks {
		text := fmt.Sprintf("đoạn %d", i)
		chunks[i] = Chunk{Content: text, Meta: Metadata{CitationLabel: fmt.Sprintf("nhãn %d", i)}}
		scores[text] = float64(i)
	}
	return chunks, scores
}

func TestAskRerankedTopK(t *testing.T) {
	chunks, scores := poolChunks(10)
	store := &fakeStore{hasData: true, searchHit: chunks}
	scorer := &fakeScorer{scores: scores}
	chat := &fakeChatModel{content: "công thức thơ"}
	p := newTestPipeline(t, store, scorer, chat)

	res, err := p.Ask(context.Background(), AskInput{
		Question: "nỗi buồn",
		PoolSize: 10,
		TopK:     3,
		Rerank:   true,
	})
	require.NoError(t, err)
	assert.Equal(t, "công thức thơ", res.Answer)
	// 分数最高的三条按降序进入上下文
	assert.Equal(t, []string{"nhãn 9", "nhãn 8", "nhãn 7"}, res.Citations)
	assert.Equal(t, 1, scorer.calls)
}

func TestAskRerankDisabledKeepsRetrievalOrder(t *testing.T) {
	chunks, scores := poolChunks(10)
	store := &fakeStore{hasData: true, searchHit: chunks}
	scorer := &fakeScorer{scores: scores}
	chat := &fakeChatModel{content: "ok"}
	p := newTestPipeline(t, store, scorer, chat)

	res, err := p.Ask(context.Background(), AskInput{
		Question: "q",
		TopK:     3,
		Rerank:   false,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"nhãn 0", "nhãn 1", "nhãn 2"}, res.Citations)
	assert.Zero(t, scorer.calls)
}

func TestAskSingleRecordCitationMatchesLocalizedSource(t *testing.T) {
	store := &fakeStore{hasData: true, searchHit: []Chunk{caKhoChunk()}}
	chat := &fakeChatModel{content: "Cá kho nỗi buồn"}
	scorer := &fakeScorer{}
	p := newTestPipeline(t, store, scorer, chat)

	res, err := p.Ask(context.Background(), AskInput{
		Question: "nỗi buồn",
		PoolSize: 1,
		TopK:     1,
		Rerank:   false,
	})
	require.NoError(t, err)
	require.Len(t, res.Sources, 1)
	assert.Contains(t, res.Sources[0].Label, "10 tháng 5, 2020")
	// 唯一引用与来源标签逐字一致
	require.Equal(t, []string{res.Sources[0].Label}, res.Citations)
	assert.Zero(t, scorer.calls)
}

func TestAskDefaultsApplied(t *testing.T) {
	chunks, scores := poolChunks(6)
	store := &fakeStore{hasData: true, searchHit: chunks}
	chat := &fakeChatModel{content: "ok"}
	p := newTestPipeline(t, store, &fakeScorer{scores: scores}, chat)

	res, err := p.Ask(context.Background(), AskInput{Question: "q", Rerank: true})
	require.NoError(t, err)
	// 默认 top_k 4
	assert.Len(t, res.Citations, 4)
}

func TestAskEmptyQuestion(t *testing.T) {
	p := newTestPipeline(t, &fakeStore{hasData: true}, &fakeScorer{}, &fakeChatModel{content: "ok"})

	_, err := p.Ask(context.Background(), AskInput{Question: "   "})
	require.Error(t, err)
}

func TestAskNoDataFoundSurfaces(t *testing.T) {
	ix := NewIndex(NewLoader(t.TempDir(), ""), NewSplitter(1600, 300), &fakeEmbedder{}, &fakeStore{}, 32)
	p := NewPipeline(ix, NewReranker(&fakeScorer{}), newTestAssembler(&fakeChatModel{content: "ok"}), 25, 4)

	_, err := p.Ask(context.Background(), AskInput{Question: "q", Rerank: true})
	require.ErrorIs(t, err, ErrNoDataFound)
}

func TestAskEmptyPoolStillAnswers(t *testing.T) {
	store := &fakeStore{hasData: true, searchHit: nil}
	chat := &fakeChatModel{content: "vẫn trả lời"}
	p := newTestPipeline(t, store, &fakeScorer{}, chat)

	res, err := p.Ask(context.Background(), AskInput{Question: "q", Rerank: true})
	require.NoError(t, err)
	assert.Equal(t, "vẫn trả lời", res.Answer)
	assert.Empty(t, res.Citations)
	// 上下文为空时注入占位文本
	assert.Contains(t, chat.messages[1].Content, "No supporting context retrieved.")
}

func TestPipelineIngestForce(t *testing.T) {
	store := &fakeStore{hasData: true}
	p := newTestPipeline(t, store, &fakeScorer{}, &fakeChatModel{content: "ok"})

	require.NoError(t, p.Ingest(context.Background(), true))
	assert.Equal(t, 1, store.resets)
	assert.Equal(t, 1, store.inserts)
}
