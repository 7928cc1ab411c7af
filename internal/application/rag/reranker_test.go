package rag

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRerankEmptyCandidatesSkipsScorer(t *testing.T) {
	scorer := &fakeScorer{}
	r := NewReranker(scorer)

	got, err := r.Rerank(context.Background(), "câu hỏi", nil, 4)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Zero(t, scorer.calls)
}

func TestRerankTopKDescending(t *testing.T) {
	// 候选池 10 条，分数 0..9，取前 3 条应为 9、8、7
	candidates := make([]Chunk, 10)
	scores := make(map[string]float64, 10)
	for i := range candidates {
		text := fmt.Sprintf("đoạn %d", i)
		candidates[i] = Chunk{Content: text}
		scores[text] = float64(i)
	}
	r := NewReranker(&fakeScorer{scores: scores})

	got, err := r.Rerank(context.Background(), "câu hỏi", candidates, 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "đoạn 9", got[0].Content)
	assert.Equal(t, "đoạn 8", got[1].Content)
	assert.Equal(t, "đoạn 7", got[2].Content)
}

func TestRerankStableOnTies(t *testing.T) {
	candidates := []Chunk{
		{Content: "một"}, {Content: "hai"}, {Content: "ba"},
	}
	r := NewReranker(&fakeScorer{scores: map[string]float64{"một": 1, "hai": 1, "ba": 1}})

	got, err := r.Rerank(context.Background(), "q", candidates, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"một", "hai", "ba"}, []string{got[0].Content, got[1].Content, got[2].Content})
}

func TestRerankTopKLargerThanPool(t *testing.T) {
	candidates := []Chunk{{Content: "một"}, {Content: "hai"}}
	r := NewReranker(&fakeScorer{scores: map[string]float64{"một": 0.2, "hai": 0.9}})

	got, err := r.Rerank(context.Background(), "q", candidates, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "hai", got[0].Content)
}

func TestRerankScorerError(t *testing.T) {
	r := NewReranker(&fakeScorer{err: fmt.Errorf("connection refused")})

	_, err := r.Rerank(context.Background(), "q", []Chunk{{Content: "x"}}, 1)
	require.ErrorIs(t, err, ErrRerankFailed)
}

func TestRerankScoreCountMismatch(t *testing.T) {
	scorer := &mismatchScorer{}
	r := NewReranker(scorer)

	_, err := r.Rerank(context.Background(), "q", []Chunk{{Content: "x"}, {Content: "y"}}, 2)
	require.ErrorIs(t, err, ErrRerankFailed)
}

type mismatchScorer struct{}

func (m *mismatchScorer) Score(context.Context, string, []string) ([]float64, error) {
	return []float64{0.5}, nil
}
