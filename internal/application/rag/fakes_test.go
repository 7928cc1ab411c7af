package rag

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// fakeEmbedder 返回确定性向量，记录调用次数
type fakeEmbedder struct {
	calls atomic.Int64
	err   error
}

func (f *fakeEmbedder) EmbedStrings(_ context.Context, texts []string, _ ...embedding.Option) ([][]float64, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float64, len(texts))
	for i, text := range texts {
		out[i] = []float64{float64(len(text)), 1}
	}
	return out, nil
}

// fakeStore 内存向量库
type fakeStore struct {
	mu        sync.Mutex
	hasData   bool
	records   []*ChunkRecord
	resets    int
	inserts   int
	searchHit []Chunk

	hasErr    error
	insertErr error
	searchErr error
}

func (f *fakeStore) HasIndexData(context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.hasErr != nil {
		return false, f.hasErr
	}
	return f.hasData, nil
}

func (f *fakeStore) EnsureCollection(context.Context) error { return nil }

func (f *fakeStore) Reset(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets++
	f.records = nil
	f.hasData = false
	return nil
}

func (f *fakeStore) Insert(_ context.Context, records []*ChunkRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserts++
	f.records = append(f.records, records...)
	f.hasData = true
	return nil
}

func (f *fakeStore) Search(context.Context, []float32, int) ([]Chunk, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.searchHit, nil
}

// fakeScorer 按预置分数表打分
type fakeScorer struct {
	scores map[string]float64
	calls  int
	err    error
}

func (f *fakeScorer) Score(_ context.Context, _ string, texts []string) ([]float64, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([]float64, len(texts))
	for i, text := range texts {
		out[i] = f.scores[text]
	}
	return out, nil
}

// fakeChatModel 记录最近一次调用的消息与选项
type fakeChatModel struct {
	mu       sync.Mutex
	content  string
	err      error
	messages []*schema.Message
	lastOpts []model.Option
	calls    int
}

func (f *fakeChatModel) Generate(_ context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.messages = input
	f.lastOpts = opts
	if f.err != nil {
		return nil, f.err
	}
	return &schema.Message{Role: schema.Assistant, Content: f.content}, nil
}

func (f *fakeChatModel) Stream(context.Context, []*schema.Message, ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("stream not supported")
}

func (f *fakeChatModel) lastTemperature() *float32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return model.GetCommonOptions(&model.Options{}, f.lastOpts...).Temperature
}
