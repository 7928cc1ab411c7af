package rag

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIndex(t *testing.T, store *fakeStore, emb *fakeEmbedder) *Index {
	t.Helper()
	dir := t.TempDir()
	writeCorpusFile(t, dir, "data.csv", sampleCSV)
	return NewIndex(NewLoader(dir, ""), NewSplitter(1600, 300), emb, store, 32)
}

func TestBuildOrLoadReusesPersistedIndex(t *testing.T) {
	store := &fakeStore{hasData: true}
	emb := &fakeEmbedder{}
	ix := newTestIndex(t, store, emb)

	require.NoError(t, ix.BuildOrLoad(context.Background(), false))
	assert.True(t, ix.Ready())
	// 已有持久化数据：不嵌入、不写入
	assert.Zero(t, emb.calls.Load())
	assert.Zero(t, store.inserts)
}

func TestBuildOrLoadBuildsWhenEmpty(t *testing.T) {
	store := &fakeStore{}
	emb := &fakeEmbedder{}
	ix := newTestIndex(t, store, emb)

	require.NoError(t, ix.BuildOrLoad(context.Background(), false))
	assert.True(t, ix.Ready())
	assert.Equal(t, 1, store.inserts)
	assert.NotEmpty(t, store.records)
	for _, rec := range store.records {
		assert.NotEmpty(t, rec.ID)
		assert.NotEmpty(t, rec.Vector)
	}
}

func TestBuildOrLoadIdempotent(t *testing.T) {
	store := &fakeStore{}
	ix := newTestIndex(t, store, &fakeEmbedder{})

	require.NoError(t, ix.BuildOrLoad(context.Background(), false))
	require.NoError(t, ix.BuildOrLoad(context.Background(), false))
	assert.Equal(t, 1, store.inserts)
}

func TestBuildOrLoadForceRebuilds(t *testing.T) {
	store := &fakeStore{hasData: true}
	ix := newTestIndex(t, store, &fakeEmbedder{})

	require.NoError(t, ix.BuildOrLoad(context.Background(), true))
	assert.Equal(t, 1, store.resets)
	assert.Equal(t, 1, store.inserts)
}

func TestBuildOrLoadConcurrentSingleBuild(t *testing.T) {
	store := &fakeStore{}
	ix := newTestIndex(t, store, &fakeEmbedder{})

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = ix.BuildOrLoad(context.Background(), false)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	// 并发首次构建只允许发生一次
	assert.Equal(t, 1, store.inserts)
}

func TestBuildOrLoadEmbeddingFailureLeavesStoreUntouched(t *testing.T) {
	store := &fakeStore{}
	ix := newTestIndex(t, store, &fakeEmbedder{err: errors.New("model offline")})

	err := ix.BuildOrLoad(context.Background(), false)
	require.ErrorIs(t, err, ErrEmbeddingFailed)
	assert.False(t, ix.Ready())
	assert.Zero(t, store.inserts)
	assert.Zero(t, store.resets)
}

func TestBuildOrLoadNoData(t *testing.T) {
	ix := NewIndex(NewLoader(t.TempDir(), ""), NewSplitter(1600, 300), &fakeEmbedder{}, &fakeStore{}, 32)

	err := ix.BuildOrLoad(context.Background(), false)
	require.ErrorIs(t, err, ErrNoDataFound)
	assert.False(t, ix.Ready())
}

func TestBuildOrLoadInsertFailure(t *testing.T) {
	store := &fakeStore{insertErr: errors.New("disk full")}
	ix := newTestIndex(t, store, &fakeEmbedder{})

	err := ix.BuildOrLoad(context.Background(), false)
	require.ErrorIs(t, err, ErrIndexPersistence)
	assert.False(t, ix.Ready())
}

func TestSearchTriggersLazyBuild(t *testing.T) {
	hit := caKhoChunk()
	store := &fakeStore{searchHit: []Chunk{hit}}
	ix := newTestIndex(t, store, &fakeEmbedder{})

	got, err := ix.Search(context.Background(), "nỗi buồn", 5)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, hit.Content, got[0].Content)
	assert.True(t, ix.Ready())
}

func TestSearchEmbeddingFailure(t *testing.T) {
	store := &fakeStore{hasData: true}
	emb := &fakeEmbedder{err: errors.New("model offline")}
	ix := newTestIndex(t, store, emb)

	_, err := ix.Search(context.Background(), "q", 5)
	require.ErrorIs(t, err, ErrEmbeddingFailed)
}

func TestSearchStoreFailure(t *testing.T) {
	store := &fakeStore{hasData: true, searchErr: errors.New("collection dropped")}
	ix := newTestIndex(t, store, &fakeEmbedder{})

	_, err := ix.Search(context.Background(), "q", 5)
	require.ErrorIs(t, err, ErrIndexPersistence)
}
