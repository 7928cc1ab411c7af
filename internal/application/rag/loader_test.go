package rag

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCorpusFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const sampleCSV = "\uFEFF" + `Động từ (Action),Công thức gốc (Original recipes),Nguyên văn ,Ngày xuất bản,Số báo,Báo
Kho cá với nước mắm,Cá kho,Lấy cá rửa sạch rồi kho với nước mắm,"May 10, 2020",12,Phụ Nữ Tân Văn
,,bỏ qua dòng này,"May 11, 2020",13,Phụ Nữ Tân Văn
Luộc rau,,Rau rửa sạch đem luộc,"Jan 2, 1935",3,Ngày Nay
`

func TestLoaderLoad(t *testing.T) {
	dir := t.TempDir()
	writeCorpusFile(t, dir, "data.csv", sampleCSV)

	docs, err := NewLoader(dir, "").Load(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 2)

	first := docs[0]
	assert.Equal(t, "Hành động: Kho cá với nước mắm\nCông thức gốc: Cá kho\nNguyên văn: Lấy cá rửa sạch rồi kho với nước mắm\nBáo: Phụ Nữ Tân Văn\nSố báo: 12\nNgày: May 10, 2020", first.Content)
	assert.Equal(t, "Cá kho (Phụ Nữ Tân Văn, May 10, 2020)", first.Meta.CitationLabel)
	assert.Equal(t, "data.csv", first.Meta.FileName)

	// 缺少原始菜谱名的行仍然加载，但标签回退
	assert.Equal(t, "Unknown Recipe", docs[1].Meta.CitationLabel)
}

func TestLoaderSkipsRowWithoutActionAndRecipe(t *testing.T) {
	dir := t.TempDir()
	writeCorpusFile(t, dir, "data.csv", sampleCSV)

	docs, err := NewLoader(dir, "").Load(context.Background())
	require.NoError(t, err)
	for _, d := range docs {
		assert.False(t, d.Meta.Action == "" && d.Meta.OriginalRecipe == "")
	}
}

func TestLoaderPrefersConfiguredFile(t *testing.T) {
	dir := t.TempDir()
	writeCorpusFile(t, dir, "aaa.csv", sampleCSV)
	writeCorpusFile(t, dir, "data.csv", sampleCSV)

	loader := NewLoader(dir, "")
	path, err := loader.resolveFile()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "data.csv"), path)
}

func TestLoaderFallsBackToFirstCSVSorted(t *testing.T) {
	dir := t.TempDir()
	writeCorpusFile(t, dir, "zzz.csv", sampleCSV)
	writeCorpusFile(t, dir, "aaa.csv", sampleCSV)

	loader := NewLoader(dir, "")
	path, err := loader.resolveFile()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "aaa.csv"), path)
}

func TestLoaderNoCSVFile(t *testing.T) {
	_, err := NewLoader(t.TempDir(), "").Load(context.Background())
	require.ErrorIs(t, err, ErrNoDataFound)
}

func TestLoaderAllRowsSkipped(t *testing.T) {
	dir := t.TempDir()
	writeCorpusFile(t, dir, "data.csv", `Động từ (Action),Công thức gốc (Original recipes),Nguyên văn,Ngày xuất bản,Số báo,Báo
,,chỉ có nguyên văn,"May 10, 2020",1,Báo Xưa
`)

	_, err := NewLoader(dir, "").Load(context.Background())
	require.ErrorIs(t, err, ErrNoDataFound)
}

func TestLoaderHeaderWithoutTrailingSpaceVariant(t *testing.T) {
	dir := t.TempDir()
	writeCorpusFile(t, dir, "data.csv", `Động từ (Action),Công thức gốc (Original recipes),Nguyên văn,Ngày xuất bản,Số báo,Báo
Nướng bánh,Bánh nướng,Nhào bột rồi nướng trên than,"Feb 1, 1940",7,Sài Gòn
`)

	docs, err := NewLoader(dir, "").Load(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "Nhào bột rồi nướng trên than", docs[0].Meta.FullText)
}
