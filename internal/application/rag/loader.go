package rag

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"poetry-chef-api/pkg/logger"
)

// 语料 CSV 的列名（历史数据原样保留，含带尾随空格的变体）
const (
	colAction         = "Động từ (Action)"
	colOriginalRecipe = "Công thức gốc (Original recipes)"
	colFullText       = "Nguyên văn"
	colFullTextAlt    = "Nguyên văn "
	colDate           = "Ngày xuất bản"
	colIssue          = "Số báo"
	colNewspaper      = "Báo"
)

// Loader 从语料目录加载并规范化 CSV 数据
type Loader struct {
	dataDir       string
	preferredFile string
}

// NewLoader 创建语料加载器；preferredFile 为空时默认 data.csv
func NewLoader(dataDir, preferredFile string) *Loader {
	if preferredFile == "" {
		preferredFile = "data.csv"
	}
	return &Loader{dataDir: dataDir, preferredFile: preferredFile}
}

// Load 加载语料并转换为文档；目录下没有 CSV 或没有有效行时返回 ErrNoDataFound
func (l *Loader) Load(ctx context.Context) ([]Document, error) {
	path, err := l.resolveFile()
	if err != nil {
		return nil, err
	}

	records, err := l.readRecords(path)
	if err != nil {
		return nil, err
	}

	docs := make([]Document, 0, len(records))
	for _, rec := range records {
		docs = append(docs, buildDocument(rec))
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: %s has no usable rows", ErrNoDataFound, path)
	}

	logger.Info(ctx, "语料加载完成",
		"file", path,
		"documents", len(docs),
	)
	return docs, nil
}

// resolveFile 优先使用配置的首选文件，否则按文件名排序取第一个 CSV
func (l *Loader) resolveFile() (string, error) {
	preferred := filepath.Join(l.dataDir, l.preferredFile)
	if info, err := os.Stat(preferred); err == nil && !info.IsDir() {
		return preferred, nil
	}

	matches, err := filepath.Glob(filepath.Join(l.dataDir, "*.csv"))
	if err != nil {
		return "", fmt.Errorf("%w: scan %s: %v", ErrNoDataFound, l.dataDir, err)
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("%w: no csv file in %s", ErrNoDataFound, l.dataDir)
	}
	sort.Strings(matches)
	return matches[0], nil
}

// readRecords 读取 CSV 行；容忍 UTF-8 BOM；动作与原始菜谱同时为空的行跳过
func (l *Loader) readRecords(path string) ([]SourceRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrNoDataFound, path, err)
	}
	content := strings.TrimPrefix(string(data), "\uFEFF")

	reader := csv.NewReader(strings.NewReader(content))
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrNoDataFound, path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrNoDataFound, path)
	}

	header := rows[0]
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[name] = i
	}
	field := func(row []string, name string) string {
		i, ok := index[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	records := make([]SourceRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		fullText := field(row, colFullText)
		if fullText == "" {
			fullText = field(row, colFullTextAlt)
		}
		rec := SourceRecord{
			Action:         field(row, colAction),
			OriginalRecipe: field(row, colOriginalRecipe),
			FullText:       fullText,
			Date:           field(row, colDate),
			Issue:          field(row, colIssue),
			Newspaper:      field(row, colNewspaper),
			SourcePath:     path,
		}
		if rec.Action == "" && rec.OriginalRecipe == "" {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// buildDocument 渲染文档正文并挂载引用元数据
func buildDocument(rec SourceRecord) Document {
	content := fmt.Sprintf(
		"Hành động: %s\nCông thức gốc: %s\nNguyên văn: %s\nBáo: %s\nSố báo: %s\nNgày: %s",
		rec.Action, rec.OriginalRecipe, rec.FullText, rec.Newspaper, rec.Issue, rec.Date,
	)
	return Document{
		Content: content,
		Meta: Metadata{
			SourcePath:     rec.SourcePath,
			FileName:       filepath.Base(rec.SourcePath),
			Action:         rec.Action,
			OriginalRecipe: rec.OriginalRecipe,
			FullText:       rec.FullText,
			Date:           rec.Date,
			Issue:          rec.Issue,
			Newspaper:      rec.Newspaper,
			CitationLabel:  recordCitationLabel(rec),
		},
	}
}
