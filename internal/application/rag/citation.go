package rag

import (
	"fmt"
	"strings"
	"time"
)

const (
	unknownRecipeLabel = "Unknown Recipe"
	unknownSourceLabel = "Unknown Source"
)

// 原始语料中的英文出版日期格式
var dateLayouts = []string{"January 2, 2006", "Jan 2, 2006"}

// recordCitationLabel 装载时生成的引用标签
func recordCitationLabel(rec SourceRecord) string {
	if rec.OriginalRecipe == "" {
		return unknownRecipeLabel
	}
	return fmt.Sprintf("%s (%s, %s)", rec.OriginalRecipe, rec.Newspaper, rec.Date)
}

// citationLabel 块级引用标签，元数据缺失时逐级回退
func citationLabel(meta Metadata) string {
	if meta.CitationLabel != "" {
		return meta.CitationLabel
	}
	if meta.OriginalRecipe != "" {
		return fmt.Sprintf("%s (%s, %s)", meta.OriginalRecipe, meta.Newspaper, meta.Date)
	}
	return unknownSourceLabel
}

// LocalizeDate 把 text 中出现的英文日期 date 替换为越南语写法
// "{日} tháng {月}, {年}"。日期解析失败时原样返回；重复调用结果不变。
func LocalizeDate(text, date string) string {
	raw := strings.TrimSpace(date)
	if raw == "" || text == "" {
		return text
	}

	var parsed time.Time
	ok := false
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			parsed, ok = t, true
			break
		}
	}
	if !ok {
		return text
	}

	localized := fmt.Sprintf("%d tháng %d, %d", parsed.Day(), int(parsed.Month()), parsed.Year())
	return strings.ReplaceAll(text, raw, localized)
}
