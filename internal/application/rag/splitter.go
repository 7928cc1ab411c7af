package rag

import (
	"strings"
	"unicode/utf8"
)

// 切分分隔符优先级：段落、行、词、字符
var defaultSeparators = []string{"\n\n", "\n", " ", ""}

// Splitter 按分隔符优先级递归切分文本，长度以 rune 计
type Splitter struct {
	chunkSize    int
	chunkOverlap int
	separators   []string
}

// NewSplitter 创建切分器；非法参数回退到默认值
func NewSplitter(chunkSize, chunkOverlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = 1600
	}
	if chunkOverlap < 0 {
		chunkOverlap = 0
	}
	if chunkOverlap >= chunkSize {
		chunkOverlap = chunkSize - 1
	}
	return &Splitter{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		separators:   defaultSeparators,
	}
}

// SplitDocuments 切分文档集合，每个块继承父文档全部元数据
func (s *Splitter) SplitDocuments(docs []Document) []Chunk {
	var chunks []Chunk
	for _, doc := range docs {
		for _, piece := range s.SplitText(doc.Content) {
			chunks = append(chunks, Chunk{Content: piece, Meta: doc.Meta})
		}
	}
	return chunks
}

// SplitText 切分单段文本；不超过 chunkSize 的文本原样返回
func (s *Splitter) SplitText(text string) []string {
	return s.split(text, s.separators)
}

func (s *Splitter) split(text string, separators []string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if utf8.RuneCountInString(text) <= s.chunkSize {
		return []string{text}
	}
	if len(separators) == 0 {
		// 分隔符用尽：原子单元超限时整体保留，不截断
		return []string{text}
	}

	sep := separators[0]
	rest := separators[1:]
	if sep == "" {
		return splitByRunes(text, s.chunkSize, s.chunkOverlap)
	}

	return s.merge(strings.Split(text, sep), sep, rest)
}

// merge 把片段重新拼成不超过 chunkSize 的块，
// 相邻块之间按 chunkOverlap 预算携带上一块的尾部片段。
func (s *Splitter) merge(parts []string, sep string, rest []string) []string {
	sepLen := utf8.RuneCountInString(sep)

	var out []string
	var cur []string
	curLen := 0

	appendChunk := func(pieces []string) {
		joined := strings.Join(pieces, sep)
		if strings.TrimSpace(joined) == "" {
			return
		}
		out = append(out, joined)
	}

	carryTail := func() ([]string, int) {
		var carry []string
		carryLen := 0
		for i := len(cur) - 1; i >= 0; i-- {
			l := utf8.RuneCountInString(cur[i])
			if len(carry) > 0 {
				l += sepLen
			}
			if carryLen+l > s.chunkOverlap {
				break
			}
			carry = append([]string{cur[i]}, carry...)
			carryLen += l
		}
		return carry, carryLen
	}

	for _, part := range parts {
		partLen := utf8.RuneCountInString(part)

		if partLen > s.chunkSize {
			// 单片段仍超限：落盘当前块后用下一级分隔符下钻
			appendChunk(cur)
			cur, curLen = nil, 0
			out = append(out, s.split(part, rest)...)
			continue
		}

		add := partLen
		if curLen > 0 {
			add += sepLen
		}
		if curLen > 0 && curLen+add > s.chunkSize {
			appendChunk(cur)
			cur, curLen = carryTail()
			add = partLen
			if curLen > 0 {
				add += sepLen
			}
		}
		cur = append(cur, part)
		curLen += add
	}
	appendChunk(cur)
	return out
}

// splitByRunes 字符级滑动窗口切分
func splitByRunes(text string, size, overlap int) []string {
	runes := []rune(text)
	step := size - overlap
	if step <= 0 {
		step = size
	}

	var out []string
	for start := 0; start < len(runes); start += step {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return out
}
