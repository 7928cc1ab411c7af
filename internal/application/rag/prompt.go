package rag

import (
	"embed"
	"fmt"
	"strings"
	"sync"

	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

//go:embed templates/*.txt
var templatesFS embed.FS

// PromptVariant 系统提示词变体标识
type PromptVariant string

const (
	// PromptPoetryChefV1 初版提示词
	PromptPoetryChefV1 PromptVariant = "poetry_chef_v1"
	// PromptPoetryChefV2 加入"原料替换黄金法则"的收紧版
	PromptPoetryChefV2 PromptVariant = "poetry_chef_v2"
)

// PromptRegistry 提示词模板注册表，模板编译进二进制并按需缓存
type PromptRegistry struct {
	mu    sync.RWMutex
	cache map[PromptVariant]einoprompt.ChatTemplate
}

// NewPromptRegistry 创建注册表
func NewPromptRegistry() *PromptRegistry {
	return &PromptRegistry{
		cache: make(map[PromptVariant]einoprompt.ChatTemplate),
	}
}

// ChatTemplate 获取指定变体的对话模板
func (r *PromptRegistry) ChatTemplate(variant PromptVariant) (einoprompt.ChatTemplate, error) {
	if r == nil {
		return nil, fmt.Errorf("prompt registry is nil")
	}

	r.mu.RLock()
	if tpl, ok := r.cache[variant]; ok {
		r.mu.RUnlock()
		return tpl, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if tpl, ok := r.cache[variant]; ok {
		return tpl, nil
	}

	systemPath, userPath, err := resolvePromptFiles(variant)
	if err != nil {
		return nil, err
	}
	system, err := readEmbeddedText(systemPath)
	if err != nil {
		return nil, err
	}
	user, err := readEmbeddedText(userPath)
	if err != nil {
		return nil, err
	}

	tpl := einoprompt.FromMessages(
		schema.FString,
		schema.SystemMessage(system),
		schema.UserMessage(user),
	)
	r.cache[variant] = tpl
	return tpl, nil
}

func resolvePromptFiles(variant PromptVariant) (systemFile string, userFile string, err error) {
	switch variant {
	case PromptPoetryChefV1:
		return "templates/poetry_chef_v1.system.txt", "templates/poetry_chef_v1.user.txt", nil
	case PromptPoetryChefV2:
		return "templates/poetry_chef_v2.system.txt", "templates/poetry_chef_v2.user.txt", nil
	default:
		return "", "", fmt.Errorf("unknown prompt variant: %s", variant)
	}
}

func readEmbeddedText(path string) (string, error) {
	b, err := templatesFS.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}
