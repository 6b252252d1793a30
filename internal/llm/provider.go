package llm

import (
	"context"
	"encoding/json"
)

// Provider 大模型调用的统一抽象，返回结构化 JSON
type Provider interface {
	Generate(ctx context.Context, req Request) (*Response, error)
	ModelID() string
}

type Request struct {
	System   string
	Messages []Message

	// Schema 非空时要求模型按 JSON Schema 输出
	Schema *Schema

	MaxTokens   int
	Temperature float64
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role    Role
	Content string
}

// Schema Name 同时作为 OpenAI 的 schema 名和校验缓存键
type Schema struct {
	Name        string
	Description string
	Definition  map[string]any
}

type Response struct {
	Content    json.RawMessage
	Usage      Usage
	Model      string
	StopReason string // end | max_tokens
}

type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// UserPrompt 单轮请求
func UserPrompt(system, prompt string, schema *Schema) Request {
	return Request{
		System:   system,
		Messages: []Message{{Role: RoleUser, Content: prompt}},
		Schema:   schema,
	}
}

// resolveModel 别名映射到模型 ID，未登记的名字原样使用
func resolveModel(name string, aliases map[string]string) string {
	if id, ok := aliases[name]; ok {
		return id
	}
	return name
}
