package llm

import (
	"encoding/json"
	"strings"
)

// cleanJSON 去掉模型偶尔包裹的 markdown 代码块
func cleanJSON(text string) json.RawMessage {
	s := strings.TrimSpace(text)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return json.RawMessage(strings.TrimSpace(s))
}

// finish 清理并校验输出，截断的响应单独报错
func finish(req Request, text, stopReason string) (json.RawMessage, error) {
	content := cleanJSON(text)
	if stopReason == "max_tokens" {
		if err := ValidateJSON(req.Schema, content); err != nil {
			return nil, &ErrMaxTokensExceeded{Content: content}
		}
	}
	if req.Schema != nil {
		if err := ValidateJSON(req.Schema, content); err != nil {
			return nil, err
		}
	}
	return content, nil
}
