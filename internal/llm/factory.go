package llm

import (
	"context"
	"fmt"
	"praxis_backend/internal/config"

	"go.uber.org/zap"
)

// NewProvider 按配置创建服务商，外层依次包裹重试和日志：
// 调用方 -> retry -> logging -> 服务商。fake 返回 nil，由调用方使用本地评审
func NewProvider(ctx context.Context, cfg config.AIConfig, log *zap.Logger) (Provider, error) {
	var base Provider
	var err error

	switch cfg.Provider {
	case "fake", "":
		return nil, nil
	case "gemini":
		base, err = NewGeminiProvider(ctx, cfg.APIKey, cfg.Model)
	case "openai":
		base, err = NewOpenAIProvider(cfg.APIKey, cfg.Model, cfg.BaseURL)
	case "anthropic":
		base, err = NewAnthropicProvider(cfg.APIKey, cfg.Model)
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	return WithRetry(WithLogging(base, log), DefaultRetryConfig(cfg.MaxRetries)), nil
}
