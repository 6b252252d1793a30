package llm

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type purposeKey struct{}

// WithPurpose 标记调用用途，写入日志
func WithPurpose(ctx context.Context, purpose string) context.Context {
	return context.WithValue(ctx, purposeKey{}, purpose)
}

func PurposeFrom(ctx context.Context) string {
	if v, ok := ctx.Value(purposeKey{}).(string); ok {
		return v
	}
	return "unknown"
}

// LoggingProvider 记录每次调用的耗时与 token 用量
type LoggingProvider struct {
	inner Provider
	log   *zap.Logger
}

func WithLogging(p Provider, log *zap.Logger) *LoggingProvider {
	if log == nil {
		log = zap.NewNop()
	}
	return &LoggingProvider{inner: p, log: log}
}

func (l *LoggingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	resp, err := l.inner.Generate(ctx, req)

	fields := []zap.Field{
		zap.String("model", l.inner.ModelID()),
		zap.String("purpose", PurposeFrom(ctx)),
		zap.Duration("latency", time.Since(start)),
	}
	if err != nil {
		l.log.Warn("LLM request failed", append(fields, zap.Error(err))...)
		return nil, err
	}

	l.log.Info("LLM request succeeded", append(fields,
		zap.Int("input_tokens", resp.Usage.InputTokens),
		zap.Int("output_tokens", resp.Usage.OutputTokens),
		zap.String("stop_reason", resp.StopReason),
	)...)
	return resp, nil
}

func (l *LoggingProvider) ModelID() string {
	return l.inner.ModelID()
}
