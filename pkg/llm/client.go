// Package llm provides clients for interacting with Large Language Models.
package llm

import (
	"context"
	"fmt"
	"strings"

	"interview-coach-go/internal/config"
)

// Client 是文本补全服务：给定提示词返回一段自由文本。
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// GenerationParams 控制生成行为，零值表示使用服务端默认。
type GenerationParams struct {
	Temperature float32
	TopP        float32
	MaxTokens   int
}

func generationFromConfig(cfg config.LLMConfig) GenerationParams {
	return GenerationParams{
		Temperature: float32(cfg.Generation.Temperature),
		TopP:        float32(cfg.Generation.TopP),
		MaxTokens:   cfg.Generation.MaxTokens,
	}
}

// NewClient creates a new LLM client based on the provider in the config.
func NewClient(ctx context.Context, cfg config.LLMConfig) (Client, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", "openai", "deepseek":
		return NewOpenAIClient(cfg), nil
	case "gemini":
		return NewGeminiClient(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", cfg.Provider)
	}
}
