package llm

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"interview-coach-go/internal/config"
)

// openAIClient 适配任意 OpenAI 兼容的 chat completions 接口（OpenAI、DeepSeek 等）。
type openAIClient struct {
	client *openai.Client
	model  string
	gen    GenerationParams
}

// NewOpenAIClient 创建 OpenAI 兼容客户端，BaseURL 为空时使用官方地址。
func NewOpenAIClient(cfg config.LLMConfig) Client {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	return &openAIClient{
		client: openai.NewClientWithConfig(oc),
		model:  cfg.Model,
		gen:    generationFromConfig(cfg),
	}
}

func (c *openAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: c.gen.Temperature,
		TopP:        c.gen.TopP,
		MaxTokens:   c.gen.MaxTokens,
	}
	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("failed to call chat api: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat api returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
