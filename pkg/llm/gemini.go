package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"interview-coach-go/internal/config"
)

type geminiClient struct {
	client *genai.Client
	model  string
	gen    GenerationParams
}

// NewGeminiClient 创建基于 Gemini API 的客户端。
func NewGeminiClient(ctx context.Context, cfg config.LLMConfig) (Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	model := cfg.Model
	if model == "" {
		model = "gemini-2.5-flash"
	}
	return &geminiClient{client: client, model: model, gen: generationFromConfig(cfg)}, nil
}

func (g *geminiClient) Complete(ctx context.Context, prompt string) (string, error) {
	gc := &genai.GenerateContentConfig{}
	if g.gen.Temperature != 0 {
		t := g.gen.Temperature
		gc.Temperature = &t
	}
	if g.gen.TopP != 0 {
		p := g.gen.TopP
		gc.TopP = &p
	}
	if g.gen.MaxTokens != 0 {
		gc.MaxOutputTokens = int32(g.gen.MaxTokens)
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), gc)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}
	if resp == nil {
		return "", fmt.Errorf("no response generated (nil response)")
	}
	return resp.Text(), nil
}
