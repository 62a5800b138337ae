package generation

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// OpenRouterProvider talks to an OpenAI-compatible chat completions
// endpoint (OpenRouter by default) with bearer-token auth.
type OpenRouterProvider struct {
	client *openai.Client
}

func NewOpenRouterProvider(apiKey, baseURL string) *OpenRouterProvider {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenRouterProvider{client: openai.NewClientWithConfig(cfg)}
}

func (p *OpenRouterProvider) Name() string { return "openrouter" }

func (p *OpenRouterProvider) Complete(ctx context.Context, model, prompt string) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens: maxCompletionTokens,
	})
	if err != nil {
		return "", fmt.Errorf("openrouter chat: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openrouter chat: response has no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
