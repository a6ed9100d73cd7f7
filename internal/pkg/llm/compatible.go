package llm

import (
	"context"
	"errors"
	"math"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// compatibleBackend talks to any endpoint that speaks the OpenAI chat
// completions protocol.
type compatibleBackend struct {
	client *openai.Client
	model  string
}

func newCompatibleBackend(apiKey, endpoint, model string) (*compatibleBackend, error) {
	base := normalizeOpenAIBaseURL(endpoint)
	if base == "" {
		return nil, errors.New("openai-compatible endpoint is empty")
	}
	if strings.TrimSpace(model) == "" {
		return nil, errors.New("AI model is empty")
	}
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = base
	return &compatibleBackend{
		client: openai.NewClientWithConfig(cfg),
		model:  strings.TrimSpace(model),
	}, nil
}

func (b *compatibleBackend) generate(ctx context.Context, req Request) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if strings.TrimSpace(req.System) != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxOutputTokens
	}
	// A zero temperature is dropped by omitempty, so send the smallest
	// positive value instead.
	temperature := float32(req.Temperature)
	if temperature <= 0 {
		temperature = math.SmallestNonzeroFloat32
	}

	rsp, err := b.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       b.model,
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return "", err
	}
	if len(rsp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}
	return rsp.Choices[0].Message.Content, nil
}
