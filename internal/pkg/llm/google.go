package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	genaiopt "google.golang.org/api/option"
)

type googleBackend struct {
	client *genai.Client
	model  string
}

func newGoogleBackend(apiKey, model string) (*googleBackend, error) {
	client, err := genai.NewClient(context.Background(), genaiopt.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create google client: %w", err)
	}
	return &googleBackend{client: client, model: strings.TrimSpace(model)}, nil
}

func (b *googleBackend) generate(ctx context.Context, req Request) (string, error) {
	// GenerativeModel carries per-call settings, so build a fresh one each time.
	model := b.client.GenerativeModel(b.model)
	model.SetTemperature(float32(req.Temperature))
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxOutputTokens
	}
	model.SetMaxOutputTokens(int32(maxTokens))
	if strings.TrimSpace(req.System) != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(req.System)}}
	}

	rsp, err := model.GenerateContent(ctx, genai.Text(req.Prompt))
	if err != nil {
		return "", err
	}
	if len(rsp.Candidates) == 0 || rsp.Candidates[0].Content == nil {
		return "", ErrEmptyCompletion
	}

	var out strings.Builder
	for _, part := range rsp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			out.WriteString(string(text))
		}
	}
	return out.String(), nil
}
