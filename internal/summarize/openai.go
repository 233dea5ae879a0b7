package summarize

import (
	"context"
	"errors"
	"math"

	"github.com/sashabaranov/go-openai"
)

// OpenAIModel summarizes with an OpenAI-compatible chat completion API.
type OpenAIModel struct {
	client *openai.Client
	model  string
}

func NewOpenAIModel(apiKey, baseURL, model string) *OpenAIModel {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &OpenAIModel{client: openai.NewClientWithConfig(cfg), model: model}
}

func (o *OpenAIModel) Summarize(ctx context.Context, text string, b Bounds) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: "You are a news editor who writes faithful, neutral summaries."},
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(text, b)},
		},
		MaxTokens: b.MaxTokens,
		// temperature is omitempty, so 0 would fall back to the API default
		Temperature: math.SmallestNonzeroFloat32,
		N:           1,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no response from OpenAI")
	}
	return cleanModelOutput(resp.Choices[0].Message.Content), nil
}
