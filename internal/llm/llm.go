// Package llm generates text from a prompt through a chat completion API.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

// Generator produces a single completion for prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// ErrNotConfigured is returned by Unconfigured for every call.
var ErrNotConfigured = errors.New("LLM_API_KEY environment variable is required")

// Unconfigured is the Generator used when no API key is set.
type Unconfigured struct{}

// Generate always fails with ErrNotConfigured.
func (Unconfigured) Generate(context.Context, string, int) (string, error) {
	return "", ErrNotConfigured
}

// Config holds the chat completion endpoint settings.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
}

// NewOpenAI creates a Generator for any OpenAI-compatible endpoint.
// Requests are never retried.
func NewOpenAI(cfg Config) *OpenAI {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAI{
		client: openai.NewClient(opts...),
		model:  cfg.Model,
	}
}

// OpenAI generates text with the chat completions API.
type OpenAI struct {
	client openai.Client
	model  string
}

func (g *OpenAI) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	params := openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			{
				OfUser: &openai.ChatCompletionUserMessageParam{
					Content: openai.ChatCompletionUserMessageParamContentUnion{
						OfString: openai.String(prompt),
					},
				},
			},
		},
		Model: shared.ChatModel(g.model),
	}
	if maxTokens > 0 {
		params.MaxTokens = openai.Int(int64(maxTokens))
	}

	completion, err := g.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("client.Chat.Completions.New failed: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", errors.New("completion has no choices")
	}

	return strings.TrimSpace(completion.Choices[0].Message.Content), nil
}
