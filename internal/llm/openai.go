// Package llm wraps the text generation model used to answer questions.
package llm

import (
	"context"
	"strings"

	"github.com/cloo-solutions/docrag/internal/domain"
	openai "github.com/sashabaranov/go-openai"
)

// DefaultModel is the chat model used when none is configured.
const DefaultModel = openai.GPT4oMini

// ChatAPI is the subset of the go-openai client used for generation.
type ChatAPI interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Config configures the OpenAI-compatible generator. BaseURL lets the same
// client talk to any server exposing the chat completions API.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
}

// Generator turns a prompt into a single completion.
type Generator struct {
	api         ChatAPI
	model       string
	temperature float32
}

// NewGenerator creates a Generator backed by the go-openai client.
func NewGenerator(cfg Config) *Generator {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return NewGeneratorWithAPI(openai.NewClientWithConfig(clientCfg), cfg.Model, cfg.Temperature)
}

// NewGeneratorWithAPI creates a Generator over an existing chat client.
func NewGeneratorWithAPI(api ChatAPI, model string, temperature float32) *Generator {
	if model == "" {
		model = DefaultModel
	}
	return &Generator{api: api, model: model, temperature: temperature}
}

// Generate sends prompt as one user message and returns the trimmed reply.
// Transport failures and empty replies are upstream errors.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.model,
		Temperature: g.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", domain.NewUpstreamError("failed to generate answer", err)
	}
	if len(resp.Choices) == 0 {
		return "", domain.NewUpstreamError("model returned no choices", nil)
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", domain.NewUpstreamError("model returned an empty response", nil)
	}
	return text, nil
}
