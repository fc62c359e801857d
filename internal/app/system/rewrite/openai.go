// internal/app/system/rewrite/openai.go
package rewrite

import (
	"context"
	"errors"
	"fmt"
	"math"

	openai "github.com/sashabaranov/go-openai"
)

// Defaults for OpenAIGenerator.
const (
	DefaultModel       = "gpt-4o-mini"
	DefaultTemperature = 0.4
)

// OpenAIConfig configures an OpenAIGenerator. BaseURL may point at any
// OpenAI-compatible chat completions endpoint. Temperature 0 is honored;
// a negative value selects DefaultTemperature.
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
}

// OpenAIGenerator sends the prompt as a single user message.
type OpenAIGenerator struct {
	client      *openai.Client
	model       string
	temperature float32
}

func NewOpenAIGenerator(cfg OpenAIConfig) (*OpenAIGenerator, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai api key is empty")
	}
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	temp := cfg.Temperature
	if temp < 0 {
		temp = DefaultTemperature
	}
	return &OpenAIGenerator{
		client:      openai.NewClientWithConfig(oc),
		model:       model,
		temperature: float32(temp),
	}, nil
}

func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	// The request field is omitempty, so a literal 0 would be dropped and
	// the server default used instead.
	temp := g.temperature
	if temp == 0 {
		temp = math.SmallestNonzeroFloat32
	}
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.model,
		Temperature: temp,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
